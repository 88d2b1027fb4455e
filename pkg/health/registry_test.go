package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type staticChecker struct {
	name   string
	result Result
}

func (c staticChecker) Name() string { return c.name }

func (c staticChecker) Check(context.Context) Result { return c.result }

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type describer struct {
	status types.TableStatus
	err    error
}

func (d describer) DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	if d.err != nil {
		return nil, d.err
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableStatus: d.status}}, nil
}

func TestRegistry_CheckAll(t *testing.T) {
	testCases := []struct {
		name     string
		checkers []Checker
		expected Status
	}{
		{
			name:     "no checkers is up",
			expected: StatusUp,
		},
		{
			name: "all up",
			checkers: []Checker{
				staticChecker{name: "a", result: Result{Status: StatusUp}},
				NewPostgresChecker(pingerFunc(func(context.Context) error { return nil })),
			},
			expected: StatusUp,
		},
		{
			name: "one down",
			checkers: []Checker{
				staticChecker{name: "a", result: Result{Status: StatusUp}},
				NewPostgresChecker(pingerFunc(func(context.Context) error { return errors.New("refused") })),
			},
			expected: StatusDown,
		},
		{
			name: "optional sink down is degraded",
			checkers: []Checker{
				NewPostgresChecker(pingerFunc(func(context.Context) error { return nil })),
				Optional(staticChecker{name: "kafka", result: Result{Status: StatusDown}}),
			},
			expected: StatusDegraded,
		},
		{
			name: "required down wins over optional down",
			checkers: []Checker{
				Optional(staticChecker{name: "opensearch", result: Result{Status: StatusDown}}),
				staticChecker{name: "dynamodb", result: Result{Status: StatusDown}},
			},
			expected: StatusDown,
		},
		{
			name: "dynamodb table still creating",
			checkers: []Checker{
				NewDynamoDBChecker(describer{status: types.TableStatusCreating}, "cases"),
			},
			expected: StatusDown,
		},
		{
			name: "dynamodb active",
			checkers: []Checker{
				NewDynamoDBChecker(describer{status: types.TableStatusActive}, "cases", "card_transactions"),
			},
			expected: StatusUp,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := NewRegistry(tc.checkers...).CheckAll(context.Background())
			assert.Equal(t, tc.expected, res.Status)
			assert.Len(t, res.Checks, len(tc.checkers))
		})
	}
}

func TestReadinessHandler_ReturnsServiceUnavailable(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	registry := NewRegistry(staticChecker{name: "x", result: Result{Status: StatusDown, Message: "nope"}})
	engine.GET("/health/ready", ReadinessHandler(registry, time.Second))
	engine.GET("/health/live", LivenessHandler())

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadinessHandler_DegradedIsReady(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	registry := NewRegistry(
		staticChecker{name: "postgres", result: Result{Status: StatusUp}},
		Optional(staticChecker{name: "kafka", result: Result{Status: StatusDown, Message: "refused"}}),
	)
	engine.GET("/health/ready", ReadinessHandler(registry, 0))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"degraded"`)
	assert.Contains(t, rec.Body.String(), `"optional":true`)
}

func TestKafkaChecker_NoBrokers(t *testing.T) {
	res := NewKafkaChecker(nil).Check(context.Background())

	assert.Equal(t, StatusDown, res.Status)
	assert.Equal(t, "no brokers configured", res.Message)
}
