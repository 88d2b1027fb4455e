package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAdmin struct {
	existing map[string]bool
	created  []*dynamodb.CreateTableInput
	fail     error
}

func (f *fakeAdmin) CreateTable(_ context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	if f.existing[aws.ToString(in.TableName)] {
		return nil, &types.ResourceInUseException{Message: aws.String("Table already exists")}
	}
	f.created = append(f.created, in)
	return &dynamodb.CreateTableOutput{}, nil
}

func (f *fakeAdmin) DescribeTable(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return nil, errors.New("waiter must not run")
}

func TestCreateTables(t *testing.T) {
	ctx := context.Background()

	t.Run("should create missing tables with their indexes", func(t *testing.T) {
		// given
		admin := &fakeAdmin{existing: map[string]bool{physical[kv.CardTransactions]: true}}

		// when
		err := CreateTables(ctx, admin, kv.DefaultSchema(), physical, 0)

		// then
		require.NoError(t, err)
		require.Len(t, admin.created, 1)
		in := admin.created[0]
		assert.Equal(t, physical[kv.Cases], aws.ToString(in.TableName))
		assert.Equal(t, types.BillingModePayPerRequest, in.BillingMode)
		assert.Len(t, in.GlobalSecondaryIndexes, 2)
		assert.Equal(t, "case_id", aws.ToString(in.KeySchema[0].AttributeName))

		var attrs []string
		for _, d := range in.AttributeDefinitions {
			attrs = append(attrs, aws.ToString(d.AttributeName))
		}
		assert.Equal(t, []string{"case_id", "created_at", "customer_id", "transaction_id"}, attrs)
	})

	t.Run("should surface other create errors", func(t *testing.T) {
		admin := &fakeAdmin{fail: errors.New("access denied")}

		err := CreateTables(ctx, admin, kv.DefaultSchema(), physical, 0)

		assert.ErrorContains(t, err, "access denied")
	})
}
