package health

import (
	"context"
	"fmt"

	"github.com/opensearch-project/opensearch-go"
)

// OpenSearchChecker pings the cluster.
type OpenSearchChecker struct {
	client *opensearch.Client
}

func NewOpenSearchChecker(client *opensearch.Client) *OpenSearchChecker {
	return &OpenSearchChecker{client: client}
}

func (c *OpenSearchChecker) Name() string {
	return "opensearch"
}

func (c *OpenSearchChecker) Check(ctx context.Context) Result {
	res, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		return Result{Status: StatusDown, Message: err.Error()}
	}
	defer res.Body.Close()
	if res.IsError() {
		return Result{Status: StatusDown, Message: fmt.Sprintf("ping status %d", res.StatusCode)}
	}
	return Result{Status: StatusUp}
}
