package health

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableDescriber is the slice of the DynamoDB client the checker needs.
type TableDescriber interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoDBChecker reports down unless every table is ACTIVE.
type DynamoDBChecker struct {
	client TableDescriber
	tables []string
}

func NewDynamoDBChecker(client TableDescriber, tables ...string) *DynamoDBChecker {
	return &DynamoDBChecker{client: client, tables: tables}
}

func (c *DynamoDBChecker) Name() string {
	return "dynamodb"
}

func (c *DynamoDBChecker) Check(ctx context.Context) Result {
	for _, table := range c.tables {
		out, err := c.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
		if err != nil {
			return Result{Status: StatusDown, Message: fmt.Sprintf("%s: %v", table, err)}
		}
		if out.Table == nil || out.Table.TableStatus != types.TableStatusActive {
			return Result{Status: StatusDown, Message: fmt.Sprintf("%s: table not active", table)}
		}
	}
	return Result{Status: StatusUp}
}
