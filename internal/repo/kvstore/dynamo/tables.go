package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TableAdmin is the slice of the client needed to provision tables.
type TableAdmin interface {
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// CreateTables provisions every table of schema with on-demand billing and
// waits up to wait for each to become active. Existing tables are left
// untouched.
func CreateTables(ctx context.Context, client TableAdmin, schema kv.Schema, names map[kv.TableName]string, wait time.Duration) error {
	s := &Store{tables: names}
	waiter := dynamodb.NewTableExistsWaiter(client)

	for _, table := range schema.Tables() {
		input := createTableInput(table)
		input.TableName = s.tableName(table.Name)

		_, err := client.CreateTable(ctx, input)
		var inUse *types.ResourceInUseException
		switch {
		case errors.As(err, &inUse):
			slog.InfoContext(ctx, "Table already exists", "table", *input.TableName)
		case err != nil:
			return fmt.Errorf("create table %s: %w", *input.TableName, err)
		default:
			slog.InfoContext(ctx, "Table created", "table", *input.TableName)
		}

		if wait <= 0 {
			continue
		}
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: input.TableName}, wait); err != nil {
			return fmt.Errorf("wait for table %s: %w", *input.TableName, err)
		}
	}
	return nil
}

func createTableInput(table kv.TableSchema) *dynamodb.CreateTableInput {
	attrs := map[string]struct{}{}
	for _, a := range table.Key.Attributes() {
		attrs[a] = struct{}{}
	}

	var gsis []types.GlobalSecondaryIndex
	for _, name := range table.IndexNames() {
		ks := table.Indexes[name]
		for _, a := range ks.Attributes() {
			attrs[a] = struct{}{}
		}
		gsis = append(gsis, types.GlobalSecondaryIndex{
			IndexName:  aws.String(string(name)),
			KeySchema:  keySchema(ks),
			Projection: &types.Projection{ProjectionType: types.ProjectionTypeAll},
		})
	}

	names := make([]string, 0, len(attrs))
	for a := range attrs {
		names = append(names, a)
	}
	sort.Strings(names)
	defs := make([]types.AttributeDefinition, len(names))
	for i, a := range names {
		defs[i] = types.AttributeDefinition{AttributeName: aws.String(a), AttributeType: types.ScalarAttributeTypeS}
	}

	return &dynamodb.CreateTableInput{
		AttributeDefinitions:   defs,
		KeySchema:              keySchema(table.Key),
		GlobalSecondaryIndexes: gsis,
		BillingMode:            types.BillingModePayPerRequest,
	}
}

func keySchema(ks kv.KeySchema) []types.KeySchemaElement {
	out := []types.KeySchemaElement{{AttributeName: aws.String(ks.PartitionKey), KeyType: types.KeyTypeHash}}
	if ks.HasSortKey() {
		out = append(out, types.KeySchemaElement{AttributeName: aws.String(ks.SortKey), KeyType: types.KeyTypeRange})
	}
	return out
}
