// Package dynamo implements kv.Store on Amazon DynamoDB.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
)

var _ kv.Store = (*Store)(nil)

type Store struct {
	client Client
	tables map[kv.TableName]string
}

// New maps logical table names to physical DynamoDB table names. Tables
// missing from the map use their logical name.
func New(client Client, tables map[kv.TableName]string) *Store {
	return &Store{client: client, tables: tables}
}

func (s *Store) tableName(name kv.TableName) *string {
	if physical, ok := s.tables[name]; ok && physical != "" {
		return aws.String(physical)
	}
	return aws.String(string(name))
}

func (s *Store) GetItem(ctx context.Context, req kv.GetRequest) (kv.Item, bool, error) {
	key, err := marshalItem(req.Key)
	if err != nil {
		return nil, false, err
	}

	input := &dynamodb.GetItemInput{
		TableName:      s.tableName(req.Table.Name),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	}
	if proj, ok := projection(req.Projection); ok {
		expr, err := expression.NewBuilder().WithProjection(proj).Build()
		if err != nil {
			return nil, false, fmt.Errorf("build projection: %w", err)
		}
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
	}

	out, err := s.client.GetItem(ctx, input)
	if err != nil {
		return nil, false, mapError("get item", err)
	}
	if len(out.Item) == 0 {
		return nil, false, nil
	}

	item, err := unmarshalItem(out.Item)
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

func (s *Store) Query(ctx context.Context, req kv.QueryRequest) (kv.Page, error) {
	keyCond, err := keyCondition(req.Condition)
	if err != nil {
		return kv.Page{}, err
	}

	builder := expression.NewBuilder().WithKeyCondition(keyCond)
	if cond, ok, err := equalities(req.Filter); err != nil {
		return kv.Page{}, err
	} else if ok {
		builder = builder.WithFilter(cond)
	}
	if proj, ok := projection(req.Projection); ok {
		builder = builder.WithProjection(proj)
	}
	expr, err := builder.Build()
	if err != nil {
		return kv.Page{}, fmt.Errorf("build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 s.tableName(req.Table.Name),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(!req.Descending),
	}
	if req.Index != "" {
		input.IndexName = aws.String(string(req.Index))
	}
	if req.Limit > 0 {
		input.Limit = aws.Int32(int32(req.Limit))
	}

	var page kv.Page
	for {
		out, err := s.client.Query(ctx, input)
		if err != nil {
			return kv.Page{}, mapError("query", err)
		}
		if err := appendItems(&page, out.Items, int(out.ScannedCount)); err != nil {
			return kv.Page{}, err
		}
		if req.Limit > 0 || len(out.LastEvaluatedKey) == 0 {
			return page, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (s *Store) Scan(ctx context.Context, req kv.ScanRequest) (kv.Page, error) {
	input := &dynamodb.ScanInput{TableName: s.tableName(req.Table.Name)}

	cond, hasFilter, err := equalities(req.Filter)
	if err != nil {
		return kv.Page{}, err
	}
	proj, hasProjection := projection(req.Projection)
	if hasFilter || hasProjection {
		builder := expression.NewBuilder()
		if hasFilter {
			builder = builder.WithFilter(cond)
		}
		if hasProjection {
			builder = builder.WithProjection(proj)
		}
		expr, err := builder.Build()
		if err != nil {
			return kv.Page{}, fmt.Errorf("build scan expression: %w", err)
		}
		input.FilterExpression = expr.Filter()
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}
	if req.Limit > 0 {
		input.Limit = aws.Int32(int32(req.Limit))
	}

	var page kv.Page
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return kv.Page{}, mapError("scan", err)
		}
		if err := appendItems(&page, out.Items, int(out.ScannedCount)); err != nil {
			return kv.Page{}, err
		}
		if req.Limit > 0 || len(out.LastEvaluatedKey) == 0 {
			return page, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (s *Store) PutItem(ctx context.Context, req kv.PutRequest) error {
	item, err := marshalItem(req.Item)
	if err != nil {
		return err
	}

	input := &dynamodb.PutItemInput{
		TableName: s.tableName(req.Table.Name),
		Item:      item,
	}
	if req.Condition != nil {
		cond, err := putCondition(req.Table.Key, *req.Condition)
		if err != nil {
			return err
		}
		expr, err := expression.NewBuilder().WithCondition(cond).Build()
		if err != nil {
			return fmt.Errorf("build put condition: %w", err)
		}
		input.ConditionExpression = expr.Condition()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	if _, err := s.client.PutItem(ctx, input); err != nil {
		return mapError("put item", err)
	}
	return nil
}

func (s *Store) UpdateItem(ctx context.Context, req kv.UpdateRequest) (kv.Item, error) {
	key, err := marshalItem(req.Key)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(req.Updates))
	for k := range req.Updates {
		names = append(names, k)
	}
	sort.Strings(names)

	var update expression.UpdateBuilder
	for i, name := range names {
		val, err := value(req.Updates[name])
		if err != nil {
			return nil, err
		}
		if i == 0 {
			update = expression.Set(expression.Name(name), val)
			continue
		}
		update = update.Set(expression.Name(name), val)
	}

	cond := expression.AttributeExists(expression.Name(req.Table.Key.PartitionKey))
	if req.Condition != nil {
		in, err := oneOfCondition(*req.Condition)
		if err != nil {
			return nil, err
		}
		cond = cond.And(in)
	}

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("build update expression: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 s.tableName(req.Table.Name),
		Key:                       key,
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	}
	if req.Condition != nil {
		input.ReturnValuesOnConditionCheckFailure = types.ReturnValuesOnConditionCheckFailureAllOld
	}

	out, err := s.client.UpdateItem(ctx, input)
	if err != nil {
		// A failed check returns the old image only when the item exists.
		var failed *types.ConditionalCheckFailedException
		if errors.As(err, &failed) {
			if req.Condition != nil && len(failed.Item) > 0 {
				return nil, fmt.Errorf("%w: update item", kv.ErrConditionFailed)
			}
			return nil, kv.ErrNotFound
		}
		return nil, mapError("update item", err)
	}
	return unmarshalItem(out.Attributes)
}

func keyCondition(kc kv.KeyCondition) (expression.KeyConditionBuilder, error) {
	partition, err := value(kc.PartitionValue)
	if err != nil {
		return expression.KeyConditionBuilder{}, err
	}
	cond := expression.Key(kc.PartitionKey).Equal(partition)
	if kc.Sort == nil {
		return cond, nil
	}

	sortKey := expression.Key(kc.Sort.Attribute)
	switch kc.Sort.Op {
	case kv.SortEqual:
		v, err := value(kc.Sort.Value)
		if err != nil {
			return expression.KeyConditionBuilder{}, err
		}
		return expression.KeyAnd(cond, sortKey.Equal(v)), nil
	case kv.SortBeginsWith:
		return expression.KeyAnd(cond, sortKey.BeginsWith(kc.Sort.Value)), nil
	case kv.SortBetween:
		lo, err := value(kc.Sort.Value)
		if err != nil {
			return expression.KeyConditionBuilder{}, err
		}
		hi, err := value(kc.Sort.Upper)
		if err != nil {
			return expression.KeyConditionBuilder{}, err
		}
		return expression.KeyAnd(cond, sortKey.Between(lo, hi)), nil
	default:
		return expression.KeyConditionBuilder{}, fmt.Errorf("%w: sort operator %q", kv.ErrInvalidQuery, kc.Sort.Op)
	}
}

func putCondition(key kv.KeySchema, c kv.Condition) (expression.ConditionBuilder, error) {
	notExists := expression.AttributeNotExists(expression.Name(key.PartitionKey))
	if c.Attribute == "" {
		return notExists, nil
	}

	in, err := oneOfCondition(c)
	if err != nil {
		return expression.ConditionBuilder{}, err
	}
	if c.IfNotExists {
		return notExists.Or(in), nil
	}
	return in, nil
}

func oneOfCondition(c kv.Condition) (expression.ConditionBuilder, error) {
	operands := make([]expression.OperandBuilder, 0, len(c.OneOf))
	for _, v := range c.OneOf {
		val, err := value(v)
		if err != nil {
			return expression.ConditionBuilder{}, err
		}
		operands = append(operands, val)
	}
	return expression.Name(c.Attribute).In(operands[0], operands[1:]...), nil
}

func appendItems(page *kv.Page, items []map[string]types.AttributeValue, scanned int) error {
	for _, raw := range items {
		item, err := unmarshalItem(raw)
		if err != nil {
			return err
		}
		page.Items = append(page.Items, item)
	}
	page.ScannedCount += scanned
	return nil
}

func mapError(op string, err error) error {
	var (
		throughput *types.ProvisionedThroughputExceededException
		limit      *types.RequestLimitExceeded
		condition  *types.ConditionalCheckFailedException
		apiErr     smithy.APIError
	)
	switch {
	case errors.As(err, &throughput), errors.As(err, &limit):
		return fmt.Errorf("%w: %s: %v", kv.ErrThrottling, op, err)
	case errors.As(err, &condition):
		return fmt.Errorf("%w: %s", kv.ErrConditionFailed, op)
	case errors.As(err, &apiErr) && apiErr.ErrorCode() == "ThrottlingException":
		return fmt.Errorf("%w: %s: %v", kv.ErrThrottling, op, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
