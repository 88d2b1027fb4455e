package dynamo

import (
	"encoding/base64"
	"fmt"
	"sort"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

func marshalItem(item kv.Item) (map[string]types.AttributeValue, error) {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		av, err := marshalValue(v)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		out[k] = av
	}
	return out, nil
}

func marshalValue(v any) (types.AttributeValue, error) {
	switch x := v.(type) {
	case nil:
		return &types.AttributeValueMemberNULL{Value: true}, nil
	case string:
		return &types.AttributeValueMemberS{Value: x}, nil
	case bool:
		return &types.AttributeValueMemberBOOL{Value: x}, nil
	case decimal.Decimal:
		return &types.AttributeValueMemberN{Value: x.String()}, nil
	case kv.Item:
		return marshalValue(map[string]any(x))
	case map[string]any:
		m, err := marshalItem(x)
		if err != nil {
			return nil, err
		}
		return &types.AttributeValueMemberM{Value: m}, nil
	case []any:
		l := make([]types.AttributeValue, len(x))
		for i, e := range x {
			av, err := marshalValue(e)
			if err != nil {
				return nil, err
			}
			l[i] = av
		}
		return &types.AttributeValueMemberL{Value: l}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported value type %T", kv.ErrValidation, v)
	}
}

func unmarshalItem(m map[string]types.AttributeValue) (kv.Item, error) {
	item := make(kv.Item, len(m))
	for k, av := range m {
		v, err := unmarshalValue(av)
		if err != nil {
			return nil, fmt.Errorf("attribute %q: %w", k, err)
		}
		item[k] = v
	}
	return item, nil
}

func unmarshalValue(av types.AttributeValue) (any, error) {
	switch x := av.(type) {
	case *types.AttributeValueMemberS:
		return x.Value, nil
	case *types.AttributeValueMemberN:
		return decimal.NewFromString(x.Value)
	case *types.AttributeValueMemberBOOL:
		return x.Value, nil
	case *types.AttributeValueMemberNULL:
		return nil, nil
	case *types.AttributeValueMemberB:
		return base64.StdEncoding.EncodeToString(x.Value), nil
	case *types.AttributeValueMemberM:
		m, err := unmarshalItem(x.Value)
		if err != nil {
			return nil, err
		}
		return map[string]any(m), nil
	case *types.AttributeValueMemberL:
		l := make([]any, len(x.Value))
		for i, e := range x.Value {
			v, err := unmarshalValue(e)
			if err != nil {
				return nil, err
			}
			l[i] = v
		}
		return l, nil
	case *types.AttributeValueMemberSS:
		l := make([]any, len(x.Value))
		for i, s := range x.Value {
			l[i] = s
		}
		return l, nil
	case *types.AttributeValueMemberNS:
		l := make([]any, len(x.Value))
		for i, s := range x.Value {
			d, err := decimal.NewFromString(s)
			if err != nil {
				return nil, err
			}
			l[i] = d
		}
		return l, nil
	default:
		return nil, fmt.Errorf("unsupported attribute value %T", av)
	}
}

// operand hands an already encoded attribute value to the expression
// builder, which would otherwise reflect over decimal.Decimal's fields.
type operand struct {
	av types.AttributeValue
}

func (o operand) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return o.av, nil
}

func value(v any) (expression.ValueBuilder, error) {
	av, err := marshalValue(v)
	if err != nil {
		return expression.ValueBuilder{}, err
	}
	return expression.Value(operand{av: av}), nil
}

// equalities ANDs name = value for every attribute of filter.
func equalities(filter kv.Item) (expression.ConditionBuilder, bool, error) {
	if len(filter) == 0 {
		return expression.ConditionBuilder{}, false, nil
	}

	names := make([]string, 0, len(filter))
	for k := range filter {
		names = append(names, k)
	}
	sort.Strings(names)

	conds := make([]expression.ConditionBuilder, 0, len(names))
	for _, name := range names {
		val, err := value(filter[name])
		if err != nil {
			return expression.ConditionBuilder{}, false, err
		}
		conds = append(conds, expression.Name(name).Equal(val))
	}

	if len(conds) == 1 {
		return conds[0], true, nil
	}
	return expression.And(conds[0], conds[1], conds[2:]...), true, nil
}

func projection(attrs []string) (expression.ProjectionBuilder, bool) {
	if len(attrs) == 0 {
		return expression.ProjectionBuilder{}, false
	}
	names := make([]expression.NameBuilder, len(attrs))
	for i, a := range attrs {
		names[i] = expression.Name(a)
	}
	return expression.NamesList(names[0], names[1:]...), true
}
