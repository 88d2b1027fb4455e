package pg

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"

	"github.com/shopspring/decimal"
)

// encodeItem writes decimals as JSON numbers without going through float64.
func encodeItem(item kv.Item) (string, error) {
	b, err := json.Marshal(jsonValue(map[string]any(item)))
	if err != nil {
		return "", fmt.Errorf("encode item: %w", err)
	}
	return string(b), nil
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return json.Number(x.String())
	case kv.Item:
		return jsonValue(map[string]any(x))
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = jsonValue(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = jsonValue(e)
		}
		return out
	default:
		return x
	}
}

func decodeItem(raw []byte) (kv.Item, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	return kv.NewItem(fields)
}

// textValue renders a normalized scalar the way item->>'attr' does.
func textValue(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case decimal.Decimal:
		return x.String(), nil
	case bool:
		if x {
			return "true", nil
		}
		return "false", nil
	default:
		return "", fmt.Errorf("%w: condition value of type %T", kv.ErrValidation, v)
	}
}
