package capability

import (
	"context"
	"fmt"
	"slices"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"
	"github.com/anupakum/MCP-Payment-idea/internal/domain/kv"
)

type QueryExecutor interface {
	Execute(ctx context.Context, d kv.Descriptor) (kv.Result, error)
	Schema() kv.Schema
}

type KVQueryInput struct {
	TableName        string         `json:"table_name"`
	Operation        string         `json:"operation"`
	Key              map[string]any `json:"key"`
	KeyCondition     map[string]any `json:"key_condition"`
	IndexName        string         `json:"index_name"`
	FilterExpression map[string]any `json:"filter_expression"`
	AttributesToGet  []string       `json:"attributes_to_get"`
	Limit            int            `json:"limit"`
	Descending       bool           `json:"descending"`
	ItemData         map[string]any `json:"item_data"`
	UpdateExpression map[string]any `json:"update_expression"`
}

type KVQueryOutput struct {
	Items        []map[string]any `json:"items"`
	Count        int              `json:"count"`
	ScannedCount int              `json:"scanned_count"`
	Found        bool             `json:"found"`
}

// KVQueryCapability exposes the query builder to callers. The cases table is
// read-only here: case writes go through the dispute service so that status
// transitions and the transaction guards stay consistent. Guard records are
// never returned.
func KVQueryCapability(qb QueryExecutor) Capability {
	return New(KVQuery,
		"Run a single schema-checked read against the card_transactions or cases table, or a write to card_transactions.",
		kvQuerySchema,
		func(ctx context.Context, in KVQueryInput) (Result, error) {
			d, err := descriptor(qb.Schema(), in)
			if err != nil {
				return Result{}, err
			}
			if err := checkCasesAccess(d); err != nil {
				return Result{}, err
			}

			// case_id identifies guard records, so it is read even when
			// the caller did not ask for it.
			projection := d.Projection
			if d.Table == kv.Cases && len(projection) > 0 && !slices.Contains(projection, dispute.FieldCaseID) {
				d.Projection = append(slices.Clone(projection), dispute.FieldCaseID)
			}

			res, err := qb.Execute(ctx, d)
			if err != nil {
				return Result{}, err
			}
			if d.Table == kv.Cases {
				res = withoutGuards(res, projection)
			}

			out := KVQueryOutput{
				Items:        res.Plain(),
				Count:        res.Count,
				ScannedCount: res.ScannedCount,
				Found:        res.Found,
			}
			return OK(out, "%s on %s returned %d items", d.Verb, d.Table, len(out.Items)), nil
		})
}

func checkCasesAccess(d kv.Descriptor) error {
	if d.Table != kv.Cases {
		return nil
	}
	if d.Verb == kv.PutItem || d.Verb == kv.UpdateItem {
		return fmt.Errorf("%w: %s is read-only through %s, use %s", kv.ErrValidation, kv.Cases, KVQuery, UpdateCase)
	}
	if id, ok := d.Key[dispute.FieldCaseID].(string); ok && dispute.IsGuardKey(id) {
		return fmt.Errorf("%w: %q is not a case", kv.ErrValidation, id)
	}
	if kc := d.KeyCondition; kc != nil && kc.PartitionKey == dispute.FieldCaseID && dispute.IsGuardKey(kc.PartitionValue) {
		return fmt.Errorf("%w: %q is not a case", kv.ErrValidation, kc.PartitionValue)
	}
	return nil
}

// withoutGuards drops guard records and trims case_id again when the caller
// projected it away.
func withoutGuards(res kv.Result, projection []string) kv.Result {
	trim := len(projection) > 0 && !slices.Contains(projection, dispute.FieldCaseID)
	items := make([]kv.Item, 0, len(res.Items))
	for _, it := range res.Items {
		if dispute.IsGuardKey(it.String(dispute.FieldCaseID)) {
			continue
		}
		if trim {
			it = it.Project(projection)
		}
		items = append(items, it)
	}
	res.Items = items
	res.Count = len(items)
	res.Found = res.Found && len(items) > 0
	return res
}

func descriptor(schema kv.Schema, in KVQueryInput) (kv.Descriptor, error) {
	verb, err := kv.ParseVerb(in.Operation)
	if err != nil {
		return kv.Descriptor{}, err
	}
	table, err := schema.Table(kv.TableName(in.TableName))
	if err != nil {
		return kv.Descriptor{}, err
	}

	d := kv.Descriptor{
		Table:      table.Name,
		Verb:       verb,
		Key:        in.Key,
		Index:      kv.IndexName(in.IndexName),
		Descending: in.Descending,
		Filter:     in.FilterExpression,
		Limit:      in.Limit,
		Projection: in.AttributesToGet,
		Item:       in.ItemData,
		Updates:    in.UpdateExpression,
	}

	if verb == kv.Query {
		ks, err := table.IndexKey(d.Index)
		if err != nil {
			return kv.Descriptor{}, err
		}
		kc, err := kv.ParseKeyCondition(ks, in.KeyCondition)
		if err != nil {
			return kv.Descriptor{}, err
		}
		d.KeyCondition = &kc
	}
	return d, nil
}
