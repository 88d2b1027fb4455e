package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"

	"github.com/opensearch-project/opensearch-go"
)

var _ dispute.EventSink = (*CaseIndex)(nil)

// CaseIndex keeps one search document per case holding its latest state.
type CaseIndex struct {
	client *opensearch.Client
	index  string
}

func NewClient(urls []string) (*opensearch.Client, error) {
	if len(urls) == 0 {
		return nil, errors.New("no OpenSearch addresses configured")
	}
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: urls,
		Transport: &http.Transport{MaxIdleConnsPerHost: 10},
	})
	if err != nil {
		return nil, fmt.Errorf("opensearch client: %w", err)
	}
	return client, nil
}

// NewCaseIndex creates the index when it does not exist yet.
func NewCaseIndex(ctx context.Context, client *opensearch.Client, index string) (*CaseIndex, error) {
	ci := &CaseIndex{client: client, index: index}
	if err := ci.ensureIndex(ctx); err != nil {
		return nil, err
	}
	return ci, nil
}

func (ci *CaseIndex) ensureIndex(ctx context.Context) error {
	res, err := ci.client.Indices.Exists([]string{ci.index}, ci.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("indices.exists: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusOK {
		return nil
	}

	keyword := map[string]any{"type": "keyword"}
	body := map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"case_id":                keyword,
				"customer_id":            keyword,
				"card_id":                keyword,
				"transaction_id":         keyword,
				"dispute_status":         keyword,
				"credit_type":            keyword,
				"acquirer_outcome":       keyword,
				"decision_reason":        map[string]any{"type": "text"},
				"transaction_amount":     map[string]any{"type": "scaled_float", "scaling_factor": 100},
				"credit_amount":          map[string]any{"type": "scaled_float", "scaling_factor": 100},
				"requires_manual_review": map[string]any{"type": "boolean"},
				"created_at":             map[string]any{"type": "date"},
				"updated_at":             map[string]any{"type": "date"},
				"last_event":             keyword,
			},
		},
		"settings": map[string]any{
			"number_of_replicas": 0,
		},
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return err
	}
	cr, err := ci.client.Indices.Create(
		ci.index,
		ci.client.Indices.Create.WithBody(bytes.NewReader(buf)),
		ci.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("indices.create: %w", err)
	}
	defer cr.Body.Close()
	if cr.IsError() {
		return fmt.Errorf("indices.create error: %s", cr.String())
	}
	return nil
}

type caseDoc struct {
	dispute.CaseView
	LastEvent dispute.CaseEventKind `json:"last_event"`
}

// PublishCaseEvent overwrites the case document with the state in event.
func (ci *CaseIndex) PublishCaseEvent(ctx context.Context, event dispute.CaseEvent) error {
	payload, err := json.Marshal(caseDoc{CaseView: event.Case, LastEvent: event.Kind})
	if err != nil {
		return err
	}
	res, err := ci.client.Index(
		ci.index,
		bytes.NewReader(payload),
		ci.client.Index.WithDocumentID(event.Case.CaseID),
		ci.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("index: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("index error: %s", res.String())
	}
	return nil
}
