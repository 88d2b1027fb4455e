package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	testCases := []struct {
		name   string
		input  string
		status dispute.Status
		credit string
	}{
		{
			name:   "small recent amount",
			input:  `{"transaction_id":"T1","amount":"45.00","transaction_date":"2026-10-01"}`,
			status: dispute.StatusResolvedCustomer,
			credit: `"45"`,
		},
		{
			name:   "large amount",
			input:  `{"transaction_id":"T2","amount":1250.10,"transaction_date":"2026-10-01"}`,
			status: dispute.StatusForwardedToAcquirer,
			credit: `"1250.1"`,
		},
		{
			name:   "old transaction",
			input:  `{"transaction_id":"T3","amount":10,"transaction_date":"2024-01-15T10:00:00Z"}`,
			status: dispute.StatusRejectedTimeBarred,
			credit: `null`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// when
			out, err := decide(strings.NewReader(tc.input), now)

			// then
			require.NoError(t, err)
			assert.Equal(t, tc.status, out.Status)
			credit, err := json.Marshal(out.CreditAmount)
			require.NoError(t, err)
			assert.JSONEq(t, tc.credit, string(credit))
		})
	}

	t.Run("should reject malformed input", func(t *testing.T) {
		_, err := decide(strings.NewReader(`{"amount":`), now)

		assert.ErrorContains(t, err, "decode transaction")
	})
}

func TestDecideCmd_ReadsStdin(t *testing.T) {
	cmd := decideCmd()
	var out bytes.Buffer
	cmd.SetIn(strings.NewReader(`{"transaction_id":"T1","amount":"20","transaction_date":"2026-10-01T00:00:00Z"}`))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--as-of", "2026-10-15T00:00:00Z"})

	require.NoError(t, cmd.Execute())

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "RESOLVED_CUSTOMER", got["dispute_status"])
	assert.Equal(t, float64(14), got["age_days"])
}

func TestReadArgs(t *testing.T) {
	testCases := []struct {
		name    string
		stdin   string
		args    []string
		want    string
		wantErr bool
	}{
		{"inline", "", []string{`{"case_id":"C1"}`}, `{"case_id":"C1"}`, false},
		{"stdin dash", `{"a":1}`, []string{"-"}, `{"a":1}`, false},
		{"stdin omitted", `{"a":2}`, nil, `{"a":2}`, false},
		{"empty", "  ", nil, `{}`, false},
		{"invalid", "", []string{`{nope`}, "", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := readArgs(strings.NewReader(tc.stdin), tc.args)

			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.JSONEq(t, tc.want, string(raw))
		})
	}
}

func TestCallCmd(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		b := new(bytes.Buffer)
		_, _ = b.ReadFrom(r.Body)
		gotBody = b.String()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":false,"message":"Case CASE-404 not found","error":"not_found"}`))
	}))
	defer srv.Close()
	t.Setenv("CAPABILITY_SERVER_URL", srv.URL)

	// given
	cmd := callCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"get_case", `{"case_id":"CASE-404"}`})

	// when
	err := cmd.Execute()

	// then
	assert.ErrorContains(t, err, "get_case failed")
	assert.Equal(t, "/capabilities/get_case", gotPath)
	assert.JSONEq(t, `{"case_id":"CASE-404"}`, gotBody)
	assert.Contains(t, out.String(), `"not_found"`)
}
