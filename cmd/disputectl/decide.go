package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/anupakum/MCP-Payment-idea/internal/domain/dispute"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

type decisionOutput struct {
	TransactionID string              `json:"transaction_id,omitempty"`
	Status        dispute.Status      `json:"dispute_status"`
	Reason        string              `json:"decision_reason"`
	CreditType    dispute.CreditType  `json:"credit_type,omitempty"`
	CreditAmount  decimal.NullDecimal `json:"credit_amount"`
	AmountUSD     decimal.Decimal     `json:"amount_usd"`
	AmountFound   bool                `json:"amount_found"`
	AgeDays       int                 `json:"age_days"`
	DateFound     bool                `json:"date_found"`
}

func decideCmd() *cobra.Command {
	var (
		file string
		asOf string
	)

	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Dry-run the decision engine on a JSON transaction",
		Long: `Run the dispute decision rules on a transaction without storing
anything. The transaction is a JSON object read from --file or stdin.

Examples:
  echo '{"transaction_id":"T1","amount":"45.00","transaction_date":"2026-10-01"}' | disputectl decide
  disputectl decide --file txn.json --as-of 2026-12-31T00:00:00Z`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			now := time.Now().UTC()
			if asOf != "" {
				t, err := time.Parse(time.RFC3339, asOf)
				if err != nil {
					return fmt.Errorf("--as-of: %w", err)
				}
				now = t
			}

			out, err := decide(in, now)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "transaction JSON file (default stdin)")
	cmd.Flags().StringVar(&asOf, "as-of", "", "evaluate as of this RFC 3339 time instead of now")

	return cmd
}

func decide(r io.Reader, now time.Time) (decisionOutput, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return decisionOutput{}, fmt.Errorf("read transaction: %w", err)
	}

	var txn dispute.Transaction
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&txn); err != nil {
		return decisionOutput{}, fmt.Errorf("decode transaction: %w", err)
	}

	d := dispute.NewDecisionEngine().Decide(txn, now)
	return decisionOutput{
		TransactionID: txn.ID(),
		Status:        d.Status,
		Reason:        d.Reason,
		CreditType:    d.CreditType,
		CreditAmount:  d.CreditAmount,
		AmountUSD:     d.AmountUSD,
		AmountFound:   d.AmountFound,
		AgeDays:       d.AgeDays,
		DateFound:     d.DateFound,
	}, nil
}
