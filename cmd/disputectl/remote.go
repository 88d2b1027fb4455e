package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/anupakum/MCP-Payment-idea/config"
	"github.com/anupakum/MCP-Payment-idea/internal/external/capclient"

	"github.com/spf13/cobra"
)

func newCapClient() (*capclient.Client, error) {
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	return capclient.New(capclient.Config{
		BaseURL: cfg.CapabilityServerURL,
		Timeout: cfg.CapabilityTimeout,
	}), nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func capabilitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "List the capabilities of a running service (CAPABILITY_SERVER_URL)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newCapClient()
			if err != nil {
				return err
			}
			defer client.Close()

			caps, err := client.ListCapabilities(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range caps {
				fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s\n", c.Name, c.Description)
			}
			return nil
		},
	}
}

func callCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "call <capability> [json-args]",
		Short: "Invoke a capability on a running service",
		Long: `Invoke a capability on a running service and print its result.

Arguments are a JSON object given inline, or read from stdin when the
argument is "-" or omitted.

Examples:
  disputectl call get_case '{"case_id":"CASE-1"}'
  echo '{"customer_id":"CUST001"}' | disputectl call customer_lookup -`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readArgs(cmd.InOrStdin(), args[1:])
			if err != nil {
				return err
			}

			client, err := newCapClient()
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.Invoke(cmd.Context(), args[0], raw)
			if err != nil {
				return err
			}
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("%s failed: %s", args[0], res.Message)
			}
			return nil
		},
	}
}

func readArgs(stdin io.Reader, args []string) (json.RawMessage, error) {
	var raw []byte
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read arguments: %w", err)
		}
		raw = b
	} else {
		raw = []byte(args[0])
	}

	if strings.TrimSpace(string(raw)) == "" {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("arguments are not valid JSON")
	}
	return json.RawMessage(raw), nil
}

func casesCmd() *cobra.Command {
	var opts capclient.ListCasesOptions

	cmd := &cobra.Command{
		Use:   "cases <customer_id>",
		Short: "List a customer's cases on a running service, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newCapClient()
			if err != nil {
				return err
			}
			defer client.Close()

			res, err := client.ListCustomerCases(cmd.Context(), args[0], opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "maximum number of cases")

	return cmd
}

func activityCmd() *cobra.Command {
	var opts capclient.ActivityOptions

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the activity feed of a running service",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newCapClient()
			if err != nil {
				return err
			}
			defer client.Close()

			feed, err := client.Activity(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), feed)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 50, "maximum number of entries")
	cmd.Flags().StringVar(&opts.Level, "level", "", "only entries of this level")
	cmd.Flags().StringVar(&opts.Source, "source", "", "only entries from this source")

	return cmd
}
