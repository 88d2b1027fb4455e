package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "disputectl",
		Short:         "Operate the card dispute service",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(initTablesCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(decideCmd())
	rootCmd.AddCommand(capabilitiesCmd())
	rootCmd.AddCommand(callCmd())
	rootCmd.AddCommand(casesCmd())
	rootCmd.AddCommand(activityCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
