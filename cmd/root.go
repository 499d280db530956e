package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/afcpln/listingnet/internal/build"
	"github.com/afcpln/listingnet/internal/config"
)

// NewRootCmd returns the root command with every subcommand attached.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	root := &cobra.Command{
		Use:     "listingnet",
		Short:   "Listing alert and conversation email service",
		Long:    "listingnet emails buyers when a published listing matches one of their saved searches and relays conversation messages between buyers and agents.",
		Version: build.String(),
	}
	root.SilenceUsage = true

	root.AddCommand(NewServeCmd(cfg))
	root.AddCommand(NewSeedCmd(cfg))
	root.AddCommand(NewSendTestCmd(cfg))
	return root
}

// Execute loads the configuration and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := NewRootCmd(cfg).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
