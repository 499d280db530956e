package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/afcpln/listingnet/internal/config"
	"github.com/afcpln/listingnet/internal/logger"
)

// NewSendTestCmd returns the "send-test" subcommand that sends one test email
// through the currently configured transport.
func NewSendTestCmd(cfg *config.AppConfig) *cobra.Command {
	var to string

	cmd := &cobra.Command{
		Use:   "send-test",
		Short: "Send a test email through the active mail transport",
		RunE: func(cmd *cobra.Command, _ []string) error {
			to = strings.TrimSpace(to)
			if to == "" {
				return fmt.Errorf("--to is required")
			}

			sysLogger, logCloser, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel())
			if err != nil {
				return fmt.Errorf("initializing logger: %w", err)
			}
			defer logCloser.Close() //nolint:errcheck

			a, err := newApp(cfg, sysLogger)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			provenance, err := a.delivery.SendTestNotification(cmd.Context(), to)
			if err != nil {
				return fmt.Errorf("sending test email: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "test email sent to %s via %s\n", to, provenance)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient address")
	return cmd
}
