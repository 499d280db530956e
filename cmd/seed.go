package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/afcpln/listingnet/internal/config"
	"github.com/afcpln/listingnet/internal/logger"
	"github.com/afcpln/listingnet/internal/models"
	"github.com/afcpln/listingnet/internal/service"
)

// seedFile is the layout of a buyers fixture:
//
//	users:
//	  - full_name: Jane Buyer
//	    email: jane@example.com
//	    saved_searches:
//	      - name: Downtown lofts
//	        areas: [Downtown]
//	        max_price: 500000
type seedFile struct {
	Users []models.User `yaml:"users"`
}

// NewSeedCmd returns the "seed" subcommand that loads buyers and their saved
// searches from a YAML file.
func NewSeedCmd(cfg *config.AppConfig) *cobra.Command {
	var file string
	var welcome bool

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load buyers and saved searches from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file) //nolint:gosec
			if err != nil {
				return fmt.Errorf("opening seed file: %w", err)
			}
			defer f.Close() //nolint:errcheck

			users, err := parseSeedFile(f)
			if err != nil {
				return err
			}
			return runSeed(cmd.Context(), cfg, users, welcome, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "buyers.yaml", "YAML file listing users and their saved searches")
	cmd.Flags().BoolVar(&welcome, "welcome", false, "Send the welcome email to accounts created by this run")
	return cmd
}

func parseSeedFile(r io.Reader) ([]models.User, error) {
	var sf seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sf); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("seed file is empty")
		}
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if len(sf.Users) == 0 {
		return nil, errors.New("seed file lists no users")
	}
	return sf.Users, nil
}

func runSeed(ctx context.Context, cfg *config.AppConfig, users []models.User, welcome bool, out io.Writer) error {
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

	var sender service.WelcomeSender
	if welcome {
		sender = a.delivery
	}
	svc := service.NewUserService(a.users, sender, sysLogger)

	for i := range users {
		saved, err := svc.Register(ctx, &users[i])
		if err != nil {
			return fmt.Errorf("seeding user %d (%s): %w", i+1, users[i].Email, err)
		}
		fmt.Fprintf(out, "seeded %s <%s> with %d saved search(es)\n", saved.ID, saved.Email, len(saved.SavedSearches))
	}
	return nil
}
