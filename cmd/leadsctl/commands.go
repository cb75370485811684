package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/duihelp/leadgen/internal/bootstrap"
	"github.com/duihelp/leadgen/internal/config"
	"github.com/duihelp/leadgen/internal/core/domain"
	"github.com/duihelp/leadgen/internal/core/ports"
	"github.com/duihelp/leadgen/internal/core/usecase"
	"github.com/duihelp/leadgen/internal/infrastructure/jurisdictions"
	"github.com/duihelp/leadgen/internal/infrastructure/repository/postgres"
)

type cli struct {
	jsonOutput bool
	// openRepo is replaced in tests.
	openRepo func(ctx context.Context) (ports.JurisdictionRepository, func() error, error)
}

func newRootCmd() *cobra.Command {
	c := &cli{openRepo: openJurisdictionRepo}
	return c.rootCmd()
}

func (c *cli) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "leadsctl",
		Short:         "Back-office tooling for the lead generation backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&c.jsonOutput, "json", "j", false, "Output as JSON")

	rootCmd.AddCommand(
		c.versionCmd(),
		c.migrateCmd(),
		c.seedCmd(),
		c.importCmd(),
		c.scoreCmd(),
	)
	return rootCmd
}

func (c *cli) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.jsonOutput {
				return printJSON(cmd.OutOrStdout(), map[string]string{
					"version": version,
					"commit":  commit,
					"date":    buildDate,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "leadsctl %s (%s, %s)\n", version, commit, buildDate)
			return nil
		},
	}
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			db, err := bootstrap.OpenDatabase(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			return c.report(cmd.OutOrStdout(), map[string]any{
				"ok":                   true,
				"embedding_dimensions": cfg.EmbeddingDimensions,
			}, "schema is up to date (embedding dimensions %d)\n", cfg.EmbeddingDimensions)
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "seed-jurisdictions <file.yaml>",
		Short: "Upsert states and counties from a YAML seed file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seeds, err := jurisdictions.LoadYAMLFile(args[0])
			if err != nil {
				return err
			}
			return c.seed(cmd, seeds, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse the file and report counts without writing")
	return cmd
}

func (c *cli) importCmd() *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "import-jurisdictions <file.xlsx>",
		Short: "Upsert states and counties from a spreadsheet",
		Long: `Reads the first sheet of an .xlsx workbook. Required columns:
state_code, state_name, county_name. Optional: court_name, court_address,
court_phone, dmv_office, notes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if ext := strings.ToLower(filepath.Ext(args[0])); ext != ".xlsx" {
				return fmt.Errorf("expected an .xlsx file, got %q", ext)
			}
			seeds, err := jurisdictions.LoadXLSXFile(args[0])
			if err != nil {
				return err
			}
			return c.seed(cmd, seeds, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Parse the file and report counts without writing")
	return cmd
}

func (c *cli) seed(cmd *cobra.Command, seeds []domain.StateSeed, dryRun bool) error {
	if dryRun {
		counties := 0
		for _, s := range seeds {
			counties += len(s.Counties)
		}
		return c.report(cmd.OutOrStdout(), map[string]any{
			"dry_run": true, "states": len(seeds), "counties": counties,
		}, "would upsert %d states and %d counties\n", len(seeds), counties)
	}

	repo, closeFn, err := c.openRepo(cmd.Context())
	if err != nil {
		return err
	}
	defer closeFn()

	states, counties, err := usecase.SeedJurisdictions(cmd.Context(), repo, seeds)
	if err != nil {
		return fmt.Errorf("seeded %d states and %d counties before failing: %w", states, counties, err)
	}
	return c.report(cmd.OutOrStdout(), map[string]any{
		"states": states, "counties": counties,
	}, "upserted %d states and %d counties\n", states, counties)
}

func (c *cli) scoreCmd() *cobra.Command {
	var (
		details      domain.CaseDetails
		source       string
		recency      string
		firstOffense bool
	)
	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the urgency score for a set of case details",
		RunE: func(cmd *cobra.Command, _ []string) error {
			details.Source = domain.LeadSource(strings.ToLower(strings.TrimSpace(source)))
			switch details.Source {
			case domain.SourceWebForm, domain.SourcePhone, domain.SourceVoice:
			default:
				return fmt.Errorf("source must be web_form, phone or voice, got %q", source)
			}
			details.ArrestRecency = domain.ArrestRecency(usecase.NormalizeRecency(recency))
			if cmd.Flags().Changed("first-offense") {
				details.IsFirstOffense = &firstOffense
			}

			score := usecase.ScoreLead(details)
			return c.report(cmd.OutOrStdout(), map[string]any{
				"details": details, "urgency_score": score,
			}, "urgency score: %d\n", score)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&source, "source", string(domain.SourceWebForm), "Intake channel: web_form, phone or voice")
	flags.StringVar(&recency, "recency", string(domain.RecencyUnknown), "Arrest recency: today, this_week, this_month, older, unknown")
	flags.BoolVar(&firstOffense, "first-offense", false, "First offense; left unanswered when omitted")
	flags.BoolVar(&details.HasAccident, "accident", false, "Arrest involved an accident")
	flags.BoolVar(&details.HasInjury, "injury", false, "Arrest involved an injury")
	flags.BoolVar(&details.HasCDL, "cdl", false, "Driver holds a commercial license")
	return cmd
}

func (c *cli) report(w io.Writer, payload any, format string, args ...any) error {
	if c.jsonOutput {
		return printJSON(w, payload)
	}
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func openJurisdictionRepo(ctx context.Context) (ports.JurisdictionRepository, func() error, error) {
	db, err := bootstrap.OpenDatabase(ctx, config.Load())
	if err != nil {
		return nil, nil, err
	}
	return postgres.NewJurisdictionRepository(db), db.Close, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
