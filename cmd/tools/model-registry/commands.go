// cmd/tools/model-registry/commands.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"credx-fairscore/internal/app"
	"credx-fairscore/internal/artifacts"
	"credx-fairscore/internal/common/config"
	"credx-fairscore/internal/common/database"
	"credx-fairscore/internal/common/logger"
	"credx-fairscore/internal/common/validation"
	"credx-fairscore/pkg/registry"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "model-registry",
		Short:         "Inspect, verify and publish the credit model bundle",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default: configs/config.yaml search path)")
	root.PersistentFlags().BoolVar(&opts.verbose, "verbose", false, "log artifact loading")

	root.AddCommand(
		newListCmd(opts),
		newValidateCmd(opts),
		newScoreCmd(opts),
		newPushCmd(opts),
	)
	return root
}

func (o *rootOptions) load() (*config.Config, error) {
	if o.configPath != "" {
		return config.LoadFromFile(o.configPath)
	}
	return config.Load()
}

func (o *rootOptions) logger() logger.Logger {
	if o.verbose {
		return logger.NewStructured("debug", "console", "stderr")
	}
	return logger.NewNoOpLogger()
}

// toolRetry fails fast; operators rerun the command.
var toolRetry = app.RetryPolicy{Attempts: 2, InitialDelay: 500 * time.Millisecond}

func newListCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the registry manifest",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			reg, err := app.LoadRegistry(cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Registry version %s\n\n", reg.Version)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ARTIFACT\tKEY")
			fmt.Fprintf(w, "feature_schema\t%s\n", reg.FeatureSchema)
			fmt.Fprintf(w, "scaler\t%s\n", reg.Scaler)
			fmt.Fprintf(w, "label_encoders\t%s\n", reg.Encoders)
			fmt.Fprintf(w, "income_model\t%s\n", orDash(reg.IncomeModel))
			w.Flush()

			fmt.Fprintln(out)
			w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SCORER\tROLE\tLAYOUT\tWIDTH\tKEY")
			for _, s := range reg.Scorers {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", s.Name, s.Role, s.Layout, s.ExpectedWidth, s.Artifact)
			}
			return w.Flush()
		},
	}
}

func newValidateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Run the startup artifact checks against the configured source",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			log := opts.logger()
			ctx := cmd.Context()

			src, closeSource, err := app.OpenSource(ctx, cfg.Artifacts, toolRetry, log)
			if err != nil {
				return err
			}
			defer closeSource()
			reg, err := app.LoadRegistry(cfg)
			if err != nil {
				return err
			}

			_, diags, loadErr := artifacts.Load(ctx, src, reg, log)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ARTIFACT\tKEY\tSTATUS\tDETAIL")
			for _, d := range diags {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.Artifact, orDash(d.Key), d.Status, d.Message)
			}
			w.Flush()
			if loadErr != nil {
				return fmt.Errorf("bundle is not loadable: %w", loadErr)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nbundle OK (%s source)\n", src.Kind())
			return nil
		},
	}
}

func newScoreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "score <applicant.json>",
		Short: "Assess one applicant record offline and print the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var raw map[string]interface{}
			if err := json.Unmarshal(data, &raw); err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			ctx := cmd.Context()
			engine, _, closeSource, err := app.Bootstrap(ctx, cfg, toolRetry, opts.logger())
			defer closeSource()
			if err != nil {
				return err
			}

			in, err := validation.ParseApplicant(raw)
			if err != nil {
				return err
			}
			rep := engine.AssessReport(ctx, in, raw)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(rep); err != nil {
				return err
			}
			if !rep.Success {
				return fmt.Errorf("assessment failed: %s", rep.Error)
			}
			return nil
		},
	}
}

func newPushCmd(opts *rootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Upload the artifacts in a local directory to the configured Redis or Postgres store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			reg, err := app.LoadRegistry(cfg)
			if err != nil {
				return err
			}
			payloads, err := readArtifacts(dir, reg)
			if err != nil {
				return err
			}
			return push(cmd.Context(), cmd, cfg.Artifacts, payloads)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "./models", "directory holding the artifact files")
	return cmd
}

type artifactFile struct {
	name    string
	payload []byte
}

// readArtifacts reads every key the registry names. The income model may be absent.
func readArtifacts(dir string, reg *registry.ModelRegistry) ([]artifactFile, error) {
	keys := []string{reg.FeatureSchema, reg.Scaler, reg.Encoders}
	for _, s := range reg.Scorers {
		keys = append(keys, s.Artifact)
	}

	var files []artifactFile
	for _, key := range keys {
		data, err := os.ReadFile(filepath.Join(dir, key))
		if err != nil {
			return nil, err
		}
		files = append(files, artifactFile{name: key, payload: data})
	}
	if reg.IncomeModel != "" {
		if data, err := os.ReadFile(filepath.Join(dir, reg.IncomeModel)); err == nil {
			files = append(files, artifactFile{name: reg.IncomeModel, payload: data})
		}
	}
	return files, nil
}

func push(ctx context.Context, cmd *cobra.Command, cfg config.ArtifactsConfig, files []artifactFile) error {
	out := cmd.OutOrStdout()
	switch cfg.Source {
	case config.ArtifactSourceRedis:
		rdb, err := database.NewRedis(cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		for _, f := range files {
			if err := rdb.PutArtifact(ctx, cfg.Redis.KeyPrefix, f.name, f.payload); err != nil {
				return err
			}
			fmt.Fprintf(out, "stored %s%s (%d bytes)\n", cfg.Redis.KeyPrefix, f.name, len(f.payload))
		}
		return nil

	case config.ArtifactSourcePostgres:
		pg, err := database.NewPostgres(cfg.Postgres)
		if err != nil {
			return err
		}
		defer pg.Close()
		if err := pg.EnsureArtifactTable(ctx, cfg.Postgres.Table); err != nil {
			return err
		}
		for _, f := range files {
			version, err := pg.SaveArtifact(ctx, cfg.Postgres.Table, f.name, f.payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "stored %s version %d (%d bytes)\n", f.name, version, len(f.payload))
		}
		return nil

	default:
		return fmt.Errorf("push needs a redis or postgres artifact source, config has %q", cfg.Source)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
