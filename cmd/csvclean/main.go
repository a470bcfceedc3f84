// cmd/csvclean/main.go

// csvclean profiles and cleans delimited datasets. Plans come from a
// plan file, a Gemini proposal, or the built-in baseline plan; every
// plan is validated against the dataset profile before execution.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rajansavani/csv-cleaner/pkg/artifact"
	"github.com/rajansavani/csv-cleaner/pkg/config"
	"github.com/rajansavani/csv-cleaner/pkg/ingest"
	"github.com/rajansavani/csv-cleaner/pkg/pipeline"
	"github.com/rajansavani/csv-cleaner/pkg/profile"
	"github.com/rajansavani/csv-cleaner/pkg/proposer"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	planFile string
	useLLM   bool
	outDir   string
	verbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "csvclean",
	Short: "Profile and clean delimited datasets with auditable plans",
	Long: `csvclean ingests a delimited dataset, profiles it, and applies a
declarative cleaning plan. Plans are a closed vocabulary of transforms
and are validated against the dataset profile before anything runs.
Every run produces a cleaned CSV, the executed plan, and an audit
report.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logger, err = config.NewLogger(level, cfg.LogFormat)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile [file]",
	Short: "Profile a dataset and print the result as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		ds, err := ingest.Decode(raw)
		if err != nil {
			return err
		}

		encoded, err := json.MarshalIndent(profile.New(ds), "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
		return nil
	},
}

var cleanCmd = &cobra.Command{
	Use:   "clean [file]",
	Short: "Clean a dataset and write the artifacts",
	Long: `Cleans a dataset with a validated plan. The plan comes from --plan
(a plan JSON file), --llm (a Gemini proposal built from the profile),
or the built-in baseline plan when neither is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if planFile != "" && useLLM {
			return fmt.Errorf("--plan and --llm are mutually exclusive")
		}

		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		base := outDir
		if base == "" {
			base = cfg.OutputDir
		}
		store, err := artifact.NewFSStore(base, logger)
		if err != nil {
			return err
		}

		runner := pipeline.NewRunner(logger).WithStore(store).WithWorkers(cfg.Workers)

		if cfg.Postgres != nil {
			db, err := artifact.OpenPostgres(ctx, artifact.PostgresSettings{
				DSN:             cfg.Postgres.ConnectionString(),
				MaxOpenConns:    cfg.Postgres.MaxOpenConns,
				MaxIdleConns:    cfg.Postgres.MaxIdleConns,
				ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
			}, logger)
			if err != nil {
				return err
			}
			defer db.Close()

			recorder, err := artifact.NewPGRecorder(db, logger)
			if err != nil {
				return err
			}
			runner = runner.WithRecorder(recorder)
		}

		if useLLM {
			source, err := proposer.NewGeminiSource(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, logger)
			if err != nil {
				return err
			}
			runner = runner.WithPlanSource(source)
		}

		job := pipeline.NewJob(args[0], raw)
		if planFile != "" {
			planJSON, err := os.ReadFile(planFile)
			if err != nil {
				return fmt.Errorf("failed to read plan file: %w", err)
			}
			job.PlanJSON = planJSON
		}

		res, err := runner.Run(ctx, job)
		if res != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "job %s: cleaned dataset written to %s\n",
				res.JobID, store.CleanedPath(res.JobID))
			fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", store.ReportPath(res.JobID))
			if res.Partial {
				fmt.Fprintln(cmd.OutOrStdout(), "run stopped early; artifacts cover the completed steps")
			}
			for _, aerr := range res.ArtifactErrs {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", aerr)
			}
		}
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cleanCmd.Flags().StringVar(&planFile, "plan", "", "path to a plan JSON file")
	cleanCmd.Flags().BoolVar(&useLLM, "llm", false, "propose a plan with Gemini")
	cleanCmd.Flags().StringVar(&outDir, "out", "", "artifact output directory (overrides OUTPUT_DIR)")

	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(cleanCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
