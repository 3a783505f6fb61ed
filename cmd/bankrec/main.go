package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/yurifrl/bankrec/pkg/config"
	"github.com/yurifrl/bankrec/pkg/executors"
	"github.com/yurifrl/bankrec/pkg/importer"
	"github.com/yurifrl/bankrec/pkg/index"
	"github.com/yurifrl/bankrec/pkg/plan"
	"github.com/yurifrl/bankrec/pkg/server"
	"github.com/yurifrl/bankrec/pkg/service"
	"github.com/yurifrl/bankrec/pkg/store"
)

var (
	cfgFile    string
	cliFilters filters
)

var rootCmd = &cobra.Command{
	Use:           "bankrec",
	Short:         "Normalize bank statements and reconcile them with invoices",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		// Show help when no subcommand is provided
		return cmd.Help()
	},
}

// app holds what subcommands share.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	repo   store.Repository
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Build(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "bankrec",
		Level:           cfg.LogLevel(),
	})

	rt := &app{cfg: cfg, logger: logger}
	if cfg.Storage.DatabasePath != "" {
		repo, err := store.NewStorage(cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		rt.repo = repo
	}
	return rt, nil
}

func (rt *app) Close() {
	if rt.repo != nil {
		if err := rt.repo.Close(); err != nil {
			rt.logger.Warn("failed to close database", "error", err)
		}
	}
}

func (rt *app) executor() *executors.Executor {
	var opts []executors.Option
	if rt.repo != nil {
		opts = append(opts, executors.WithStore(rt.repo))
	}
	return executors.New(rt.logger, rt.cfg, opts...)
}

// operations picks where entries are read from: an explicit index file
// first, then the database when configured, then the default index file.
func (rt *app) operations(indexPath string) server.OperationSource {
	if indexPath == "" && rt.repo != nil {
		return rt.repo
	}
	if indexPath == "" {
		indexPath = filepath.Join(rt.cfg.Output.Dir, index.IndexFile)
	}
	return index.NewFileSource(afero.NewOsFs(), indexPath)
}

var buildCmd = &cobra.Command{
	Use:   "build [flags] [files or directories...]",
	Short: "Parse statements and write their artifacts and the operations index",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		planPath, _ := cmd.Flags().GetString("plan")
		dump, _ := cmd.Flags().GetBool("dump")

		opts := executors.BuildOptions{OutputDir: rt.cfg.Output.Dir, Overwrite: rt.cfg.Output.Overwrite}
		var (
			inputs   []service.Input
			invoices string
		)
		if planPath != "" {
			p, err := plan.Load(planPath)
			if err != nil {
				return err
			}
			inputs = p.Inputs()
			if p.OutputDir != "" {
				opts.OutputDir = p.OutputDir
			}
			opts.Overwrite = opts.Overwrite || p.Overwrite
			invoices = p.Invoices
		}
		if len(args) > 0 {
			found, err := service.Discover(args)
			if err != nil {
				return err
			}
			inputs = append(inputs, found...)
		}
		if len(inputs) == 0 {
			return fmt.Errorf("no statement files given")
		}

		exec := rt.executor()
		res, applyErr := exec.Apply(cmd.Context(), inputs, opts)
		if res == nil {
			return applyErr
		}
		if dump {
			for _, st := range res.Statements {
				_, _ = pp.Fprintln(os.Stderr, st)
			}
		}

		if invoices != "" {
			list, err := importer.New(rt.logger).Load(invoices)
			if err != nil {
				return err
			}
			if _, err := exec.Match(cmd.Context(), list, res.Index.Operations, false); err != nil {
				return err
			}
		}
		return applyErr
	},
}

var planCmd = &cobra.Command{
	Use:   "plan <manifest>",
	Short: "Preview a manifest (dry-run): planned artifacts and conflicts",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}

		fmt.Printf("Plan preview for %s\n", args[0])
		opts := executors.BuildOptions{OutputDir: rt.cfg.Output.Dir, Overwrite: rt.cfg.Output.Overwrite || p.Overwrite}
		if p.OutputDir != "" {
			opts.OutputDir = p.OutputDir
		} else {
			p.OutputDir = opts.OutputDir
		}
		p.Print(os.Stdout)
		fmt.Println()

		_, err = rt.executor().Plan(cmd.Context(), p.Inputs(), opts)
		return err
	},
}

var matchCmd = &cobra.Command{
	Use:   "match --invoices <file>",
	Short: "Rank index operations as payment candidates for invoices",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		invoicesPath, _ := cmd.Flags().GetString("invoices")
		indexPath, _ := cmd.Flags().GetString("index")
		asJSON, _ := cmd.Flags().GetBool("json")

		filter, err := cliFilters.toFilter()
		if err != nil {
			return err
		}
		invoices, err := importer.New(rt.logger).Load(invoicesPath)
		if err != nil {
			return err
		}
		entries, err := rt.operations(indexPath).ListOperations(filter)
		if err != nil {
			return err
		}

		_, err = rt.executor().Match(cmd.Context(), invoices, entries, asJSON)
		return err
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List index operations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		indexPath, _ := cmd.Flags().GetString("index")
		asCSV, _ := cmd.Flags().GetBool("csv")

		filter, err := cliFilters.toFilter()
		if err != nil {
			return err
		}
		entries, err := rt.operations(indexPath).ListOperations(index.Filter{})
		if err != nil {
			return err
		}
		rt.executor().List(entries, filter, asCSV)
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the index, matcher and parser over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := setup(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		indexPath, _ := cmd.Flags().GetString("index")
		return server.New(rt.cfg, rt.logger, rt.operations(indexPath)).Start(rt.cfg.Server.Addr)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Config file (default is ./bankrec.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output directory for artifacts and the index")
	rootCmd.PersistentFlags().String("db", "", "SQLite database mirroring the index")
	rootCmd.PersistentFlags().String("currency", "", "Currency used when a statement does not state one")
	rootCmd.PersistentFlags().Int("workers", 0, "Documents parsed in parallel")

	buildCmd.Flags().Bool("overwrite", false, "Replace existing statement artifacts")
	buildCmd.Flags().String("plan", "", "Manifest listing the statements to build")
	buildCmd.Flags().Bool("dump", false, "Pretty-print parsed statements to stderr")

	matchCmd.Flags().String("invoices", "", "Invoices file (JSON or YAML)")
	_ = matchCmd.MarkFlagRequired("invoices")
	matchCmd.Flags().String("index", "", "Operations index (default <output>/operations-index.json)")
	matchCmd.Flags().Bool("json", false, "Print the report as JSON")
	matchCmd.Flags().Int("window-days", 0, "Maximum days between invoice and payment")
	matchCmd.Flags().Int("max-candidates", 0, "Candidates kept per invoice")
	cliFilters.register(matchCmd)

	listCmd.Flags().String("index", "", "Operations index (default <output>/operations-index.json)")
	listCmd.Flags().Bool("csv", false, "Print CSV instead of a table")
	cliFilters.register(listCmd)

	serveCmd.Flags().String("addr", "", "Listen address")
	serveCmd.Flags().String("index", "", "Operations index (default <output>/operations-index.json)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, executors.ErrBatchFailures) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
