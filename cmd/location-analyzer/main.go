package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/porticoestate/location-hierarchy/internal/config"
	"github.com/porticoestate/location-hierarchy/internal/db"
	"github.com/porticoestate/location-hierarchy/internal/hierarchy"
	"github.com/porticoestate/location-hierarchy/internal/normalize"
	"github.com/porticoestate/location-hierarchy/internal/report"
	"github.com/porticoestate/location-hierarchy/internal/store"
	"github.com/porticoestate/location-hierarchy/internal/web"
)

var (
	// Global database connection
	dbConn *db.Connection
	cfg    *config.Config

	configFile string
	debugFlag  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "location-analyzer",
		Short: "PorticoEstate location hierarchy reconciliation",
		Long: `Rebuilds the canonical building (loc2) and entrance (loc3) assignment of every
unit in fm_location4 from building numbers and street addresses, and emits the SQL that
brings the stored hierarchy in line with it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configFile)
			if err != nil {
				return err
			}
			if debugFlag {
				cfg.Debug = true
			}

			dbConn, err = db.NewConnection(cfg.Database)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if dbConn != nil {
				dbConn.Close()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "TOML options file (overrides environment)")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug output")

	rootCmd.AddCommand(createPingCmd())
	rootCmd.AddCommand(createAnalyzeCmd())
	rootCmd.AddCommand(createExecuteCmd())
	rootCmd.AddCommand(createTablesCmd())
	rootCmd.AddCommand(createSchemaCmd())
	rootCmd.AddCommand(createServeCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newStore() *store.Store {
	return store.New(dbConn, cfg.Debug)
}

// runAnalysis analyzes one loc1, all of them at once, or each separately
func runAnalysis(ctx context.Context, st *store.Store, loc1 string, each bool) (*hierarchy.Result, error) {
	analyzer := hierarchy.NewAnalyzer(st, cfg.AnalyzerOptions())
	if each && loc1 == "" {
		return analyzer.AnalyzeEach(ctx)
	}
	return analyzer.Analyze(ctx, loc1)
}

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := newStore()
			if err := st.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Printf("Database connection successful (%s)\n", st.Driver())

			loc1s, err := st.ListLoc1(cmd.Context())
			if err != nil {
				log.Printf("Error listing properties: %v", err)
				return nil
			}
			fmt.Printf("Properties with buildings or units: %d\n", len(loc1s))
			return nil
		},
	}
}

// createAnalyzeCmd creates the analysis command
func createAnalyzeCmd() *cobra.Command {
	var (
		loc1         string
		each         bool
		format       string
		outFile      string
		showSQL      bool
		failOnIssues bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze the location hierarchy and print the corrective SQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			if loc1 == "" {
				loc1 = cfg.Analyzer.Loc1
			}
			result, err := runAnalysis(cmd.Context(), newStore(), loc1, each)
			if err != nil {
				return err
			}

			var w io.Writer = os.Stdout
			if outFile != "" {
				f, err := os.Create(outFile)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := report.Write(w, result, format, showSQL); err != nil {
				return err
			}
			if outFile != "" {
				fmt.Printf("Wrote %s report to %s\n", format, outFile)
			}

			if failOnIssues && !result.Clean() {
				return fmt.Errorf("%d issues found", len(result.Issues))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&loc1, "loc1", "", "Property to analyze (default: all)")
	cmd.Flags().BoolVar(&each, "each", false, "Analyze every property separately and combine the results")
	cmd.Flags().StringVarP(&format, "format", "f", report.FormatText, "Output format: "+strings.Join(report.Formats(), ", "))
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the report to a file")
	cmd.Flags().BoolVar(&showSQL, "show-sql", false, "Include the statements in the text report")
	cmd.Flags().BoolVar(&failOnIssues, "fail-on-issues", false, "Exit non-zero when the hierarchy needs changes")
	return cmd
}

// createExecuteCmd creates the command that applies the corrective SQL
func createExecuteCmd() *cobra.Command {
	var (
		loc1    string
		each    bool
		batches string
		yes     bool
	)

	cmd := &cobra.Command{
		Use:   "execute",
		Short: "Analyze, run the chosen batches in one transaction and verify",
		Long: `Runs the chosen statement batches in one transaction. Batches: ` +
			strings.Join(hierarchy.Categories, ", ") + `, or "all".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if loc1 == "" {
				loc1 = cfg.Analyzer.Loc1
			}
			chosen := hierarchy.ParseBatchNames(batches)
			if len(chosen) == 0 {
				return fmt.Errorf("no batches selected")
			}

			st := newStore()
			result, err := runAnalysis(cmd.Context(), st, loc1, each)
			if err != nil {
				return err
			}
			if result.Clean() {
				fmt.Println("No issues found, nothing to execute")
				return nil
			}
			if err := report.WriteText(os.Stdout, result, false); err != nil {
				return err
			}

			if !yes {
				fmt.Printf("\nExecute %s? [y/N] ", strings.Join(chosen, ", "))
				var answer string
				fmt.Scanln(&answer)
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					fmt.Println("Aborted")
					return nil
				}
			}

			counts, err := hierarchy.NewExecutor(st, cfg.Debug).Execute(cmd.Context(), result.SQL, chosen)
			if err != nil {
				return err
			}

			verify, err := runAnalysis(cmd.Context(), st, loc1, each)
			if err != nil {
				return fmt.Errorf("verification failed: %w", err)
			}
			fmt.Println()
			report.WriteExecution(os.Stdout, counts, verify)
			return nil
		},
	}

	cmd.Flags().StringVar(&loc1, "loc1", "", "Property to correct (default: all)")
	cmd.Flags().BoolVar(&each, "each", false, "Analyze every property separately")
	cmd.Flags().StringVar(&batches, "batches", "all", "Comma separated batches to run")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

// createTablesCmd lists the tables the corrections propagate to
func createTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables carrying location columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := newStore().ListTablesWithLocationColumns(cmd.Context())
			if err != nil {
				return err
			}
			names := make([]string, 0, len(tables))
			for name := range tables {
				names = append(names, name)
			}
			normalize.NewNaturalSorter().Strings(names)
			for _, name := range names {
				fmt.Printf("%-40s %s\n", name, strings.Join(tables[name], ", "))
			}
			fmt.Printf("\n%d tables\n", len(names))
			return nil
		},
	}
}

// createSchemaCmd creates the hierarchy tables and loads SQL dumps into a
// local database
func createSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [sql files...]",
		Short: "Create the hierarchy tables and load SQL files",
		RunE: func(cmd *cobra.Command, args []string) error {
			st := newStore()
			if err := st.ApplySchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("✓ Schema ready")

			if err := st.ExecuteSQLFiles(cmd.Context(), args...); err != nil {
				return err
			}
			if len(args) > 0 {
				fmt.Printf("✓ Loaded %d SQL files\n", len(args))
			}
			return nil
		},
	}
}

// createServeCmd starts the web API
func createServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			webCfg := web.ConfigFrom(cfg)
			if port > 0 {
				webCfg.Server.Port = port
			}
			return web.NewServer(webCfg, newStore()).Start()
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Port to listen on (overrides WEB_PORT)")
	return cmd
}
