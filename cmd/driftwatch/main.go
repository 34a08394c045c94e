package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/efebarandurmaz/driftwatch/internal/analysis"
	"github.com/efebarandurmaz/driftwatch/internal/config"
	"github.com/efebarandurmaz/driftwatch/internal/depgraph"
	"github.com/efebarandurmaz/driftwatch/internal/graph"
	"github.com/efebarandurmaz/driftwatch/internal/graph/neo4j"
	"github.com/efebarandurmaz/driftwatch/internal/ir"
	"github.com/efebarandurmaz/driftwatch/internal/observability"
	"github.com/efebarandurmaz/driftwatch/internal/plugins"
	"github.com/efebarandurmaz/driftwatch/internal/qualitygate"
	"github.com/efebarandurmaz/driftwatch/internal/snapshot"
)

// exitGateFailed is the exit status of a check whose blocking gates failed.
const exitGateFailed = 2

var errGateFailed = errors.New("quality gates failed")

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	envFile    string

	cfg    *config.Config
	logger *slog.Logger
	tp     *observability.TracerProvider
}

func main() {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:           "driftwatch",
		Short:         "Architecture drift detection for source trees",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file path (default ./driftwatch.yaml)")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Dotenv file loaded before config")

	rootCmd.AddCommand(
		a.analyzeCmd(),
		a.checkCmd(),
		a.exportCmd(),
		a.historyCmd(),
		a.languagesCmd(),
		a.dependentsCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// PostRun is skipped when RunE fails.
		_ = a.teardown()
		if errors.Is(err, errGateFailed) {
			os.Exit(exitGateFailed)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) setup(ctx context.Context) error {
	if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", a.envFile, err)
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = cfg.Log.Logger(os.Stderr)
	slog.SetDefault(a.logger)

	tp, err := observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: observability.DefaultTracingConfig().ServiceVersion,
		Environment:    cfg.Tracing.Environment,
		OTLPEndpoint:   cfg.Tracing.Endpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	a.tp = tp
	return nil
}

func (a *app) teardown() error {
	if a.tp == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := a.tp.Shutdown(ctx)
	a.tp = nil
	return err
}

// analyze runs the pipeline over root, applying a threshold override when
// one is given.
func (a *app) analyze(ctx context.Context, root, threshold string) (*analysis.Report, error) {
	cfg := *a.cfg
	if threshold != "" {
		cfg.Analysis.SeverityThreshold = threshold
	}
	return analysis.New(plugins.Default(), a.logger).Run(ctx, analysis.FromConfig(root, &cfg))
}

func (a *app) openStore() (*snapshot.Store, error) {
	return snapshot.NewStore(a.cfg.Snapshot.Dir)
}

func (a *app) openGraph(ctx context.Context) (*neo4j.Neo4jRepository, error) {
	if !a.cfg.Graph.Enabled() {
		return nil, errors.New("graph.uri is not configured")
	}
	g := a.cfg.Graph
	return neo4j.NewNeo4j(ctx, g.URI, g.Username, g.Password, g.Database)
}

func rootArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// repoName defaults the repository name to the base name of root.
func repoName(name, root string) string {
	if name != "" {
		return name
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return filepath.Base(root)
	}
	return filepath.Base(abs)
}

func projectKey(repo, branch string) string {
	if branch == "" {
		return repo
	}
	return repo + "@" + branch
}

func (a *app) analyzeCmd() *cobra.Command {
	var (
		format    string
		verbose   bool
		threshold string
		save      bool
		publish   bool
		repo      string
		branch    string
		tag       string
	)

	cmd := &cobra.Command{
		Use:   "analyze [path]",
		Short: "Analyze a source tree and report architecture violations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root := rootArg(args)

			report, err := a.analyze(ctx, root, threshold)
			if err != nil {
				return err
			}

			switch format {
			case "json":
				data, err := report.JSON()
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			case "text":
				report.WriteText(os.Stdout, verbose)
				if verbose && report.Metrics != nil {
					report.Metrics.PrintSummary(os.Stdout)
				}
			default:
				return fmt.Errorf("unknown format %q (want text or json)", format)
			}

			repo = repoName(repo, root)
			if save {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				snap := snapshot.NewFromReport(report, repo, branch)
				snap.Tag = tag
				if err := store.Save(snap); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Saved snapshot %s (%s)\n", snap.ID, snap.Status)
			}

			if publish {
				g, err := a.openGraph(ctx)
				if err != nil {
					return err
				}
				defer g.Close(context.Background())
				if err := g.StoreSnapshot(ctx, projectKey(repo, branch), report.Graph, report.Violations); err != nil {
					return err
				}
				fmt.Fprintf(os.Stderr, "Published graph for %s\n", projectKey(repo, branch))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print every violation and run metrics")
	cmd.Flags().StringVar(&threshold, "threshold", "", "Minimum severity to report (overrides config)")
	cmd.Flags().BoolVar(&save, "save", false, "Save a snapshot to the history store")
	cmd.Flags().BoolVar(&publish, "publish", false, "Store the graph in the configured graph database")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository name (default: directory name)")
	cmd.Flags().StringVar(&branch, "branch", snapshot.DefaultBranch, "Branch name")
	cmd.Flags().StringVar(&tag, "tag", "", "Tag for the saved snapshot")
	return cmd
}

func (a *app) checkCmd() *cobra.Command {
	var (
		jsonOut   bool
		threshold string
	)

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Analyze a source tree and evaluate quality gates",
		Long:  "Analyze a source tree and evaluate the configured quality gates. Exits with status 2 when a blocking gate fails.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			report, err := a.analyze(ctx, rootArg(args), threshold)
			if err != nil {
				return err
			}

			result := qualitygate.BuildPipeline(&a.cfg.Gates).Run(ctx, report.GateContext())
			if jsonOut {
				data, err := jsonIndent(result)
				if err != nil {
					return err
				}
				fmt.Println(string(data))
			} else {
				fmt.Print(qualitygate.FormatReport(result))
			}

			if !result.Passed() {
				return errGateFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output the gate result as JSON")
	cmd.Flags().StringVar(&threshold, "threshold", "", "Minimum severity to report (overrides config)")
	return cmd
}

func (a *app) exportCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export the dependency graph as DOT, Mermaid or JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := a.analyze(cmd.Context(), rootArg(args), "")
			if err != nil {
				return err
			}

			var out []byte
			switch format {
			case "dot":
				out = []byte(depgraph.ExportDOT(report.Graph))
			case "mermaid":
				out = []byte(depgraph.ExportMermaid(report.Graph))
			case "json":
				out, err = depgraph.ExportJSON(report.Graph)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown format %q (want dot, mermaid or json)", format)
			}

			if output == "" || output == "-" {
				_, err = os.Stdout.Write(out)
				return err
			}
			if err := os.WriteFile(output, out, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(os.Stderr, "Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "dot", "Export format: dot, mermaid or json")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func (a *app) languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages and extraction strategies",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%-12s %-8s %s\n", "LANGUAGE", "PARSER", "EXTENSIONS")
			for _, l := range plugins.Default().Languages() {
				fmt.Printf("%-12s %-8s %s\n", l.Name, l.Parser, strings.Join(l.Extensions, " "))
			}
		},
	}
}

func (a *app) dependentsCmd() *cobra.Command {
	var (
		root   string
		repo   string
		branch string
	)

	cmd := &cobra.Command{
		Use:   "dependents <module>",
		Short: "List modules that depend on a module, directly or transitively",
		Long: "List modules that depend on a module. Without --path the graph " +
			"published to the configured graph database is queried.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var repository graph.Repository
			project := projectKey(repoName(repo, root), branch)
			if root != "" {
				report, err := a.analyze(ctx, root, string(ir.SeverityLow))
				if err != nil {
					return err
				}
				mem := graph.NewMemory()
				if err := mem.StoreSnapshot(ctx, project, report.Graph, report.Violations); err != nil {
					return err
				}
				repository = mem
			} else {
				if repo == "" {
					return errors.New("--repo is required without --path")
				}
				g, err := a.openGraph(ctx)
				if err != nil {
					return err
				}
				defer g.Close(context.Background())
				repository = g
			}

			deps, err := repository.QueryDependents(ctx, project, args[0])
			if err != nil {
				return err
			}
			if len(deps) == 0 {
				fmt.Printf("No modules depend on %s\n", args[0])
				return nil
			}
			for _, d := range deps {
				fmt.Println(d)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&root, "path", "", "Analyze this tree instead of querying the graph database")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository name of the published graph")
	cmd.Flags().StringVar(&branch, "branch", snapshot.DefaultBranch, "Branch of the published graph")
	return cmd
}
