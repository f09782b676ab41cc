// Command aird assesses a relational data source's AI-readiness: it
// introspects the catalog, runs a suite of read-only probes, scores the
// results against tiered thresholds, and produces a structured report that
// can be saved, diffed, compared, re-run, and benchmarked.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"aird/internal/cliutil"
	"aird/internal/config"
	"aird/internal/discovery"
	"aird/internal/history"
	"aird/internal/log"
	"aird/internal/pipeline"
	"aird/internal/platform"
	"aird/internal/platform/duckdbadapter"
	"aird/internal/platform/mysqladapter"
	"aird/internal/platform/postgresadapter"
	"aird/internal/platform/snowflakeadapter"
	"aird/internal/platform/sqliteadapter"
	"aird/internal/remediation"
	"aird/internal/render"
	"aird/internal/report"
	"aird/internal/requirements"
	"aird/internal/runner"
	"aird/internal/suite"
	"aird/internal/thresholds"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run builds the command tree and executes it, returning the process exit
// code spec.md §6 defines (0/1/2) rather than calling os.Exit directly, so
// the whole dispatch is testable.
func run(args []string, stdout, stderr io.Writer) int {
	platforms := platform.NewRegistry()
	sqliteadapter.Register(platforms)
	postgresadapter.Register(platforms)
	duckdbadapter.Register(platforms)
	snowflakeadapter.Register(platforms)
	mysqladapter.Register(platforms)

	suites := suite.NewRegistry()
	if err := suites.LoadBuiltins(); err != nil {
		fmt.Fprintf(stderr, "aird: loading built-in suites: %v\n", err)
		return 1
	}

	reqRegistry := requirements.NewRegistry()

	root := &cobra.Command{
		Use:           "aird",
		Short:         "AI-readiness data assessment engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringP("connection", "c", "", "connection string (or env:VAR_NAME)")
	flags.StringP("context", "", "", "context file (JSON or YAML)")
	flags.String("thresholds", "", "threshold override file (JSON)")
	flags.StringP("output", "o", "stdout", "output format: stdout | markdown | json:<path>")
	flags.String("log-level", "info", "log level: debug | info | warn | error")
	flags.Bool("audit", false, "log every executed probe to the history store")
	flags.String("db-path", "", "history store path (default ~/.aird/assessments.db)")

	v := config.Bind(flags)

	loadConfig := func() (config.Config, error) {
		cfg := config.Load(v)
		if _, err := log.New(cfg.LogLevel); err != nil {
			return cfg, cliutil.NewConfigurationError("building logger", err)
		}
		return cfg, nil
	}

	openStore := func(cfg config.Config) (*history.Store, error) {
		store, err := history.Open(cfg.DBPath)
		if err != nil {
			return nil, cliutil.NewRuntimeError("opening history store "+cfg.DBPath, err)
		}
		return store, nil
	}

	deps := func(cfg config.Config, store *history.Store) pipeline.Deps {
		return pipeline.Deps{Platforms: platforms, Suites: suites, Requirements: reqRegistry, Store: store}
	}

	root.AddCommand(
		newAssessCmd(loadConfig, openStore, deps, stdout, stderr),
		newDiscoverCmd(loadConfig, platforms, stdout),
		newRunCmd(loadConfig, platforms, suites, reqRegistry, stdout),
		newReportCmd(loadConfig, openStore, reqRegistry, stdout),
		newSaveCmd(loadConfig, openStore, stdout),
		newHistoryCmd(loadConfig, openStore, stdout),
		newDiffCmd(loadConfig, openStore, stdout),
		newSuitesCmd(suites, stdout),
		newRequirementsCmd(reqRegistry, stdout),
		newCompareCmd(loadConfig, deps, stdout),
		newRerunCmd(loadConfig, openStore, deps, stdout),
		newBenchmarkCmd(loadConfig, openStore, deps, stdout, stderr),
		newInitCmd(stdout),
		newFixCmd(loadConfig, openStore, stdout),
	)

	root.SetArgs(args)
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(stderr, "aird: %v\n", err)
	}
	return cliutil.ExitCode(err)
}

func connectionFlag(cmd *cobra.Command) string {
	v, _ := cmd.Flags().GetString("connection")
	return cliutil.ResolveEnvRef(v)
}

func writeReport(cmd *cobra.Command, output string, rep report.Report) error {
	return render.Write(render.ParseFormat(output), rep, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// newAssessCmd wires `aird assess`: the full discover -> run -> report ->
// save pipeline (original_source/agent/pipeline.py).
func newAssessCmd(
	loadConfig func() (config.Config, error),
	openStore func(config.Config) (*history.Store, error),
	deps func(config.Config, *history.Store) pipeline.Deps,
	stdout, stderr io.Writer,
) *cobra.Command {
	var schemas, tables []string
	var suiteName, workload, factorFilter, product, surveyAnswers string
	var noSave, compareFlag, dryRun, auditFlag, surveyFlag bool

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Full pipeline: discover, run, report, save",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			connection := connectionFlag(cmd)
			if connection == "" {
				connection = cfg.ConnectionString
			}

			var store *history.Store
			if !noSave || auditFlag || compareFlag {
				s, err := openStore(cfg)
				if err != nil {
					return err
				}
				store = s
				defer store.Close()
			}

			answers, err := loadAnswersFile(surveyAnswers)
			if err != nil {
				return err
			}

			result, err := deps(cfg, store).Assess(cmd.Context(), pipeline.AssessOptions{
				Connection:     connection,
				ContextPath:    cfg.ContextPath,
				ThresholdsPath: cfg.ThresholdsPath,
				SuiteName:      suiteName,
				FactorFilter:   factorFilter,
				Schemas:        schemas,
				Tables:         tables,
				TargetWorkload: workload,
				Product:        product,
				DryRun:         dryRun,
				NoSave:         noSave,
				Audit:          auditFlag,
				Survey:         surveyFlag,
				SurveyAnswers:  answers,
				Compare:        compareFlag,
			})
			if err != nil {
				return err
			}

			if result.DryRun {
				return writeDryRunPreview(cmd, cfg.Output, result)
			}

			if err := writeReport(cmd, cfg.Output, result.Report); err != nil {
				return err
			}
			if result.Report.PreviousAssessmentID != "" {
				fmt.Fprintf(stderr, "\n(Diff vs previous: %s)\n", result.Report.PreviousAssessmentID)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&schemas, "schema", "s", nil, "restrict discovery to this schema (repeatable)")
	cmd.Flags().StringArrayVarP(&tables, "tables", "t", nil, "restrict discovery to this table (repeatable)")
	cmd.Flags().StringVar(&suiteName, "suite", "auto", "suite name, or auto for the connection's default")
	cmd.Flags().StringVar(&workload, "workload", "", "target workload level: analytics | rag | training")
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not persist the report")
	cmd.Flags().BoolVar(&compareFlag, "compare", false, "attach the previous assessment id for this connection")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview the expanded test set without executing it")
	cmd.Flags().BoolVar(&auditFlag, "audit", false, "log every executed probe")
	cmd.Flags().BoolVar(&surveyFlag, "survey", false, "run the question-based survey and include its results")
	cmd.Flags().StringVar(&surveyAnswers, "survey-answers", "", "YAML file of pre-filled survey answers")
	cmd.Flags().StringVar(&factorFilter, "factor", "", "restrict to a single quality factor")
	cmd.Flags().StringVar(&product, "product", "", "assess only the named data product from the context file")
	return cmd
}

func loadAnswersFile(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, cliutil.NewConfigurationError("reading survey answers file "+path, err)
	}
	var flat map[string]string
	if err := yaml.Unmarshal(raw, &flat); err != nil {
		return nil, cliutil.NewConfigurationError("parsing survey answers file "+path, err)
	}
	return flat, nil
}

func writeDryRunPreview(cmd *cobra.Command, output string, result pipeline.AssessResult) error {
	if cliutil.IsJSONPath(output) || output == "stdout" || output == "" {
		data, err := json.Marshal(result.DryRunPreview)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d tests would run:\n", result.TestCount)
	for _, p := range result.DryRunPreview {
		fmt.Fprintf(&b, "  %s\t%s/%s\t%s\n", p.ID, p.Factor, p.Requirement, p.TargetType)
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), b.String())
	return err
}

// newDiscoverCmd wires `aird discover`: connect and output inventory.
func newDiscoverCmd(loadConfig func() (config.Config, error), platforms *platform.Registry, stdout io.Writer) *cobra.Command {
	var schemas, tables []string
	var inventoryOut string

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Connect and output inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			connection := connectionFlag(cmd)
			if connection == "" {
				connection = cfg.ConnectionString
			}
			if connection == "" {
				return cliutil.NewUsageError("--connection or AIRD_CONNECTION_STRING required")
			}

			ctxDoc, err := config.LoadContext(cfg.ContextPath)
			if err != nil {
				return err
			}
			s := schemas
			if len(s) == 0 {
				s = ctxDoc.Schemas
			}
			t := tables
			if len(t) == 0 {
				t = ctxDoc.Tables
			}

			adapterName, conn, _, err := platforms.Connect(cmd.Context(), connection)
			if err != nil {
				return cliutil.NewRuntimeError("connecting", err)
			}
			defer conn.Close()

			inv, err := discovery.Discover(cmd.Context(), adapterName, conn, discovery.Filter{Schemas: s, Tables: t})
			if err != nil {
				return cliutil.NewRuntimeError("discovering inventory", err)
			}

			data, err := json.MarshalIndent(inv, "", "  ")
			if err != nil {
				return err
			}
			if inventoryOut != "" {
				return os.WriteFile(inventoryOut, data, 0o644)
			}
			_, err = fmt.Fprintln(stdout, string(data))
			return err
		},
	}
	cmd.Flags().StringArrayVarP(&schemas, "schema", "s", nil, "restrict to this schema (repeatable)")
	cmd.Flags().StringArrayVarP(&tables, "tables", "t", nil, "restrict to this table (repeatable)")
	cmd.Flags().StringVar(&inventoryOut, "inventory", "", "write inventory to file instead of stdout")
	return cmd
}

// newRunCmd wires `aird run`: run a suite against a previously discovered
// inventory read from --inventory (or stdin).
func newRunCmd(
	loadConfig func() (config.Config, error),
	platforms *platform.Registry,
	suites *suite.Registry,
	reqRegistry requirements.Registry,
	stdout io.Writer,
) *cobra.Command {
	var inventoryPath, suiteName, resultsPath string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run tests from a discovered inventory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			connection := connectionFlag(cmd)
			if connection == "" {
				connection = cfg.ConnectionString
			}
			if connection == "" {
				return cliutil.NewUsageError("--connection or AIRD_CONNECTION_STRING required")
			}

			raw, err := readPathOrStdin(inventoryPath)
			if err != nil {
				return err
			}
			var inv discovery.Inventory
			if err := json.Unmarshal(raw, &inv); err != nil {
				return cliutil.NewRuntimeError("decoding inventory", err)
			}

			resolver, err := thresholds.NewResolver(reqRegistry).LoadOverrides(cfg.ThresholdsPath)
			if err != nil {
				return cliutil.NewConfigurationError("loading threshold overrides", err)
			}

			adapterName, conn, defaultSuite, err := platforms.Connect(cmd.Context(), connection)
			if err != nil {
				return cliutil.NewRuntimeError("connecting", err)
			}
			defer conn.Close()

			rep, err := runner.Run(cmd.Context(), adapterName, conn, suites, defaultSuite, inv, &resolver, runner.Options{
				SuiteName: suiteName,
				DryRun:    dryRun,
			})
			if err != nil {
				return cliutil.NewRuntimeError("running suite", err)
			}

			var data []byte
			if rep.DryRun {
				data, err = json.MarshalIndent(rep.Preview, "", "  ")
			} else {
				data, err = json.MarshalIndent(rep.Results, "", "  ")
			}
			if err != nil {
				return err
			}
			if resultsPath != "" {
				return os.WriteFile(resultsPath, data, 0o644)
			}
			_, err = fmt.Fprintln(stdout, string(data))
			return err
		},
	}
	cmd.Flags().StringVar(&inventoryPath, "inventory", "-", "inventory JSON file, or - for stdin")
	cmd.Flags().StringVar(&suiteName, "suite", "auto", "suite name, or auto for the connection's default")
	cmd.Flags().StringVar(&resultsPath, "results", "", "write results to file instead of stdout")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "preview the expanded test set without executing it")
	return cmd
}

// newReportCmd wires `aird report`: build a report from a results file, or
// load one by assessment id.
func newReportCmd(
	loadConfig func() (config.Config, error),
	openStore func(config.Config) (*history.Store, error),
	reqRegistry requirements.Registry,
	stdout io.Writer,
) *cobra.Command {
	var resultsPath, assessmentID string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build a report from results, or load a saved one by id",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if assessmentID != "" {
				store, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				raw, err := store.GetReport(cmd.Context(), assessmentID)
				if err != nil {
					return cliutil.NewRuntimeError("loading assessment "+assessmentID, err)
				}
				if raw == nil {
					return cliutil.NewUsageError("assessment not found: %s", assessmentID)
				}
				var rep report.Report
				if err := json.Unmarshal(raw, &rep); err != nil {
					return cliutil.NewRuntimeError("decoding assessment "+assessmentID, err)
				}
				return writeReport(cmd, cfg.Output, rep)
			}

			if resultsPath == "" {
				return cliutil.NewUsageError("--results or --id required")
			}
			raw, err := readPathOrStdin(resultsPath)
			if err != nil {
				return err
			}
			var results []runner.Result
			if err := json.Unmarshal(raw, &results); err != nil {
				return cliutil.NewRuntimeError("decoding results", err)
			}
			_ = reqRegistry
			rep := report.Build(results, report.Options{})
			return writeReport(cmd, cfg.Output, rep)
		},
	}
	cmd.Flags().StringVar(&resultsPath, "results", "", "results JSON file, or - for stdin")
	cmd.Flags().StringVar(&assessmentID, "id", "", "load a previously saved assessment by id")
	return cmd
}

// newSaveCmd wires `aird save`: persist a report document to history.
func newSaveCmd(loadConfig func() (config.Config, error), openStore func(config.Config) (*history.Store, error), stdout io.Writer) *cobra.Command {
	var reportPath string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "Persist a report document to history",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			raw, err := readPathOrStdin(reportPath)
			if err != nil {
				return err
			}
			var rep report.Report
			if err := json.Unmarshal(raw, &rep); err != nil {
				return cliutil.NewRuntimeError("decoding report", err)
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			id, err := store.SaveReport(cmd.Context(), rep.CreatedAt, rep.ConnectionFingerprint, "", raw)
			if err != nil {
				return cliutil.NewRuntimeError("saving report", err)
			}
			_, err = fmt.Fprintln(stdout, id)
			return err
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "-", "report JSON file, or - for stdin")
	return cmd
}

// newHistoryCmd wires `aird history`: list saved assessments.
func newHistoryCmd(loadConfig func() (config.Config, error), openStore func(config.Config) (*history.Store, error), stdout io.Writer) *cobra.Command {
	var connectionFilter, productFilter string
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List saved assessments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()
			items, err := store.ListAssessments(cmd.Context(), connectionFilter, productFilter, limit)
			if err != nil {
				return cliutil.NewRuntimeError("listing assessments", err)
			}
			for _, a := range items {
				var s report.Summary
				_ = json.Unmarshal(a.Summary, &s)
				fmt.Fprintf(stdout, "%s\t%s\tL1:%.1f%%\tL2:%.1f%%\tL3:%.1f%%\t%s\t%s\n",
					a.ID, a.CreatedAt, s.L1Pct, s.L2Pct, s.L3Pct, a.ConnectionFingerprint, a.DataProduct)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&connectionFilter, "connection", "", "filter by connection fingerprint")
	cmd.Flags().StringVar(&productFilter, "product", "", "filter by data product name")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum rows returned")
	return cmd
}

// newDiffCmd wires `aird diff`: compare two saved (or file-based) reports'
// summaries.
func newDiffCmd(loadConfig func() (config.Config, error), openStore func(config.Config) (*history.Store, error), stdout io.Writer) *cobra.Command {
	var left, right string
	cmd := &cobra.Command{
		Use:   "diff [left-id] [right-id]",
		Short: "Compare two reports' summaries",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			leftRef, rightRef := left, right
			if len(args) > 0 {
				leftRef = args[0]
			}
			if len(args) > 1 {
				rightRef = args[1]
			}
			if leftRef == "" || rightRef == "" {
				return cliutil.NewUsageError("diff requires two assessment ids or --left/--right paths")
			}

			var store *history.Store
			openOnce := func() (*history.Store, error) {
				if store != nil {
					return store, nil
				}
				s, err := openStore(cfg)
				if err != nil {
					return nil, err
				}
				store = s
				return s, nil
			}
			defer func() {
				if store != nil {
					store.Close()
				}
			}()

			l, err := loadReportRef(cmd.Context(), leftRef, openOnce)
			if err != nil {
				return err
			}
			r, err := loadReportRef(cmd.Context(), rightRef, openOnce)
			if err != nil {
				return err
			}

			fmt.Fprintf(stdout, "Left:  L1=%.1f%% L2=%.1f%% L3=%.1f%%\n", l.Summary.L1Pct, l.Summary.L2Pct, l.Summary.L3Pct)
			fmt.Fprintf(stdout, "Right: L1=%.1f%% L2=%.1f%% L3=%.1f%%\n", r.Summary.L1Pct, r.Summary.L2Pct, r.Summary.L3Pct)
			return nil
		},
	}
	cmd.Flags().StringVar(&left, "left", "", "left assessment id or report file")
	cmd.Flags().StringVar(&right, "right", "", "right assessment id or report file")
	return cmd
}

// loadReportRef resolves ref as an assessment id (36-char UUID form) via
// openOnce's store, falling back to treating it as a file path.
func loadReportRef(ctx context.Context, ref string, openOnce func() (*history.Store, error)) (report.Report, error) {
	var raw []byte
	if len(ref) == 36 {
		store, err := openOnce()
		if err != nil {
			return report.Report{}, err
		}
		raw, err = store.GetReport(ctx, ref)
		if err != nil {
			return report.Report{}, cliutil.NewRuntimeError("loading assessment "+ref, err)
		}
	}
	if raw == nil {
		data, err := os.ReadFile(ref)
		if err != nil {
			return report.Report{}, cliutil.NewUsageError("could not load report %q: %v", ref, err)
		}
		raw = data
	}
	var rep report.Report
	if err := json.Unmarshal(raw, &rep); err != nil {
		return report.Report{}, cliutil.NewRuntimeError("decoding report "+ref, err)
	}
	return rep, nil
}

// newSuitesCmd wires `aird suites`: list every loaded suite and its test
// count.
func newSuitesCmd(suites *suite.Registry, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "suites",
		Short: "List test suites",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range suites.Names() {
				tests, err := suites.Resolve(name)
				if err != nil {
					return cliutil.NewRuntimeError("resolving suite "+name, err)
				}
				fmt.Fprintf(stdout, "%s\t%d tests\n", name, len(tests))
			}
			return nil
		},
	}
}

// newRequirementsCmd wires `aird requirements`: list every registered
// requirement and its default thresholds.
func newRequirementsCmd(reg requirements.Registry, stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "requirements",
		Short: "List registered requirements and default thresholds",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := reg.Keys()
			sortStringsInPlace(keys)
			for _, key := range keys {
				req, _ := reg.Lookup(key)
				fmt.Fprintf(stdout, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					req.Key, req.Factor, req.Direction,
					strconv.FormatFloat(req.DefaultThresholds.L1, 'g', -1, 64),
					strconv.FormatFloat(req.DefaultThresholds.L2, 'g', -1, 64),
					strconv.FormatFloat(req.DefaultThresholds.L3, 'g', -1, 64),
					boolToYesNo(req.Informational))
			}
			return nil
		},
	}
}

func boolToYesNo(b bool) string {
	if b {
		return "informational"
	}
	return ""
}

func sortStringsInPlace(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// newCompareCmd wires `aird compare`: assess two or more tables
// independently and render them side by side.
func newCompareCmd(loadConfig func() (config.Config, error), deps func(config.Config, *history.Store) pipeline.Deps, stdout io.Writer) *cobra.Command {
	var tables []string
	var suiteName string
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare assessment results for two or more tables side by side",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			connection := connectionFlag(cmd)
			if connection == "" {
				connection = cfg.ConnectionString
			}
			result, err := deps(cfg, nil).Compare(cmd.Context(), pipeline.CompareOptions{
				Connection: connection, Tables: splitCommaArgs(tables), SuiteName: suiteName, ThresholdsPath: cfg.ThresholdsPath,
			})
			if err != nil {
				return err
			}
			for _, table := range result.Tables {
				rep := result.Reports[table]
				fmt.Fprintf(stdout, "%s\tL1:%.1f%%\tL2:%.1f%%\tL3:%.1f%%\n", table, rep.Summary.L1Pct, rep.Summary.L2Pct, rep.Summary.L3Pct)
			}
			for _, fw := range result.FactorWinners {
				if fw.Best == "" {
					fmt.Fprintf(stdout, "%s\ttie\n", fw.Factor)
					continue
				}
				fmt.Fprintf(stdout, "%s\tbest:%s (%.1f%%)\n", fw.Factor, fw.Best, fw.L1Pct)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&tables, "tables", nil, "comma-separated or repeatable table names to compare")
	cmd.Flags().StringVar(&suiteName, "suite", "auto", "suite name, or auto for the connection's default")
	return cmd
}

func splitCommaArgs(raw []string) []string {
	var out []string
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// newRerunCmd wires `aird rerun`: re-execute the failed tests from the most
// recent (or named) assessment.
func newRerunCmd(
	loadConfig func() (config.Config, error),
	openStore func(config.Config) (*history.Store, error),
	deps func(config.Config, *history.Store) pipeline.Deps,
	stdout io.Writer,
) *cobra.Command {
	var assessmentID string
	cmd := &cobra.Command{
		Use:   "rerun",
		Short: "Re-run failed tests from the most recent assessment",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			connection := connectionFlag(cmd)
			if connection == "" {
				connection = cfg.ConnectionString
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			deltas, err := deps(cfg, store).Rerun(cmd.Context(), pipeline.RerunOptions{
				Connection: connection, AssessmentID: assessmentID, ThresholdsPath: cfg.ThresholdsPath,
			})
			if err != nil {
				return err
			}
			if len(deltas) == 0 {
				fmt.Fprintln(stdout, "No failed tests to re-run.")
				return nil
			}
			fixed, stillFailing := 0, 0
			for _, d := range deltas {
				status := "OK"
				if !d.WasL1 && d.NowL1 {
					status = "L1:FIXED"
					fixed++
				} else if !d.NowL1 {
					status = "L1:STILL_FAIL"
					stillFailing++
				}
				fmt.Fprintf(stdout, "%s\t%s\t%s\n", d.TestID, d.Factor, status)
			}
			fmt.Fprintf(stdout, "\nFixed: %d  Still failing: %d  Total re-run: %d\n", fixed, stillFailing, len(deltas))
			return nil
		},
	}
	cmd.Flags().StringVar(&assessmentID, "id", "", "assessment id to re-run (default: most recent)")
	return cmd
}

// newBenchmarkCmd wires `aird benchmark`: assess multiple connections and
// render them side by side, optionally persisting a benchmark group.
func newBenchmarkCmd(
	loadConfig func() (config.Config, error),
	openStore func(config.Config) (*history.Store, error),
	deps func(config.Config, *history.Store) pipeline.Deps,
	stdout, stderr io.Writer,
) *cobra.Command {
	var connections, labels []string
	var suiteName, factorFilter string
	var save, list bool

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Run assessment on multiple connections and compare results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			if list {
				store, err := openStore(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				items, err := store.ListBenchmarks(cmd.Context(), 20)
				if err != nil {
					return err
				}
				if len(items) == 0 {
					fmt.Fprintln(stdout, "No saved benchmarks.")
					return nil
				}
				for _, b := range items {
					fmt.Fprintf(stdout, "%s\t%s\t%s\n", b.ID, b.CreatedAt, strings.Join(b.Labels, ","))
				}
				return nil
			}

			var store *history.Store
			if save {
				s, err := openStore(cfg)
				if err != nil {
					return err
				}
				store = s
				defer store.Close()
			}

			result, err := deps(cfg, store).Benchmark(cmd.Context(), pipeline.BenchmarkOptions{
				Connections: connections, Labels: labels, SuiteName: suiteName,
				FactorFilter: factorFilter, ThresholdsPath: cfg.ThresholdsPath, Save: save,
				Parallel: len(connections),
			})
			if err != nil {
				return err
			}
			for _, label := range result.Labels {
				rep := result.Reports[label]
				fmt.Fprintf(stdout, "%s\tL1:%.1f%%\tL2:%.1f%%\tL3:%.1f%%\n", label, rep.Summary.L1Pct, rep.Summary.L2Pct, rep.Summary.L3Pct)
			}
			for i, r := range result.Ranking {
				fmt.Fprintf(stdout, "%d. %s\t%.1f%%\n", i+1, r.Name, r.L1Pct)
			}
			for _, fw := range result.FactorWinners {
				if fw.Best == "" {
					fmt.Fprintf(stdout, "%s\ttie\n", fw.Factor)
					continue
				}
				fmt.Fprintf(stdout, "%s\tbest:%s (%.1f%%)\n", fw.Factor, fw.Best, fw.L1Pct)
			}
			if result.BenchmarkID != "" {
				fmt.Fprintf(stderr, "Benchmark saved: %s\n", result.BenchmarkID)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&connections, "connection", "c", nil, "connection string (repeatable, at least 2)")
	cmd.Flags().StringArrayVar(&labels, "label", nil, "label for the matching -c connection (comma-separated or repeatable)")
	cmd.Flags().StringVar(&suiteName, "suite", "auto", "suite name, or auto for each connection's default")
	cmd.Flags().StringVar(&factorFilter, "factor", "", "restrict to a single quality factor")
	cmd.Flags().BoolVar(&save, "save", false, "persist each report and the benchmark group")
	cmd.Flags().BoolVar(&list, "list", false, "list previous benchmark runs")
	return cmd
}

// newInitCmd wires `aird init`. The interactive setup wizard itself is an
// out-of-scope collaborator (spec.md §1); this prints the minimum a new
// user needs instead of driving a prompt flow.
func newInitCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Print first-time setup guidance",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(stdout, "Set AIRD_CONNECTION_STRING (or pass -c) to a supported scheme:")
			fmt.Fprintln(stdout, "  sqlite:///path.db, postgres://..., duckdb:///path.duckdb, mysql://..., snowflake://connection:<name>")
			fmt.Fprintln(stdout, "Then run: aird assess -c <connection>")
			return nil
		},
	}
}

// newFixCmd wires `aird fix`: generate remediation scripts from a failed
// assessment's results.
func newFixCmd(loadConfig func() (config.Config, error), openStore func(config.Config) (*history.Store, error), stdout io.Writer) *cobra.Command {
	var assessmentID, outputDir string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "fix",
		Short: "Generate remediation scripts from failed assessment results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			id := assessmentID
			if id == "" {
				items, err := store.ListAssessments(cmd.Context(), "", "", 1)
				if err != nil {
					return cliutil.NewRuntimeError("listing assessments", err)
				}
				if len(items) == 0 {
					return cliutil.NewUsageError("no assessments in history. Run `aird assess` first")
				}
				id = items[0].ID
			}
			raw, err := store.GetReport(cmd.Context(), id)
			if err != nil {
				return cliutil.NewRuntimeError("loading assessment "+id, err)
			}
			if raw == nil {
				return cliutil.NewUsageError("assessment not found: %s", id)
			}
			var rep report.Report
			if err := json.Unmarshal(raw, &rep); err != nil {
				return cliutil.NewRuntimeError("decoding assessment "+id, err)
			}

			suggestions := remediation.Generate(rep.Results)
			if len(suggestions) == 0 {
				fmt.Fprintln(stdout, "No failed tests to remediate.")
				return nil
			}

			if dryRun || outputDir == "" {
				for i, s := range suggestions {
					target := s.Schema + "." + s.Table
					if s.Column != "" {
						target += "." + s.Column
					}
					fmt.Fprintf(stdout, "--- %d. %s/%s (%s) ---\n%s\n\n%s\n\n", i+1, s.Factor, s.Requirement, target, s.Description, s.SQL)
				}
				if dryRun {
					fmt.Fprintln(stdout, "--dry-run: no files written. Run without --dry-run and -o <dir> to write scripts.")
				}
				return nil
			}

			if err := os.MkdirAll(outputDir, 0o755); err != nil {
				return cliutil.NewRuntimeError("creating "+outputDir, err)
			}
			for i, s := range suggestions {
				name := fmt.Sprintf("%02d_%s_%s.sql", i+1, s.Requirement, strings.ReplaceAll(s.Table, ".", "_"))
				content := fmt.Sprintf("-- %s/%s: %s\n\n%s\n", s.Factor, s.Requirement, s.Description, s.SQL)
				if err := os.WriteFile(outputDir+"/"+name, []byte(content), 0o644); err != nil {
					return cliutil.NewRuntimeError("writing "+name, err)
				}
			}
			fmt.Fprintf(stdout, "Wrote %d remediation scripts to %s\n", len(suggestions), outputDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&assessmentID, "id", "", "assessment id (default: most recent)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "directory to write .sql scripts to")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print suggestions only, do not write files")
	return cmd
}

func readPathOrStdin(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, cliutil.NewRuntimeError("reading stdin", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, cliutil.NewUsageError("file not found: %s", path)
		}
		return nil, cliutil.NewRuntimeError("reading "+path, err)
	}
	return data, nil
}
