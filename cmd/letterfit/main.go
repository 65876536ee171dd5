// Package main provides the CLI entrypoint for letterfit.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/letterfit/internal/batch"
	"github.com/verte-zerg/letterfit/internal/config"
	"github.com/verte-zerg/letterfit/internal/dataset"
	"github.com/verte-zerg/letterfit/internal/letterbag"
	"github.com/verte-zerg/letterfit/internal/match"
	"github.com/verte-zerg/letterfit/internal/model"
	"github.com/verte-zerg/letterfit/internal/progress"
	"github.com/verte-zerg/letterfit/internal/report"
	"github.com/verte-zerg/letterfit/internal/sample"
	"github.com/verte-zerg/letterfit/internal/store"
)

const (
	defaultDictPath  = "./data/dictionary.txt"
	defaultTestsPath = "./data/test_cases.txt"
	defaultProgress  = progress.ModeAuto
)

var (
	evalDict         string
	evalDictName     string
	evalTests        string
	evalWorkers      int
	evalShuffle      bool
	evalSeed         int64
	evalLimit        int
	evalShowFailures int
	evalProgress     string

	matchDict     string
	matchDictName string

	importName  string
	importForce bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "letterfit",
		Short:         "Score letter-bag word matching against labelled test cases",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runEvalCmd,
	}

	rootCmd.Flags().StringVar(&evalDict, "dict", defaultDictPath, "dictionary file, one word per line")
	rootCmd.Flags().StringVar(&evalDictName, "dict-name", "", "use a dictionary imported with 'letterfit dict import'")
	rootCmd.Flags().StringVar(&evalTests, "tests", defaultTestsPath, "test case file")
	rootCmd.Flags().IntVar(&evalWorkers, "workers", 0, "worker pool size (default: number of CPUs)")
	rootCmd.Flags().BoolVar(&evalShuffle, "shuffle", false, "shuffle test cases before dispatch")
	rootCmd.Flags().Int64Var(&evalSeed, "seed", 0, "seed for --shuffle and --limit (default: random)")
	rootCmd.Flags().IntVar(&evalLimit, "limit", 0, "evaluate a random sample of N test cases")
	rootCmd.Flags().IntVar(&evalShowFailures, "show-failures", 0, "print up to N failed test cases")
	rootCmd.Flags().StringVar(&evalProgress, "progress", defaultProgress, "progress output: auto, bar, plain or none")

	rootCmd.AddCommand(newMatchCmd())
	rootCmd.AddCommand(newDictCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runEvalCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, "dict", &evalDict, fileCfg.Eval.Dict)
	applyConfig(cmd, "dict-name", &evalDictName, fileCfg.Eval.DictName)
	applyConfig(cmd, "tests", &evalTests, fileCfg.Eval.Tests)
	applyConfig(cmd, "workers", &evalWorkers, fileCfg.Eval.Workers)
	applyConfig(cmd, "shuffle", &evalShuffle, fileCfg.Eval.Shuffle)
	applyConfig(cmd, "seed", &evalSeed, fileCfg.Eval.Seed)
	applyConfig(cmd, "limit", &evalLimit, fileCfg.Eval.Limit)
	applyConfig(cmd, "show-failures", &evalShowFailures, fileCfg.Eval.ShowFailures)
	applyConfig(cmd, "progress", &evalProgress, fileCfg.Eval.Progress)

	cfg := model.EvalConfig{
		DictPath:     evalDict,
		DictName:     evalDictName,
		TestsPath:    evalTests,
		Workers:      evalWorkers,
		Shuffle:      evalShuffle,
		Seed:         evalSeed,
		Limit:        evalLimit,
		ShowFailures: evalShowFailures,
		Progress:     evalProgress,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	dict, err := loadDictionary(ctx, cfg.DictPath, cfg.DictName)
	if err != nil {
		return err
	}
	if len(dict) == 0 {
		logErrln("dictionary is empty; every test case will be counted as incorrect")
	}

	cases, skipped, err := dataset.LoadTestCases(cfg.TestsPath)
	if err != nil {
		return err
	}
	if skipped > 0 {
		logErrf("skipped %d malformed test case lines\n", skipped)
	}
	if cfg.Shuffle || cfg.Limit > 0 {
		s := sample.New(cfg.Seed)
		if cfg.Limit > 0 {
			cases = s.Sample(cases, cfg.Limit)
		}
		if cfg.Shuffle {
			cases = s.Shuffle(cases)
		}
		logErrf("sampling seed: %d\n", s.Seed())
	}

	rep, err := progress.New(cfg.Progress, os.Stderr)
	if err != nil {
		return err
	}
	rep.Start()
	out, runErr := batch.Run(ctx, cases, dict, batch.Options{
		Workers:     cfg.Workers,
		MaxFailures: cfg.ShowFailures,
		Observer:    rep,
	})
	if err := rep.Stop(runErr != nil); err != nil {
		logErrf("failed to render progress: %v\n", err)
	}
	if runErr != nil {
		return fmt.Errorf("evaluation aborted: %w", runErr)
	}

	w := cmd.OutOrStdout()
	lines := report.FailureTable(out.Failures)
	if len(lines) > 0 {
		lines = append(lines, "")
	}
	lines = append(lines, report.FormatSummary(out), report.FormatAccuracy(out))
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newMatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match <letter-spec>",
		Short: "Print the best dictionary match for a letter spec",
		Args:  cobra.ExactArgs(1),
		RunE:  runMatchCmd,
	}
	cmd.Flags().StringVar(&matchDict, "dict", defaultDictPath, "dictionary file, one word per line")
	cmd.Flags().StringVar(&matchDictName, "dict-name", "", "use an imported dictionary")
	return cmd
}

func runMatchCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyConfig(cmd, "dict", &matchDict, fileCfg.Eval.Dict)
	applyConfig(cmd, "dict-name", &matchDictName, fileCfg.Eval.DictName)

	bag, err := letterbag.Parse(args[0])
	if err != nil {
		return err
	}
	dict, err := loadDictionary(cmd.Context(), matchDict, matchDictName)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	best, ok := match.FindBestMatch(dict, bag)
	if !ok {
		_, err = fmt.Fprintln(w, "no match")
	} else {
		_, err = fmt.Fprintf(w, "%s (score %d, length difference %d)\n", best.Word, best.Score, best.Difference)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newDictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dict",
		Short: "Manage imported dictionaries",
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import a dictionary file into the local database",
		Args:  cobra.ExactArgs(1),
		RunE:  runDictImportCmd,
	}
	importCmd.Flags().StringVar(&importName, "name", "", "dictionary name (default: file name without extension)")
	importCmd.Flags().BoolVar(&importForce, "force", false, "replace an existing dictionary")

	cmd.AddCommand(importCmd)
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List imported dictionaries",
		Args:  cobra.NoArgs,
		RunE:  runDictListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rm <name>",
		Short: "Remove an imported dictionary",
		Args:  cobra.ExactArgs(1),
		RunE:  runDictRmCmd,
	})
	return cmd
}

func runDictImportCmd(cmd *cobra.Command, args []string) error {
	path := args[0]
	name := strings.TrimSpace(importName)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	words, err := dataset.LoadDictionary(path)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.ImportDictionary(cmd.Context(), name, abs, words, importForce); err != nil {
		if errors.Is(err, store.ErrExists) {
			return fmt.Errorf("dictionary %q already exists (use --force to replace)", name)
		}
		return fmt.Errorf("failed to import dictionary: %w", err)
	}
	logErrf("Imported %d words as %q\n", len(words), name)
	return nil
}

func runDictListCmd(cmd *cobra.Command, _ []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	infos, err := st.ListDictionaries(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list dictionaries: %w", err)
	}
	if len(infos) == 0 {
		logErrln("No dictionaries imported. Import with: letterfit dict import <file>")
		return nil
	}
	for _, info := range report.DictionaryTable(infos) {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), info); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func runDictRmCmd(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if err := st.DeleteDictionary(cmd.Context(), args[0]); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("dictionary %q not found", args[0])
		}
		return fmt.Errorf("failed to remove dictionary: %w", err)
	}
	logErrf("Removed %q\n", args[0])
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func loadDictionary(ctx context.Context, path, name string) (model.Dictionary, error) {
	if name == "" {
		return dataset.LoadDictionary(path)
	}
	st, err := openStore()
	if err != nil {
		return nil, err
	}
	defer closeStore(st)

	words, err := st.LoadDictionary(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, dictionaryNotFoundError(name)
		}
		return nil, fmt.Errorf("failed to load dictionary %q: %w", name, err)
	}
	return words, nil
}

func openStore() (*store.Store, error) {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	return st, nil
}

func closeStore(st *store.Store) {
	if err := st.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
}

// applyConfig copies a config file value into target unless the flag was
// set on the command line.
func applyConfig[T any](cmd *cobra.Command, name string, target, value *T) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# letterfit configuration
# Uncomment a value to enable it. CLI flags override config values.

[eval]
# dict = %q    # Dictionary file, one word per line
# dict-name = "en"                      # Imported dictionary (overrides dict)
# tests = %q   # Test case file
# workers = 0                           # Worker pool size (0: number of CPUs)
# shuffle = false                       # Shuffle test cases before dispatch
# seed = 0                              # Sampling seed (0: random)
# limit = 0                             # Evaluate a random sample of N cases
# show-failures = 0                     # Print up to N failed cases
# progress = %q                      # auto, bar, plain or none
`,
		defaultDictPath,
		defaultTestsPath,
		defaultProgress,
	)
}

func validateConfig(cfg model.EvalConfig) error {
	if cfg.DictName == "" && cfg.DictPath == "" {
		return fmt.Errorf("--dict must not be empty")
	}
	if cfg.TestsPath == "" {
		return fmt.Errorf("--tests must not be empty")
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("--workers must be >= 0")
	}
	if cfg.Limit < 0 {
		return fmt.Errorf("--limit must be >= 0")
	}
	if cfg.ShowFailures < 0 {
		return fmt.Errorf("--show-failures must be >= 0")
	}
	switch cfg.Progress {
	case progress.ModeAuto, progress.ModeBar, progress.ModePlain, progress.ModeNone:
	default:
		return fmt.Errorf("--progress must be one of auto, bar, plain, none")
	}
	return nil
}

func dictionaryNotFoundError(name string) error {
	lines := []string{
		fmt.Sprintf("dictionary %q not found", name),
		"Run: letterfit dict list",
		fmt.Sprintf("Import: letterfit dict import <file> --name %s", name),
	}
	return fmt.Errorf("%s", strings.Join(lines, "\n"))
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
