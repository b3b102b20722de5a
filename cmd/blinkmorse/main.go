// Package main provides the CLI entrypoint for blinkmorse.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/blinkmorse/internal/calibrateui"
	"github.com/verte-zerg/blinkmorse/internal/calibration"
	"github.com/verte-zerg/blinkmorse/internal/config"
	"github.com/verte-zerg/blinkmorse/internal/engine"
	"github.com/verte-zerg/blinkmorse/internal/feed"
	"github.com/verte-zerg/blinkmorse/internal/model"
	"github.com/verte-zerg/blinkmorse/internal/shortcut"
	"github.com/verte-zerg/blinkmorse/internal/signal"
	"github.com/verte-zerg/blinkmorse/internal/stats"
	"github.com/verte-zerg/blinkmorse/internal/store"
	"github.com/verte-zerg/blinkmorse/internal/synth"
	"github.com/verte-zerg/blinkmorse/internal/tui"
)

const (
	defaultDebounceMs  = 80
	defaultSamples     = 5
	defaultStdDevs     = 2.0
	defaultOutlierStd  = 2.0
	defaultCurveWindow = 10
	defaultPlotHeight  = 10
)

var (
	liveInput      string
	liveSimulate   bool
	liveRecord     string
	liveDebounceMs int

	calibrateSamples    int
	calibrateStdDevs    float64
	calibrateOutlierStd float64

	decodeInput      string
	decodeDebounceMs int

	historySince       string
	historyLast        int
	historyCurveWindow int

	synthText   string
	synthOutput string
	synthJitter float64
	synthSeed   int64
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "blinkmorse",
		Short:         "Blink-to-text Morse translator",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runLiveCmd,
	}

	rootCmd.Flags().StringVar(&liveInput, "input", "", "sample stream file, or - for stdin")
	rootCmd.Flags().BoolVar(&liveSimulate, "simulate", false, "keyboard mode: space toggles eye closure")
	rootCmd.Flags().StringVar(&liveRecord, "record", "", "tee raw samples to a file for later decode")
	rootCmd.Flags().IntVar(&liveDebounceMs, "debounce-ms", defaultDebounceMs, "flicker debounce window in milliseconds")

	rootCmd.AddCommand(newCalibrateCmd())
	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newSynthCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func runLiveCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "debounce-ms", &liveDebounceMs, fileCfg.Signal.DebounceMs)

	if liveInput == "" && !liveSimulate {
		return fmt.Errorf("either --input or --simulate is required")
	}
	if liveInput != "" && liveSimulate {
		return fmt.Errorf("--input and --simulate are mutually exclusive")
	}

	eng, err := buildEngine(liveDebounceMs)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	opts := tui.Options{
		Engine:   eng,
		Store:    st,
		Simulate: liveSimulate,
	}

	if liveInput != "" {
		in, closeIn, err := openInput(liveInput)
		if err != nil {
			return err
		}
		defer closeIn()
		opts.Feed = feed.NewReader(in)
	}

	if liveRecord != "" {
		recFile, err := os.Create(liveRecord)
		if err != nil {
			return fmt.Errorf("failed to create recording: %w", err)
		}
		rec := feed.NewWriter(recFile)
		defer func() {
			if ferr := rec.Flush(); ferr != nil {
				logErrf("failed to flush recording: %v\n", ferr)
			}
			if cerr := recFile.Close(); cerr != nil {
				logErrf("failed to close recording: %v\n", cerr)
			}
		}()
		opts.Recorder = rec
	}

	m := tui.NewModel(opts)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if report := m.FinalReport(); report != "" {
		fmt.Print(report)
	}
	return m.Err()
}

// buildEngine assembles the pipeline from the persisted profile and
// quick-command table.
func buildEngine(debounceMs int) (*engine.Engine, error) {
	profile, ok, err := config.LoadProfile(config.DefaultProfilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	if !ok {
		logErrln("no calibration profile found; using defaults (run: blinkmorse calibrate)")
		profile = model.DefaultProfile()
	} else if !profile.Valid() {
		return nil, fmt.Errorf("persisted profile violates threshold ordering; re-run calibration")
	}

	shortcuts, err := loadShortcuts()
	if err != nil {
		return nil, err
	}

	debounce := time.Duration(debounceMs) * time.Millisecond
	if debounce <= 0 {
		debounce = signal.DefaultDebounce
	}

	return engine.New(engine.Options{
		Debounce:  debounce,
		Profile:   profile,
		Shortcuts: shortcuts,
	}), nil
}

func loadShortcuts() (*shortcut.Table, error) {
	entries, err := config.LoadShortcuts(config.DefaultShortcutsPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load shortcuts: %w", err)
	}
	if entries == nil {
		return shortcut.Default(), nil
	}
	table, err := shortcut.New(entries)
	if err != nil {
		return nil, fmt.Errorf("invalid shortcuts file: %w", err)
	}
	return table, nil
}

func openInput(path string) (*os.File, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() {
		if cerr := f.Close(); cerr != nil {
			logErrf("failed to close input: %v\n", cerr)
		}
	}, nil
}

func newCalibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Derive blink thresholds from guided prompts",
		Args:  cobra.NoArgs,
		RunE:  runCalibrateCmd,
	}
	cmd.Flags().IntVar(&calibrateSamples, "samples", defaultSamples, "valid samples required per prompt")
	cmd.Flags().Float64Var(&calibrateStdDevs, "stddevs", defaultStdDevs, "threshold distance in standard deviations")
	cmd.Flags().Float64Var(&calibrateOutlierStd, "outlier-stddevs", defaultOutlierStd, "outlier trim distance in standard deviations")
	return cmd
}

func runCalibrateCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "samples", &calibrateSamples, fileCfg.Calibration.SamplesPerPrompt)
	applyFloatConfig(cmd, "stddevs", &calibrateStdDevs, fileCfg.Calibration.StdDevs)
	applyFloatConfig(cmd, "outlier-stddevs", &calibrateOutlierStd, fileCfg.Calibration.OutlierStdDevs)

	calCfg := calibration.DefaultConfig()
	calCfg.SamplesPerPrompt = calibrateSamples
	calCfg.StdDevs = calibrateStdDevs
	calCfg.OutlierStdDevs = calibrateOutlierStd

	mgr, err := calibration.NewManager(config.NewProfileStore(config.DefaultProfilePath()), nil)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	mgr.Begin(calCfg)

	m := calibrateui.NewModel(mgr)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run calibration TUI: %w", err)
	}
	if m.Aborted() {
		logErrln("calibration aborted; previous profile kept")
		return nil
	}
	if err := m.Err(); err != nil {
		return fmt.Errorf("calibration failed: %w", err)
	}
	if profile, ok := m.Result(); ok {
		printProfile(os.Stdout, profile)
		fmt.Printf("written to %s\n", config.DefaultProfilePath())
	}
	return nil
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Batch-decode a recorded sample stream",
		Args:  cobra.NoArgs,
		RunE:  runDecodeCmd,
	}
	cmd.Flags().StringVar(&decodeInput, "input", "", "sample stream file, or - for stdin (required)")
	cmd.Flags().IntVar(&decodeDebounceMs, "debounce-ms", defaultDebounceMs, "flicker debounce window in milliseconds")
	return cmd
}

func runDecodeCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "debounce-ms", &decodeDebounceMs, fileCfg.Signal.DebounceMs)

	if decodeInput == "" {
		return fmt.Errorf("--input is required")
	}

	eng, err := buildEngine(decodeDebounceMs)
	if err != nil {
		return err
	}

	in, closeIn, err := openInput(decodeInput)
	if err != nil {
		return err
	}
	defer closeIn()

	reader := feed.NewReader(in)
	samples, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read samples: %w", err)
	}
	for _, s := range samples {
		eng.Push(s)
	}
	eng.Flush()

	fmt.Println(eng.Text())
	c := eng.Counters()
	logErrf("letters=%d words=%d phrases=%d ambiguous=%d unknown=%d dropped=%d\n",
		c.Letters, c.Words, c.Phrases, c.Ambiguous, c.Unknown, c.Dropped)
	return nil
}

func newSynthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Render text into a sample stream",
		Args:  cobra.NoArgs,
		RunE:  runSynthCmd,
	}
	cmd.Flags().StringVar(&synthText, "text", "", "text to render (required)")
	cmd.Flags().StringVar(&synthOutput, "output", "-", "output file, or - for stdout")
	cmd.Flags().Float64Var(&synthJitter, "jitter", 0.1, "random duration variation (0-0.2)")
	cmd.Flags().Int64Var(&synthSeed, "seed", 0, "random seed; 0 uses the current time")
	return cmd
}

func runSynthCmd(_ *cobra.Command, _ []string) error {
	if synthText == "" {
		return fmt.Errorf("--text is required")
	}
	profile, ok, err := config.LoadProfile(config.DefaultProfilePath())
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if !ok || !profile.Valid() {
		profile = model.DefaultProfile()
	}

	var gen *synth.Generator
	if synthSeed != 0 {
		gen = synth.NewSeeded(profile, synthJitter, synthSeed)
	} else {
		gen = synth.New(profile, synthJitter)
	}
	samples, err := gen.Samples(synthText)
	if err != nil {
		return err
	}

	out := os.Stdout
	if synthOutput != "-" {
		f, err := os.Create(synthOutput)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logErrf("failed to close output: %v\n", cerr)
			}
		}()
		out = f
	}
	w := feed.NewWriter(out)
	for _, s := range samples {
		if err := w.Write(s); err != nil {
			return fmt.Errorf("failed to write sample: %w", err)
		}
	}
	return w.Flush()
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past session statistics",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&historyCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	return cmd
}

func runHistoryCmd(_ *cobra.Command, _ []string) error {
	filter := store.HistoryFilter{Limit: historyLast}
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	report, err := stats.BuildReport(context.Background(), st, filter)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}

	totalWidth := 0
	useColor := false
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		totalWidth = w
		useColor = term.IsTerminal(int(os.Stdout.Fd()))
	}
	out := bufio.NewWriter(os.Stdout)
	if err := report.Render(out, historyCurveWindow, totalWidth, defaultPlotHeight, useColor); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}
	return out.Flush()
}

func newProfileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Print the active threshold profile",
		Args:  cobra.NoArgs,
		RunE:  runProfileCmd,
	}
}

func runProfileCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultProfilePath()
	profile, ok, err := config.LoadProfile(path)
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	if !ok {
		fmt.Println("No calibration profile found; built-in defaults are active.")
		profile = model.DefaultProfile()
	} else {
		fmt.Printf("Profile from %s\n", path)
	}
	printProfile(os.Stdout, profile)
	if ok && !profile.Valid() {
		return fmt.Errorf("profile violates threshold ordering; re-run calibration")
	}
	return nil
}

func printProfile(w *os.File, p model.ThresholdProfile) {
	fmt.Fprintf(w, "short blink (dot)  <= %s\n", p.ShortBlinkMax.Round(time.Millisecond))
	fmt.Fprintf(w, "long blink (dash)  >= %s\n", p.LongBlinkMin.Round(time.Millisecond))
	fmt.Fprintf(w, "letter pause       >= %s\n", p.LetterGapMin.Round(time.Millisecond))
	fmt.Fprintf(w, "word pause         >= %s\n", p.WordGapMin.Round(time.Millisecond))
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

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# blinkmorse configuration
# Uncomment a value to enable it. CLI flags override config values.

[signal]
# debounce-ms = %d         # Ignore state flips shorter than this

[calibration]
# samples-per-prompt = %d  # Valid samples required per prompt
# stddevs = %.1f           # Threshold distance in standard deviations
# outlier-stddevs = %.1f   # Outlier trim distance in standard deviations
`,
		defaultDebounceMs,
		defaultSamples,
		defaultStdDevs,
		defaultOutlierStd,
	)
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
