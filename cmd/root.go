package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"finlint/internal/analyzer"
	"finlint/internal/config"
	"finlint/internal/cost"
	"finlint/internal/history"
	"finlint/internal/logging"
	"finlint/internal/models"
)

var (
	formatFlag         string
	watchFlag          bool
	configFlag         string
	generateConfigFlag bool
	languageFlag       string
	iterationsFlag     int
	noColorFlag        bool
	verboseFlag        bool
	debugFlag          bool
	historyFlag        bool
	outputFlag         string
)

// exitError carries a process exit status without printing anything.
type exitError struct{ code int }

func (e exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "finlint [files or directories]",
	Short: "A cost-risk linter that flags code likely to run up cloud bills",
	Long: `finlint scans Python, JavaScript and Java sources for data access,
outbound calls and serialization inside loops, and for unbounded queries,
and estimates what they could cost.

Examples:
  finlint .                              # Scan current directory
  finlint handler.py app.js              # Scan specific files
  cat app.py | finlint -l python -       # Scan stdin
  finlint --format=json .                # Output results in JSON format
  finlint --format=sarif -o out.sarif .  # Write SARIF for code scanning
  finlint --config=.finlint.yml .        # Use custom config
  finlint --generate-config              # Generate sample config file`,
	Version:       analyzer.ToolVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          scanCommand,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit exitError
		if errors.As(err, &exit) {
			os.Exit(exit.code)
		}
		color.Red("Error: %v\n", err)
		os.Exit(2)
	}
}

func init() {
	rootCmd.Flags().StringVarP(&formatFlag, "format", "f", "", "Output format (console, json, sarif)")
	rootCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch mode for development")
	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Path to configuration file")
	rootCmd.Flags().BoolVar(&generateConfigFlag, "generate-config", false, "Generate sample configuration file")
	rootCmd.Flags().StringVarP(&languageFlag, "language", "l", "", "Language of stdin input (python, javascript, java)")
	rootCmd.Flags().IntVar(&iterationsFlag, "iterations", 0, "Assumed loop iterations per execution")
	rootCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "Disable colorized output")
	rootCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", false, "Show configuration and clean files")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Enable debug logging")
	rootCmd.Flags().BoolVar(&historyFlag, "history", false, "Record the run in the history database")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write the report to a file")
}

func scanCommand(cmd *cobra.Command, args []string) error {
	if generateConfigFlag {
		return generateConfig()
	}

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if len(args) == 0 {
		args = []string{"."}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := analyzer.NewAnalyzer(cfg, logger)
	reportGen := analyzer.NewReportGeneratorWithConfig(cfg)

	report, err := scanArgs(ctx, a, args)
	if err != nil {
		return err
	}

	if err := emit(reportGen.Generate(report), cfg.Output.OutputFile); err != nil {
		return err
	}

	if cfg.History.Enabled {
		recordHistory(ctx, cfg, args, report, logger)
	}

	if watchFlag {
		return watch(ctx, cfg, a, reportGen, args, logger)
	}

	if code := exitStatus(report, cfg); code != 0 {
		return exitError{code: code}
	}
	return nil
}

// setup loads configuration, applies flag overrides and builds the logger.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	logger, err := logging.Init(debugFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise logging: %w", err)
	}

	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, nil, fmt.Errorf("error loading configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = formatFlag
	}
	if flags.Changed("iterations") {
		cfg.Cost.Iterations = iterationsFlag
	}
	if noColorFlag || os.Getenv("NO_COLOR") != "" {
		cfg.Output.Colors = false
	}
	if verboseFlag {
		cfg.Output.Verbose = true
	}
	if historyFlag {
		cfg.History.Enabled = true
	}
	if outputFlag != "" {
		cfg.Output.OutputFile = outputFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, logger, nil
}

// scanArgs scans stdin when the only argument is "-", otherwise the
// given files and directories.
func scanArgs(ctx context.Context, a *analyzer.Analyzer, args []string) (*models.BatchReport, error) {
	if len(args) == 1 && args[0] == "-" {
		result := a.ScanReader(os.Stdin, "<stdin>", models.ParseLanguage(languageFlag))
		return analyzer.BuildReport([]models.ScanResult{result}, result.ScanDuration), nil
	}
	report, err := a.ScanPaths(ctx, args)
	if err != nil {
		return nil, err
	}
	if report.FilesScanned == 0 {
		color.Yellow("⚠️  No supported source files found to scan\n")
	}
	return report, nil
}

// exitStatus is 1 when any finding reaches the configured fail_on level.
func exitStatus(report *models.BatchReport, cfg *config.Config) int {
	threshold := cfg.FailThreshold()
	for i := range report.Results {
		if report.Results[i].HasFindingAtOrAbove(threshold) {
			return 1
		}
	}
	return 0
}

func emit(report, outputFile string) error {
	if outputFile == "" {
		fmt.Print(report)
		return nil
	}
	if err := writeReportToFile(report, outputFile); err != nil {
		return fmt.Errorf("failed to write report to file: %w", err)
	}
	color.Green("📄 Report saved to: %s\n", outputFile)
	return nil
}

func recordHistory(ctx context.Context, cfg *config.Config, args []string, report *models.BatchReport, logger *zap.Logger) {
	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		logger.Warn("history unavailable", zap.Error(err))
		return
	}
	defer store.Close()

	root, _ := filepath.Abs(args[0])
	run, err := store.Record(ctx, root, report)
	if err != nil {
		logger.Warn("failed to record run", zap.Error(err))
		return
	}
	trend, err := store.Compare(ctx, run)
	if err != nil {
		logger.Warn("failed to compute trend", zap.Error(err))
		return
	}
	fmt.Fprintln(os.Stderr, "📈 "+trendLine(trend))
}

func trendLine(trend history.Trend) string {
	if trend.FirstRun {
		return fmt.Sprintf("First recorded run: %s/month", cost.FormatCost(trend.To))
	}
	return fmt.Sprintf("Monthly estimate %s → %s (%s), %d new, %d resolved",
		cost.FormatCost(trend.From), cost.FormatCost(trend.To), trend.Direction, trend.New, trend.Resolved)
}

func writeReportToFile(report, filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(filePath, []byte(report), 0644)
}

func generateConfig() error {
	configPath := ".finlint.yml"
	if err := config.GenerateConfig(configPath); err != nil {
		return fmt.Errorf("failed to generate config file: %w", err)
	}
	color.Green("✅ Generated sample configuration file: %s\n", configPath)
	color.Cyan("📝 Edit this file to customize finlint behavior\n")
	color.Cyan("🚀 Run 'finlint --config=%s .' to use it\n", configPath)
	return nil
}
