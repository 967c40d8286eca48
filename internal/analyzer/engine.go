package analyzer

import (
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"finlint/internal/analyzer/detectors"
	"finlint/internal/config"
	"finlint/internal/cost"
	"finlint/internal/logging"
	"finlint/internal/models"
	"finlint/internal/rules"
)

// DefaultInputName labels sources that were not read from a file.
const DefaultInputName = "<input>"

// Engine scans single source units. It is safe for concurrent use.
type Engine struct {
	scanners map[models.Language]detectors.Scanner
	logger   *zap.Logger
}

type engineOptions struct {
	iterations       int
	disabledConcerns []rules.Concern
	disabledRules    []string
	hotPath          bool
	logger           *zap.Logger
}

type Option func(*engineOptions)

// WithIterations sets the loop iteration assumption used for cost estimates.
func WithIterations(n int) Option {
	return func(o *engineOptions) { o.iterations = n }
}

// WithoutConcerns disables whole concerns, e.g. serialization.
func WithoutConcerns(concerns ...rules.Concern) Option {
	return func(o *engineOptions) { o.disabledConcerns = append(o.disabledConcerns, concerns...) }
}

// WithoutRules disables individual rule ids.
func WithoutRules(ids ...string) Option {
	return func(o *engineOptions) { o.disabledRules = append(o.disabledRules, ids...) }
}

// WithHotPath toggles severity escalation for hot paths.
func WithHotPath(enabled bool) Option {
	return func(o *engineOptions) { o.hotPath = enabled }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

func NewEngine(opts ...Option) *Engine {
	o := engineOptions{iterations: cost.DefaultIterations, hotPath: true}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logging.L()
	}

	estimator := cost.NewEstimator(o.iterations)
	tablesFor := func(lang models.Language) *rules.Tables {
		t := rules.For(lang).Without(o.disabledConcerns, o.disabledRules)
		if !o.hotPath {
			t.HotPath = rules.HotPathMarkers{}
		}
		return t
	}

	return &Engine{
		scanners: map[models.Language]detectors.Scanner{
			models.LanguagePython:     detectors.NewPythonScanner(tablesFor(models.LanguagePython), estimator, o.logger),
			models.LanguageJavaScript: detectors.NewJavaScriptScanner(tablesFor(models.LanguageJavaScript), estimator),
			models.LanguageJava:       detectors.NewJavaScanner(tablesFor(models.LanguageJava), estimator),
		},
		logger: o.logger,
	}
}

// NewEngineFromConfig applies the cost and rules sections of cfg.
func NewEngineFromConfig(cfg *config.Config, logger *zap.Logger) *Engine {
	opts := []Option{
		WithIterations(cfg.Cost.Iterations),
		WithoutRules(cfg.Rules.DisabledRules...),
		WithHotPath(cfg.Rules.HotPath),
		WithLogger(logger),
	}
	toggles := map[rules.Concern]bool{
		rules.ConcernDataAccess:     cfg.Rules.DataAccess,
		rules.ConcernOutboundCall:   cfg.Rules.OutboundCall,
		rules.ConcernSerialization:  cfg.Rules.Serialization,
		rules.ConcernUnboundedQuery: cfg.Rules.UnboundedQuery,
	}
	for concern, enabled := range toggles {
		if !enabled {
			opts = append(opts, WithoutConcerns(concern))
		}
	}
	return NewEngine(opts...)
}

// ScanSource scans already loaded text. A supported hint wins over
// detection; otherwise the language is resolved from pathHint and content.
// It never panics: internal faults come back as an ExecutionFailure.
func (e *Engine) ScanSource(source string, hint models.Language, pathHint string) (result models.ScanResult) {
	start := time.Now()
	result.FilePath = pathHint
	if result.FilePath == "" {
		result.FilePath = DefaultInputName
	}
	defer func() {
		result.ScanDuration = time.Since(start)
	}()

	lang := hint
	if !lang.Supported() {
		lang = DetectLanguage(source, pathHint)
	}
	result.Language = lang

	scanner, ok := e.scanners[lang]
	if !ok {
		result.Err = models.NewDetectionFailure("Could not detect programming language")
		e.logger.Debug("language detection failed", zap.String("file", result.FilePath))
		return result
	}

	defer func() {
		if r := recover(); r != nil {
			result.Findings = nil
			result.Err = models.NewExecutionFailure("analysis failed", fmt.Errorf("panic: %v", r))
			e.logger.Error("scanner panicked",
				zap.String("file", result.FilePath),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()

	findings, err := scanner.Scan(source, result.FilePath)
	if err != nil {
		result.Err = models.NewExecutionFailure("analysis failed", err)
		e.logger.Warn("scan failed", zap.String("file", result.FilePath), zap.Error(err))
		return result
	}
	result.Findings = findings
	e.logger.Debug("scanned",
		zap.String("file", result.FilePath),
		zap.String("language", string(lang)),
		zap.Int("findings", len(findings)))
	return result
}

// LinesInLoop exposes the loop-scope detector selected for a language.
func (e *Engine) LinesInLoop(source string, lang models.Language) (detectors.LineSet, error) {
	d := detectors.LoopScopeFor(lang)
	if d == nil {
		return nil, models.NewDetectionFailure("unsupported language " + string(lang))
	}
	return d.LinesInLoop(source)
}
