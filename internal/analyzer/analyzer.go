package analyzer

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"finlint/internal/config"
	"finlint/internal/logging"
	"finlint/internal/models"
)

// Analyzer scans batches of files. Reading files is its job; the engine
// only ever sees loaded text.
type Analyzer struct {
	engine *Engine
	config *config.Config
	logger *zap.Logger
}

func NewAnalyzer(cfg *config.Config, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = logging.L()
	}
	return &Analyzer{
		engine: NewEngineFromConfig(cfg, logger),
		config: cfg,
		logger: logger,
	}
}

func NewAnalyzerWithEngine(engine *Engine, cfg *config.Config, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = logging.L()
	}
	return &Analyzer{engine: engine, config: cfg, logger: logger}
}

func (a *Analyzer) Engine() *Engine {
	return a.engine
}

// ScanPaths collects files under paths and scans them. Unreadable entries
// found while walking are reported as ResourceAccessFailure results after
// the scanned files.
func (a *Analyzer) ScanPaths(ctx context.Context, paths []string) (*models.BatchReport, error) {
	start := time.Now()
	files, unreadable, err := CollectFiles(paths, a.config)
	if err != nil {
		return nil, err
	}
	results, err := a.scanAll(ctx, files)
	if err != nil {
		return nil, err
	}
	for _, u := range unreadable {
		a.logger.Warn("skipping unreadable path", zap.String("path", u.Path), zap.Error(u.Err))
		results = append(results, models.ScanResult{
			FilePath: u.Path,
			Language: LanguageForPath(u.Path),
			Err:      models.NewResourceAccessFailure(u.Path, u.Err),
		})
	}
	return BuildReport(results, time.Since(start)), nil
}

// ScanFiles scans files in parallel, up to max_workers at a time. Results
// keep the order of files, and a failing file never stops the others.
func (a *Analyzer) ScanFiles(ctx context.Context, files []string) (*models.BatchReport, error) {
	start := time.Now()
	results, err := a.scanAll(ctx, files)
	if err != nil {
		return nil, err
	}
	return BuildReport(results, time.Since(start)), nil
}

func (a *Analyzer) scanAll(ctx context.Context, files []string) ([]models.ScanResult, error) {
	start := time.Now()
	results := make([]models.ScanResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Analysis.MaxWorkers)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.ScanFile(file)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scan interrupted: %w", err)
	}

	a.logger.Debug("batch complete", zap.Int("files", len(files)), zap.Duration("elapsed", time.Since(start)))
	return results, nil
}

// ScanFile reads and scans one file. Read failures become a
// ResourceAccessFailure result.
func (a *Analyzer) ScanFile(path string) models.ScanResult {
	start := time.Now()
	fail := func(err error) models.ScanResult {
		a.logger.Warn("cannot read file", zap.String("file", path), zap.Error(err))
		return models.ScanResult{
			FilePath:     path,
			Language:     LanguageForPath(path),
			Err:          models.NewResourceAccessFailure(path, err),
			ScanDuration: time.Since(start),
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return fail(err)
	}
	if !info.Mode().IsRegular() {
		return fail(fmt.Errorf("not a regular file"))
	}
	if limit := a.config.MaxFileBytes(); limit > 0 && info.Size() > limit {
		return fail(fmt.Errorf("file size %d exceeds max_file_size of %d KB", info.Size(), a.config.Files.MaxFileSize))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fail(err)
	}
	return a.engine.ScanSource(string(data), models.LanguageUnknown, path)
}

// ScanReader scans a stream such as stdin under the given display name.
func (a *Analyzer) ScanReader(r io.Reader, name string, hint models.Language) models.ScanResult {
	data, err := io.ReadAll(r)
	if err != nil {
		return models.ScanResult{FilePath: name, Language: hint, Err: models.NewResourceAccessFailure(name, err)}
	}
	return a.engine.ScanSource(string(data), hint, name)
}
