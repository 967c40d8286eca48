package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"

	"finlint/internal/analyzer"
	"finlint/internal/config"
	"finlint/internal/watcher"
)

// watch rescans changed files until ctx is cancelled.
func watch(ctx context.Context, cfg *config.Config, a *analyzer.Analyzer, reportGen *analyzer.ReportGenerator, paths []string, logger *zap.Logger) error {
	fw, err := watcher.NewFileWatcher(cfg, logger)
	if err != nil {
		return err
	}
	defer fw.Close()

	handler := func(files []string) error {
		color.Cyan("\n🔄 %d file(s) changed: %s\n", len(files), strings.Join(files, ", "))
		report, err := a.ScanFiles(ctx, files)
		if err != nil {
			return err
		}
		return emit(reportGen.Generate(report), cfg.Output.OutputFile)
	}
	if err := fw.Watch(paths, handler); err != nil {
		return err
	}

	color.Cyan("👀 Watching %d directories. Press Ctrl+C to stop.\n", len(fw.GetWatchedPaths()))
	<-ctx.Done()
	fmt.Println()
	return nil
}
