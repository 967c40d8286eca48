package watcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"finlint/internal/analyzer"
	"finlint/internal/config"
)

// DefaultDebounce is the quiet period before a batch of changes is rescanned.
const DefaultDebounce = 500 * time.Millisecond

type FileWatcher struct {
	watcher     *fsnotify.Watcher
	config      *config.Config
	logger      *zap.Logger
	dirMu       sync.Mutex
	watchedDirs map[string]bool
	debouncer   *debouncer

	// content hashes of the last scanned version of each file
	hashMu sync.Mutex
	hashes map[string]uint64

	done chan struct{}
	wg   sync.WaitGroup
}

type FileChangeEvent struct {
	Path      string
	Operation string
	Timestamp time.Time
}

// FileChangeHandler receives the files whose content changed since the
// last batch. Removed files are not reported.
type FileChangeHandler func([]string) error

func NewFileWatcher(cfg *config.Config, logger *zap.Logger) (*FileWatcher, error) {
	return newFileWatcher(cfg, logger, DefaultDebounce)
}

func newFileWatcher(cfg *config.Config, logger *zap.Logger, delay time.Duration) (*FileWatcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &FileWatcher{
		watcher:     w,
		config:      cfg,
		logger:      logger,
		watchedDirs: make(map[string]bool),
		debouncer:   newDebouncer(delay, logger),
		hashes:      make(map[string]uint64),
		done:        make(chan struct{}),
	}, nil
}

// Watch registers every directory under paths and starts delivering
// debounced batches to handler.
func (fw *FileWatcher) Watch(paths []string, handler FileChangeHandler) error {
	for _, path := range paths {
		if err := fw.addPath(path); err != nil {
			return fmt.Errorf("failed to watch path %s: %w", path, err)
		}
	}
	fw.wg.Add(1)
	go fw.eventLoop(fw.dedupe(handler))
	return nil
}

func (fw *FileWatcher) addPath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		fw.Seen(path)
		return fw.addDir(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			if fw.isSourceFile(walkPath) {
				fw.Seen(walkPath)
			}
			return nil
		}
		if walkPath != path && fw.shouldSkipDir(walkPath) {
			return filepath.SkipDir
		}
		return fw.addDir(walkPath)
	})
}

func (fw *FileWatcher) addDir(dir string) error {
	fw.dirMu.Lock()
	defer fw.dirMu.Unlock()
	if fw.watchedDirs[dir] {
		return nil
	}
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}
	fw.watchedDirs[dir] = true
	return nil
}

func (fw *FileWatcher) eventLoop(handler batchHandler) {
	defer fw.wg.Done()
	for {
		select {
		case <-fw.done:
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.onEvent(event, handler)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.logger.Warn("file watcher error", zap.Error(err))
		}
	}
}

func (fw *FileWatcher) onEvent(event fsnotify.Event, handler batchHandler) {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !fw.shouldSkipDir(event.Name) {
				if err := fw.addPath(event.Name); err != nil {
					fw.logger.Warn("cannot watch new directory", zap.String("dir", event.Name), zap.Error(err))
				}
			}
			return
		}
	}
	if !fw.isSourceFile(event.Name) || fw.shouldSkipFile(event.Name) {
		return
	}
	fw.debouncer.add(FileChangeEvent{
		Path:      event.Name,
		Operation: eventOpToString(event.Op),
		Timestamp: time.Now(),
	}, handler)
}

// dedupe drops removed files and files whose content hash is unchanged,
// so editor save storms do not trigger rescans.
func (fw *FileWatcher) dedupe(handler FileChangeHandler) batchHandler {
	return func(events []FileChangeEvent) error {
		var changed []string
		for _, event := range events {
			if fw.contentChanged(event.Path) {
				changed = append(changed, event.Path)
			}
		}
		if len(changed) == 0 {
			return nil
		}
		fw.logger.Debug("files changed", zap.Strings("files", changed))
		return handler(changed)
	}
}

// Seen records the current content hash of path.
func (fw *FileWatcher) Seen(path string) {
	fw.contentChanged(path)
}

func (fw *FileWatcher) contentChanged(path string) bool {
	data, err := os.ReadFile(path)
	fw.hashMu.Lock()
	defer fw.hashMu.Unlock()
	if err != nil {
		delete(fw.hashes, path)
		return false
	}
	sum := xxhash.Sum64(data)
	if prev, ok := fw.hashes[path]; ok && prev == sum {
		return false
	}
	fw.hashes[path] = sum
	return true
}

func (fw *FileWatcher) isSourceFile(path string) bool {
	lang := analyzer.LanguageForPath(path)
	if !lang.Supported() {
		return false
	}
	return fw.config == nil || fw.config.IsLanguageEnabled(lang)
}

func (fw *FileWatcher) shouldSkipDir(path string) bool {
	defaultExclusions := []string{
		"node_modules", ".git", "__pycache__", "venv", ".venv", "vendor", "build", "dist",
	}
	dirName := filepath.Base(path)
	for _, excluded := range defaultExclusions {
		if dirName == excluded {
			return true
		}
	}
	return fw.matchesExclude(filepath.ToSlash(path) + "/")
}

func (fw *FileWatcher) shouldSkipFile(path string) bool {
	filename := filepath.Base(path)
	if strings.HasPrefix(filename, ".") {
		return true
	}
	if strings.HasSuffix(filename, ".tmp") || strings.HasSuffix(filename, "~") {
		return true
	}
	if strings.HasSuffix(filename, ".swp") || strings.HasSuffix(filename, ".swo") {
		return true
	}
	return fw.matchesExclude(filepath.ToSlash(path))
}

func (fw *FileWatcher) matchesExclude(path string) bool {
	if fw.config == nil {
		return false
	}
	for _, pattern := range fw.config.Files.Exclude {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}

func eventOpToString(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return "CREATE"
	case op&fsnotify.Write == fsnotify.Write:
		return "WRITE"
	case op&fsnotify.Remove == fsnotify.Remove:
		return "REMOVE"
	case op&fsnotify.Rename == fsnotify.Rename:
		return "RENAME"
	case op&fsnotify.Chmod == fsnotify.Chmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Close stops event delivery and waits for the event loop to exit.
func (fw *FileWatcher) Close() error {
	fw.debouncer.stop()
	close(fw.done)
	err := fw.watcher.Close()
	fw.wg.Wait()
	return err
}

func (fw *FileWatcher) GetWatchedPaths() []string {
	fw.dirMu.Lock()
	defer fw.dirMu.Unlock()
	paths := make([]string, 0, len(fw.watchedDirs))
	for path := range fw.watchedDirs {
		paths = append(paths, path)
	}
	return paths
}
