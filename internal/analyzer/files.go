package analyzer

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"

	"finlint/internal/config"
)

var skippedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
	"__pycache__":  true,
	"venv":         true,
	".venv":        true,
	"vendor":       true,
}

// walkDir is replaced in tests to simulate unreadable entries.
var walkDir = filepath.WalkDir

// Unreadable is an entry below a walk root that could not be read.
type Unreadable struct {
	Path string
	Err  error
}

// CollectFiles expands paths into the files to scan. Files named directly
// are always kept; directory walks keep files in enabled languages that
// pass the include and exclude globs. Entries below a root that cannot be
// read are skipped and returned as unreadable; only an inaccessible root
// is an error.
func CollectFiles(paths []string, cfg *config.Config) ([]string, []Unreadable, error) {
	var files []string
	var unreadable []Unreadable
	seen := make(map[string]bool)
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			files = append(files, p)
		}
	}

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot access %s: %w", root, err)
		}
		if !info.IsDir() {
			add(root)
			continue
		}

		err = walkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return err
				}
				unreadable = append(unreadable, Unreadable{Path: path, Err: err})
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			rel = filepath.ToSlash(rel)

			if d.IsDir() {
				if path != root && (skippedDirs[d.Name()] || excluded(rel+"/", cfg)) {
					return filepath.SkipDir
				}
				return nil
			}
			if d.Type()&fs.ModeSymlink != 0 && !cfg.Files.FollowSymlinks {
				return nil
			}
			if wanted(path, rel, cfg) {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, nil, fmt.Errorf("walking %s: %w", root, err)
		}
	}
	return files, unreadable, nil
}

func wanted(path, rel string, cfg *config.Config) bool {
	lang := LanguageForPath(path)
	if !lang.Supported() || !cfg.IsLanguageEnabled(lang) {
		return false
	}
	if excluded(rel, cfg) {
		return false
	}
	if len(cfg.Files.Include) == 0 {
		return true
	}
	for _, pattern := range cfg.Files.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

func excluded(rel string, cfg *config.Config) bool {
	for _, pattern := range cfg.Files.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
