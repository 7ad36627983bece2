// Package scanner discovers and tracks source PDFs: hash-based change
// detection against the file registry plus an fsnotify watcher for
// automatic rescans.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/brunobiangulo/casearch/store"
)

// ScanError records a per-file scan failure.
type ScanError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

// Result summarizes one directory scan.
type Result struct {
	New       int         `json:"new"`
	Changed   int         `json:"changed"`
	Unchanged int         `json:"unchanged"`
	Missing   int         `json:"missing"`
	Errors    []ScanError `json:"errors"`
}

// FileHash computes the SHA-256 hash of a file's content.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Scan walks the agreements directory for PDFs: new files are registered
// pending, changed files (by hash) are reset, files gone from disk are
// removed with all derived data. Per-file failures are collected, never
// raised.
func Scan(ctx context.Context, s *store.Store, dir string) Result {
	var result Result
	result.Errors = []ScanError{}

	entries, err := os.ReadDir(dir)
	if err != nil {
		result.Errors = append(result.Errors, ScanError{Path: dir, Error: err.Error()})
		return result
	}

	existing, err := s.ListFiles(ctx)
	if err != nil {
		result.Errors = append(result.Errors, ScanError{Path: dir, Error: err.Error()})
		return result
	}
	existingByPath := make(map[string]store.File, len(existing))
	for _, f := range existing {
		existingByPath[f.Path] = f
	}

	onDisk := make(map[string]bool)

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}

		path, err := filepath.Abs(filepath.Join(dir, entry.Name()))
		if err != nil {
			result.Errors = append(result.Errors, ScanError{Path: entry.Name(), Error: err.Error()})
			continue
		}
		onDisk[path] = true

		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, ScanError{Path: path, Error: err.Error()})
			continue
		}

		hash, err := FileHash(path)
		if err != nil {
			result.Errors = append(result.Errors, ScanError{Path: path, Error: err.Error()})
			continue
		}

		mtime := float64(info.ModTime().UnixNano()) / float64(time.Second)

		prev, known := existingByPath[path]
		switch {
		case !known:
			_, err := s.InsertFile(ctx, store.File{
				Path:     path,
				Filename: entry.Name(),
				SHA256:   hash,
				Mtime:    mtime,
				Size:     info.Size(),
			})
			if err != nil {
				result.Errors = append(result.Errors, ScanError{Path: path, Error: err.Error()})
				continue
			}
			result.New++
		case prev.SHA256 != hash:
			if err := s.MarkFileChanged(ctx, prev.ID, hash, mtime, info.Size()); err != nil {
				result.Errors = append(result.Errors, ScanError{Path: path, Error: err.Error()})
				continue
			}
			result.Changed++
		default:
			result.Unchanged++
		}
	}

	// Files in the registry but gone from disk.
	for path, f := range existingByPath {
		if !onDisk[path] {
			if err := s.DeleteFile(ctx, f.ID); err != nil {
				result.Errors = append(result.Errors, ScanError{Path: path, Error: err.Error()})
				continue
			}
			result.Missing++
		}
	}

	return result
}

// Watch runs an fsnotify watcher over the agreements directory and calls
// onChange after bursts of PDF create/write/remove/rename events settle.
// Blocks until the context is cancelled.
func Watch(ctx context.Context, dir string, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return err
	}

	// Debounce: editors and downloads fire several events per file.
	const settle = 2 * time.Second
	var timer *time.Timer
	timerC := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".pdf") {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			slog.Debug("scanner: fs event", "op", event.Op.String(), "name", event.Name)
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(settle, func() {
				select {
				case timerC <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("scanner: watch error", "error", err)
		case <-timerC:
			onChange()
		}
	}
}
