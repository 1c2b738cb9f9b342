// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/botline/internal/logging"
	"github.com/jeranaias/botline/internal/util"
)

// FileStore keeps all values in one JSON object on disk. Every write
// replaces the file atomically.
type FileStore struct {
	path string
	log  logrus.FieldLogger

	mu     sync.RWMutex
	values map[string]string
}

// NewFileStore loads path, treating a missing file as empty.
func NewFileStore(path string, logger logrus.FieldLogger) (*FileStore, error) {
	fs := &FileStore{
		path: path,
		log:  logging.OrDiscard(logger).WithField("store", path),
	}
	values, err := fs.read()
	if err != nil {
		return nil, err
	}
	fs.values = values
	return fs, nil
}

// Path returns the backing file.
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(fs.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fs.path, err)
	}

	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", fs.path, err)
	}
	return values, nil
}

// flush must be called with mu held.
func (fs *FileStore) flush() error {
	data, err := json.MarshalIndent(fs.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	return util.AtomicWriteFile(fs.path, data, 0600)
}

func (fs *FileStore) Get(key string) (string, bool, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	v, ok := fs.values[key]
	return v, ok, nil
}

func (fs *FileStore) Set(key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, had := fs.values[key]
	fs.values[key] = value
	if err := fs.flush(); err != nil {
		if had {
			fs.values[key] = prev
		} else {
			delete(fs.values, key)
		}
		return err
	}
	return nil
}

func (fs *FileStore) Remove(keys ...string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	snapshot := maps.Clone(fs.values)
	changed := false
	for _, k := range keys {
		if _, ok := fs.values[k]; ok {
			delete(fs.values, k)
			changed = true
		}
	}
	if !changed {
		return nil
	}
	if err := fs.flush(); err != nil {
		fs.values = snapshot
		return err
	}
	return nil
}

// Close is a no-op; watchers stop with their context.
func (fs *FileStore) Close() error {
	return nil
}

// Reload re-reads the file and reports whether any value changed.
func (fs *FileStore) Reload() (bool, error) {
	values, err := fs.read()
	if err != nil {
		return false, err
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()
	if maps.Equal(values, fs.values) {
		return false, nil
	}
	fs.values = values
	return true, nil
}

// =============================================================================
// WATCHING
// =============================================================================

// Watch reloads the store whenever the file is rewritten, including by
// another process, and calls onChange after each reload that changed a
// value. It returns once the watcher is installed; watching stops when ctx
// is done.
//
// The directory is watched rather than the file because atomic writes
// replace the file's inode.
func (fs *FileStore) Watch(ctx context.Context, onChange func()) error {
	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create storage directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(fs.path)
	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
					!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
					continue
				}
				changed, err := fs.Reload()
				if err != nil {
					fs.log.WithError(err).Warn("failed to reload state file")
					continue
				}
				if changed && onChange != nil {
					onChange()
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				fs.log.WithError(err).Warn("state file watcher error")
			}
		}
	}()
	return nil
}

// AsFileStore returns the FileStore behind b, looking through an
// EncryptedStore.
func AsFileStore(b Backend) (*FileStore, bool) {
	if e, ok := b.(*EncryptedStore); ok {
		b = e.Unwrap()
	}
	fs, ok := b.(*FileStore)
	return fs, ok
}
