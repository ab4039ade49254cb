// Package urireader supplies an example file://-backed implementation of
// the pluggable UriReader collaborator (§5, §6): loading the text a
// referenced document's Uri points at, and watching it for external
// changes via fsnotify so a host can re-open the document on disk edits.
package urireader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/ritamzico/truth/internal/uri"
)

// Reader loads the source text a Uri refers to.
type Reader interface {
	Read(u uri.Uri) (string, error)
}

// FileReader resolves file:// URIs relative to Root on the local
// filesystem. Non-file protocols are rejected; a host wanting http(s)
// resolution supplies its own Reader.
type FileReader struct {
	Root string

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	watching map[string]bool
}

// NewFileReader returns a FileReader rooted at root.
func NewFileReader(root string) *FileReader {
	return &FileReader{Root: root, watching: make(map[string]bool)}
}

func (r *FileReader) localPath(u uri.Uri) (string, error) {
	if u.Protocol != uri.File {
		return "", fmt.Errorf("urireader: protocol %q is not file-backed", u.Protocol)
	}
	rel := filepath.Join(u.Path...)
	full := filepath.Join(r.Root, rel)
	inside, err := filepath.Rel(filepath.Clean(r.Root), full)
	if err != nil || inside == ".." || strings.HasPrefix(inside, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("urireader: %q escapes root %q", rel, r.Root)
	}
	return full, nil
}

// Read loads the text at u's path under Root.
func (r *FileReader) Read(u uri.Uri) (string, error) {
	path, err := r.localPath(u)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("urireader: %w", err)
	}
	return string(data), nil
}

// Watch arms an fsnotify watch on u's backing file, if not already
// watched, invoking onChange (with u) whenever the file is written. Watch
// is a best-effort signal: callers still re-Read to get the new text.
// One dispatch loop serves every watched file and it calls the onChange
// passed to the first Watch call; the callbacks of later calls are not
// used.
func (r *FileReader) Watch(u uri.Uri, onChange func(uri.Uri)) error {
	path, err := r.localPath(u)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.watcher == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("urireader: creating watcher: %w", err)
		}
		r.watcher = w
		go r.dispatch(onChange)
	}
	if r.watching[path] {
		return nil
	}
	if err := r.watcher.Add(path); err != nil {
		return fmt.Errorf("urireader: watching %q: %w", path, err)
	}
	r.watching[path] = true
	return nil
}

func (r *FileReader) dispatch(onChange func(uri.Uri)) {
	for {
		r.mu.Lock()
		w := r.watcher
		r.mu.Unlock()
		if w == nil {
			return
		}
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			rel, err := filepath.Rel(r.Root, ev.Name)
			if err != nil {
				continue
			}
			onChange(uri.Uri{Protocol: uri.File, Path: strings.Split(filepath.ToSlash(rel), "/")})
		case _, ok := <-w.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the underlying fsnotify watcher, if one was started.
func (r *FileReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.watcher == nil {
		return nil
	}
	err := r.watcher.Close()
	r.watcher = nil
	return err
}
