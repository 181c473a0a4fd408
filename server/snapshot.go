package server

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	"github.com/corymhall/forthlsp/config"
	"github.com/corymhall/forthlsp/file"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/vocab"
	"github.com/corymhall/forthlsp/workspace"
	"github.com/pulumi/pulumi/sdk/v3/go/common/util/contract"
)

// InitializationError is a problem loading the workspace that does not stop
// the server from working, such as a malformed configuration file.
type InitializationError struct {
	MainError error
}

// A Snapshot is an immutable state of the workspace: the configuration, the
// vocabulary built from it, every known file and the index over them.
// Requests run against one snapshot and never see a half-applied change.
type Snapshot struct {
	refMu sync.Mutex

	// files maps file URIs to their corresponding FileHandles. It holds
	// every file the index was built from.
	files fileMap

	sequenceID uint64

	// backgroundCtx is the context used for background snapshot tasks.
	backgroundCtx context.Context
	cancel        func()

	// The view this snapshot is associated with
	view *View

	// initialized reports whether the snapshot has been initialized. Concurrent
	// initialization is guarded by the view.initializationSema. Each snapshot is
	// initialized at most once: concurrent initialization is guarded by
	// view.initializationSema.
	initialized bool

	initialErr *InitializationError

	config config.Config
	vocab  *vocab.Vocabulary
	index  *workspace.Index

	// refcount holds the number of outstanding references to the current
	// Snapshot. When refcount is decremented to 0, the done function is
	// called.
	refcount int
	done     func() // for implementing Session.Shutdown

	// mu guards the fields set by initialize.
	mu sync.Mutex
}

func (s *Snapshot) InitializationError() *InitializationError {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialErr
}

func (s *Snapshot) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config
}

func (s *Snapshot) Vocabulary() *vocab.Vocabulary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vocab
}

// Index returns the workspace index. It must not be modified.
func (s *Snapshot) Index() *workspace.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

func (s *Snapshot) initialize(ctx context.Context, firstAttempt bool) {
	if firstAttempt {
		// waiters retry the load themselves if this attempt is cut short
		defer close(s.view.initialWorkspaceLoad)
	}

	select {
	case <-ctx.Done():
		return
	case s.view.initializationSema <- struct{}{}:
	}

	defer func() {
		<-s.view.initializationSema
	}()

	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()
	if initialized {
		return
	}

	change := loadConfig(s.view.root)
	var initialErr *InitializationError
	if change.err != nil {
		initialErr = &InitializationError{MainError: change.err}
	}

	idx := workspace.New(change.config.Policy())
	files := make(fileMap)
	if s.view.root != "" {
		docs, handles, err := scanWorkspace(ctx, s.view.root, change.config, &s.view.scan)
		switch {
		case errors.Is(err, context.Canceled):
			// the load was cancelled by the user, keep what was read
		case err != nil && initialErr == nil:
			initialErr = &InitializationError{MainError: err}
		}
		for _, doc := range docs {
			idx.Put(doc)
		}
		for _, fh := range handles {
			files[fh.URI()] = fh
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.initialErr = initialErr
	s.config = change.config
	s.vocab = change.vocab
	s.index = idx
	s.files = files
}

// loadConfig reads the configuration at root and builds the vocabulary from
// it. Problems are reported in err, the result is usable either way.
func loadConfig(root string) *configChange {
	cfg, cfgErr := config.LoadFromWorkspace(root)
	v, vocabErr := vocab.Load(cfg)
	change := &configChange{config: cfg, vocab: v}
	switch {
	case cfgErr != nil:
		change.err = cfgErr
	case vocabErr != nil:
		change.err = fmt.Errorf("loading builtin words: %w", vocabErr)
	}
	return change
}

func (s *Snapshot) AwaitInitialized(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-s.view.initialWorkspaceLoad:
	}

	s.initialize(ctx, false)
}

func (s *Snapshot) SequenceID() uint64 {
	return s.sequenceID
}

// Acquire prevents the snapshot from being destroyed until the returned
// function is called.
func (s *Snapshot) Acquire() func() {
	s.refMu.Lock()
	defer s.refMu.Unlock()
	contract.Assertf(s.refcount > 0, "non-positive refs")
	s.refcount++

	return s.decref
}

// decref should only be referenced by Acquire, and by View when it frees its
// reference to View.snapshot.
func (s *Snapshot) decref() {
	s.refMu.Lock()
	defer s.refMu.Unlock()

	contract.Assertf(s.refcount > 0, "non-positive refs")
	s.refcount--
	if s.refcount == 0 {
		s.done()
	}
}

// A fileMap maps files in the snapshot to their handles.
type fileMap map[lsp.DocumentURI]file.Handle

// fileExists reports whether the file has a Content (which may be empty).
// Editor buffers always exist, disk files only when they could be read.
func fileExists(fh file.Handle) bool {
	_, err := fh.Content()
	return err == nil
}

// ReadFile returns the handle the snapshot holds for uri, or reads it from
// disk.
func (s *Snapshot) ReadFile(ctx context.Context, uri lsp.DocumentURI) (file.Handle, error) {
	s.mu.Lock()
	fh, ok := s.files[uri]
	s.mu.Unlock()
	if ok {
		return fh, nil
	}
	return file.Read(ctx, uri)
}

// Overlays returns the URIs of the files open in the editor.
func (s *Snapshot) Overlays() []lsp.DocumentURI {
	s.mu.Lock()
	defer s.mu.Unlock()
	var uris []lsp.DocumentURI
	for uri, fh := range s.files {
		if fh.Overlay() {
			uris = append(uris, uri)
		}
	}
	return uris
}

// indexed reports whether a file is part of the index. Open files always
// are, files on disk only when they are Forth sources inside the root.
func (s *Snapshot) indexed(fh file.Handle, cfg config.Config) bool {
	if !fileExists(fh) {
		return false
	}
	if fh.Overlay() {
		return true
	}
	uri := fh.URI()
	if !uri.IsFile() || !s.view.contains(uri.Path()) {
		return false
	}
	return file.KindForPath(uri.Path(), config.FileName, cfg.Workspace.Extensions) == file.Forth
}

func (s *Snapshot) clone(bgCtx context.Context, changed StateChange, done func()) *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	bgCtx, cancel := context.WithCancel(bgCtx)
	result := &Snapshot{
		sequenceID:    s.sequenceID + 1,
		cancel:        cancel,
		refcount:      1,
		backgroundCtx: bgCtx,
		done:          done,
		files:         maps.Clone(s.files),
		view:          s.view,
		initialized:   s.initialized,
		initialErr:    s.initialErr,
		config:        s.config,
		vocab:         s.vocab,
		index:         s.index,
	}

	rebuilt := false
	if c := changed.Config; c != nil {
		result.config = c.config
		result.vocab = c.vocab
		result.initialErr = nil
		if c.err != nil {
			result.initialErr = &InitializationError{MainError: c.err}
		}
		result.index = s.index.WithPolicy(c.config.Policy())
		rebuilt = true
	}

	if len(changed.Files) == 0 {
		return result
	}
	if !rebuilt {
		result.index = s.index.Clone()
	}
	for uri, fh := range changed.Files {
		if !result.indexed(fh, result.config) {
			delete(result.files, uri)
			result.index.Remove(uri)
			continue
		}
		prev, ok := s.files[uri]
		result.files[uri] = fh
		if ok && prev.Hash() == fh.Hash() && prev.Version() == fh.Version() {
			continue
		}
		content, _ := fh.Content()
		result.index.Upsert(uri, fh.Version(), string(content))
	}
	return result
}
