package server

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/corymhall/forthlsp/config"
	"github.com/corymhall/forthlsp/debug"
	"github.com/corymhall/forthlsp/file"
	"github.com/corymhall/forthlsp/logger"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/fsnotify/fsnotify"
)

// A watcher turns file system events below the workspace root into file
// modifications and configuration reloads. fsnotify does not watch
// recursively, so every directory is added on its own.
type watcher struct {
	fsw  *fsnotify.Watcher
	root string
	wg   sync.WaitGroup
}

// startWatcher watches the root of view until the server shuts down.
// Failing to watch only loses live updates of files that are not open.
func (s *server) startWatcher(ctx context.Context, view *View) {
	s.watcherMu.Lock()
	defer s.watcherMu.Unlock()
	if s.watcherStopped || s.watcher != nil {
		return
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		debug.LogError(ctx, "creating file watcher", err)
		return
	}
	w := &watcher{fsw: fsw, root: view.root}
	w.addTree(ctx, view.root)
	s.watcher = w

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run(ctx, s)
	}()
}

// stopWatcher stops the watcher and waits for its event loop to exit. No
// watcher is started afterwards.
func (s *server) stopWatcher() {
	s.watcherMu.Lock()
	w := s.watcher
	s.watcher = nil
	s.watcherStopped = true
	s.watcherMu.Unlock()
	if w != nil {
		w.close()
	}
}

func (w *watcher) close() {
	_ = w.fsw.Close()
	w.wg.Wait()
}

func (w *watcher) addTree(ctx context.Context, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if skipDir(w.root, path) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			debug.LogError(ctx, "watching directory", err)
		}
		return nil
	})
}

func (w *watcher) run(ctx context.Context, s *server) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ctx, s, event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			debug.LogError(ctx, "file watcher", err)
		}
	}
}

func (w *watcher) handle(ctx context.Context, s *server, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			w.addTree(ctx, event.Name)
			return
		}
	}

	view := s.currentView()
	if view == nil {
		return
	}
	snapshot, release, err := view.Snapshot()
	if err != nil {
		return
	}
	cfg := snapshot.Config()
	release()

	kind := file.KindForPath(event.Name, config.FileName, cfg.Workspace.Extensions)
	debug.Trace.Log(ctx, "file event", "path", event.Name, "op", event.Op.String(), "kind", kind.String())
	switch kind {
	case file.Config:
		if filepath.Dir(event.Name) == w.root {
			s.didChangeConfiguration(ctx, view)
		}
	case file.Forth:
		mod := file.Modification{
			URI:     lsp.URIFromPath(event.Name),
			Action:  actionFor(event.Op),
			OnDisk:  true,
			Version: -1,
		}
		if err := s.didModifyFiles(ctx, []file.Modification{mod}, FromDidChangeWatchedFiles); err != nil {
			debug.LogError(ctx, "applying file event", err)
		}
	}
}

func actionFor(op fsnotify.Op) file.Action {
	switch {
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return file.Delete
	case op.Has(fsnotify.Create):
		return file.Create
	default:
		return file.Change
	}
}

// didChangeConfiguration reloads the configuration and vocabulary and
// re-keys the index under the new case policy.
func (s *server) didChangeConfiguration(ctx context.Context, view *View) {
	ctx, done := debug.Start(ctx, "didChangeConfiguration")
	defer done()

	change := loadConfig(view.root)
	if change.err != nil {
		debug.LogError(ctx, "reloading configuration", change.err)
	} else {
		logger.Log(ctx, fmt.Sprintf("Reloaded %s.", config.FileName), lsp.Info)
	}

	s.modifyMu.Lock()
	_, release, err := s.invalidateViewLocked(ctx, StateChange{Config: change})
	s.modifyMu.Unlock()
	if err != nil {
		return
	}
	release()

	s.diagnosticsMu.Lock()
	for _, f := range s.diagnostics {
		f.mustPublish = true
	}
	s.diagnosticsMu.Unlock()

	modCtx, modID := s.updateViewsToDiagnose(ctx)
	go s.diagnoseChangedView(modCtx, modID, nil, FromDidChangeConfiguration)
}
