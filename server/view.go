package server

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/corymhall/forthlsp/config"
	"github.com/corymhall/forthlsp/file"
	"github.com/corymhall/forthlsp/vocab"
)

const scanReportInterval = 200 * time.Millisecond

type StateChange struct {
	Modifications []file.Modification
	Files         fileMap
	// Config is set when the project configuration was reloaded.
	Config *configChange
}

// configChange is a reloaded configuration together with the vocabulary
// built from it.
type configChange struct {
	config config.Config
	vocab  *vocab.Vocabulary
	err    error
}

type View struct {
	id string // a unique string to identify this view in (e.g.) serialized Commands

	*viewDefinition

	// baseCtx is the context handed to NewView. This is the parent of all
	// background contexts created for this view.
	baseCtx context.Context

	// snapshotMu is held for writing only while the snapshot is swapped.
	snapshotMu sync.RWMutex
	snapshot   *Snapshot // latest snapshot; nil after shutdown has been called

	// initializationSema is used limit concurrent initialization of snapshots in
	// the view. We use a channel instead of a mutex to avoid blocking when a
	// context is canceled.
	//
	// This field (along with snapshot.initialized) guards against duplicate
	// initialization of snapshots. Do not change it without adjusting snapshot
	// accordingly.
	initializationSema chan struct{}

	initialWorkspaceLoad       chan struct{}
	cancelInitialWorkspaceLoad func() // cancel the initial workspace load

	// scan counts the files of the initial workspace load.
	scan scanProgress
}

type scanProgress struct {
	total atomic.Int64
	done  atomic.Int64
}

// shutdown releases resources associated with the view.
func (v *View) shutdown() {
	// cancel the initial workspace load if it is still running
	v.cancelInitialWorkspaceLoad()
	v.snapshotMu.Lock()
	if v.snapshot != nil {
		v.snapshot.cancel()
		v.snapshot.decref()
		v.snapshot = nil
	}
	v.snapshotMu.Unlock()
}

// reportScanProgress reports the initial workspace load to work until it
// finishes.
func (v *View) reportScanProgress(ctx context.Context, work *WorkDone) {
	ticker := time.NewTicker(scanReportInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-v.initialWorkspaceLoad:
			return
		case <-ticker.C:
			total, done := v.scan.total.Load(), v.scan.done.Load()
			if total == 0 {
				continue
			}
			work.Report(ctx, fmt.Sprintf("%d/%d files", done, total), uint32(done*100/total))
		}
	}
}

type viewDefinition struct {
	root string // workspace root directory; empty when no folder is open
}

// contains reports whether path lies inside the workspace root.
func (d *viewDefinition) contains(path string) bool {
	if d.root == "" {
		return false
	}
	rel, err := filepath.Rel(d.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Snapshot returns the current snapshot for the view, and a
// release function that must be called when the Snapshot is
// no longer needed.
//
// The resulting error is non-nil if and only if the view is shut down, in
// which case the resulting release function will also be nil.
func (v *View) Snapshot() (*Snapshot, func(), error) {
	v.snapshotMu.RLock()
	defer v.snapshotMu.RUnlock()
	if v.snapshot == nil {
		return nil, nil, errors.New("view is shutdown")
	}
	return v.snapshot, v.snapshot.Acquire(), nil
}
