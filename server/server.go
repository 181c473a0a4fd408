package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
	"github.com/corymhall/forthlsp/file"
	"github.com/corymhall/forthlsp/lsp"
	"github.com/corymhall/forthlsp/resolve"
	"github.com/corymhall/forthlsp/rpc"
	"github.com/corymhall/forthlsp/workspace"
	"github.com/corymhall/forthlsp/xcontext"
	"github.com/pulumi/pulumi/sdk/v3/go/common/util/contract"
)

// Version is reported in the initialize response and by the version command.
var Version = "0.0.1"

const defaultDiagnosticsDelay = 150 * time.Millisecond

var viewIndex int64

// An Option changes how a server is set up.
type Option func(*server)

// WithDiagnosticsDelay sets how long diagnostics wait for typing to pause
// before running.
func WithDiagnosticsDelay(d time.Duration) Option {
	return func(s *server) {
		s.diagnosticsDelay = d
	}
}

// WithoutWatcher disables watching the workspace for changes on disk.
func WithoutWatcher() Option {
	return func(s *server) {
		s.watch = false
	}
}

// New returns a Forth language server that talks to the editor through
// client. Nothing is indexed until the editor sends initialized.
func New(logger *log.Logger, client lsp.Client, opts ...Option) lsp.Server {
	const concurrentAnalyses = 1
	s := &server{
		logger:           logger,
		client:           client,
		overlays:         make(map[lsp.DocumentURI]*file.Buffer),
		diagnostics:      make(map[lsp.DocumentURI]*fileDiagnostics),
		diagnosticsSema:  make(chan unit, concurrentAnalyses),
		diagnosticsDelay: defaultDiagnosticsDelay,
		progress:         NewTracker(client),
		watch:            true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.debounce = debounce.New(s.diagnosticsDelay)
	return s
}

// serverState tracks the initialize handshake. It only moves forward.
type serverState int

const (
	serverCreated serverState = iota
	serverInitializing
	serverInitialized
	serverShutDown
)

var stateNames = [...]string{"created", "initializing", "initialized", "shutDown"}

func (s serverState) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("serverState(%d)", int(s))
	}
	return stateNames[s]
}

type unit struct{}

type server struct {
	logger  *log.Logger
	client  lsp.Client
	stateMu sync.Mutex
	state   serverState
	rootURI lsp.DocumentURI

	// view is nil until the initialized notification and after shutdown.
	view *View

	// snapshotWG counts unreleased snapshots. Shutdown waits for it.
	snapshotWG sync.WaitGroup

	progress *Tracker

	// modifyMu serializes file modifications from the client and from the
	// watcher, so that reading the overlays and swapping the snapshot happen
	// as one step.
	modifyMu sync.Mutex

	overlayMu sync.Mutex
	overlays  map[lsp.DocumentURI]*file.Buffer

	diagnosticsMu sync.Mutex // guards map and its values
	diagnostics   map[lsp.DocumentURI]*fileDiagnostics
	// diagnosticsSema limits the concurrency of diagnostics runs.
	diagnosticsSema chan unit
	// debounce delays diagnostics after didChange until typing pauses.
	debounce         func(func())
	diagnosticsDelay time.Duration

	criticalErrorStatusMu sync.Mutex
	criticalErrorStatus   *WorkDone

	modificationMu        sync.Mutex
	cancelPrevDiagnostics func()
	lastModificationID    uint64 // incrementing clock

	watch          bool
	watcherMu      sync.Mutex
	watcher        *watcher
	watcherStopped bool
}

func (s *server) Logger() *log.Logger {
	return s.logger
}

// currentView returns the view, or nil before initialization and after
// shutdown.
func (s *server) currentView() *View {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.view
}

// snapshot returns the current snapshot of the view and its release
// function.
func (s *server) snapshot() (*Snapshot, func(), error) {
	view := s.currentView()
	if view == nil {
		return nil, nil, rpc.ErrServerNotInitialized
	}
	return view.Snapshot()
}

// acquireSnapshot returns the current snapshot once the workspace is
// loaded.
func (s *server) acquireSnapshot(ctx context.Context) (*Snapshot, func(), error) {
	snapshot, release, err := s.snapshot()
	if err != nil {
		return nil, nil, err
	}
	snapshot.AwaitInitialized(ctx)
	if snapshot.Index() == nil {
		release()
		return nil, nil, fmt.Errorf("%w: workspace is not loaded", rpc.ErrRequestFailed)
	}
	return snapshot, release, nil
}

// toRPCError gives errors from the resolvers their JSON-RPC code.
func toRPCError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, resolve.ErrInvalidName):
		return fmt.Errorf("%w: %w", rpc.ErrInvalidParams, err)
	case errors.Is(err, workspace.ErrUnknownDocument):
		return fmt.Errorf("%w: %w", rpc.ErrRequestFailed, err)
	}
	return err
}

// initializeView creates the view for the workspace root and starts
// indexing it. Only one view exists per session.
func (s *server) initializeView(ctx context.Context) {
	if s.currentView() != nil {
		return
	}
	view, snapshot, release := s.NewView(ctx, s.rootURI)

	ctx = xcontext.Detach(ctx)
	go func() {
		defer release()
		work := s.progress.Start(ctx, "Forth", "Indexing workspace...", nil, view.cancelInitialWorkspaceLoad)
		view.reportScanProgress(ctx, work)
		snapshot.AwaitInitialized(ctx)
		work.End(ctx, fmt.Sprintf("Indexed %d files.", view.scan.done.Load()))

		if s.watch && view.root != "" {
			s.startWatcher(ctx, view)
		}

		latest, releaseLatest, err := view.Snapshot()
		if err != nil {
			return
		}
		defer releaseLatest()
		s.diagnoseSnapshot(ctx, latest)
	}()
}

// NewView creates the view rooted at root, which may be empty when the
// client opened no folder.
func (s *server) NewView(ctx context.Context, root lsp.DocumentURI) (*View, *Snapshot, func()) {
	contract.Assertf(s.currentView() == nil, "NewView called when view already exists")

	def := &viewDefinition{}
	if root.IsFile() {
		def.root = root.Path()
	}

	view, snapshot, release := s.createView(ctx, def)
	s.stateMu.Lock()
	s.view = view
	s.stateMu.Unlock()
	return view, snapshot, release
}

func (s *server) createView(ctx context.Context, def *viewDefinition) (*View, *Snapshot, func()) {
	index := atomic.AddInt64(&viewIndex, 1)
	// create a background context for the view
	baseCtx := xcontext.Detach(ctx)
	backgroundCtx, cancel := context.WithCancel(baseCtx)
	v := &View{
		id:                   strconv.FormatInt(index, 10),
		baseCtx:              baseCtx,
		initialWorkspaceLoad: make(chan struct{}),
		initializationSema:   make(chan struct{}, 1),
		viewDefinition:       def,
	}
	s.snapshotWG.Add(1)
	v.snapshot = &Snapshot{
		view:          v,
		backgroundCtx: backgroundCtx,
		cancel:        cancel,
		files:         make(fileMap),
		refcount:      1,
		done:          s.snapshotWG.Done,
	}

	initCtx, cancel := context.WithCancel(xcontext.Detach(ctx))
	v.cancelInitialWorkspaceLoad = cancel

	snapshot := v.snapshot
	bgRelease := snapshot.Acquire()
	go func() {
		defer bgRelease()
		snapshot.initialize(initCtx, true)
	}()
	return v, snapshot, snapshot.Acquire()
}

func (s *server) updateCriticalErrorStatus(ctx context.Context, err *InitializationError) {
	s.criticalErrorStatusMu.Lock()
	defer s.criticalErrorStatusMu.Unlock()

	var errMsg string
	if err != nil {
		errMsg = strings.ReplaceAll(err.MainError.Error(), "\n", " ")
	}

	if s.criticalErrorStatus == nil {
		if errMsg != "" {
			s.criticalErrorStatus = s.progress.Start(ctx, "Error loading workspace", errMsg, nil, nil)
		}
		return
	}

	// if an error is already present, update it or mark it as resolved
	if errMsg == "" {
		s.criticalErrorStatus.End(ctx, "Done.")
		s.criticalErrorStatus = nil
		return
	}
	s.criticalErrorStatus.Report(ctx, errMsg, 0)
}

func (s *server) invalidateViewLocked(ctx context.Context, changed StateChange) (*Snapshot, func(), error) {
	ctx = xcontext.Detach(ctx)
	view := s.currentView()
	if view == nil {
		return nil, nil, rpc.ErrServerNotInitialized
	}
	current, release, err := view.Snapshot()
	if err != nil {
		return nil, nil, err
	}
	isSave := slices.ContainsFunc(changed.Modifications, func(mod file.Modification) bool {
		return mod.Action == file.Save
	})
	if isSave || changed.Config != nil {
		// still-running work on the previous snapshot would report stale
		// results
		current.cancel()
	}
	// the initial load may take a while, readers of the view must not wait
	// for it behind the write lock
	current.AwaitInitialized(ctx)
	release()

	view.snapshotMu.Lock()
	defer view.snapshotMu.Unlock()
	prevSnapshot := view.snapshot
	if prevSnapshot == nil {
		return nil, nil, errors.New("view is shutdown")
	}
	// modifications are serialized by modifyMu, so prevSnapshot is current
	// unless the wait above was cut short
	prevSnapshot.AwaitInitialized(ctx)

	s.snapshotWG.Add(1)
	view.snapshot = prevSnapshot.clone(view.baseCtx, changed, s.snapshotWG.Done)
	prevSnapshot.decref()
	return view.snapshot, view.snapshot.Acquire(), nil
}

// Shutdown implements the 'shutdown' LSP handler. It releases resources
// associated with the server and waits for all ongoing work to complete.
func (s *server) Shutdown(ctx context.Context) error {
	// the watch loop takes stateMu, so it is stopped first
	s.stopWatcher()

	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state != serverShutDown {
		s.state = serverShutDown
		s.modificationMu.Lock()
		if s.cancelPrevDiagnostics != nil {
			s.cancelPrevDiagnostics()
		}
		s.modificationMu.Unlock()
		if s.view != nil {
			s.view.shutdown()
			s.view = nil
		}
		s.snapshotWG.Wait() // wait for all work on associated snapshots to finish
	}
	return nil
}

func (s *server) Exit(ctx context.Context) error {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	if s.state != serverShutDown {
		os.Exit(1)
	}
	return nil
}
