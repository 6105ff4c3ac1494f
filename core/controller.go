package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/termpane/internal/logx"
	"pkt.systems/termpane/schema"
)

// Handle is the imperative command surface a controller exposes to its
// host. It holds no shared mutable state; every method is a bound command.
type Handle interface {
	Write(data []byte) error
	Focus()
	Clear()
	ScrollToBottom()
	Search(query string) bool
	SearchNext() bool
	SearchPrevious() bool
	ClearSearch()
	GetSelection() string
	Resize(cols, rows int)
}

// Controller owns one session's lifecycle from creation to teardown: it
// creates the display widget, attempts renderer acceleration, installs
// the shortcut filter, spawns the backing process, and routes the global
// output/exit buses through the per-session batching scheduler. States
// move Idle → Spawning → Running → Exited | SpawnError; SpawnError is
// retriable, Exited ends only in destruction.
type Controller struct {
	cfg  schema.SessionConfig
	deps ControllerDeps
	log  pslog.Logger

	mu         sync.Mutex
	state      schema.SessionState
	exitCode   *int
	spawnErr   string
	display    Display
	renderer   *rendererManager
	batcher    *outputBatcher
	focus      *focusCoordinator
	rawCancel  func()
	exitCancel func()
	dataSub    Disposable
	resizeSub  Disposable
	visible    bool
	hasFocus   bool
	closed     bool
	// generation fences async spawn results: a result produced before a
	// retry or teardown is discarded instead of corrupting the new state.
	generation uint64
}

// NewController validates the config and builds an idle controller.
func NewController(cfg schema.SessionConfig, deps ControllerDeps) (*Controller, error) {
	cfg, err := schema.NormalizeSessionConfig(cfg)
	if err != nil {
		return nil, err
	}
	if deps.Processes == nil {
		return nil, schema.ErrProcessManagerUnavailable
	}
	if deps.Displays == nil {
		return nil, schema.ErrDisplayUnavailable
	}
	if deps.Frames == nil {
		deps.Frames = NewFrameScheduler(cfg.FrameInterval)
	}
	log := deps.Logger
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	return &Controller{
		cfg:   cfg,
		deps:  deps,
		log:   logx.WithSession(log, cfg.ID),
		state: schema.StateIdle,
	}, nil
}

// ID returns the session id.
func (c *Controller) ID() schema.SessionID {
	return c.cfg.ID
}

// Start creates the display widget and issues the asynchronous spawn
// request. It returns once the session is in Spawning; the Running or
// SpawnError transition happens when the spawn result lands.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return schema.ErrSessionClosed
	}
	if c.state != schema.StateIdle {
		c.mu.Unlock()
		return schema.ErrAlreadyStarted
	}
	c.state = schema.StateSpawning
	generation := c.generation
	c.mu.Unlock()

	display, err := c.deps.Displays(c.cfg.Display)
	if err == nil && display == nil {
		err = schema.ErrDisplayUnavailable
	}
	if err == nil {
		err = display.Open()
		if err != nil {
			display.Dispose()
		}
	}
	if err != nil {
		c.mu.Lock()
		c.state = schema.StateIdle
		c.mu.Unlock()
		return fmt.Errorf("create display: %w", err)
	}

	allowlist := c.cfg.HostShortcuts
	display.AttachCustomKeyHandler(func(ev schema.KeyEvent) bool {
		return Classify(ev, allowlist) == schema.TerminalOwned
	})

	renderer := newRendererManager(c.log)
	focus := newFocusCoordinator(display, c.focusEligible)
	dataSub := display.OnData(c.handleInput)
	resizeSub := display.OnResize(c.handleResize)

	c.mu.Lock()
	if c.closed || c.generation != generation {
		c.mu.Unlock()
		dataSub.Dispose()
		resizeSub.Dispose()
		display.Dispose()
		return schema.ErrSessionClosed
	}
	c.display = display
	c.renderer = renderer
	c.focus = focus
	c.dataSub = dataSub
	c.resizeSub = resizeSub
	c.mu.Unlock()

	focus.Bind(c.deps.Window)
	// Acceleration races with spawn by design and must never block it.
	go renderer.Attach(display, c.deps.Addon)

	go c.spawn(ctx, generation)
	return nil
}

func (c *Controller) spawn(ctx context.Context, generation uint64) {
	info, err := c.deps.Processes.Spawn(ctx, schema.SpawnRequest{
		SessionID: c.cfg.ID,
		Cwd:       c.cfg.Cwd,
		Tool:      c.cfg.Tool,
		Cols:      c.cfg.Cols,
		Rows:      c.cfg.Rows,
	})

	c.mu.Lock()
	if c.closed || c.generation != generation || c.state != schema.StateSpawning {
		c.mu.Unlock()
		if err == nil {
			// The session moved on while the spawn was in flight; do not
			// leave an orphaned process behind.
			_ = c.deps.Processes.Kill(c.cfg.ID)
		}
		return
	}
	if err != nil {
		message := strings.TrimSpace(err.Error())
		if message == "" {
			message = schema.DefaultSpawnErrorMessage
		}
		c.state = schema.StateSpawnError
		c.spawnErr = message
		display, renderer, focus, dataSub, resizeSub := c.detachDisplayLocked()
		c.mu.Unlock()
		c.log.Error("session spawn failed", "cwd", c.cfg.Cwd, "err", err)
		// No process is attached, so the widget is useless: dispose it
		// now and skip every bus subscription.
		releaseDisplay(display, renderer, focus, dataSub, resizeSub)
		return
	}

	c.state = schema.StateRunning
	c.exitCode = nil
	c.spawnErr = ""
	display := c.display
	c.mu.Unlock()
	c.log.Info("session spawned", "pid", info.PID, "cwd", c.cfg.Cwd)

	c.emitSpawned()

	batcher := newOutputBatcher(c.cfg.ID, c.deps.Frames, display.Write)
	rawCancel := c.deps.Processes.OnRawData(batcher.Enqueue)
	exitCancel := c.deps.Processes.OnExit(c.handleExit)

	c.mu.Lock()
	if c.closed || c.generation != generation {
		c.mu.Unlock()
		rawCancel()
		exitCancel()
		batcher.Close()
		return
	}
	c.batcher = batcher
	c.rawCancel = rawCancel
	c.exitCancel = exitCancel
	c.mu.Unlock()
}

// handleInput receives keystrokes from the display. After exit every
// keystroke turns into a close request instead of reaching the process;
// before Running nothing is forwarded at all.
func (c *Controller) handleInput(data []byte) {
	c.mu.Lock()
	state := c.state
	closed := c.closed
	c.mu.Unlock()
	if closed || len(data) == 0 {
		return
	}
	switch state {
	case schema.StateExited:
		c.emitCloseRequest()
	case schema.StateRunning:
		if err := c.deps.Processes.Write(c.cfg.ID, data); err != nil {
			c.log.Warn("session input write failed", "err", err)
		}
	default:
		// Spawning, Idle, SpawnError: no process to talk to.
	}
}

func (c *Controller) handleResize(cols, rows int) {
	c.mu.Lock()
	running := c.state == schema.StateRunning && !c.closed
	if cols > 0 && rows > 0 {
		c.cfg.Cols = cols
		c.cfg.Rows = rows
	}
	c.mu.Unlock()
	if !running {
		return
	}
	if err := c.deps.Processes.Resize(c.cfg.ID, cols, rows); err != nil {
		c.log.Warn("session resize failed", "cols", cols, "rows", rows, "err", err)
	}
}

// handleExit consumes the global exit bus. Events for other sessions are
// silently ignored; an exit is honored only from Running, so a stale
// event can never reach a session that failed to spawn.
func (c *Controller) handleExit(ev schema.ExitEvent) {
	if ev.SessionID != c.cfg.ID {
		return
	}
	c.mu.Lock()
	if c.closed || c.state != schema.StateRunning {
		c.mu.Unlock()
		return
	}
	c.state = schema.StateExited
	code := ev.Code
	c.exitCode = &code
	batcher := c.batcher
	display := c.display
	c.mu.Unlock()

	// Pending output lands before the status notice, and the widget is
	// kept alive so the user can read scrollback.
	if batcher != nil {
		batcher.Flush()
	}
	if display != nil {
		display.WriteLine(exitNotice(ev.Code))
	}
	c.log.Info("session exited", "exit_code", ev.Code)
	c.emitExit(ev.Code)
}

func exitNotice(code int) string {
	if code == 0 {
		return "Shell exited."
	}
	return fmt.Sprintf("Shell exited with code %d.", code)
}

// Retry recovers from a failed spawn: the failed attempt is fully
// released, then Start runs again with the same parameters, producing a
// brand-new display widget and a brand-new spawn call.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return schema.ErrSessionClosed
	}
	if c.state != schema.StateSpawnError {
		c.mu.Unlock()
		return schema.ErrNotRetriable
	}
	c.generation++
	c.state = schema.StateIdle
	c.spawnErr = ""
	c.exitCode = nil
	c.mu.Unlock()
	c.log.Info("session retry")
	return c.Start(ctx)
}

// Teardown releases everything the session holds, in order: cancel every
// subscription, flush buffered output, dispose the display, terminate the
// backing process. Calling it again is a no-op.
func (c *Controller) Teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.generation++
	rawCancel := c.rawCancel
	exitCancel := c.exitCancel
	c.rawCancel = nil
	c.exitCancel = nil
	batcher := c.batcher
	c.batcher = nil
	display, renderer, focus, dataSub, resizeSub := c.detachDisplayLocked()
	c.mu.Unlock()

	if rawCancel != nil {
		rawCancel()
	}
	if exitCancel != nil {
		exitCancel()
	}
	if dataSub != nil {
		dataSub.Dispose()
	}
	if resizeSub != nil {
		resizeSub.Dispose()
	}
	if focus != nil {
		focus.Dispose()
	}
	// Flushing before disposal keeps last-moment output; disposing before
	// the kill keeps process callbacks out of a dead widget.
	if batcher != nil {
		batcher.Close()
	}
	if renderer != nil {
		renderer.Dispose()
	}
	if display != nil {
		display.Dispose()
	}
	_ = c.deps.Processes.Kill(c.cfg.ID)
	c.log.Info("session teardown complete")
}

func (c *Controller) detachDisplayLocked() (Display, *rendererManager, *focusCoordinator, Disposable, Disposable) {
	display := c.display
	renderer := c.renderer
	focus := c.focus
	dataSub := c.dataSub
	resizeSub := c.resizeSub
	c.display = nil
	c.renderer = nil
	c.focus = nil
	c.dataSub = nil
	c.resizeSub = nil
	return display, renderer, focus, dataSub, resizeSub
}

func releaseDisplay(display Display, renderer *rendererManager, focus *focusCoordinator, dataSub, resizeSub Disposable) {
	if dataSub != nil {
		dataSub.Dispose()
	}
	if resizeSub != nil {
		resizeSub.Dispose()
	}
	if focus != nil {
		focus.Dispose()
	}
	if renderer != nil {
		renderer.Dispose()
	}
	if display != nil {
		display.Dispose()
	}
}

func (c *Controller) focusEligible() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || !c.visible {
		return false
	}
	return c.state != schema.StateExited && c.state != schema.StateSpawnError
}

// SetVisible records whether the host currently shows this session.
// Auto-focus on window focus applies only to visible sessions.
func (c *Controller) SetVisible(visible bool) {
	c.mu.Lock()
	c.visible = visible
	c.mu.Unlock()
}

// SetHasFocus records whether the host considers this session focused.
func (c *Controller) SetHasFocus(hasFocus bool) {
	c.mu.Lock()
	c.hasFocus = hasFocus
	c.mu.Unlock()
}

// State returns the current lifecycle state.
func (c *Controller) State() schema.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ExitCode returns the process exit code once the session has exited.
func (c *Controller) ExitCode() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exitCode == nil {
		return 0, false
	}
	return *c.exitCode, true
}

// SpawnError returns the recorded spawn failure message, if any.
func (c *Controller) SpawnError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spawnErr
}

// RendererMode reports which rendering path the display is on.
func (c *Controller) RendererMode() schema.RendererMode {
	c.mu.Lock()
	renderer := c.renderer
	c.mu.Unlock()
	if renderer == nil {
		return schema.RendererFallback
	}
	return renderer.Mode()
}

// Snapshot returns a transport-friendly view of the session.
func (c *Controller) Snapshot() schema.SessionSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	var code *int
	if c.exitCode != nil {
		v := *c.exitCode
		code = &v
	}
	mode := schema.RendererFallback
	if c.renderer != nil {
		mode = c.renderer.Mode()
	}
	return schema.SessionSnapshot{
		ID:           c.cfg.ID,
		State:        c.state,
		ExitCode:     code,
		SpawnError:   c.spawnErr,
		RendererMode: mode,
		Visible:      c.visible,
		HasFocus:     c.hasFocus,
	}
}

// Write injects bytes into the backing process, subject to the same exit
// gating as keystrokes.
func (c *Controller) Write(data []byte) error {
	c.mu.Lock()
	state := c.state
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return schema.ErrSessionClosed
	}
	if state != schema.StateRunning {
		return schema.ErrSessionNotRunning
	}
	return c.deps.Processes.Write(c.cfg.ID, data)
}

// Focus moves keyboard focus to the display widget.
func (c *Controller) Focus() {
	if display := c.currentDisplay(); display != nil {
		display.Focus()
	}
}

// Clear clears the display scrollback. The process is untouched.
func (c *Controller) Clear() {
	if display := c.currentDisplay(); display != nil {
		display.Clear()
	}
}

// ScrollToBottom scrolls the display to the live row.
func (c *Controller) ScrollToBottom() {
	if display := c.currentDisplay(); display != nil {
		display.ScrollToBottom()
	}
}

// GetSelection returns the display's current text selection.
func (c *Controller) GetSelection() string {
	if display := c.currentDisplay(); display != nil {
		return display.GetSelection()
	}
	return ""
}

// Resize changes the display geometry and, while running, the PTY size.
func (c *Controller) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	if display := c.currentDisplay(); display != nil {
		display.Resize(cols, rows)
	}
	c.handleResize(cols, rows)
}

// Search delegates an incremental find to the display.
func (c *Controller) Search(query string) bool {
	return searchDelegate{display: c.currentDisplay()}.Search(query)
}

// SearchNext advances to the next match of the current query.
func (c *Controller) SearchNext() bool {
	return searchDelegate{display: c.currentDisplay()}.SearchNext()
}

// SearchPrevious moves to the previous match of the current query.
func (c *Controller) SearchPrevious() bool {
	return searchDelegate{display: c.currentDisplay()}.SearchPrevious()
}

// ClearSearch removes match highlighting.
func (c *Controller) ClearSearch() {
	searchDelegate{display: c.currentDisplay()}.ClearSearch()
}

func (c *Controller) currentDisplay() Display {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.display
}

func (c *Controller) emitSpawned() {
	if c.deps.Sink != nil {
		c.deps.Sink.OnSpawned(c.cfg.ID)
	}
}

func (c *Controller) emitExit(code int) {
	if c.deps.Sink != nil {
		c.deps.Sink.OnProcessExit(c.cfg.ID, code)
	}
}

func (c *Controller) emitCloseRequest() {
	if c.deps.Sink != nil {
		c.deps.Sink.OnCloseRequest(c.cfg.ID)
	}
}
