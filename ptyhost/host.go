package ptyhost

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"pkt.systems/pslog"
	"pkt.systems/termpane/internal/logx"
	"pkt.systems/termpane/schema"
)

// Options configures the process host.
type Options struct {
	// Shell overrides the spawned program. Empty falls back to $SHELL,
	// then /bin/bash.
	Shell string
	// Args are passed to the shell verbatim.
	Args []string
	// Env entries are appended to the inherited environment.
	Env map[string]string
	// Logger defaults to the ambient context logger.
	Logger pslog.Logger
}

// Host spawns PTY-backed processes and fans their output and exit events
// out on global feeds. Subscribers filter by session id; delivery is
// synchronous and preserves the byte order read from each PTY.
type Host struct {
	opts  Options
	log   pslog.Logger
	raw   *feed[schema.OutputEvent]
	exits *feed[schema.ExitEvent]

	mu       sync.Mutex
	sessions map[schema.SessionID]*process
}

type process struct {
	id     schema.SessionID
	cmd    *exec.Cmd
	ptmx   *os.File
	mu     sync.Mutex
	closed bool
}

// New builds an empty host.
func New(opts Options) *Host {
	log := opts.Logger
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	return &Host{
		opts:     opts,
		log:      log,
		raw:      newFeed[schema.OutputEvent](),
		exits:    newFeed[schema.ExitEvent](),
		sessions: make(map[schema.SessionID]*process),
	}
}

// Spawn starts the shell on a fresh PTY and begins pumping its output.
func (h *Host) Spawn(ctx context.Context, req schema.SpawnRequest) (schema.SpawnInfo, error) {
	if req.SessionID == "" {
		return schema.SpawnInfo{}, schema.ErrInvalidSessionID
	}
	h.mu.Lock()
	if _, exists := h.sessions[req.SessionID]; exists {
		h.mu.Unlock()
		return schema.SpawnInfo{}, schema.ErrAlreadyStarted
	}
	h.mu.Unlock()

	shell := resolveShell(h.opts.Shell)
	cwd := resolveCwd(req.Cwd)
	cols, rows := req.Cols, req.Rows
	if cols <= 0 {
		cols = schema.DefaultCols
	}
	if rows <= 0 {
		rows = schema.DefaultRows
	}

	cmd := exec.Command(shell, h.opts.Args...)
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	for key, value := range h.opts.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return schema.SpawnInfo{}, fmt.Errorf("start pty: %w", err)
	}

	proc := &process{id: req.SessionID, cmd: cmd, ptmx: ptmx}
	h.mu.Lock()
	h.sessions[req.SessionID] = proc
	h.mu.Unlock()

	log := logx.WithSession(h.log, req.SessionID)
	log.Debug("pty spawned", "shell", shell, "cwd", cwd, "pid", cmd.Process.Pid)

	readerDone := make(chan struct{})
	go h.readOutput(proc, readerDone)
	go h.monitor(proc, readerDone, log)

	return schema.SpawnInfo{SessionID: req.SessionID, PID: cmd.Process.Pid}, nil
}

// readOutput pumps the PTY master into the raw feed until the PTY closes.
func (h *Host) readOutput(proc *process, done chan<- struct{}) {
	defer close(done)
	buf := make([]byte, 4096)
	for {
		n, err := proc.ptmx.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			h.raw.Publish(schema.OutputEvent{SessionID: proc.id, Data: data})
		}
		if err != nil {
			return
		}
	}
}

// monitor waits for the process and the output pump, then publishes the
// exit. Waiting for the pump first keeps every output byte ahead of the
// exit event.
func (h *Host) monitor(proc *process, readerDone <-chan struct{}, log pslog.Logger) {
	err := proc.cmd.Wait()
	<-readerDone

	proc.mu.Lock()
	proc.closed = true
	proc.mu.Unlock()
	proc.ptmx.Close()

	h.mu.Lock()
	delete(h.sessions, proc.id)
	h.mu.Unlock()

	code := exitCode(err)
	log.Debug("pty exited", "exit_code", code)
	h.exits.Publish(schema.ExitEvent{SessionID: proc.id, Code: code})
}

// Write sends input bytes to the session's PTY.
func (h *Host) Write(id schema.SessionID, data []byte) error {
	proc, err := h.lookup(id)
	if err != nil {
		return err
	}
	proc.mu.Lock()
	closed := proc.closed
	proc.mu.Unlock()
	if closed {
		return schema.ErrSessionClosed
	}
	_, err = proc.ptmx.Write(data)
	return err
}

// Resize changes the PTY dimensions.
func (h *Host) Resize(id schema.SessionID, cols, rows int) error {
	proc, err := h.lookup(id)
	if err != nil {
		return err
	}
	proc.mu.Lock()
	defer proc.mu.Unlock()
	if proc.closed {
		return schema.ErrSessionClosed
	}
	return pty.Setsize(proc.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

// Kill terminates the session's process. The exit event still flows
// through the monitor, so subscribers see a normal exit.
func (h *Host) Kill(id schema.SessionID) error {
	proc, err := h.lookup(id)
	if err != nil {
		if errors.Is(err, schema.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	proc.mu.Lock()
	defer proc.mu.Unlock()
	if proc.closed {
		return nil
	}
	if proc.cmd.Process != nil {
		proc.cmd.Process.Kill()
	}
	proc.ptmx.Close()
	return nil
}

// OnRawData subscribes to the global output feed.
func (h *Host) OnRawData(handler func(ev schema.OutputEvent)) func() {
	return h.raw.Subscribe(handler)
}

// OnExit subscribes to the global exit feed.
func (h *Host) OnExit(handler func(ev schema.ExitEvent)) func() {
	return h.exits.Subscribe(handler)
}

// Shutdown kills every live session.
func (h *Host) Shutdown() {
	h.mu.Lock()
	ids := make([]schema.SessionID, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	h.mu.Unlock()
	for _, id := range ids {
		_ = h.Kill(id)
	}
}

func (h *Host) lookup(id schema.SessionID) (*process, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	proc, ok := h.sessions[id]
	if !ok {
		return nil, schema.ErrSessionNotFound
	}
	return proc, nil
}

func resolveShell(shell string) string {
	if shell != "" {
		return shell
	}
	if env := os.Getenv("SHELL"); env != "" {
		return env
	}
	return "/bin/bash"
}

func resolveCwd(cwd string) string {
	if cwd != "" {
		return cwd
	}
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	return "/tmp"
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	if exitErr, ok := err.(*exec.ExitError); ok {
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
	}
	return 1
}
