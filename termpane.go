package termpane

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"pkt.systems/pslog"
	"pkt.systems/termpane/core"
	"pkt.systems/termpane/schema"
)

// ManagerDeps captures the dependencies shared by every session the
// manager opens. Processes and Displays are required.
type ManagerDeps struct {
	Processes core.ProcessManager
	Displays  core.DisplayFactory
	Addon     core.RendererAddonFactory
	Frames    core.FrameScheduler
	Window    core.FocusSource
	Sink      core.SessionSink
	Logger    pslog.Logger
}

// Manager composes per-session controllers into a tabbed whole: it mints
// session ids, tracks which session is active, and fans lifecycle events
// out to the host sink and the notifier stream.
type Manager struct {
	base     schema.SessionConfig
	deps     ManagerDeps
	log      pslog.Logger
	notifier *Notifier

	mu       sync.Mutex
	sessions map[schema.SessionID]*core.Controller
	order    []schema.SessionID
	active   schema.SessionID
	closed   bool
}

// NewManager builds a manager. The base config is the template applied to
// every opened session; its ID field must be empty.
func NewManager(base schema.SessionConfig, deps ManagerDeps) (*Manager, error) {
	if base.ID != "" {
		return nil, schema.ErrInvalidSessionID
	}
	if deps.Processes == nil {
		return nil, schema.ErrProcessManagerUnavailable
	}
	if deps.Displays == nil {
		return nil, schema.ErrDisplayUnavailable
	}
	log := deps.Logger
	if log == nil {
		log = pslog.Ctx(context.Background())
	}
	return &Manager{
		base:     base,
		deps:     deps,
		log:      log,
		notifier: NewNotifier(),
		sessions: make(map[schema.SessionID]*core.Controller),
	}, nil
}

// OpenSession starts a new session and makes it the active one.
func (m *Manager) OpenSession(ctx context.Context) (schema.SessionID, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return "", schema.ErrSessionClosed
	}
	m.mu.Unlock()

	id := schema.SessionID(uuid.NewString())
	cfg := m.base
	cfg.ID = id

	controller, err := core.NewController(cfg, core.ControllerDeps{
		Processes: m.deps.Processes,
		Displays:  m.deps.Displays,
		Addon:     m.deps.Addon,
		Frames:    m.deps.Frames,
		Window:    m.deps.Window,
		Sink:      sessionFanout{sinks: []core.SessionSink{m.notifier, m.deps.Sink}},
		Logger:    m.log,
	})
	if err != nil {
		return "", err
	}
	if err := controller.Start(ctx); err != nil {
		return "", err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		controller.Teardown()
		return "", schema.ErrSessionClosed
	}
	m.sessions[id] = controller
	m.order = append(m.order, id)
	m.mu.Unlock()

	m.ActivateSession(id)
	m.log.Info("session opened", "session", id, "sessions", m.Count())
	return id, nil
}

// CloseSession tears a session down and removes it. If it was active, the
// most recently opened surviving session becomes active.
func (m *Manager) CloseSession(id schema.SessionID) error {
	m.mu.Lock()
	controller, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return schema.ErrSessionNotFound
	}
	delete(m.sessions, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	wasActive := m.active == id
	var next schema.SessionID
	if wasActive {
		m.active = ""
		if len(m.order) > 0 {
			next = m.order[len(m.order)-1]
		}
	}
	m.mu.Unlock()

	controller.Teardown()
	if next != "" {
		m.ActivateSession(next)
	}
	m.log.Info("session closed", "session", id, "sessions", m.Count())
	return nil
}

// RetrySession re-attempts a failed spawn.
func (m *Manager) RetrySession(ctx context.Context, id schema.SessionID) error {
	controller, ok := m.Session(id)
	if !ok {
		return schema.ErrSessionNotFound
	}
	return controller.Retry(ctx)
}

// ActivateSession marks one session visible and focused and hides the
// rest.
func (m *Manager) ActivateSession(id schema.SessionID) {
	m.mu.Lock()
	target, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	m.active = id
	others := make([]*core.Controller, 0, len(m.sessions))
	for existing, controller := range m.sessions {
		if existing != id {
			others = append(others, controller)
		}
	}
	m.mu.Unlock()

	for _, controller := range others {
		controller.SetVisible(false)
		controller.SetHasFocus(false)
	}
	target.SetVisible(true)
	target.SetHasFocus(true)
	target.Focus()
}

// ActiveSession returns the active session id, if any.
func (m *Manager) ActiveSession() (schema.SessionID, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active, m.active != ""
}

// Session returns the controller for one session.
func (m *Manager) Session(id schema.SessionID) (*core.Controller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	controller, ok := m.sessions[id]
	return controller, ok
}

// Handle returns the command surface for one session.
func (m *Manager) Handle(id schema.SessionID) (core.Handle, bool) {
	controller, ok := m.Session(id)
	if !ok {
		return nil, false
	}
	return controller, true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Snapshots returns a snapshot per session in open order.
func (m *Manager) Snapshots() []schema.SessionSnapshot {
	m.mu.Lock()
	controllers := make([]*core.Controller, 0, len(m.order))
	for _, id := range m.order {
		if controller, ok := m.sessions[id]; ok {
			controllers = append(controllers, controller)
		}
	}
	m.mu.Unlock()

	snaps := make([]schema.SessionSnapshot, 0, len(controllers))
	for _, controller := range controllers {
		snaps = append(snaps, controller.Snapshot())
	}
	return snaps
}

// Events returns a lifecycle event stream and its cancel function.
func (m *Manager) Events() (<-chan schema.SessionEvent, func()) {
	return m.notifier.Subscribe()
}

// Shutdown tears down every session. The manager accepts no new sessions
// afterwards.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	controllers := make([]*core.Controller, 0, len(m.sessions))
	for _, controller := range m.sessions {
		controllers = append(controllers, controller)
	}
	m.sessions = make(map[schema.SessionID]*core.Controller)
	m.order = nil
	m.active = ""
	m.mu.Unlock()

	for _, controller := range controllers {
		controller.Teardown()
	}
	m.log.Info("manager shutdown complete", "sessions", len(controllers))
}
