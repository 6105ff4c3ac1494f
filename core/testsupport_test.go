package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"pkt.systems/termpane/schema"
)

// fakeDisplay records every call the controller makes against the display
// contract.
type fakeDisplay struct {
	mu          sync.Mutex
	writes      [][]byte
	lines       []string
	focusCount  int
	clearCount  int
	scrollCount int
	resizes     [][2]int
	disposed    bool
	blink       *bool
	keyPred     func(ev schema.KeyEvent) bool
	dataHandler func(data []byte)
	resizeFn    func(cols, rows int)
	addons      []RendererAddon
	loadErr     error
	selection   string

	findNextQueries []string
	findPrevQueries []string
	clearSearches   int
	findResult      bool
}

type fakeDisposable struct {
	disposed *bool
}

func (d fakeDisposable) Dispose() { *d.disposed = true }

func (d *fakeDisplay) Open() error { return nil }

func (d *fakeDisplay) Write(data []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	d.writes = append(d.writes, buf)
}

func (d *fakeDisplay) WriteLine(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lines = append(d.lines, text)
}

func (d *fakeDisplay) Focus() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.focusCount++
}

func (d *fakeDisplay) Clear() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearCount++
}

func (d *fakeDisplay) ScrollToBottom() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.scrollCount++
}

func (d *fakeDisplay) GetSelection() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.selection
}

func (d *fakeDisplay) Resize(cols, rows int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resizes = append(d.resizes, [2]int{cols, rows})
}

func (d *fakeDisplay) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disposed = true
}

func (d *fakeDisplay) OnData(handler func(data []byte)) Disposable {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dataHandler = handler
	disposed := false
	return fakeDisposable{disposed: &disposed}
}

func (d *fakeDisplay) OnResize(handler func(cols, rows int)) Disposable {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resizeFn = handler
	disposed := false
	return fakeDisposable{disposed: &disposed}
}

func (d *fakeDisplay) AttachCustomKeyHandler(pred func(ev schema.KeyEvent) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyPred = pred
}

func (d *fakeDisplay) LoadAddon(addon RendererAddon) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.loadErr != nil {
		return d.loadErr
	}
	d.addons = append(d.addons, addon)
	return nil
}

func (d *fakeDisplay) SetCursorBlink(blink bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.blink = &blink
}

func (d *fakeDisplay) SetTheme(theme schema.Theme) {}

func (d *fakeDisplay) SetFontFamily(family string) {}

func (d *fakeDisplay) FindNext(query string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.findNextQueries = append(d.findNextQueries, query)
	return d.findResult
}

func (d *fakeDisplay) FindPrevious(query string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.findPrevQueries = append(d.findPrevQueries, query)
	return d.findResult
}

func (d *fakeDisplay) ClearSearch() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearSearches++
}

func (d *fakeDisplay) keyHandler() func(ev schema.KeyEvent) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.keyPred
}

func (d *fakeDisplay) sendInput(data []byte) {
	d.mu.Lock()
	handler := d.dataHandler
	d.mu.Unlock()
	if handler != nil {
		handler(data)
	}
}

func (d *fakeDisplay) writtenBytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	var all []byte
	for _, w := range d.writes {
		all = append(all, w...)
	}
	return all
}

func (d *fakeDisplay) writeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.writes)
}

func (d *fakeDisplay) statusLines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.lines...)
}

func (d *fakeDisplay) isDisposed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disposed
}

func (d *fakeDisplay) blinkValue() (bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.blink == nil {
		return false, false
	}
	return *d.blink, true
}

// fakeProcessManager implements the process-manager contract with a
// scriptable spawn result and a global subscriber list, mirroring the
// real bus: every subscriber sees every session's events.
type fakeProcessManager struct {
	mu          sync.Mutex
	spawnErrs   []error
	spawnGate   chan struct{}
	spawnCount  int
	writes      [][]byte
	kills       []schema.SessionID
	resizes     [][2]int
	rawSubs     map[int]func(schema.OutputEvent)
	exitSubs    map[int]func(schema.ExitEvent)
	nextSub     int
	rawCancels  int
	exitCancels int
}

func newFakeProcessManager(spawnErrs ...error) *fakeProcessManager {
	return &fakeProcessManager{
		spawnErrs: spawnErrs,
		rawSubs:   make(map[int]func(schema.OutputEvent)),
		exitSubs:  make(map[int]func(schema.ExitEvent)),
	}
}

func (m *fakeProcessManager) Spawn(ctx context.Context, req schema.SpawnRequest) (schema.SpawnInfo, error) {
	m.mu.Lock()
	idx := m.spawnCount
	m.spawnCount++
	gate := m.spawnGate
	var err error
	if idx < len(m.spawnErrs) && m.spawnErrs[idx] != nil {
		err = m.spawnErrs[idx]
	}
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return schema.SpawnInfo{}, err
	}
	return schema.SpawnInfo{SessionID: req.SessionID, PID: 1000 + idx}, nil
}

func (m *fakeProcessManager) Write(id schema.SessionID, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.writes = append(m.writes, buf)
	return nil
}

func (m *fakeProcessManager) Kill(id schema.SessionID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kills = append(m.kills, id)
	return nil
}

func (m *fakeProcessManager) Resize(id schema.SessionID, cols, rows int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resizes = append(m.resizes, [2]int{cols, rows})
	return nil
}

func (m *fakeProcessManager) OnRawData(handler func(ev schema.OutputEvent)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.rawSubs[id] = handler
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.rawSubs[id]; ok {
			delete(m.rawSubs, id)
			m.rawCancels++
		}
	}
}

func (m *fakeProcessManager) OnExit(handler func(ev schema.ExitEvent)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.exitSubs[id] = handler
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.exitSubs[id]; ok {
			delete(m.exitSubs, id)
			m.exitCancels++
		}
	}
}

func (m *fakeProcessManager) publishRaw(ev schema.OutputEvent) {
	m.mu.Lock()
	subs := make([]func(schema.OutputEvent), 0, len(m.rawSubs))
	for _, sub := range m.rawSubs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()
	for _, sub := range subs {
		sub(ev)
	}
}

func (m *fakeProcessManager) publishExit(ev schema.ExitEvent) {
	m.mu.Lock()
	subs := make([]func(schema.ExitEvent), 0, len(m.exitSubs))
	for _, sub := range m.exitSubs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()
	for _, sub := range subs {
		sub(ev)
	}
}

func (m *fakeProcessManager) writtenBytes() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []byte
	for _, w := range m.writes {
		all = append(all, w...)
	}
	return all
}

func (m *fakeProcessManager) spawns() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.spawnCount
}

func (m *fakeProcessManager) subscriberCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rawSubs) + len(m.exitSubs)
}

// manualScheduler fires ticks only when the test says so.
type manualScheduler struct {
	mu      sync.Mutex
	pending []func()
}

func (s *manualScheduler) Schedule(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, fn)
	canceled := false
	idx := len(s.pending) - 1
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !canceled && idx < len(s.pending) {
			s.pending[idx] = nil
			canceled = true
		}
	}
}

func (s *manualScheduler) fire() {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()
	for _, fn := range pending {
		if fn != nil {
			fn()
		}
	}
}

func (s *manualScheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, fn := range s.pending {
		if fn != nil {
			count++
		}
	}
	return count
}

// fakeAddon is a scriptable renderer addon.
type fakeAddon struct {
	mu          sync.Mutex
	disposed    bool
	lossHandler func()
}

func (a *fakeAddon) OnContextLoss(handler func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lossHandler = handler
}

func (a *fakeAddon) Dispose() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.disposed = true
}

func (a *fakeAddon) loseContext() {
	a.mu.Lock()
	handler := a.lossHandler
	a.mu.Unlock()
	if handler != nil {
		handler()
	}
}

func (a *fakeAddon) isDisposed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.disposed
}

// fakeWindow is a scriptable focus source.
type fakeWindow struct {
	mu       sync.Mutex
	focusFns map[int]func()
	blurFns  map[int]func()
	next     int
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{focusFns: make(map[int]func()), blurFns: make(map[int]func())}
}

func (w *fakeWindow) OnFocus(handler func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.next
	w.next++
	w.focusFns[id] = handler
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.focusFns, id)
	}
}

func (w *fakeWindow) OnBlur(handler func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	id := w.next
	w.next++
	w.blurFns[id] = handler
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		delete(w.blurFns, id)
	}
}

func (w *fakeWindow) focus() {
	w.mu.Lock()
	fns := make([]func(), 0, len(w.focusFns))
	for _, fn := range w.focusFns {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (w *fakeWindow) blur() {
	w.mu.Lock()
	fns := make([]func(), 0, len(w.blurFns))
	for _, fn := range w.blurFns {
		fns = append(fns, fn)
	}
	w.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (w *fakeWindow) handlerCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.focusFns) + len(w.blurFns)
}

// fakeSink records host-facing notifications.
type fakeSink struct {
	mu       sync.Mutex
	spawned  []schema.SessionID
	exits    []schema.ExitEvent
	closeReq []schema.SessionID
}

func (s *fakeSink) OnSpawned(id schema.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spawned = append(s.spawned, id)
}

func (s *fakeSink) OnProcessExit(id schema.SessionID, exitCode int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exits = append(s.exits, schema.ExitEvent{SessionID: id, Code: exitCode})
}

func (s *fakeSink) OnCloseRequest(id schema.SessionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeReq = append(s.closeReq, id)
}

func (s *fakeSink) closeRequests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.closeReq)
}

func (s *fakeSink) spawnedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.spawned)
}

// displayMaker hands out a fresh fakeDisplay per factory call so retry
// tests can assert on both the failed and the replacement widget.
type displayMaker struct {
	mu   sync.Mutex
	made []*fakeDisplay
}

func (d *displayMaker) factory(cfg schema.DisplayConfig) (Display, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	display := &fakeDisplay{}
	d.made = append(d.made, display)
	return display, nil
}

func (d *displayMaker) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.made)
}

func (d *displayMaker) at(i int) *fakeDisplay {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i < 0 || i >= len(d.made) {
		return nil
	}
	return d.made[i]
}

// waitForState polls until the controller reaches the wanted state.
func waitForState(t *testing.T, c *Controller, want schema.SessionState) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if c.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected state %q, got %q", want, c.State())
}

// waitFor polls until the condition holds.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
