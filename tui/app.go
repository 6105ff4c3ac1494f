package tui

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"pkt.systems/pslog"
	"pkt.systems/termpane"
	"pkt.systems/termpane/core"
	"pkt.systems/termpane/internal/appconfig"
	"pkt.systems/termpane/ptyhost"
	"pkt.systems/termpane/schema"
)

// App is the terminal host: a tabbed set of shell sessions rendered with
// tview, backed by the session manager. Host shortcuts are classified
// against the configured allowlist before keys reach a session's widget;
// everything else flows to the shell.
type App struct {
	cfg    appconfig.Config
	log    pslog.Logger
	chords []schema.KeyChord

	app       *tview.Application
	pages     *tview.Pages
	statusBar *tview.TextView
	focus     *FocusNotifier
	manager   *termpane.Manager
	host      *ptyhost.Host

	mu       sync.Mutex
	displays map[schema.SessionID]*Display
	pending  *Display
}

// NewApp wires the PTY host, session manager, and widgets together.
func NewApp(cfg appconfig.Config, log pslog.Logger) (*App, error) {
	chords, err := cfg.HostChords()
	if err != nil {
		return nil, err
	}

	a := &App{
		cfg:      cfg,
		log:      log,
		chords:   chords,
		app:      tview.NewApplication(),
		pages:    tview.NewPages(),
		focus:    NewFocusNotifier(),
		displays: make(map[schema.SessionID]*Display),
	}
	a.statusBar = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)

	a.host = ptyhost.New(ptyhost.Options{
		Shell:  cfg.Shell.Command,
		Args:   cfg.Shell.Args,
		Env:    cfg.Shell.Env,
		Logger: log,
	})

	base, err := cfg.SessionConfigFor("template")
	if err != nil {
		return nil, err
	}
	base.ID = ""
	manager, err := termpane.NewManager(base, termpane.ManagerDeps{
		Processes: a.host,
		Displays:  a.makeDisplay,
		Window:    a.focus,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	a.manager = manager
	return a, nil
}

// Run opens the first session and enters the UI loop. It blocks until the
// application stops.
func (a *App) Run(ctx context.Context) error {
	layout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.pages, 0, 1, true).
		AddItem(a.statusBar, 1, 0, false)

	a.app.SetInputCapture(a.captureHostKey)

	events, cancel := a.manager.Events()
	defer cancel()
	go a.consumeEvents(ctx, events)

	if _, err := a.openTab(ctx); err != nil {
		return err
	}

	err := a.app.SetRoot(layout, true).EnableMouse(true).Run()
	a.manager.Shutdown()
	a.host.Shutdown()
	return err
}

// Stop ends the UI loop.
func (a *App) Stop() {
	a.app.Stop()
}

// Focus exposes the window focus notifier so an embedding host that does
// receive window focus events can forward them to the sessions.
func (a *App) Focus() *FocusNotifier {
	return a.focus
}

// makeDisplay is the display factory handed to the manager. The produced
// widget is parked until openTab binds it to its session id.
func (a *App) makeDisplay(cfg schema.DisplayConfig) (core.Display, error) {
	display := NewDisplay(a.app, cfg)
	a.mu.Lock()
	a.pending = display
	a.mu.Unlock()
	return display, nil
}

func (a *App) openTab(ctx context.Context) (schema.SessionID, error) {
	id, err := a.manager.OpenSession(ctx)
	if err != nil {
		return "", err
	}
	a.bindPending(id)
	go a.watchSpawn(ctx, id)
	a.updateStatus()
	return id, nil
}

// bindPending associates the most recently created widget with a session
// and adds its page. Display creation is synchronous inside OpenSession,
// so the pending slot always belongs to the id just returned.
func (a *App) bindPending(id schema.SessionID) {
	a.mu.Lock()
	display := a.pending
	a.pending = nil
	if old, ok := a.displays[id]; ok && old != display {
		a.pages.RemovePage(string(id))
	}
	a.displays[id] = display
	a.mu.Unlock()
	if display != nil {
		a.pages.AddPage(string(id), display.Primitive(), true, true)
	}
}

func (a *App) closeTab(id schema.SessionID) {
	if err := a.manager.CloseSession(id); err != nil {
		a.log.Warn("close session failed", "session", id, "err", err)
		return
	}
	a.mu.Lock()
	delete(a.displays, id)
	a.mu.Unlock()
	a.pages.RemovePage(string(id))

	if a.manager.Count() == 0 {
		a.app.Stop()
		return
	}
	if active, ok := a.manager.ActiveSession(); ok {
		a.pages.SwitchToPage(string(active))
	}
	a.updateStatus()
}

// watchSpawn waits for the session to leave Spawning and surfaces a
// retry overlay when the spawn failed.
func (a *App) watchSpawn(ctx context.Context, id schema.SessionID) {
	controller, ok := a.manager.Session(id)
	if !ok {
		return
	}
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		switch controller.State() {
		case schema.StateRunning, schema.StateExited:
			return
		case schema.StateSpawnError:
			message := controller.SpawnError()
			a.app.QueueUpdateDraw(func() {
				a.showSpawnError(ctx, id, message)
			})
			return
		}
	}
}

func (a *App) showSpawnError(ctx context.Context, id schema.SessionID, message string) {
	pageName := "spawn-error-" + string(id)
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Session failed to start:\n\n%s", message)).
		AddButtons([]string{"Retry", "Close Tab"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			a.pages.RemovePage(pageName)
			if buttonLabel == "Retry" {
				if err := a.manager.RetrySession(ctx, id); err != nil {
					a.log.Warn("session retry failed", "session", id, "err", err)
					return
				}
				a.bindPending(id)
				go a.watchSpawn(ctx, id)
				return
			}
			a.closeTab(id)
		})
	a.pages.AddPage(pageName, modal, true, true)
}

// captureHostKey runs before any widget sees the key. Allowlisted chords
// are handled here; everything else continues to the focused widget.
func (a *App) captureHostKey(ev *tcell.EventKey) *tcell.EventKey {
	kev, _ := translateKey(ev)
	if core.Classify(kev, a.chords) != schema.HostOwned {
		return ev
	}
	for _, chord := range a.chords {
		if chord.Matches(kev) {
			a.runShortcut(chord.String())
			return nil
		}
	}
	return nil
}

func (a *App) runShortcut(chord string) {
	active, hasActive := a.manager.ActiveSession()
	switch chord {
	case "cmd+t":
		go func() {
			if _, err := a.openTab(context.Background()); err != nil {
				a.log.Warn("open session failed", "err", err)
			}
		}()
	case "cmd+w":
		if hasActive {
			a.closeTab(active)
		}
	case "cmd+k":
		if handle, ok := a.manager.Handle(active); ok {
			handle.Clear()
		}
	case "cmd+f":
		if hasActive {
			a.showSearchPrompt(active)
		}
	case "cmd+shift+]":
		a.cycleTab(1)
	case "cmd+shift+[":
		a.cycleTab(-1)
	}
}

func (a *App) cycleTab(direction int) {
	snaps := a.manager.Snapshots()
	if len(snaps) < 2 {
		return
	}
	active, _ := a.manager.ActiveSession()
	current := 0
	for i, snap := range snaps {
		if snap.ID == active {
			current = i
			break
		}
	}
	next := snaps[(current+direction+len(snaps))%len(snaps)].ID
	a.manager.ActivateSession(next)
	a.pages.SwitchToPage(string(next))
	a.updateStatus()
}

func (a *App) showSearchPrompt(id schema.SessionID) {
	input := tview.NewInputField().
		SetLabel("Find: ").
		SetFieldWidth(0)

	input.SetChangedFunc(func(text string) {
		if handle, ok := a.manager.Handle(id); ok && text != "" {
			handle.Search(text)
		}
	})
	input.SetDoneFunc(func(key tcell.Key) {
		handle, ok := a.manager.Handle(id)
		a.pages.RemovePage("search")
		if !ok {
			return
		}
		if key == tcell.KeyEscape {
			handle.ClearSearch()
			return
		}
		if key == tcell.KeyEnter {
			if !handle.Search(input.GetText()) {
				a.setStatus("[yellow]no matches")
			}
		}
	})

	container := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true)
	container.SetBorder(true).
		SetTitle(" Find in Scrollback (Enter to search, Esc to cancel) ").
		SetTitleAlign(tview.AlignLeft)

	a.pages.AddPage("search", createModal(container, 60, 3), true, true)
}

func (a *App) consumeEvents(ctx context.Context, events <-chan schema.SessionEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case schema.SessionCloseRequested:
				id := ev.SessionID
				a.app.QueueUpdateDraw(func() {
					a.closeTab(id)
				})
			case schema.SessionExited:
				code := ev.ExitCode
				a.app.QueueUpdateDraw(func() {
					a.setStatus(fmt.Sprintf("session exited with code %d, press any key to close the tab", code))
				})
			case schema.SessionSpawned:
				a.app.QueueUpdateDraw(func() {
					a.updateStatus()
				})
			}
		}
	}
}

func (a *App) updateStatus() {
	snaps := a.manager.Snapshots()
	active, _ := a.manager.ActiveSession()
	tabs := ""
	for i, snap := range snaps {
		name := string(snap.ID)
		if len(name) > 8 {
			name = name[:8]
		}
		marker := " "
		if snap.ID == active {
			marker = "*"
		}
		tabs += fmt.Sprintf("[%d%s]%s ", i+1, marker, name)
	}
	a.setStatus(fmt.Sprintf("%s| [yellow]^T[white]:new [yellow]^W[white]:close [yellow]^F[white]:find [yellow]^K[white]:clear", tabs))
}

func (a *App) setStatus(msg string) {
	a.statusBar.Clear()
	fmt.Fprintf(a.statusBar, " %s", msg)
}

func createModal(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false), width, 1, true).
		AddItem(nil, 0, 1, false)
}
