package tui

import (
	"io"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"pkt.systems/termpane/core"
	"pkt.systems/termpane/schema"
)

// Display adapts a tview.TextView to the core display contract. Output
// bytes go through the ANSI translator so shell colors render; input key
// events are filtered by the attached key handler before being encoded
// for the PTY. Selection is not supported by the text widget, so
// GetSelection always returns empty.
type Display struct {
	app  *tview.Application
	view *tview.TextView
	ansi io.Writer

	mu         sync.Mutex
	keyPred    func(ev schema.KeyEvent) bool
	dataSubs   map[int]func(data []byte)
	resizeSubs map[int]func(cols, rows int)
	nextSub    int
	addons     []core.RendererAddon
	query      string
	lastCols   int
	lastRows   int
	blink      bool
	disposed   bool
}

// NewDisplay builds a display widget for one session.
func NewDisplay(app *tview.Application, cfg schema.DisplayConfig) *Display {
	view := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	if cfg.Scrollback > 0 {
		view.SetMaxLines(cfg.Scrollback)
	}
	view.SetBorder(false)

	d := &Display{
		app:        app,
		view:       view,
		ansi:       tview.ANSIWriter(view),
		dataSubs:   make(map[int]func(data []byte)),
		resizeSubs: make(map[int]func(cols, rows int)),
		blink:      cfg.CursorBlink,
	}
	d.applyTheme(cfg.Theme)

	view.SetInputCapture(d.captureKey)
	view.SetDrawFunc(func(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
		d.noteSize(width, height)
		return x, y, width, height
	})
	return d
}

// Primitive returns the widget for layout composition.
func (d *Display) Primitive() tview.Primitive {
	return d.view
}

func (d *Display) Open() error { return nil }

func (d *Display) Write(data []byte) {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.mu.Unlock()
	d.ansi.Write(data)
	d.app.Draw()
}

func (d *Display) WriteLine(text string) {
	d.Write([]byte("\r\n" + text + "\r\n"))
}

func (d *Display) Focus() {
	d.app.QueueUpdateDraw(func() {
		d.app.SetFocus(d.view)
	})
}

func (d *Display) Clear() {
	d.view.Clear()
	d.app.Draw()
}

func (d *Display) ScrollToBottom() {
	d.view.ScrollToEnd()
	d.app.Draw()
}

func (d *Display) GetSelection() string { return "" }

func (d *Display) Resize(cols, rows int) {
	// The widget tracks its flex cell; explicit resize only records the
	// requested dimensions for the next draw.
	d.noteSize(cols, rows)
}

func (d *Display) Dispose() {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return
	}
	d.disposed = true
	addons := d.addons
	d.addons = nil
	d.mu.Unlock()
	for _, addon := range addons {
		addon.Dispose()
	}
	d.view.SetInputCapture(nil)
	d.view.SetDrawFunc(nil)
}

func (d *Display) OnData(handler func(data []byte)) core.Disposable {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextSub
	d.nextSub++
	d.dataSubs[id] = handler
	return subCancel(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.dataSubs, id)
	})
}

func (d *Display) OnResize(handler func(cols, rows int)) core.Disposable {
	d.mu.Lock()
	defer d.mu.Unlock()
	id := d.nextSub
	d.nextSub++
	d.resizeSubs[id] = handler
	return subCancel(func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		delete(d.resizeSubs, id)
	})
}

func (d *Display) AttachCustomKeyHandler(pred func(ev schema.KeyEvent) bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.keyPred = pred
}

func (d *Display) LoadAddon(addon core.RendererAddon) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.addons = append(d.addons, addon)
	return nil
}

func (d *Display) SetCursorBlink(blink bool) {
	d.mu.Lock()
	d.blink = blink
	d.mu.Unlock()
}

func (d *Display) SetTheme(theme schema.Theme) {
	d.applyTheme(theme)
	d.app.Draw()
}

// SetFontFamily is a no-op: the terminal emulator owns the font.
func (d *Display) SetFontFamily(family string) {}

func (d *Display) FindNext(query string) bool {
	return d.find(query)
}

func (d *Display) FindPrevious(query string) bool {
	return d.find(query)
}

func (d *Display) ClearSearch() {
	d.mu.Lock()
	d.query = ""
	d.mu.Unlock()
}

// find records the query (empty repeats the current one) and reports
// whether the scrollback contains it. The text widget has no match
// cursor, so next and previous are the same lookup.
func (d *Display) find(query string) bool {
	d.mu.Lock()
	if query != "" {
		d.query = query
	}
	query = d.query
	d.mu.Unlock()
	if query == "" {
		return false
	}
	return strings.Contains(d.view.GetText(true), query)
}

func (d *Display) captureKey(ev *tcell.EventKey) *tcell.EventKey {
	kev, data := translateKey(ev)

	d.mu.Lock()
	pred := d.keyPred
	disposed := d.disposed
	d.mu.Unlock()
	if disposed {
		return ev
	}
	// false means the host owns the key: propagate it untouched.
	if pred != nil && !pred(kev) {
		return ev
	}
	if data == nil {
		return nil
	}

	d.mu.Lock()
	handlers := make([]func([]byte), 0, len(d.dataSubs))
	for _, handler := range d.dataSubs {
		handlers = append(handlers, handler)
	}
	d.mu.Unlock()
	for _, handler := range handlers {
		handler(data)
	}
	return nil
}

func (d *Display) noteSize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	d.mu.Lock()
	if d.disposed || (cols == d.lastCols && rows == d.lastRows) {
		d.mu.Unlock()
		return
	}
	d.lastCols = cols
	d.lastRows = rows
	handlers := make([]func(int, int), 0, len(d.resizeSubs))
	for _, handler := range d.resizeSubs {
		handlers = append(handlers, handler)
	}
	d.mu.Unlock()
	// Dispatched off the draw path; handlers talk to the PTY, not the UI.
	for _, handler := range handlers {
		go handler(cols, rows)
	}
}

func (d *Display) applyTheme(theme schema.Theme) {
	if theme.Background != "" {
		d.view.SetBackgroundColor(tcell.GetColor(theme.Background))
	}
	if theme.Foreground != "" {
		d.view.SetTextColor(tcell.GetColor(theme.Foreground))
	}
}

type subCancel func()

func (c subCancel) Dispose() { c() }
