package core

import "pkt.systems/termpane/schema"

// Disposable is a cancelable registration returned by display hooks.
type Disposable interface {
	Dispose()
}

// Display is the terminal-rendering collaborator. Rendering internals
// (cursor painting, glyph layout, escape-sequence interpretation) are out
// of scope; the controller drives a display only through this surface.
type Display interface {
	// Open makes the widget visible in its container.
	Open() error
	// Write appends raw bytes, control characters included, unmodified.
	Write(data []byte)
	// WriteLine appends a line of status text on its own row.
	WriteLine(text string)
	Focus()
	Clear()
	ScrollToBottom()
	GetSelection() string
	Resize(cols, rows int)
	Dispose()

	// OnData delivers keystrokes and paste input produced by the widget.
	OnData(handler func(data []byte)) Disposable
	// OnResize delivers widget geometry changes.
	OnResize(handler func(cols, rows int)) Disposable
	// AttachCustomKeyHandler installs the shortcut predicate. The widget
	// must skip its own handling (and OnData delivery) for events the
	// predicate rejects by returning false.
	AttachCustomKeyHandler(pred func(ev schema.KeyEvent) bool)
	// LoadAddon activates a renderer addon on this display.
	LoadAddon(addon RendererAddon) error

	SetCursorBlink(blink bool)
	SetTheme(theme schema.Theme)
	SetFontFamily(family string)

	// FindNext and FindPrevious move match highlighting; an empty query
	// repeats the widget's current query.
	FindNext(query string) bool
	FindPrevious(query string) bool
	// ClearSearch removes match highlighting without moving the viewport.
	ClearSearch()
}

// DisplayFactory constructs a display widget for one session.
type DisplayFactory func(cfg schema.DisplayConfig) (Display, error)

// RendererAddon is an accelerated-rendering extension for a display.
type RendererAddon interface {
	// OnContextLoss registers the handler invoked when the accelerated
	// context is lost. Firing it must not disturb the display itself.
	OnContextLoss(handler func())
	Dispose()
}

// RendererAddonFactory constructs the accelerated addon. Returning an
// error means acceleration is unsupported here; the failure is swallowed
// and the display keeps its default rendering path.
type RendererAddonFactory func() (RendererAddon, error)
