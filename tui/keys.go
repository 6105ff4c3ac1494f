package tui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"pkt.systems/termpane/schema"
)

// translateKey converts a tcell key event into the normalized form the
// shortcut filter understands plus the byte sequence a PTY expects for
// it. A nil byte slice means the key has no terminal encoding.
func translateKey(ev *tcell.EventKey) (schema.KeyEvent, []byte) {
	mods := ev.Modifiers()
	kev := schema.KeyEvent{
		Ctrl:  mods&tcell.ModCtrl != 0,
		Alt:   mods&tcell.ModAlt != 0,
		Shift: mods&tcell.ModShift != 0,
		Meta:  mods&tcell.ModMeta != 0,
	}

	key := ev.Key()
	if key == tcell.KeyRune {
		r := ev.Rune()
		kev.Key = strings.ToLower(string(r))
		return kev, []byte(string(r))
	}

	// Ctrl+letter arrives as the control byte itself. Tab and Enter share
	// those codes, so require the reported modifier.
	if key >= tcell.KeyCtrlA && key <= tcell.KeyCtrlZ && kev.Ctrl {
		kev.Ctrl = true
		kev.Key = string(rune('a' + key - tcell.KeyCtrlA))
		return kev, []byte{byte(key)}
	}

	switch key {
	case tcell.KeyEnter:
		kev.Key = "enter"
		return kev, []byte{'\r'}
	case tcell.KeyTab:
		kev.Key = "tab"
		return kev, []byte{'\t'}
	case tcell.KeyBacktab:
		kev.Key = "tab"
		kev.Shift = true
		return kev, []byte("\x1b[Z")
	case tcell.KeyEscape:
		kev.Key = "escape"
		return kev, []byte{0x1b}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		kev.Key = "backspace"
		return kev, []byte{0x7f}
	case tcell.KeyDelete:
		kev.Key = "delete"
		return kev, []byte("\x1b[3~")
	case tcell.KeyUp:
		kev.Key = "up"
		return kev, []byte("\x1b[A")
	case tcell.KeyDown:
		kev.Key = "down"
		return kev, []byte("\x1b[B")
	case tcell.KeyRight:
		kev.Key = "right"
		return kev, []byte("\x1b[C")
	case tcell.KeyLeft:
		kev.Key = "left"
		return kev, []byte("\x1b[D")
	case tcell.KeyHome:
		kev.Key = "home"
		return kev, []byte("\x1b[H")
	case tcell.KeyEnd:
		kev.Key = "end"
		return kev, []byte("\x1b[F")
	case tcell.KeyPgUp:
		kev.Key = "pgup"
		return kev, []byte("\x1b[5~")
	case tcell.KeyPgDn:
		kev.Key = "pgdn"
		return kev, []byte("\x1b[6~")
	}
	return kev, nil
}
