package core

import (
	"pkt.systems/pslog"
	"pkt.systems/termpane/schema"
)

// SessionSink receives host-facing session notifications. OnSpawned fires
// once per successful spawn, strictly before the controller subscribes to
// the output and exit buses. OnCloseRequest fires for every keystroke
// delivered after the process exited; hosts may ignore duplicates.
type SessionSink interface {
	OnSpawned(id schema.SessionID)
	OnProcessExit(id schema.SessionID, exitCode int)
	OnCloseRequest(id schema.SessionID)
}

// ControllerDeps captures the collaborators injected into a controller.
// Processes and Displays are required; everything else degrades to a
// no-op when absent.
type ControllerDeps struct {
	Processes ProcessManager
	Displays  DisplayFactory
	Addon     RendererAddonFactory
	Frames    FrameScheduler
	Window    FocusSource
	Sink      SessionSink
	Logger    pslog.Logger
}
