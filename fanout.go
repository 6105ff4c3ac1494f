package termpane

import (
	"pkt.systems/termpane/core"
	"pkt.systems/termpane/schema"
)

type sessionFanout struct {
	sinks []core.SessionSink
}

func (f sessionFanout) OnSpawned(id schema.SessionID) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnSpawned(id)
	}
}

func (f sessionFanout) OnProcessExit(id schema.SessionID, exitCode int) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnProcessExit(id, exitCode)
	}
}

func (f sessionFanout) OnCloseRequest(id schema.SessionID) {
	for _, sink := range f.sinks {
		if sink == nil {
			continue
		}
		sink.OnCloseRequest(id)
	}
}
