package core

import (
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/termpane/schema"
)

// rendererManager attaches the accelerated rendering addon to a display
// and owns the fallback path. Construction or load failures are swallowed:
// the display keeps rendering on its default path with no user-visible
// error and no retry. A lost context disposes only the addon, leaving the
// display and session intact, and the mode moves to fallback for the rest
// of the display's lifetime. At most one addon is live per display.
type rendererManager struct {
	mu    sync.Mutex
	mode  schema.RendererMode
	addon RendererAddon
	log   pslog.Logger
}

func newRendererManager(log pslog.Logger) *rendererManager {
	return &rendererManager{mode: schema.RendererFallback, log: log}
}

// Attach attempts acceleration and returns the resulting mode.
func (r *rendererManager) Attach(display Display, factory RendererAddonFactory) schema.RendererMode {
	if display == nil || factory == nil {
		return schema.RendererFallback
	}
	addon, err := factory()
	if err != nil || addon == nil {
		if err != nil {
			r.log.Debug("renderer acceleration unavailable", "err", err)
		}
		return schema.RendererFallback
	}
	if err := display.LoadAddon(addon); err != nil {
		r.log.Debug("renderer addon load failed", "err", err)
		addon.Dispose()
		return schema.RendererFallback
	}
	r.mu.Lock()
	r.mode = schema.RendererAccelerated
	r.addon = addon
	r.mu.Unlock()
	addon.OnContextLoss(r.handleContextLoss)
	r.log.Debug("renderer acceleration attached")
	return schema.RendererAccelerated
}

// Mode returns the current rendering mode.
func (r *rendererManager) Mode() schema.RendererMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

func (r *rendererManager) handleContextLoss() {
	r.mu.Lock()
	addon := r.addon
	r.addon = nil
	r.mode = schema.RendererFallback
	r.mu.Unlock()
	if addon == nil {
		return
	}
	addon.Dispose()
	r.log.Warn("renderer context lost, falling back")
}

// Dispose releases the addon if one is live. The display is untouched.
func (r *rendererManager) Dispose() {
	r.mu.Lock()
	addon := r.addon
	r.addon = nil
	r.mu.Unlock()
	if addon != nil {
		addon.Dispose()
	}
}
