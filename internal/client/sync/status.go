package sync

// Status describes where a sync cycle currently is. The engine emits
// transitions idle → pulling → resolving (only when conflicts were found) →
// syncing → completed → idle, or failed on a phase error.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPulling   Status = "pulling"
	StatusResolving Status = "resolving"
	StatusPushing   Status = "syncing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// SubscribeStatus registers a callback invoked synchronously on every status
// transition.
func (e *Engine) SubscribeStatus(fn func(Status)) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.statusSubs = append(e.statusSubs, fn)
}

func (e *Engine) setStatus(s Status) {
	e.obsMu.Lock()
	subs := make([]func(Status), len(e.statusSubs))
	copy(subs, e.statusSubs)
	e.obsMu.Unlock()

	for _, fn := range subs {
		fn(s)
	}
}
