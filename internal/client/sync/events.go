package sync

import "github.com/dkurniawan/bukukas/internal/client/models"

// Change signals that locally visible data of a collection was modified by
// the engine (pull apply or conflict resolution). UI layers subscribe to
// refresh their views.
type Change struct {
	Collection models.Collection
}

// SubscribeChanges registers a callback invoked synchronously after the
// engine applies remote data. Callbacks must be fast and must not call back
// into the engine.
func (e *Engine) SubscribeChanges(fn func(Change)) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.changeSubs = append(e.changeSubs, fn)
}

func (e *Engine) notifyChange(c models.Collection) {
	e.obsMu.Lock()
	subs := make([]func(Change), len(e.changeSubs))
	copy(subs, e.changeSubs)
	e.obsMu.Unlock()

	for _, fn := range subs {
		fn(Change{Collection: c})
	}
}
