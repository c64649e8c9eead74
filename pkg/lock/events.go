package lock

// LifecycleEvent is an app lifecycle notification consumed by the engine.
type LifecycleEvent int

const (
	// Foregrounded fires when the app returns to the foreground.
	Foregrounded LifecycleEvent = iota
	// Backgrounded fires when the app leaves the foreground.
	Backgrounded
)

// LifecycleSource delivers foreground/background events. Injecting the
// source keeps the engine testable without a real UI runtime; the
// production binding adapts whatever lifecycle hook the host offers.
type LifecycleSource interface {
	// Subscribe registers a callback for lifecycle events, returning a
	// function to stop listening.
	Subscribe(fn func(LifecycleEvent)) (stop func())
}

// Bind subscribes the engine to src. Call only after New has returned:
// construction computes the initial state synchronously precisely so
// that no lifecycle callback can observe a default value.
func (m *Machine) Bind(src LifecycleSource) (stop func()) {
	return src.Subscribe(func(ev LifecycleEvent) {
		switch ev {
		case Backgrounded:
			m.OnBackgrounded()
		case Foregrounded:
			m.OnForegrounded()
		}
	})
}
