package observability

// NoOpObserver discards all events.
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(event Event) {}
