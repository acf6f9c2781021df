package client

import "sync"

// MemoryPublisher records client events in publish order. Tests use it to assert
// launcher and request lifecycles.
type MemoryPublisher struct {
	mu  sync.Mutex
	log []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.log = append(p.log, e)
}

// Events returns a snapshot of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.log...)
}

// Names returns the event names in publish order.
func (p *MemoryPublisher) Names() []string {
	var names []string
	for _, e := range p.Events() {
		names = append(names, e.Name)
	}
	return names
}

// Last returns the most recent event called name.
func (p *MemoryPublisher) Last(name string) (Event, bool) {
	evs := p.Events()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Name == name {
			return evs[i], true
		}
	}
	return Event{}, false
}
