package sim

import "sync"

// Caster fans plant states out to observers.
type Caster struct {
	lock      sync.RWMutex
	observers []Observer
}

// Subscribe adds an observer.
func (c *Caster) Subscribe(o Observer) {
	c.lock.Lock()
	c.observers = append(c.observers, o)
	c.lock.Unlock()
}

// StateChanged implements Observer.
func (c *Caster) StateChanged(s State) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	for _, o := range c.observers {
		o.StateChanged(s)
	}
}
