package state

// Cell holds a single value and notifies subscribers synchronously on every Set.
// It is meant to be owned by one goroutine (the bubbletea update loop).
type Cell[T any] struct {
	value     T
	nextID    int
	observers []observer[T]
}

type observer[T any] struct {
	id int
	fn func(T)
}

// NewCell returns a cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	return c.value
}

// Set stores v and notifies observers in subscription order.
func (c *Cell[T]) Set(v T) {
	c.value = v
	// Copy so observers may unsubscribe while being notified.
	obs := append([]observer[T](nil), c.observers...)
	for _, o := range obs {
		o.fn(v)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	c.nextID++
	id := c.nextID
	c.observers = append(c.observers, observer[T]{id: id, fn: fn})
	return func() {
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}
