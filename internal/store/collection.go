package store

// collection is an ordered set of entities keyed by id.
type collection[T any] struct {
	items []T
	idOf  func(T) string
}

func newCollection[T any](idOf func(T) string) collection[T] {
	return collection[T]{idOf: idOf}
}

func (c *collection[T]) index(id string) int {
	for i, item := range c.items {
		if c.idOf(item) == id {
			return i
		}
	}
	return -1
}

func (c *collection[T]) get(id string) (T, bool) {
	if i := c.index(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// set replaces the entity with the same id. It reports false when absent.
func (c *collection[T]) set(id string, item T) bool {
	i := c.index(id)
	if i < 0 {
		return false
	}
	c.items[i] = item
	return true
}

func (c *collection[T]) add(item T) {
	c.items = append(c.items, item)
}

// insertAt puts item at position i, clamped to the collection bounds.
func (c *collection[T]) insertAt(i int, item T) {
	if i < 0 {
		i = 0
	}
	if i >= len(c.items) {
		c.items = append(c.items, item)
		return
	}
	c.items = append(c.items, item)
	copy(c.items[i+1:], c.items[i:])
	c.items[i] = item
}

// remove deletes the entity and returns it with its former position.
func (c *collection[T]) remove(id string) (T, int, bool) {
	i := c.index(id)
	if i < 0 {
		var zero T
		return zero, -1, false
	}
	item := c.items[i]
	c.items = append(c.items[:i], c.items[i+1:]...)
	return item, i, true
}

// positioned is an entity together with the index it was removed from.
type positioned[T any] struct {
	pos  int
	item T
}

// removeWhere deletes every entity matching pred and returns them in
// ascending position order.
func (c *collection[T]) removeWhere(pred func(T) bool) []positioned[T] {
	var removed []positioned[T]
	kept := c.items[:0]
	for i, item := range c.items {
		if pred(item) {
			removed = append(removed, positioned[T]{pos: i, item: item})
			continue
		}
		kept = append(kept, item)
	}
	var zero T
	for i := len(kept); i < len(c.items); i++ {
		c.items[i] = zero
	}
	c.items = kept
	return removed
}

// putBack reinserts a removed entity at its former position unless an
// entity with the same id is already present.
func (c *collection[T]) putBack(pos int, item T) {
	if c.index(c.idOf(item)) >= 0 {
		return
	}
	c.insertAt(pos, item)
}

// restore reinserts entities returned by removeWhere.
func (c *collection[T]) restore(removed []positioned[T]) {
	for _, r := range removed {
		c.putBack(r.pos, r.item)
	}
}

func (c *collection[T]) replace(items []T) {
	c.items = append([]T(nil), items...)
}

func (c *collection[T]) snapshot() []T {
	return append([]T(nil), c.items...)
}

func (c *collection[T]) len() int { return len(c.items) }
