package store

// ticket identifies one in-flight remote write.
type ticket struct {
	gen   uint64
	epoch uint64
	key   string
	seq   uint64
}

// guard decides whether the result of an asynchronous remote call may
// still be applied. Invalidate bumps the generation so every result
// issued earlier is dropped. Per-key sequence numbers ensure only the
// most recently issued write for an entity adopts its response, so
// racing writes resolve in issue order rather than arrival order.
// reload starts a new epoch whenever the collections are replaced
// wholesale; writes issued in an earlier epoch neither roll back nor adopt
// their response.
// Callers hold the store mutex.
type guard struct {
	gen    uint64
	epoch  uint64
	next   uint64
	latest map[string]uint64
}

func newGuard() guard {
	return guard{latest: make(map[string]uint64)}
}

func (g *guard) begin(key string) ticket {
	g.next++
	g.latest[key] = g.next
	return ticket{gen: g.gen, epoch: g.epoch, key: key, seq: g.next}
}

func (g *guard) reload() { g.epoch++ }

func (g *guard) invalidate() {
	g.gen++
	g.latest = make(map[string]uint64)
}

func (g *guard) pending() int { return len(g.latest) }

// settle resolves tk with the remote outcome err. onErr undoes the
// optimistic change and onOK adopts the server response; each runs only
// when tk is still the latest write for its key and the collections were
// not reloaded since it was issued.
func (g *guard) settle(tk ticket, err error, onErr, onOK func()) error {
	if tk.gen != g.gen {
		return ErrStale
	}

	latest := g.latest[tk.key] == tk.seq
	if latest {
		delete(g.latest, tk.key)
	}
	if tk.epoch != g.epoch {
		return err
	}

	if err != nil {
		if latest && onErr != nil {
			onErr()
		}
		return err
	}
	if latest && onOK != nil {
		onOK()
	}
	return nil
}
