package warehouse

// Action is a deferred side effect enqueued by a component destructor or
// overwrite hook. The World drains the encoder once the operation that
// triggered it has finished touching archetype storage, so actions never
// re-enter the core while a row is mid-move.
type Action func(Storage) error

// ActionEncoder is an append-only sink passed through to drop/overwrite
// hooks so they can schedule follow-up work without re-entering the core.
type ActionEncoder struct {
	actions []Action
}

// Push appends an action to the encoder.
func (enc *ActionEncoder) Push(a Action) {
	enc.actions = append(enc.actions, a)
}

// Drain applies every queued action against sto, in order, and clears the
// encoder. Actions that themselves enqueue more actions are handled too: the
// queue is re-checked until it's empty.
func (enc *ActionEncoder) Drain(sto Storage) error {
	for len(enc.actions) > 0 {
		pending := enc.actions
		enc.actions = nil
		for _, a := range pending {
			if err := a(sto); err != nil {
				return err
			}
		}
	}
	return nil
}
