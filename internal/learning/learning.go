// Package learning implements the atom learning state machine of spec
// section 4.5: unseen -> learning -> known <-> forgotten -> learning.
// The store already performs touch()/forget() and the accompanying
// invariant (5)/(6) propagation; this package's job is deciding which
// of those two primitives a review outcome maps to.
package learning

import (
	"context"

	"github.com/dekarrin/yomimemo/internal/store"
)

// Engine drives atom-level state transitions against a Store.
type Engine struct {
	store store.Store
}

func New(st store.Store) *Engine {
	return &Engine{store: st}
}

// Learn introduces a currently-unseen atom (or re-confirms one already
// in the learning/known states): touch(REFRESH). This covers both
// unseen -> learning and learning -> known, since the store applies the
// same REFRESH rule to both; which transition occurred is a function of
// the atom's prior state, not of this call.
func (e *Engine) Learn(ctx context.Context, atomID store.AtomID, dir store.Direction, now float64) error {
	return e.store.Touch(ctx, atomID, dir, now, store.Refresh)
}

// Remembered records a successful review. It behaves exactly as Learn:
// REFRESH extends last_refresh and, for an atom that was already known,
// leaves last_relearn untouched (the store coalesces it).
func (e *Engine) Remembered(ctx context.Context, atomID store.AtomID, dir store.Direction, now float64) error {
	return e.store.Touch(ctx, atomID, dir, now, store.Refresh)
}

// NotRemembered records a failed review. If the unit is currently known
// it transitions known -> forgotten (store.Forget, clearing
// last_relearn only). If it is already in the forgotten or learning
// state (last_relearn already null) it instead restores learning via
// touch(RELEARN), per the forgotten -> learning transition.
func (e *Engine) NotRemembered(ctx context.Context, atomID store.AtomID, dir store.Direction, now float64) error {
	atom, err := e.store.GetAtom(ctx, atomID)
	if err != nil {
		return err
	}
	state := atom.MemoryState(dir)
	if state.LastRelearn != nil {
		return e.store.Forget(ctx, atomID, dir)
	}
	return e.store.Touch(ctx, atomID, dir, now, store.Relearn)
}
