// Package mocks provides centralized mock implementations for testing.
//
// The store mocks keep their data in memory, so tests can seed entities and
// then assert on what a component wrote. Every method can be overridden with
// the matching ...Fn field, and WithTx returns the receiver so code written
// against a Transactor runs unchanged.
//
//	tasks := mocks.NewMockTaskStore()
//	tasks.Put(task)
//	tasks.UpdateIfVersionFn = func(ctx context.Context, t *domain.Task) error {
//	    return store.ErrConflict
//	}
package mocks
