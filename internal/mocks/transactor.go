package mocks

import (
	"context"
	"sync"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// MockTransactor implements store.Transactor by running fn with a nil
// transaction. Mock stores ignore the transaction in WithTx.
type MockTransactor struct {
	RunInTxFn func(ctx context.Context, fn store.TxFn) error

	mu    sync.Mutex
	Calls int
}

// RunInTx implements store.Transactor
func (m *MockTransactor) RunInTx(ctx context.Context, fn store.TxFn) error {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.RunInTxFn != nil {
		return m.RunInTxFn(ctx, fn)
	}
	return fn(ctx, nil)
}
