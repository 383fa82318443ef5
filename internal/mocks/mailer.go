package mocks

import (
	"sync"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/notify/emailqueue"
)

// MockMailer implements notify.Mailer for testing by recording jobs
type MockMailer struct {
	EnqueueFn func(job emailqueue.Job) error

	mu   sync.Mutex
	Jobs []emailqueue.Job
}

// Enqueue implements notify.Mailer
func (m *MockMailer) Enqueue(job emailqueue.Job) error {
	if m.EnqueueFn != nil {
		return m.EnqueueFn(job)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Jobs = append(m.Jobs, job)
	return nil
}

// Sent returns a copy of the recorded jobs.
func (m *MockMailer) Sent() []emailqueue.Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]emailqueue.Job(nil), m.Jobs...)
}
