package schedule

import (
	"sync"

	"github.com/google/uuid"
)

// professionalLocks serializes check-then-create per professional. Two
// concurrent reservation attempts for the same professional run one at a
// time; different professionals proceed in parallel.
type professionalLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func newProfessionalLocks() *professionalLocks {
	return &professionalLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// lock acquires the mutex for the given professional and returns its unlock.
func (p *professionalLocks) lock(professionalID uuid.UUID) func() {
	p.mu.Lock()
	m, ok := p.locks[professionalID]
	if !ok {
		m = &sync.Mutex{}
		p.locks[professionalID] = m
	}
	p.mu.Unlock()

	m.Lock()
	return m.Unlock
}
