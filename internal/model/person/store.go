package person

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
)

var (
	ErrNotFound      = errors.New("person not found")
	ErrConflict      = errors.New("person id already exists")
	ErrInvalidPerson = errors.New("person name is required")
	ErrLockPoisoned  = errors.New("person store is poisoned")
)

// Store exposes person records to HTTP handlers.
type Store interface {
	List(ctx context.Context) ([]Person, error)
	Get(ctx context.Context, id uint32) (Person, error)
	Add(ctx context.Context, p Person) (Person, error)
	Update(ctx context.Context, id uint32, p Person) (Person, error)
	Delete(ctx context.Context, id uint32) (Person, error)
	Len(ctx context.Context) (int, error)
}

// EventKind names the write that produced an Event.
type EventKind string

const (
	EventCreated EventKind = "created"
	EventUpdated EventKind = "updated"
	EventDeleted EventKind = "deleted"
)

// Event describes a committed write.
type Event struct {
	Kind   EventKind
	Person Person
}

// Notifier receives events after the write lock is released, in commit order.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithNotifier registers n to be told about every committed write.
func WithNotifier(n Notifier) Option {
	return func(s *MemoryStore) { s.notifier = n }
}

// MemoryStore implements Store with a slice guarded by a reader/writer lock.
//
// A write that panics while holding the lock poisons the store: every later
// call fails with ErrLockPoisoned. None of the current writes can panic under
// the lock, so the state is only reachable through a bug in a write path.
//
// Events reach the Notifier one at a time, in the order their writes
// committed. The Notifier may read the store but must not write to it.
type MemoryStore struct {
	mu        sync.RWMutex
	items     []Person
	lastID    uint32
	poisoned  bool
	committed uint64

	notifier   Notifier
	notifyMu   sync.Mutex
	notifyCond *sync.Cond
	delivered  uint64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns a MemoryStore preloaded with the supplied persons.
// Seed entries with a zero id are assigned one; duplicate ids are rejected.
func NewMemoryStore(items []Person, opts ...Option) (*MemoryStore, error) {
	s := &MemoryStore{items: make([]Person, 0, len(items))}
	s.notifyCond = sync.NewCond(&s.notifyMu)
	for _, opt := range opts {
		opt(s)
	}

	for _, item := range items {
		err := item.Validate()
		if err == nil {
			_, err = s.insert(item)
		}
		if err != nil {
			return nil, fmt.Errorf("seed person %d (%q): %w", item.ID, item.Name, err)
		}
	}
	return s, nil
}

// List returns a copy of all persons in insertion order.
func (s *MemoryStore) List(_ context.Context) ([]Person, error) {
	var out []Person
	err := s.read(func() {
		out = make([]Person, len(s.items))
		copy(out, s.items)
	})
	return out, err
}

// Get looks up a person by id.
func (s *MemoryStore) Get(_ context.Context, id uint32) (Person, error) {
	var (
		found Person
		idx   = -1
	)
	err := s.read(func() {
		idx = s.indexOf(id)
		if idx >= 0 {
			found = s.items[idx]
		}
	})
	if err != nil {
		return Person{}, err
	}
	if idx < 0 {
		return Person{}, ErrNotFound
	}
	return found, nil
}

// Len reports how many persons are stored.
func (s *MemoryStore) Len(_ context.Context) (int, error) {
	var n int
	err := s.read(func() { n = len(s.items) })
	return n, err
}

// Add appends p. A zero id asks the store to assign the next unused one.
func (s *MemoryStore) Add(_ context.Context, p Person) (Person, error) {
	if err := p.Validate(); err != nil {
		return Person{}, err
	}

	var stored Person
	err := s.write(func() (Event, error) {
		var err error
		stored, err = s.insert(p)
		return Event{Kind: EventCreated, Person: stored}, err
	})
	if err != nil {
		return Person{}, err
	}
	return stored, nil
}

// Update replaces the fields of the person with the given id. The id itself
// never changes.
func (s *MemoryStore) Update(_ context.Context, id uint32, p Person) (Person, error) {
	if err := p.Validate(); err != nil {
		return Person{}, err
	}

	var updated Person
	err := s.write(func() (Event, error) {
		idx := s.indexOf(id)
		if idx < 0 {
			return Event{}, ErrNotFound
		}
		p.ID = id
		s.items[idx] = p
		updated = p
		return Event{Kind: EventUpdated, Person: updated}, nil
	})
	if err != nil {
		return Person{}, err
	}
	return updated, nil
}

// Delete removes the person with the given id and returns it.
func (s *MemoryStore) Delete(_ context.Context, id uint32) (Person, error) {
	var removed Person
	err := s.write(func() (Event, error) {
		idx := s.indexOf(id)
		if idx < 0 {
			return Event{}, ErrNotFound
		}
		removed = s.items[idx]
		s.items = append(s.items[:idx], s.items[idx+1:]...)
		return Event{Kind: EventDeleted, Person: removed}, nil
	})
	if err != nil {
		return Person{}, err
	}
	return removed, nil
}

// read runs fn under the read lock.
func (s *MemoryStore) read(fn func()) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.poisoned {
		return ErrLockPoisoned
	}
	fn()
	return nil
}

// write runs fn under the write lock. If fn panics the store is poisoned
// before the lock is released and the panic continues up the stack. When fn
// succeeds its event is numbered under the lock and handed to the notifier
// after the lock is released.
func (s *MemoryStore) write(fn func() (Event, error)) error {
	ev, seq, err := s.commit(fn)
	if err != nil {
		return err
	}
	if seq > 0 {
		s.deliver(seq, ev)
	}
	return nil
}

func (s *MemoryStore) commit(fn func() (Event, error)) (Event, uint64, error) {
	s.mu.Lock()
	if s.poisoned {
		s.mu.Unlock()
		return Event{}, 0, ErrLockPoisoned
	}

	done := false
	defer func() {
		if !done {
			s.poisoned = true
		}
		s.mu.Unlock()
	}()

	ev, err := fn()
	done = true
	if err != nil || s.notifier == nil {
		return Event{}, 0, err
	}
	s.committed++
	return ev, s.committed, nil
}

// deliver waits until every earlier event has been delivered, then notifies.
func (s *MemoryStore) deliver(seq uint64, ev Event) {
	s.notifyMu.Lock()
	for s.delivered+1 != seq {
		s.notifyCond.Wait()
	}
	defer func() {
		s.delivered = seq
		s.notifyCond.Broadcast()
		s.notifyMu.Unlock()
	}()

	s.notifier.Notify(ev)
}

// insert appends p, assigning an id when p.ID is zero. Caller holds the write lock.
func (s *MemoryStore) insert(p Person) (Person, error) {
	if p.ID == 0 {
		if s.lastID == math.MaxUint32 {
			return Person{}, fmt.Errorf("%w: id space exhausted", ErrConflict)
		}
		p.ID = s.lastID + 1
	} else if s.indexOf(p.ID) >= 0 {
		return Person{}, ErrConflict
	}

	if p.ID > s.lastID {
		s.lastID = p.ID
	}
	s.items = append(s.items, p)
	return p, nil
}

func (s *MemoryStore) indexOf(id uint32) int {
	for i, item := range s.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
