package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"shipper/pkg/validation"
	"shipper/pkg/wizard"
)

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager loads and saves wizards, serialising access per session id. Lock
// entries are reference counted and dropped once unused.
type Manager struct {
	store  Store
	schema *validation.Schema

	mu    sync.Mutex
	locks map[string]*lockEntry
}

func NewManager(store Store, schema *validation.Schema) *Manager {
	return &Manager{
		store:  store,
		schema: schema,
		locks:  make(map[string]*lockEntry),
	}
}

func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// WithLock runs fn while holding the session's lock. Stores shared between
// processes are locked too, see Locker.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(ctx context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	if locker, ok := m.store.(Locker); ok {
		unlock, err := locker.Lock(ctx, sessionID)
		if err != nil {
			return fmt.Errorf("error locking session: %w", err)
		}
		defer unlock()
	}
	return fn(ctx)
}

// Update loads the session (starting a fresh wizard when there is none),
// applies fn and saves the result. The wizard is saved even when fn returns
// an error so that validation errors stay visible.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(w *wizard.Wizard) error) (*wizard.Wizard, error) {
	var (
		w     *wizard.Wizard
		fnErr error
	)
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		w, err = m.loadOrStart(ctx, sessionID)
		if err != nil {
			return err
		}

		fnErr = fn(w)

		snap := w.Snapshot()
		if err := m.store.Save(ctx, sessionID, &snap); err != nil {
			return fmt.Errorf("error saving session: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return w, fnErr
}

// View loads the session without changing it
func (m *Manager) View(ctx context.Context, sessionID string) (*wizard.Wizard, error) {
	var w *wizard.Wizard
	err := m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		var err error
		w, err = m.loadOrStart(ctx, sessionID)
		return err
	})
	return w, err
}

// Delete forgets the session
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

func (m *Manager) loadOrStart(ctx context.Context, sessionID string) (*wizard.Wizard, error) {
	snap, err := m.store.Load(ctx, sessionID)
	if errors.Is(err, ErrSessionNotFound) {
		return wizard.New(m.schema), nil
	}
	if err != nil {
		return nil, fmt.Errorf("error loading session: %w", err)
	}

	w, err := wizard.Restore(m.schema, *snap)
	if err != nil {
		// A snapshot from an older layout is replaced with a fresh form
		return wizard.New(m.schema), nil
	}
	return w, nil
}
