package theme

import (
	"context"
	"sync"

	"github.com/benvon/calendar-todo/internal/apperr"
	"github.com/benvon/calendar-todo/internal/database"
	"github.com/benvon/calendar-todo/internal/models"
	"go.uber.org/zap"
)

// Subscriber is called synchronously after every theme change
type Subscriber func(state models.ThemeState)

type subscription struct {
	id int
	fn Subscriber
}

// Store holds the currently selected theme. SetTheme is the only way to change it.
type Store struct {
	registry *Registry
	kv       database.KVStore
	logger   *zap.Logger

	// setMu serializes SetTheme including subscriber notification,
	// so subscribers observe changes in the order they were made.
	// Subscribers must not call SetTheme.
	setMu sync.Mutex

	mu      sync.RWMutex
	current string
	palette models.Palette
	subs    []subscription
	nextID  int
}

// Option configures a Store
type Option func(*Store)

// WithPersistence stores the selected theme name under the "theme" key
func WithPersistence(kv database.KVStore) Option {
	return func(s *Store) {
		s.kv = kv
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a store with the default theme selected
func NewStore(registry *Registry, opts ...Option) *Store {
	s := &Store{
		registry: registry,
		logger:   zap.NewNop(),
		current:  DefaultTheme,
		palette:  registry.Palette(DefaultTheme),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the registry backing this store
func (s *Store) Registry() *Registry {
	return s.registry
}

// Current returns the selected theme name
func (s *Store) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Palette returns the palette of the selected theme, or the default palette
// if the selected name is not registered
func (s *Store) Palette() models.Palette {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.registry.Has(s.current) {
		return s.registry.Palette(DefaultTheme)
	}
	return s.palette
}

// State returns a snapshot of the selected theme and its palette
func (s *Store) State() models.ThemeState {
	return models.ThemeState{Name: s.Current(), Palette: s.Palette()}
}

// Themes returns every selectable theme name
func (s *Store) Themes() []string {
	return s.registry.Names()
}

// SetTheme selects name and notifies subscribers before returning.
// Unknown names are rejected with a validation error and change nothing.
func (s *Store) SetTheme(ctx context.Context, name string) error {
	palette, ok := s.registry.Lookup(name)
	if !ok {
		return apperr.Validation("unknown theme %q", name)
	}

	s.setMu.Lock()
	defer s.setMu.Unlock()

	if s.kv != nil {
		if err := s.kv.Set(ctx, database.KeyTheme, name); err != nil {
			s.logger.Error("failed_to_persist_theme",
				zap.String("theme", name),
				zap.Error(err),
			)
			return apperr.IO("save theme", err)
		}
	}

	s.mu.Lock()
	previous := s.current
	s.current = name
	s.palette = palette
	subs := make([]subscription, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	s.logger.Info("theme_changed",
		zap.String("from", previous),
		zap.String("to", name),
	)

	state := models.ThemeState{Name: name, Palette: palette}
	for _, sub := range subs {
		sub.fn(state)
	}
	return nil
}

// Subscribe registers fn for theme changes and returns a function that removes it
func (s *Store) Subscribe(fn Subscriber) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

// Restore loads the persisted theme selection, if persistence is enabled.
// A missing or unknown stored name leaves the default selected.
// Subscribers are not notified.
func (s *Store) Restore(ctx context.Context) error {
	if s.kv == nil {
		return nil
	}
	name, ok, err := s.kv.Get(ctx, database.KeyTheme)
	if err != nil {
		s.logger.Warn("failed_to_load_theme", zap.Error(err))
		return apperr.IO("load theme", err)
	}
	if !ok {
		return nil
	}
	palette, known := s.registry.Lookup(name)
	if !known {
		s.logger.Warn("ignoring_unknown_persisted_theme", zap.String("theme", name))
		return nil
	}

	s.mu.Lock()
	s.current = name
	s.palette = palette
	s.mu.Unlock()
	return nil
}
