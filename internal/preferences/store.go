package preferences

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/brunoga/deep"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/yegors/preflight/pkg/logger"
)

// StorageKey is the key the preferences live under
const StorageKey = "flightPlannerPrefs"

// KV is an opaque key-value backend
type KV interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
}

// Store loads and saves preferences through a KV backend and keeps the last
// loaded profile in memory until the next Save
type Store struct {
	kv     KV
	logger *logger.Logger

	mu     sync.Mutex
	cached *PilotPreferences
}

// NewStore creates a preference store over the given backend
func NewStore(kv KV, logger *logger.Logger) *Store {
	return &Store{
		kv:     kv,
		logger: logger.Named("preferences"),
	}
}

// Load returns the stored preferences merged over the defaults. Backend
// failures are logged and yield the default profile.
func (s *Store) Load() PilotPreferences {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return deep.MustCopy(*s.cached)
	}

	raw, ok, err := s.kv.Get(StorageKey)
	if err != nil {
		s.logger.Warn("Failed to read stored preferences, using defaults", logger.Error(err))
		return Default()
	}
	if !ok {
		raw = nil
	}

	prefs := Load(raw)
	s.cached = &prefs
	return deep.MustCopy(prefs)
}

// Save normalizes and persists the preferences, replacing the cached copy
func (s *Store) Save(prefs PilotPreferences) error {
	raw, err := prefs.Encode()
	if err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}
	// Round trip so what is cached matches what a later Load would produce
	normalized := Load(raw)
	if raw, err = normalized.Encode(); err != nil {
		return fmt.Errorf("failed to encode preferences: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	if err := s.kv.Set(StorageKey, raw); err != nil {
		return fmt.Errorf("failed to store preferences: %w", err)
	}
	s.cached = &normalized

	s.logger.Debug("Preferences saved", logger.String("flight_rules", string(normalized.FlightRules)))
	return nil
}

// Reset stores the default profile
func (s *Store) Reset() error {
	return s.Save(Default())
}

// MemoryKV keeps values in a map
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryKV creates an empty in-memory backend
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

func (m *MemoryKV) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = append([]byte(nil), value...)
	return nil
}

// FileKV stores all keys in one msgpack-encoded file
type FileKV struct {
	path string
	mu   sync.Mutex
}

// NewFileKV creates a file backend. The file is created on first Set.
func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

func (f *FileKV) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return nil, false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileKV) Set(key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return err
	}
	values[key] = value

	data, err := msgpack.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}

func (f *FileKV) read() (map[string][]byte, error) {
	values := make(map[string][]byte)

	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}

	if err := msgpack.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode store %s: %w", f.path, err)
	}
	return values, nil
}
