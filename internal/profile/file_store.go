package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/spigell/job-agent/internal/jobs"
)

const profilesFile = "profiles.json"

// FileStore keeps all profiles in one JSON object on disk, keyed by ID.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore stores profiles under dataDir, creating it when missing.
func NewFileStore(dataDir string) (*FileStore, error) {
	if strings.TrimSpace(dataDir) == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{path: filepath.Join(dataDir, profilesFile)}, nil
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Upsert(_ context.Context, p *jobs.Profile) (string, error) {
	if p == nil {
		return "", errors.New("profile is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return "", err
	}

	stored := p.Clone()
	if strings.TrimSpace(stored.ID) == "" {
		stored.ID = uuid.NewString()
	}
	profiles[stored.ID] = stored

	if err := s.save(profiles); err != nil {
		return "", err
	}
	return stored.ID, nil
}

func (s *FileStore) Get(_ context.Context, id string) (*jobs.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	profiles, err := s.load()
	if err != nil {
		return nil, err
	}

	p, ok := profiles[id]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	p.ID = id
	return p, nil
}

func (s *FileStore) Close() error { return nil }

func (s *FileStore) load() (map[string]*jobs.Profile, error) {
	profiles := make(map[string]*jobs.Profile)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return profiles, nil
		}
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return profiles, nil
	}

	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return profiles, nil
}

// save writes through a temp file so a crash never leaves a truncated store.
func (s *FileStore) save(profiles map[string]*jobs.Profile) error {
	data, err := json.MarshalIndent(profiles, "", "  ")
	if err != nil {
		return fmt.Errorf("encode profiles: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), "profiles_*.json")
	if err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write profiles: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("write profiles: %w", err)
	}
	return nil
}
