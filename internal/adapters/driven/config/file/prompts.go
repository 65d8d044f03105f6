package file

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/codetutor/internal/core/domain"
	"github.com/custodia-labs/codetutor/internal/core/ports/driven"
)

// PromptsDirName is the prompt directory inside the home directory.
const PromptsDirName = "prompts"

const promptExt = ".txt"

//go:embed defaults
var defaultsFS embed.FS

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads prompt templates from user-editable files, falling back
// to the templates embedded in the binary.
//
// Files are seeded lazily on the first Load, so constructing a store does
// no I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	gen       uint64 // bumped by Reload
	initOnce  sync.Once
	initErr   error
}

// NewPromptStore creates a prompt store rooted at promptDir.
// An empty promptDir uses ~/.codetutor/prompts.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := DefaultHome()
		if err != nil {
			return nil, err
		}
		promptDir = filepath.Join(home, PromptsDirName)
	}
	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// DefaultPrompt returns the embedded template for name.
func DefaultPrompt(name string) (string, error) {
	data, err := defaultsFS.ReadFile("defaults/" + name + promptExt)
	if err != nil {
		return "", fmt.Errorf("%w: prompt %q", domain.ErrConfigNotFound, name)
	}
	return string(data), nil
}

// Names returns the names of the embedded prompts, sorted.
func Names() []string {
	entries, _ := fs.ReadDir(defaultsFS, "defaults")
	var names []string
	for _, e := range entries {
		if name, ok := strings.CutSuffix(e.Name(), promptExt); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Load returns the template for name: the user's file if present, the
// embedded default otherwise.
func (s *PromptStore) Load(name string) (string, error) {
	s.initOnce.Do(s.initialise)

	prompt, gen, ok := s.cached(name)
	if ok {
		return prompt, nil
	}

	prompt, err := s.readFile(name)
	if err != nil {
		fallback, derr := DefaultPrompt(name)
		if derr != nil {
			return "", derr
		}
		return strings.TrimSpace(fallback), nil
	}
	return s.remember(name, prompt, gen), nil
}

// Reload clears the cache so the next Load reads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.gen++
	s.mu.Unlock()
}

// cached returns the cached template for name and the cache generation.
func (s *PromptStore) cached(name string) (string, uint64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prompt, ok := s.cache[name]
	return prompt, s.gen, ok
}

// remember caches prompt when no Reload happened since generation gen was
// observed. A read that raced a reload is returned but not cached.
func (s *PromptStore) remember(name, prompt string, gen uint64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return prompt
	}
	if cached, ok := s.cache[name]; ok {
		return cached
	}
	s.cache[name] = prompt
	return prompt
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// Path returns the file backing the prompt name.
func (s *PromptStore) Path(name string) string {
	return filepath.Join(s.promptDir, name+promptExt)
}

// Reset overwrites the user's file for name with the embedded default.
func (s *PromptStore) Reset(name string) error {
	content, err := DefaultPrompt(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		return fmt.Errorf("create prompt directory: %w", err)
	}
	if err := os.WriteFile(s.Path(name), []byte(content), 0600); err != nil {
		return fmt.Errorf("write prompt %q: %w", name, err)
	}
	s.Reload()
	return nil
}

// initialise creates the directory and seeds missing default files.
// Failures are kept in initErr and Load falls back to embedded defaults.
func (s *PromptStore) initialise() {
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	entries, err := fs.ReadDir(defaultsFS, "defaults")
	if err != nil {
		s.initErr = err
		return
	}
	for _, e := range entries {
		path := filepath.Join(s.promptDir, e.Name())
		if _, err := os.Stat(path); !errors.Is(err, fs.ErrNotExist) {
			continue
		}
		data, err := defaultsFS.ReadFile("defaults/" + e.Name())
		if err != nil {
			s.initErr = err
			return
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			s.initErr = fmt.Errorf("seed %s: %w", e.Name(), err)
			return
		}
	}
}

func (s *PromptStore) readFile(name string) (string, error) {
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
