package conflict

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// CategoryPolicy declares spacing requirements for one event category.
// A medication that must not be taken within 30 minutes of another event
// gets buffer_minutes: 30; its window is widened on both sides before the
// overlap test.
type CategoryPolicy struct {
	Category      string `yaml:"category"`
	BufferMinutes int    `yaml:"buffer_minutes"`
}

// PolicySet resolves the buffer to apply for a category. The zero value
// applies no buffers anywhere.
type PolicySet map[string]time.Duration

// Buffer returns the configured buffer for a category, zero when none is set.
func (s PolicySet) Buffer(category string) time.Duration {
	if s == nil {
		return 0
	}
	return s[category]
}

// PolicyRepository defines the interface for loading category policies.
type PolicyRepository interface {
	// Get returns the policy for the given category, or an error if not found.
	Get(ctx context.Context, category string) (*CategoryPolicy, error)

	// Set returns all policies as a lookup set for the conflict checker.
	Set() PolicySet
}

// FileSystemPolicyRepository loads category policies from *.yaml files in a
// directory. Each file contains exactly one policy at the top level. Policies
// are loaded once at startup and cached in memory.
type FileSystemPolicyRepository struct {
	dir      string
	policies map[string]CategoryPolicy
}

// NewFileSystemPolicyRepository creates a repository and eagerly loads all
// policies from dir. A missing directory is valid (zero policies configured);
// a malformed file is an error.
func NewFileSystemPolicyRepository(dir string) (*FileSystemPolicyRepository, error) {
	repo := &FileSystemPolicyRepository{
		dir:      dir,
		policies: make(map[string]CategoryPolicy),
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemPolicyRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("category policy dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("category policy path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading category policy dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading policy file %s: %w", path, err)
		}

		var policy CategoryPolicy
		if err := yaml.Unmarshal(data, &policy); err != nil {
			return fmt.Errorf("parsing policy file %s: %w", path, err)
		}
		if policy.Category == "" {
			continue // skip empty / comment-only files
		}

		if policy.BufferMinutes < 0 {
			return fmt.Errorf("policy %q: buffer_minutes must be >= 0", policy.Category)
		}

		if _, exists := r.policies[policy.Category]; exists {
			return fmt.Errorf("policy %q: duplicate category (check multiple YAML files)", policy.Category)
		}

		r.policies[policy.Category] = policy
	}
	return nil
}

// Get returns the policy for the given category, or an error if not found.
func (r *FileSystemPolicyRepository) Get(_ context.Context, category string) (*CategoryPolicy, error) {
	policy, ok := r.policies[category]
	if !ok {
		return nil, fmt.Errorf("category policy %q not found", category)
	}
	return &policy, nil
}

// Set returns all policies as a lookup set for the conflict checker.
func (r *FileSystemPolicyRepository) Set() PolicySet {
	set := make(PolicySet, len(r.policies))
	for category, policy := range r.policies {
		set[category] = time.Duration(policy.BufferMinutes) * time.Minute
	}
	return set
}
