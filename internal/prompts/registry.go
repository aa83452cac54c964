package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"skillpulse/internal/errors"
)

// Registry resolves prompt templates with a clear priority order:
// 1. A template loaded from an override file in the configured directory.
// 2. The built-in default.
// Overrides can be reloaded at runtime, so all access goes through a lock.
type Registry struct {
	mu        sync.RWMutex
	dir       string
	overrides map[string]string
	logger    *errors.Logger
}

// NewRegistry creates a registry backed by dir. An empty dir means
// defaults only. Override files that exist are loaded immediately.
func NewRegistry(dir string, logger *errors.Logger) (*Registry, error) {
	r := &Registry{
		dir:       dir,
		overrides: make(map[string]string),
		logger:    logger,
	}

	if dir != "" {
		if err := r.Reload(); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Reload re-reads every override file from the registry directory,
// replacing the previous override set atomically.
func (r *Registry) Reload() error {
	if r.dir == "" {
		return nil
	}

	loaded := make(map[string]string)
	for name := range defaultTemplates {
		path := filepath.Join(r.dir, name+".txt")
		content, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return errors.NewIOError(errors.ErrCodeTemplateNotFound,
				fmt.Sprintf("Failed to read prompt override %s", path), err)
		}

		trimmed := strings.TrimSpace(string(content))
		if trimmed == "" {
			// An empty override file falls back to the default
			continue
		}
		loaded[name] = trimmed
	}

	r.mu.Lock()
	r.overrides = loaded
	r.mu.Unlock()

	if r.logger != nil && len(loaded) > 0 {
		names := make([]string, 0, len(loaded))
		for name := range loaded {
			names = append(names, name)
		}
		r.logger.Info("Prompt overrides loaded", "dir", r.dir, "templates", names)
	}

	return nil
}

// Get returns the template text for name
func (r *Registry) Get(name string) (string, error) {
	r.mu.RLock()
	override, ok := r.overrides[name]
	r.mu.RUnlock()
	if ok {
		return override, nil
	}

	tmpl, ok := defaultTemplates[name]
	if !ok {
		return "", errors.NewInternalError(errors.ErrCodeTemplateNotFound,
			fmt.Sprintf("Unknown prompt template: %s", name), nil)
	}
	return tmpl, nil
}

// Fill renders the named template, substituting each {key} placeholder
// with its value. Unknown placeholders are left in place.
func (r *Registry) Fill(name string, vars map[string]string) (string, error) {
	tmpl, err := r.Get(name)
	if err != nil {
		return "", err
	}

	pairs := make([]string, 0, len(vars)*2)
	for key, value := range vars {
		pairs = append(pairs, "{"+key+"}", value)
	}

	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}

// Dir returns the override directory, empty when defaults-only
func (r *Registry) Dir() string {
	return r.dir
}
