// Package settings keeps the user's presentation preferences: which fields
// are visible in the results and how results are displayed.
package settings

import (
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/gcbaptista/go-facet-browser/config"
	"github.com/gcbaptista/go-facet-browser/internal/errors"
	"github.com/gcbaptista/go-facet-browser/internal/persistence"
	"github.com/gcbaptista/go-facet-browser/model"
)

// CurrentVersion is the version of the stored settings layout. Stored
// settings of any other version are replaced by the defaults.
const CurrentVersion = 0

// Store holds the user settings and persists every change under a key.
type Store struct {
	mu       sync.Mutex
	registry *config.Registry
	path     string // Empty: settings live in memory only
	current  model.UserSettings
}

// Defaults returns the first-run settings: every default-visible field and
// the list display.
func Defaults(reg *config.Registry) model.UserSettings {
	return model.UserSettings{
		Version:            CurrentVersion,
		VisibleFields:      reg.DefaultVisibleFields(),
		ResultsDisplayType: model.DisplayList,
	}
}

// Open loads the settings stored under key in dir. Missing or unreadable
// settings fall back to the defaults. An empty dir keeps settings in memory.
func Open(dir, key string, reg *config.Registry) (*Store, error) {
	if reg == nil {
		return nil, errors.NewValidationError("registry", "registry cannot be nil")
	}
	if key == "" {
		key = config.DefaultSettingsKey
	}

	s := &Store{registry: reg, current: Defaults(reg)}
	if dir == "" {
		return s, nil
	}
	s.path = filepath.Join(dir, key+".gob")

	var stored model.UserSettings
	switch err := persistence.LoadGob(s.path, &stored); {
	case err == os.ErrNotExist:
	case err != nil:
		log.Printf("Warning: Ignoring unreadable user settings %s: %v", s.path, err)
	case stored.Version != CurrentVersion:
		log.Printf("Warning: Ignoring user settings version %d (want %d)", stored.Version, CurrentVersion)
	default:
		s.current = s.sanitize(stored)
	}
	return s, nil
}

// sanitize drops fields the registry no longer knows and repairs an unknown
// display type.
func (s *Store) sanitize(in model.UserSettings) model.UserSettings {
	out := model.UserSettings{Version: CurrentVersion, ResultsDisplayType: in.ResultsDisplayType}
	seen := make(map[string]bool)
	out.VisibleFields = []string{}
	for _, field := range in.VisibleFields {
		if _, ok := s.registry.Field(field); ok && !seen[field] {
			seen[field] = true
			out.VisibleFields = append(out.VisibleFields, field)
		}
	}
	if !out.ResultsDisplayType.IsValid() {
		out.ResultsDisplayType = model.DisplayList
	}
	return out
}

// Get returns the current settings.
func (s *Store) Get() model.UserSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// ToggleField shows a hidden field or hides a visible one. Newly shown
// fields are appended after the visible ones.
func (s *Store) ToggleField(field string) (model.UserSettings, error) {
	if _, ok := s.registry.Field(field); !ok {
		return model.UserSettings{}, errors.NewFieldNotFoundError(field)
	}
	return s.update(func(us *model.UserSettings) {
		kept := us.VisibleFields[:0:0]
		found := false
		for _, f := range us.VisibleFields {
			if f == field {
				found = true
				continue
			}
			kept = append(kept, f)
		}
		if !found {
			kept = append(kept, field)
		}
		us.VisibleFields = kept
	})
}

// SetDisplay selects how results are displayed.
func (s *Store) SetDisplay(display model.ResultsDisplayType) (model.UserSettings, error) {
	if !display.IsValid() {
		return model.UserSettings{}, errors.NewValidationError("results_display_type",
			"must be '"+string(model.DisplayList)+"' or '"+string(model.DisplayTable)+"'")
	}
	return s.update(func(us *model.UserSettings) {
		us.ResultsDisplayType = display
	})
}

// Reset restores the defaults.
func (s *Store) Reset() (model.UserSettings, error) {
	defaults := Defaults(s.registry)
	return s.update(func(us *model.UserSettings) {
		*us = defaults
	})
}

func (s *Store) update(fn func(*model.UserSettings)) (model.UserSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current.Clone()
	fn(&next)
	if s.path != "" {
		if err := persistence.SaveGob(s.path, next); err != nil {
			return s.current.Clone(), err
		}
	}
	s.current = next
	return next.Clone(), nil
}
