package devices

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/KevinKickass/VirtualSpectrometer/internal/types"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// profileExtensions in lookup order
var profileExtensions = []string{".json", ".yaml", ".yml"}

type ProfileLoader struct {
	fs          afero.Fs
	cache       sync.Map
	validator   *Validator
	searchPaths []string
}

func NewProfileLoader(fs afero.Fs, searchPaths []string) (*ProfileLoader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &ProfileLoader{
		fs:          fs,
		validator:   validator,
		searchPaths: searchPaths,
	}, nil
}

// Load resolves a profile by name across the search paths, validates it and
// caches the result.
func (l *ProfileLoader) Load(name string) (*types.DeviceProfileDefinition, error) {
	// Cache-Check
	if cached, ok := l.cache.Load(name); ok {
		return cached.(*types.DeviceProfileDefinition), nil
	}

	data, foundPath, err := l.find(name)
	if err != nil {
		return nil, err
	}

	doc, err := decodeDocument(data, filepath.Ext(foundPath))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", foundPath, err)
	}

	if err := l.validator.ValidateDocument(doc); err != nil {
		return nil, fmt.Errorf("validation failed for %s: %w", foundPath, err)
	}

	// YAML goes through the same JSON shape so both formats share one set of tags.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize profile %s: %w", foundPath, err)
	}

	var profile types.DeviceProfileDefinition
	if err := json.Unmarshal(normalized, &profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	if err := CheckProfile(&profile); err != nil {
		return nil, fmt.Errorf("validation failed for %s: %w", foundPath, err)
	}

	l.cache.Store(name, &profile)

	return &profile, nil
}

func (l *ProfileLoader) find(name string) ([]byte, string, error) {
	for _, searchPath := range l.searchPaths {
		for _, ext := range profileExtensions {
			fullPath := filepath.Join(searchPath, name+ext)
			data, err := afero.ReadFile(l.fs, fullPath)
			if err == nil {
				return data, fullPath, nil
			}
		}
	}

	return nil, "", fmt.Errorf("profile not found: %s (searched in: %v)", name, l.searchPaths)
}

// List returns the names of every profile file on the search paths. A name
// found in more than one path is listed once.
func (l *ProfileLoader) List() ([]string, error) {
	var names []string

	for _, searchPath := range l.searchPaths {
		entries, err := afero.ReadDir(l.fs, searchPath)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			ext := filepath.Ext(entry.Name())
			if !slices.Contains(profileExtensions, ext) {
				continue
			}
			name := strings.TrimSuffix(entry.Name(), ext)
			if !slices.Contains(names, name) {
				names = append(names, name)
			}
		}
	}

	slices.Sort(names)
	return names, nil
}

func (l *ProfileLoader) ClearCache() {
	l.cache.Range(func(key, value any) bool {
		l.cache.Delete(key)
		return true
	})
}

func decodeDocument(data []byte, ext string) (any, error) {
	var doc any

	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}

	return doc, nil
}
