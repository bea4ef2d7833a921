// Package prefs persists console preferences that change at runtime: the
// theme, the resource tab shown at startup and the page size picked per
// resource. Preferences live in ~/.config/datamate/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/datamate/internal/config"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme     string         `toml:"theme"`
	Resource  string         `toml:"resource"`
	PageSizes map[string]int `toml:"page_sizes,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/datamate/prefs.toml"
	defaultTheme     = "Nightfox"
	defaultResource  = "datasets"
)

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	return Prefs{Theme: defaultTheme, Resource: defaultResource}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// PageSize returns the saved page size for resource, or zero.
func (p Prefs) PageSize(resource string) int {
	return p.PageSizes[resource]
}

// WithPageSize returns a copy of p remembering size for resource.
func (p Prefs) WithPageSize(resource string, size int) Prefs {
	p.PageSizes = maps.Clone(p.PageSizes)
	if p.PageSizes == nil {
		p.PageSizes = make(map[string]int, 1)
	}
	p.PageSizes[resource] = size
	return p
}

// Load reads preferences from path. Preferences are a convenience, so a
// missing, unreadable or malformed file yields the defaults rather than an
// error; only an unresolvable path fails.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), err
	}

	raw, err := os.ReadFile(resolved)
	if err != nil {
		return Default(), nil
	}

	var stored Prefs
	if err := toml.Unmarshal(raw, &stored); err != nil {
		return Default(), nil
	}
	return normalize(stored), nil
}

func normalize(p Prefs) Prefs {
	out := Default()
	if theme := strings.TrimSpace(p.Theme); theme != "" {
		out.Theme = theme
	}
	if resource := strings.ToLower(strings.TrimSpace(p.Resource)); resource != "" {
		out.Resource = resource
	}
	for key, size := range p.PageSizes {
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" || size <= 0 {
			continue
		}
		out = out.WithPageSize(key, size)
	}
	return out
}

// Save writes preferences to path, creating directories as needed. The file
// is replaced atomically so a crash never leaves it half written.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*.toml")
	if err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp.Name(), resolved); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write prefs: %w", err)
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		path = defaultPrefsPath
	}
	return config.ExpandPath(path)
}
