package timecontrol

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	yaml "gopkg.in/yaml.v3"
)

const (
	maxMinutes   = 180
	maxIncrement = 180 * time.Second
)

var ErrInvalid = errors.New("invalid time control")

// TimeControl is a per-side base time plus a per-move increment.
type TimeControl struct {
	Name      string        `json:"name,omitempty"`
	Initial   time.Duration `json:"initial"`
	Increment time.Duration `json:"increment"`
}

// String renders "M+S" (minutes + increment seconds).
func (tc TimeControl) String() string {
	inc := int64(tc.Increment / time.Second)
	if tc.Initial%time.Minute == 0 {
		return fmt.Sprintf("%d+%d", int64(tc.Initial/time.Minute), inc)
	}
	return fmt.Sprintf("%s+%d", tc.Initial, inc)
}

// Parse reads "M+S" or a bare "M".
func Parse(s string) (TimeControl, error) {
	s = strings.TrimSpace(s)
	minPart, incPart, hasInc := strings.Cut(s, "+")
	mins, err := strconv.Atoi(strings.TrimSpace(minPart))
	if err != nil || mins <= 0 || mins > maxMinutes {
		return TimeControl{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	var inc int
	if hasInc {
		inc, err = strconv.Atoi(strings.TrimSpace(incPart))
		if err != nil || inc < 0 || time.Duration(inc)*time.Second > maxIncrement {
			return TimeControl{}, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
	}
	return TimeControl{
		Initial:   time.Duration(mins) * time.Minute,
		Increment: time.Duration(inc) * time.Second,
	}, nil
}

//go:embed presets.yaml
var defaultFiles embed.FS

// Catalog holds named presets: embedded defaults plus an optional override
// directory of *.yaml files.
type Catalog struct {
	mu      sync.RWMutex
	presets map[string]TimeControl
}

func New(overrideDir string) (*Catalog, error) {
	c := &Catalog{presets: make(map[string]TimeControl)}

	raw, err := fs.ReadFile(defaultFiles, "presets.yaml")
	if err != nil {
		return nil, fmt.Errorf("read embedded presets: %w", err)
	}
	flat, err := parsePresets(raw)
	if err != nil {
		return nil, fmt.Errorf("parse embedded presets: %w", err)
	}
	c.merge(flat)

	if strings.TrimSpace(overrideDir) != "" {
		if err := c.applyDir(overrideDir); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) applyDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read preset dir: %w", err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".yaml" || ext == ".yml" {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	seen := make(map[string]string)
	for _, name := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read %s: %w", name, err)
		}
		flat, err := parsePresets(b)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		for k := range flat {
			if prev, ok := seen[k]; ok {
				return fmt.Errorf("duplicate preset %q in %s and %s", k, prev, name)
			}
			seen[k] = name
		}
		c.merge(flat)
	}
	return nil
}

func parsePresets(b []byte) (map[string]TimeControl, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]TimeControl, len(raw))
	for name, v := range raw {
		key := normalize(name)
		if key == "" {
			return nil, fmt.Errorf("%w: empty preset name", ErrInvalid)
		}
		tc, err := Parse(v)
		if err != nil {
			return nil, fmt.Errorf("preset %s: %w", key, err)
		}
		tc.Name = key
		out[key] = tc
	}
	return out, nil
}

func (c *Catalog) merge(m map[string]TimeControl) {
	c.mu.Lock()
	for k, v := range m {
		c.presets[k] = v
	}
	c.mu.Unlock()
}

// Resolve accepts a preset name or an "M+S" literal.
func (c *Catalog) Resolve(s string) (TimeControl, error) {
	c.mu.RLock()
	tc, ok := c.presets[normalize(s)]
	c.mu.RUnlock()
	if ok {
		return tc, nil
	}
	return Parse(s)
}

func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.presets))
	for k := range c.presets {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
