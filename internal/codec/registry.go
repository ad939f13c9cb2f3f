package codec

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Factory creates a codec instance.
type Factory func() (Codec, error)

// Registry maps format names to codec factories.
// It is not safe for concurrent use; registration should happen at startup.
type Registry struct {
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a named codec factory. Overwrites if name already exists.
// Panics if name is empty or f is nil (programmer error).
func (r *Registry) Register(name string, f Factory) {
	if name == "" {
		panic("codec: Register called with empty name")
	}
	if f == nil {
		panic("codec: Register called with nil factory")
	}
	r.factories[name] = f
}

// New instantiates a codec by format name.
func (r *Registry) New(name string) (Codec, error) {
	f, ok := r.factories[name]
	if !ok {
		return nil, &UnknownFormatError{
			Name:      name,
			Available: r.Available(),
		}
	}
	c, err := f()
	if err != nil {
		return nil, fmt.Errorf("codec factory %q: %w", name, err)
	}
	return c, nil
}

// ForPath returns the codec whose extension matches path's extension.
func (r *Registry) ForPath(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yml" {
		ext = ".yaml"
	}
	for _, name := range r.Available() {
		c, err := r.New(name)
		if err != nil {
			return nil, err
		}
		if c.Extension() == ext {
			return c, nil
		}
	}
	return nil, &UnknownFormatError{
		Name:      ext,
		Available: r.Available(),
	}
}

// Available returns registered format names in sorted order.
func (r *Registry) Available() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownFormatError indicates a format name or extension is not registered.
type UnknownFormatError struct {
	Name      string
	Available []string
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown format %q (available: %s)", e.Name, strings.Join(e.Available, ", "))
}
