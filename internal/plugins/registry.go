package plugins

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps file extensions to language descriptors.
type Registry struct {
	mu         sync.RWMutex
	languages  map[string]*Language
	extensions map[string]*Language
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		languages:  make(map[string]*Language),
		extensions: make(map[string]*Language),
	}
}

// Register adds a language. Extensions already claimed by another language
// are rejected so that lookup stays unambiguous.
func (r *Registry) Register(l *Language) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l.Name == "" {
		return fmt.Errorf("language has no name")
	}
	for _, ext := range l.Extensions {
		ext = normalizeExt(ext)
		if prev, ok := r.extensions[ext]; ok && prev.Name != l.Name {
			return fmt.Errorf("extension %q already registered by %s", ext, prev.Name)
		}
	}
	r.languages[l.Name] = l
	for _, ext := range l.Extensions {
		r.extensions[normalizeExt(ext)] = l
	}
	return nil
}

// MustRegister is Register for static tables.
func (r *Registry) MustRegister(l *Language) {
	if err := r.Register(l); err != nil {
		panic(err)
	}
}

// ForExtension looks up the language for a file extension.
// Extensions are matched exactly first, then case-insensitively.
func (r *Registry) ForExtension(ext string) (*Language, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if l, ok := r.extensions[ext]; ok {
		return l, true
	}
	l, ok := r.extensions[normalizeExt(ext)]
	return l, ok
}

// Language returns a language by name.
func (r *Registry) Language(name string) (*Language, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.languages[name]
	if !ok {
		return nil, fmt.Errorf("no language %q", name)
	}
	return l, nil
}

// Languages returns every registered language sorted by name.
func (r *Registry) Languages() []*Language {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Language, 0, len(r.languages))
	for _, l := range r.languages {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Extensions returns every registered extension, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.extensions))
	for ext := range r.extensions {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

func normalizeExt(ext string) string {
	ext = strings.TrimSpace(strings.ToLower(ext))
	if ext != "" && ext[0] != '.' {
		ext = "." + ext
	}
	return ext
}
