package extract

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

const defaultDirCacheSize = 4096

// Resolver turns relative imports into module IDs. A relative import only
// resolves when the file it names exists under the root.
type Resolver struct {
	root string
	exts []string
	dirs *lru.Cache[string, map[string]bool]
}

// NewResolver creates a resolver for root. exts lists the source extensions
// tried when an import omits one, in priority order.
func NewResolver(root string, exts []string) (*Resolver, error) {
	cache, err := lru.New[string, map[string]bool](defaultDirCacheSize)
	if err != nil {
		return nil, err
	}
	return &Resolver{root: root, exts: exts, dirs: cache}, nil
}

// ResolvePath resolves a path-style import ("./x", "../x", "/x") written in
// the file at fromRel.
func (r *Resolver) ResolvePath(fromRel, importPath string) (string, bool) {
	return r.locate(path.Join(path.Dir(fromRel), importPath))
}

// ResolveDotted resolves a dot-relative import (".x", "..x.y"). One dot is
// the importing file's package, each further dot climbs one directory.
func (r *Resolver) ResolveDotted(fromRel, importPath string) (string, bool) {
	n := len(importPath) - len(strings.TrimLeft(importPath, "."))
	base := path.Dir(fromRel)
	for i := 1; i < n; i++ {
		if base == "." {
			return "", false
		}
		base = path.Dir(base)
	}
	rest := strings.ReplaceAll(importPath[n:], ".", "/")
	return r.locate(path.Join(base, rest))
}

func (r *Resolver) locate(clean string) (string, bool) {
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", false
	}
	if ext := path.Ext(clean); ext != "" && r.isSourceExt(ext) && r.exists(clean) {
		return ir.ModuleID(clean), true
	}
	for _, ext := range r.exts {
		if r.exists(clean + ext) {
			return ir.ModuleID(clean + ext), true
		}
	}
	for _, ext := range r.exts {
		index := path.Join(clean, "index"+ext)
		if r.exists(index) {
			return ir.ModuleID(index), true
		}
	}
	return "", false
}

func (r *Resolver) isSourceExt(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range r.exts {
		if e == ext {
			return true
		}
	}
	return false
}

// exists reports whether rel names a regular file. Directory listings are
// cached so each directory is read at most once per run.
func (r *Resolver) exists(rel string) bool {
	dir, name := path.Split(rel)
	dir = strings.TrimSuffix(dir, "/")
	names, ok := r.dirs.Get(dir)
	if !ok {
		names = r.list(dir)
		r.dirs.Add(dir, names)
	}
	return names[name]
}

func (r *Resolver) list(dir string) map[string]bool {
	entries, err := os.ReadDir(filepath.Join(r.root, filepath.FromSlash(dir)))
	if err != nil {
		return nil
	}
	names := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names[e.Name()] = true
		}
	}
	return names
}
