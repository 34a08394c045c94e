package extract

import (
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/mod/modfile"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
	"github.com/efebarandurmaz/driftwatch/internal/plugins"
)

// importRef is one resolved import of a file. When pkg is set, target is
// the slash separated directory of a Go package rather than a module ID.
type importRef struct {
	target string
	line   int
	pkg    bool
}

// extractImports dispatches on the language's parser kind.
func (s *Scanner) extractImports(run *scanRun, lang *plugins.Language, rel string, src []byte) ([]importRef, error) {
	switch lang.Parser {
	case plugins.ParserAST:
		return goImports(rel, src, run.modulePath)
	case plugins.ParserPattern:
		return s.patternImports(run.resolver, lang, rel, string(src)), nil
	case plugins.ParserGeneric:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown parser kind %q for %s", lang.Parser, lang.Name)
	}
}

func edgeKind(p plugins.ParserKind) ir.EdgeKind {
	if p == plugins.ParserAST {
		return ir.EdgeASTImport
	}
	return ir.EdgePatternImport
}

// goImports parses only the import block. Imports under the root module
// path refer to package directories; everything else is external.
func goImports(rel string, src []byte, modulePath string) ([]importRef, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, rel, src, parser.ImportsOnly)
	if err != nil {
		return nil, err
	}
	if modulePath == "" {
		return nil, nil
	}
	var refs []importRef
	for _, spec := range f.Imports {
		p, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		if p != modulePath && !strings.HasPrefix(p, modulePath+"/") {
			continue
		}
		dir := strings.TrimPrefix(strings.TrimPrefix(p, modulePath), "/")
		if dir == "" {
			dir = "."
		}
		refs = append(refs, importRef{target: dir, line: fset.Position(spec.Pos()).Line, pkg: true})
	}
	return refs, nil
}

// readModulePath returns the module path declared by root/go.mod, or "".
func readModulePath(root string) string {
	data, err := os.ReadFile(filepath.Join(root, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

// patternImports applies every pattern of the language in order.
func (s *Scanner) patternImports(res *Resolver, lang *plugins.Language, rel, src string) []importRef {
	lines := newLineIndex(src)
	var refs []importRef
	for _, p := range lang.Patterns {
		for _, m := range p.Regexp.FindAllStringSubmatchIndex(src, -1) {
			if len(m) < 4 || m[2] < 0 {
				continue
			}
			raw := strings.TrimSpace(src[m[2]:m[3]])
			if raw == "" {
				continue
			}
			if p.Relative && !strings.HasPrefix(raw, ".") && !strings.HasPrefix(raw, "/") {
				raw = "./" + raw
			}
			id, ok := s.resolveImport(res, lang, rel, raw)
			if !ok {
				continue
			}
			refs = append(refs, importRef{target: id, line: lines.lineOf(m[2])})
		}
	}
	return refs
}

func (s *Scanner) resolveImport(res *Resolver, lang *plugins.Language, rel, raw string) (string, bool) {
	switch {
	case strings.HasPrefix(raw, "./"), strings.HasPrefix(raw, "../"), strings.HasPrefix(raw, "/"):
		return res.ResolvePath(rel, raw)
	case strings.HasPrefix(raw, "."):
		return res.ResolveDotted(rel, raw)
	}
	if lang.IsExternal(raw) {
		return "", false
	}
	if lang.Separator == "/" {
		if _, ok := s.registry.ForExtension(path.Ext(raw)); ok {
			raw = strings.TrimSuffix(raw, path.Ext(raw))
		}
	}
	id := lang.NormalizeImport(raw)
	return id, id != ""
}

// lineIndex maps byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(src string) lineIndex {
	idx := lineIndex{0}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (li lineIndex) lineOf(offset int) int {
	return sort.Search(len(li), func(i int) bool { return li[i] > offset })
}
