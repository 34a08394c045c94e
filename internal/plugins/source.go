package plugins

import (
	"regexp"
	"strings"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

// ParserKind selects the extraction strategy for a language.
type ParserKind string

const (
	// ParserAST parses the file into a syntax tree.
	ParserAST ParserKind = "ast"
	// ParserPattern applies the language's import regular expressions.
	ParserPattern ParserKind = "pattern"
	// ParserGeneric registers the module without dependencies.
	ParserGeneric ParserKind = "generic"
)

// ImportPattern is one import-statement regular expression. The first
// capture group is the imported path.
type ImportPattern struct {
	Regexp *regexp.Regexp
	Kind   string // e.g. "import", "from_import", "require"
	// Relative marks statements whose path is always relative to the
	// importing file (e.g. Ruby require_relative) even without a leading dot.
	Relative bool
}

// Language describes how files of a set of extensions are extracted.
type Language struct {
	Name       string
	Extensions []string
	Parser     ParserKind
	Patterns   []ImportPattern
	// Separator is the path separator used inside import paths ("/", "::",
	// "\\"). It is rewritten to ir.ModuleDelimiter. Empty means the import
	// path is already dot separated.
	Separator string
	// External reports whether an absolute import names a package outside
	// the repository. Nil means every absolute import is internal.
	External func(importPath string) bool
}

// IsExternal applies the language's external-package heuristic.
func (l *Language) IsExternal(importPath string) bool {
	if l.External == nil {
		return false
	}
	return l.External(importPath)
}

// NormalizeImport rewrites an absolute import path into module-ID form.
func (l *Language) NormalizeImport(importPath string) string {
	p := strings.TrimSpace(importPath)
	p = strings.TrimSuffix(p, ".*")
	p = strings.TrimSuffix(p, "*")
	if l.Separator != "" && l.Separator != ir.ModuleDelimiter {
		p = strings.ReplaceAll(p, l.Separator, ir.ModuleDelimiter)
	}
	return strings.Trim(p, ir.ModuleDelimiter)
}

func pattern(expr, kind string) ImportPattern {
	return ImportPattern{Regexp: regexp.MustCompile(expr), Kind: kind}
}

func relativePattern(expr, kind string) ImportPattern {
	p := pattern(expr, kind)
	p.Relative = true
	return p
}
