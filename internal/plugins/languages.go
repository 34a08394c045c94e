package plugins

import "strings"

// Default returns a registry holding the built-in language table.
func Default() *Registry {
	r := NewRegistry()
	for _, l := range builtinLanguages() {
		r.MustRegister(l)
	}
	return r
}

func builtinLanguages() []*Language {
	jsPatterns := []ImportPattern{
		pattern(`import\s+.*?\s+from\s+['"]([^'"]+)['"]`, "es6_import"),
		pattern(`import\s+['"]([^'"]+)['"]`, "es6_import_bare"),
		pattern(`require\(['"]([^'"]+)['"]\)`, "require"),
		pattern(`import\s*\(['"]([^'"]+)['"]\)`, "dynamic_import"),
	}
	cPatterns := []ImportPattern{
		pattern(`(?m)^\s*#include\s+[<"]([^>"]+)[>"]`, "include"),
	}
	jvmImport := []ImportPattern{
		pattern(`(?m)^\s*import\s+([\w\.]+)`, "import"),
	}

	return []*Language{
		{
			Name:       "go",
			Extensions: []string{".go"},
			Parser:     ParserAST,
			Separator:  "/",
		},
		{
			Name:       "python",
			Extensions: []string{".py"},
			Parser:     ParserPattern,
			Patterns: []ImportPattern{
				pattern(`(?m)^\s*import\s+([\w\.]+)`, "import"),
				pattern(`(?m)^\s*from\s+([\w\.]+)\s+import`, "from_import"),
			},
			External: firstSegmentIn(".", pythonExternal),
		},
		{
			Name:       "javascript",
			Extensions: []string{".js", ".jsx", ".ts", ".tsx", ".mjs", ".cjs"},
			Parser:     ParserPattern,
			Patterns:   jsPatterns,
			Separator:  "/",
			External:   isExternalJS,
		},
		{
			Name:       "java",
			Extensions: []string{".java"},
			Parser:     ParserPattern,
			Patterns: []ImportPattern{
				pattern(`(?m)^\s*import\s+([\w\.]+\*?);`, "import"),
				pattern(`(?m)^\s*import\s+static\s+([\w\.]+);`, "static_import"),
			},
			External: hasAnyPrefix("java.", "javax.", "org.w3c.", "org.xml.", "org.omg."),
		},
		{
			Name:       "kotlin",
			Extensions: []string{".kt"},
			Parser:     ParserPattern,
			Patterns:   jvmImport,
			External:   hasAnyPrefix("java.", "javax.", "kotlin.", "kotlinx.", "android."),
		},
		{
			Name:       "scala",
			Extensions: []string{".scala"},
			Parser:     ParserPattern,
			Patterns:   jvmImport,
			External:   hasAnyPrefix("java.", "javax.", "scala."),
		},
		{
			Name:       "csharp",
			Extensions: []string{".cs"},
			Parser:     ParserPattern,
			Patterns: []ImportPattern{
				pattern(`(?m)^\s*using\s+([\w\.]+);`, "using"),
				pattern(`(?m)^\s*using\s+static\s+([\w\.]+);`, "using_static"),
			},
			External: func(p string) bool {
				return p == "System" || p == "Microsoft" || hasAnyPrefix("System.", "Microsoft.")(p)
			},
		},
		{
			Name:       "rust",
			Extensions: []string{".rs"},
			Parser:     ParserPattern,
			Patterns: []ImportPattern{
				pattern(`(?m)^\s*use\s+([\w:]+)`, "use"),
				pattern(`(?m)^\s*extern\s+crate\s+(\w+)`, "extern_crate"),
			},
			Separator: "::",
			External:  firstSegmentIn("::", setOf("std", "core", "alloc")),
		},
		{
			Name:       "ruby",
			Extensions: []string{".rb"},
			Parser:     ParserPattern,
			Patterns: []ImportPattern{
				pattern(`(?m)^\s*require\s+['"]([^'"]+)['"]`, "require"),
				relativePattern(`(?m)^\s*require_relative\s+['"]([^'"]+)['"]`, "require_relative"),
				pattern(`(?m)^\s*load\s+['"]([^'"]+)['"]`, "load"),
			},
			Separator: "/",
			External: func(p string) bool {
				return setOf("json", "net", "uri", "time", "date", "fileutils", "set", "yaml", "logger")[p]
			},
		},
		{
			Name:       "php",
			Extensions: []string{".php"},
			Parser:     ParserPattern,
			Patterns: []ImportPattern{
				pattern(`(?m)^\s*use\s+([\w\\]+)`, "use"),
				pattern(`(?m)^\s*require\s+['"]([^'"]+)['"]`, "require"),
				pattern(`(?m)^\s*require_once\s+['"]([^'"]+)['"]`, "require_once"),
				pattern(`(?m)^\s*include\s+['"]([^'"]+)['"]`, "include"),
			},
			Separator: `\`,
		},
		{
			Name:       "swift",
			Extensions: []string{".swift"},
			Parser:     ParserPattern,
			Patterns: []ImportPattern{
				pattern(`(?m)^\s*import\s+(\w+)`, "import"),
			},
			External: func(p string) bool {
				return setOf("Foundation", "UIKit", "SwiftUI", "Combine", "AppKit", "XCTest")[p]
			},
		},
		{
			Name:       "dart",
			Extensions: []string{".dart"},
			Parser:     ParserPattern,
			Patterns: []ImportPattern{
				pattern(`(?m)^\s*import\s+['"]([^'"]+)['"]`, "import"),
				pattern(`(?m)^\s*export\s+['"]([^'"]+)['"]`, "export"),
			},
			Separator: "/",
			External:  hasAnyPrefix("dart:", "package:flutter/"),
		},
		{
			Name:       "elixir",
			Extensions: []string{".ex", ".exs"},
			Parser:     ParserPattern,
			Patterns: []ImportPattern{
				pattern(`(?m)^\s*import\s+(\w+)`, "import"),
				pattern(`(?m)^\s*alias\s+([\w\.]+)`, "alias"),
				pattern(`(?m)^\s*use\s+([\w\.]+)`, "use"),
			},
		},
		{
			Name:       "haskell",
			Extensions: []string{".hs"},
			Parser:     ParserPattern,
			Patterns: []ImportPattern{
				pattern(`(?m)^\s*import\s+([\w\.]+)`, "import"),
				pattern(`(?m)^\s*import\s+qualified\s+([\w\.]+)`, "qualified_import"),
			},
			External: hasAnyPrefix("Data.", "Control.", "System.", "Prelude"),
		},
		{
			Name:       "c",
			Extensions: []string{".c", ".h", ".cpp", ".cc", ".cxx", ".hpp", ".hxx"},
			Parser:     ParserPattern,
			Patterns:   cPatterns,
			Separator:  "/",
		},
		{
			Name:       "lua",
			Extensions: []string{".lua"},
			Parser:     ParserPattern,
			Patterns: []ImportPattern{
				pattern(`require\s*\(?['"]([^'"]+)['"]\)?`, "require"),
			},
		},
		{
			Name:       "perl",
			Extensions: []string{".pl", ".pm"},
			Parser:     ParserPattern,
			Patterns: []ImportPattern{
				pattern(`(?m)^\s*use\s+([\w:]+)`, "use"),
				pattern(`(?m)^\s*require\s+([\w:]+)`, "require"),
			},
			Separator: "::",
			External:  isPerlCore,
		},
		generic("groovy", ".groovy"),
		generic("dotnet", ".vb", ".fs"),
		generic("objc", ".m", ".mm"),
		generic("clojure", ".clj", ".cljs"),
		generic("r", ".r"),
		generic("shell", ".sh", ".bash"),
		generic("sql", ".sql"),
		generic("web", ".html", ".htm", ".css", ".scss", ".sass", ".less"),
	}
}

func generic(name string, exts ...string) *Language {
	return &Language{Name: name, Extensions: exts, Parser: ParserGeneric}
}

var pythonExternal = setOf(
	"fastapi", "pydantic", "sqlalchemy", "requests", "flask",
	"django", "numpy", "pandas", "torch", "tensorflow",
	"os", "sys", "json", "typing", "datetime", "pathlib",
	"asyncio", "logging", "collections", "re", "unittest",
	"abc", "dataclasses", "enum", "functools", "itertools", "math",
	"subprocess", "time", "uuid", "pytest",
)

var jsExternal = setOf(
	"react", "vue", "angular", "lodash", "axios", "express",
	"http", "fs", "path", "url", "next", "nuxt", "webpack", "babel", "eslint",
)

// isExternalJS treats scoped packages, node: builtins and well-known
// packages as external. Path-style imports are never external.
func isExternalJS(p string) bool {
	if strings.HasPrefix(p, ".") || strings.HasPrefix(p, "/") {
		return false
	}
	first := strings.SplitN(p, "/", 2)[0]
	return jsExternal[first] || strings.HasPrefix(first, "@") || strings.HasPrefix(first, "node:")
}

var perlCore = setOf(
	"strict", "warnings", "vars",
	"Carp", "Exporter", "base", "parent",
	"constant", "lib", "utf8",
	"Data::Dumper", "Storable", "Scalar::Util",
	"List::Util", "File::Spec", "File::Path",
	"IO::File", "IO::Handle",
)

func isPerlCore(p string) bool { return perlCore[p] }

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

func firstSegmentIn(sep string, set map[string]bool) func(string) bool {
	return func(p string) bool {
		return set[strings.SplitN(p, sep, 2)[0]]
	}
}

func hasAnyPrefix(prefixes ...string) func(string) bool {
	return func(p string) bool {
		for _, pre := range prefixes {
			if strings.HasPrefix(p, pre) {
				return true
			}
		}
		return false
	}
}
