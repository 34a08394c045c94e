package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return root
}

func scan(t *testing.T, opts Options) *Result {
	t.Helper()
	res, err := NewScanner(nil, nil).Scan(context.Background(), opts)
	require.NoError(t, err)
	return res
}

func moduleIDs(res *Result) []string {
	ids := make([]string, 0, len(res.Modules))
	for _, m := range res.Modules {
		ids = append(ids, m.ID)
	}
	return ids
}

func edgePairs(res *Result) [][2]string {
	var out [][2]string
	for _, e := range res.Edges {
		out = append(out, [2]string{e.Source, e.Target})
	}
	return out
}

func TestScanCreatesNodeWithoutImports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/empty.py":  "x = 1\n",
		"web/app.css": "body {}\n",
	})
	res := scan(t, Options{Root: root})

	assert.Equal(t, []string{"a.empty", "web.app"}, moduleIDs(res))
	assert.Empty(t, res.Edges)
	for _, m := range res.Modules {
		assert.Empty(t, m.ImportIDs)
	}
}

func TestRelativeImports(t *testing.T) {
	root := writeTree(t, map[string]string{
		"a/b.js":       "const u = require('./utils')\nconst m = require('./missing')\n",
		"a/utils.js":   "module.exports = {}\n",
		"a/c.py":       "from .helpers import run\nfrom ..outside import nothing\n",
		"a/helpers.py": "def run():\n    pass\n",
		"a/d.ts":       "import { x } from '../lib/index'\nimport y from '../lib'\n",
		"lib/index.ts": "export const x = 1\n",
	})
	res := scan(t, Options{Root: root})

	assert.ElementsMatch(t, [][2]string{
		{"a.b", "a.utils"},
		{"a.c", "a.helpers"},
		{"a.d", "lib.index"},
		{"a.d", "lib.index"},
	}, edgePairs(res))
}

func TestRelativeImportEscapingRootIsDropped(t *testing.T) {
	root := writeTree(t, map[string]string{
		"b.js": "require('../../etc/passwd')\n",
	})
	res := scan(t, Options{Root: root})
	assert.Empty(t, res.Edges)
}

func TestExternalImportsAreFiltered(t *testing.T) {
	root := writeTree(t, map[string]string{
		"src/api/routes.py": "import os\nimport json\nfrom fastapi import APIRouter\nfrom src.services.user import UserService\n",
		"web/app.js":        "import React from 'react'\nimport { get } from '@scope/http'\nimport svc from 'app/services/user'\n",
	})
	res := scan(t, Options{Root: root})

	assert.ElementsMatch(t, [][2]string{
		{"src.api.routes", "src.services.user"},
		{"web.app", "app.services.user"},
	}, edgePairs(res))
}

func TestPatternEdgesCarryLineNumbers(t *testing.T) {
	root := writeTree(t, map[string]string{
		"svc/order.py": "\"\"\"doc\"\"\"\n\nimport svc.payment\n",
	})
	res := scan(t, Options{Root: root})
	require.Len(t, res.Edges, 1)
	assert.Equal(t, ir.EdgePatternImport, res.Edges[0].Kind)
	assert.Equal(t, 3, res.Edges[0].Line)
}

func TestGoImportsResolveToPackageFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod":                  "module example.com/app\n\ngo 1.22\n",
		"internal/db/db.go":       "package db\n",
		"internal/db/pool.go":     "package db\n",
		"internal/db/db_test.go":  "package db\n",
		"internal/api/handler.go": "package api\n\nimport (\n\t\"fmt\"\n\n\t\"example.com/app/internal/db\"\n)\n\nvar _ = fmt.Sprint\nvar _ = db.X\n",
	})
	res := scan(t, Options{Root: root})

	assert.Equal(t, []string{"internal.api.handler", "internal.db.db", "internal.db.pool"}, moduleIDs(res))
	require.Len(t, res.Edges, 2)
	for _, e := range res.Edges {
		assert.Equal(t, "internal.api.handler", e.Source)
		assert.Equal(t, ir.EdgeASTImport, e.Kind)
		assert.Equal(t, 6, e.Line)
	}
	assert.Equal(t, "internal.db.db", res.Edges[0].Target)
	assert.Equal(t, "internal.db.pool", res.Edges[1].Target)
}

func TestUnparsableFileBecomesWarning(t *testing.T) {
	root := writeTree(t, map[string]string{
		"go.mod":     "module example.com/app\n",
		"bad/bad.go": "package bad\n\nimport (\n",
		"ok/ok.go":   "package ok\n",
	})
	res := scan(t, Options{Root: root})

	assert.Equal(t, []string{"ok.ok"}, moduleIDs(res))
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "bad/bad.go", res.Warnings[0].Path)
}

func TestExclusionsAndIgnoredFiles(t *testing.T) {
	root := writeTree(t, map[string]string{
		"node_modules/react/index.js": "",
		"generated/stub.py":           "",
		"pkg/__init__.py":             "",
		"pkg/mod.py":                  "",
		"notes.txt":                   "",
	})
	res := scan(t, Options{Root: root, Exclude: []string{"generated"}})
	assert.Equal(t, []string{"pkg.mod"}, moduleIDs(res))
}

func TestTestFilesSkippedUnlessIncluded(t *testing.T) {
	files := map[string]string{
		"app/user.py":        "",
		"app/test_user.py":   "",
		"tests/helpers.py":   "",
		"web/button.spec.ts": "",
		"web/button.ts":      "",
	}
	res := scan(t, Options{Root: writeTree(t, files)})
	assert.Equal(t, []string{"app.user", "web.button"}, moduleIDs(res))

	res = scan(t, Options{Root: writeTree(t, files), IncludeTests: true})
	assert.Len(t, res.Modules, 5)
	for _, m := range res.Modules {
		if m.ID == "app.user" || m.ID == "web.button" {
			assert.False(t, m.IsTest, m.ID)
		} else {
			assert.True(t, m.IsTest, m.ID)
		}
	}
}

func TestDuplicateModuleIDKeepsFirstPath(t *testing.T) {
	root := writeTree(t, map[string]string{
		"core/util.js": "",
		"core/util.py": "",
	})
	res := scan(t, Options{Root: root})
	require.Len(t, res.Modules, 1)
	assert.Equal(t, "core/util.js", res.Modules[0].FilePath)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, "core/util.py", res.Warnings[0].Path)
}

func TestScanIsDeterministicAcrossWorkerCounts(t *testing.T) {
	files := map[string]string{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g", "h"} {
		files["svc/"+name+".py"] = "import svc.a\nimport svc.h\nimport svc.d\n"
	}
	root := writeTree(t, files)

	one := scan(t, Options{Root: root, Workers: 1})
	many := scan(t, Options{Root: root, Workers: 8})
	assert.Equal(t, one.Edges, many.Edges)
	assert.Equal(t, moduleIDs(one), moduleIDs(many))
}

func TestCanceledScanReturnsPartialResult(t *testing.T) {
	root := writeTree(t, map[string]string{"a.py": "", "b.py": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := NewScanner(nil, nil).Scan(ctx, Options{Root: root})
	require.NoError(t, err)
	assert.True(t, res.Canceled)
	assert.Empty(t, res.Modules)
}

func TestConfigErrors(t *testing.T) {
	root := writeTree(t, map[string]string{"f.py": ""})
	tests := []struct {
		name string
		opts Options
	}{
		{"empty root", Options{}},
		{"missing root", Options{Root: filepath.Join(root, "nope")}},
		{"file root", Options{Root: filepath.Join(root, "f.py")}},
		{"empty exclude", Options{Root: root, Exclude: []string{" "}}},
		{"path exclude", Options{Root: root, Exclude: []string{"a/b"}}},
		{"negative workers", Options{Root: root, Workers: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScanner(nil, nil).Scan(context.Background(), tt.opts)
			require.Error(t, err)
			assert.True(t, IsConfigError(err))
		})
	}
}

func TestIsTestFile(t *testing.T) {
	tests := map[string]bool{
		"app/test_user.py":       true,
		"pkg/user_test.go":       true,
		"web/button.test.tsx":    true,
		"web/button.spec.ts":     true,
		"tests/fixtures/data.py": true,
		"src/__tests__/App.js":   true,
		"src/testing/helpers.py": false,
		"src/contest.py":         false,
		"app/user.py":            false,
	}
	for path, want := range tests {
		assert.Equal(t, want, IsTestFile(path), path)
	}
}
