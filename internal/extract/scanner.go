package extract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/efebarandurmaz/driftwatch/internal/ir"
	"github.com/efebarandurmaz/driftwatch/internal/plugins"
)

// Result is the output of a scan. Modules are sorted by ID and edges by
// (source, target, kind) regardless of how the files were scheduled.
type Result struct {
	Root     string              `json:"root"`
	Modules  []*ir.ModuleRecord  `json:"modules"`
	Edges    []ir.DependencyEdge `json:"edges"`
	Warnings []ir.Warning        `json:"warnings"`
	Canceled bool                `json:"canceled"`
}

// Scanner extracts modules and dependency edges from a directory tree.
type Scanner struct {
	registry *plugins.Registry
	logger   *slog.Logger
}

// NewScanner creates a scanner. A nil registry uses plugins.Default and a
// nil logger uses slog.Default.
func NewScanner(registry *plugins.Registry, logger *slog.Logger) *Scanner {
	if registry == nil {
		registry = plugins.Default()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{registry: registry, logger: logger}
}

type fileResult struct {
	record *ir.ModuleRecord
	kind   ir.EdgeKind
	refs   []importRef
}

// scanRun holds the state shared by the workers of one Scan call.
type scanRun struct {
	root       string
	modulePath string
	resolver   *Resolver
	maxSize    int64

	mu       sync.Mutex
	files    []fileResult
	warnings []ir.Warning
}

func (r *scanRun) warn(rel, msg string) {
	r.mu.Lock()
	r.warnings = append(r.warnings, ir.Warning{Path: rel, Message: msg})
	r.mu.Unlock()
}

var errStopWalk = errors.New("stop walk")

// Scan walks opts.Root. Only option problems are returned as errors; per-file
// failures become warnings. If ctx is done the walk stops before the next
// file and the files collected so far are returned with Canceled set.
func (s *Scanner) Scan(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, &ConfigError{Field: "root", Reason: err.Error()}
	}
	resolver, err := NewResolver(root, s.registry.Extensions())
	if err != nil {
		return nil, fmt.Errorf("extract: create resolver: %w", err)
	}
	run := &scanRun{
		root:       root,
		modulePath: readModulePath(root),
		resolver:   resolver,
		maxSize:    opts.maxFileSize(),
	}
	excludedDirs, ignoredFiles := opts.excludedNames()

	g := new(errgroup.Group)
	g.SetLimit(opts.workers())
	canceled := false

	walkErr := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			run.warn(relPath(root, p), err.Error())
			if d != nil && d.IsDir() && p != root {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if p != root && excludedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if ctx.Err() != nil {
			canceled = true
			return errStopWalk
		}
		if ignoredFiles[d.Name()] || !d.Type().IsRegular() {
			return nil
		}
		lang, ok := s.registry.ForExtension(filepath.Ext(d.Name()))
		if !ok {
			return nil
		}
		rel := relPath(root, p)
		isTest := IsTestFile(rel)
		if isTest && !opts.IncludeTests {
			return nil
		}
		g.Go(func() error {
			s.processFile(run, lang, p, rel, isTest)
			return nil
		})
		return nil
	})
	_ = g.Wait()
	if walkErr != nil && !errors.Is(walkErr, errStopWalk) {
		return nil, fmt.Errorf("extract: walk %s: %w", root, walkErr)
	}

	res := run.finish()
	res.Canceled = canceled
	for _, w := range res.Warnings {
		s.logger.Debug("extraction warning", "path", w.Path, "message", w.Message)
	}
	s.logger.Info("extraction complete",
		"root", root,
		"modules", len(res.Modules),
		"edges", len(res.Edges),
		"warnings", len(res.Warnings),
		"canceled", res.Canceled,
	)
	return res, nil
}

func (s *Scanner) processFile(run *scanRun, lang *plugins.Language, abs, rel string, isTest bool) {
	info, err := os.Stat(abs)
	if err != nil {
		run.warn(rel, err.Error())
		return
	}
	if info.Size() > run.maxSize {
		run.warn(rel, fmt.Sprintf("file size %d exceeds limit %d", info.Size(), run.maxSize))
		return
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		run.warn(rel, err.Error())
		return
	}
	refs, err := s.extractImports(run, lang, rel, src)
	if err != nil {
		run.warn(rel, fmt.Sprintf("%s: %v", lang.Name, err))
		return
	}
	rec := &ir.ModuleRecord{
		ID:       ir.ModuleID(rel),
		FilePath: rel,
		Language: lang.Name,
		IsTest:   isTest,
	}
	run.mu.Lock()
	run.files = append(run.files, fileResult{record: rec, kind: edgeKind(lang.Parser), refs: refs})
	run.mu.Unlock()
}

// finish merges per-file results into a deterministic Result.
func (r *scanRun) finish() *Result {
	sort.Slice(r.files, func(i, j int) bool {
		a, b := r.files[i].record, r.files[j].record
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.FilePath < b.FilePath
	})

	res := &Result{Root: r.root, Warnings: r.warnings}
	kept := r.files[:0]
	for _, f := range r.files {
		if n := len(kept); n > 0 && kept[n-1].record.ID == f.record.ID {
			res.Warnings = append(res.Warnings, ir.Warning{
				Path:    f.record.FilePath,
				Message: fmt.Sprintf("module id %s already taken by %s", f.record.ID, kept[n-1].record.FilePath),
			})
			continue
		}
		kept = append(kept, f)
	}

	// Go imports name a package directory; expand to the package's files.
	packages := make(map[string][]string)
	for _, f := range kept {
		if f.kind == ir.EdgeASTImport && !f.record.IsTest {
			dir := path.Dir(f.record.FilePath)
			packages[dir] = append(packages[dir], f.record.ID)
		}
	}

	for _, f := range kept {
		rec := f.record
		for _, ref := range f.refs {
			targets := []string{ref.target}
			if ref.pkg {
				targets = packages[ref.target]
			}
			for _, t := range targets {
				if t == rec.ID && ref.pkg {
					continue
				}
				rec.ImportIDs = append(rec.ImportIDs, t)
				res.Edges = append(res.Edges, ir.DependencyEdge{Source: rec.ID, Target: t, Kind: f.kind, Line: ref.line})
			}
		}
		res.Modules = append(res.Modules, rec)
	}

	SortEdges(res.Edges)
	sort.SliceStable(res.Warnings, func(i, j int) bool {
		if res.Warnings[i].Path != res.Warnings[j].Path {
			return res.Warnings[i].Path < res.Warnings[j].Path
		}
		return res.Warnings[i].Message < res.Warnings[j].Message
	})
	return res
}

// SortEdges orders edges by (source, target, kind, line).
func SortEdges(edges []ir.DependencyEdge) {
	sort.Slice(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Source != b.Source {
			return a.Source < b.Source
		}
		if a.Target != b.Target {
			return a.Target < b.Target
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Line < b.Line
	})
}

func relPath(root, p string) string {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
