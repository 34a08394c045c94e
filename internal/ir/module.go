// Package ir holds the data model shared by every analysis stage: module
// records and dependency edges produced by extraction, layer assignments and
// hierarchies produced by inference, and the violations produced by drift
// detection.
package ir

import (
	"path/filepath"
	"strings"
)

// ModuleDelimiter joins path segments into a module ID.
const ModuleDelimiter = "."

// ModuleRecord represents one scanned source file.
type ModuleRecord struct {
	ID        string   `json:"id"`
	FilePath  string   `json:"file_path"`            // repo-relative, slash separated
	Language  string   `json:"language,omitempty"`   // descriptor name that handled the file
	ImportIDs []string `json:"import_ids,omitempty"` // ordered, duplicates allowed
	IsTest    bool     `json:"is_test"`
	Layer     Layer    `json:"layer,omitempty"` // unset until inference runs
}

// Label is the last segment of the module ID.
func (m *ModuleRecord) Label() string {
	return ModuleLabel(m.ID)
}

// ModuleLabel returns the last segment of a module ID.
func ModuleLabel(id string) string {
	if i := strings.LastIndex(id, ModuleDelimiter); i >= 0 {
		return id[i+len(ModuleDelimiter):]
	}
	return id
}

// EdgeKind tags the mechanism that produced a dependency edge.
type EdgeKind string

const (
	EdgeASTImport     EdgeKind = "ast-import"
	EdgePatternImport EdgeKind = "pattern-import"
)

// DependencyEdge is a raw import relationship between two module IDs.
type DependencyEdge struct {
	Source string   `json:"source"`
	Target string   `json:"target"`
	Kind   EdgeKind `json:"kind"`
	Line   int      `json:"line"` // 0 when unknown
}

// Warning is a recoverable per-file extraction problem.
type Warning struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ModuleID derives the module ID for a repo-relative path: the extension is
// stripped and path separators become ModuleDelimiter.
// Example: src/services/user_service.py -> src.services.user_service
func ModuleID(relPath string) string {
	p := filepath.ToSlash(relPath)
	p = strings.TrimPrefix(p, "./")
	p = strings.TrimSuffix(p, filepath.Ext(p))
	return strings.ReplaceAll(p, "/", ModuleDelimiter)
}
