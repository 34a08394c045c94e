package ir

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the ordinal impact classification of a violation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity from lowest to highest.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}

// Rank orders severities: low=0 .. critical=3, unknown=-1.
func (s Severity) Rank() int {
	for i, v := range Severities {
		if v == s {
			return i
		}
	}
	return -1
}

// AtLeast reports whether s is as severe as min or more.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() >= min.Rank()
}

// ParseSeverity accepts any casing of a severity name.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToLower(strings.TrimSpace(s)))
	if sev.Rank() < 0 {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// ViolationType is the closed set of drift kinds.
type ViolationType string

const (
	ViolationLayer         ViolationType = "layer_violation"
	ViolationCircular      ViolationType = "circular_dependency"
	ViolationLegacyAccess  ViolationType = "legacy_access"
	ViolationBypassGateway ViolationType = "bypass_gateway"
)

// ViolationTypes lists every violation type in detection order.
var ViolationTypes = []ViolationType{
	ViolationLayer,
	ViolationCircular,
	ViolationLegacyAccess,
	ViolationBypassGateway,
}

// Violation is one detected drift. It is self-describing: consumers need no
// reference back into the graph.
type Violation struct {
	ID             string        `json:"id"`
	Type           ViolationType `json:"type"`
	Severity       Severity      `json:"severity"`
	Title          string        `json:"title"`
	Description    string        `json:"description"`
	SourceModule   string        `json:"source_module"`
	TargetModule   string        `json:"target_module"`
	DependencyPath []string      `json:"dependency_path"`
	RuleName       string        `json:"rule_name"`
	PatternBroken  string        `json:"pattern_broken"`
	Timestamp      time.Time     `json:"timestamp"`
}

// Key identifies a violation across runs, ignoring ID and timestamp.
func (v Violation) Key() string {
	return fmt.Sprintf("%s:%s:%s", v.Type, v.SourceModule, v.TargetModule)
}
