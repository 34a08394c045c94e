package drift

import "github.com/efebarandurmaz/driftwatch/internal/ir"

// FilterBySeverity keeps violations at or above min.
func FilterBySeverity(vs []ir.Violation, min ir.Severity) []ir.Violation {
	out := make([]ir.Violation, 0, len(vs))
	for _, v := range vs {
		if v.Severity.AtLeast(min) {
			out = append(out, v)
		}
	}
	return out
}

// CountBySeverity counts violations per severity. Every severity is present.
func CountBySeverity(vs []ir.Violation) map[ir.Severity]int {
	counts := make(map[ir.Severity]int, len(ir.Severities))
	for _, s := range ir.Severities {
		counts[s] = 0
	}
	for _, v := range vs {
		counts[v.Severity]++
	}
	return counts
}

// CountByType counts violations per type. Every type is present.
func CountByType(vs []ir.Violation) map[ir.ViolationType]int {
	counts := make(map[ir.ViolationType]int, len(ir.ViolationTypes))
	for _, t := range ir.ViolationTypes {
		counts[t] = 0
	}
	for _, v := range vs {
		counts[v.Type]++
	}
	return counts
}
