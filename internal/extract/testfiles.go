package extract

import (
	"path"
	"strings"
)

var testDirs = map[string]bool{"tests": true, "test": true, "__tests__": true}

// IsTestFile reports whether a repo-relative, slash separated path looks
// like a test file.
func IsTestFile(rel string) bool {
	lower := strings.ToLower(rel)
	base := path.Base(lower)
	if strings.HasPrefix(base, "test_") {
		return true
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	for _, suffix := range []string{"_test", ".test", ".spec"} {
		if strings.HasSuffix(stem, suffix) {
			return true
		}
	}
	segments := strings.Split(path.Dir(lower), "/")
	for _, s := range segments {
		if testDirs[s] {
			return true
		}
	}
	return false
}
