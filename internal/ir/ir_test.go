package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"src/services/user_service.py", "src.services.user_service"},
		{"./a/b.ts", "a.b"},
		{"main.go", "main"},
		{"web/ui/index.test.js", "web.ui.index.test"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, ModuleID(tt.path))
		})
	}
}

func TestModuleLabel(t *testing.T) {
	assert.Equal(t, "router", ModuleLabel("src.gateway.router"))
	assert.Equal(t, "main", ModuleLabel("main"))
}

func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity("HIGH")
	require.NoError(t, err)
	assert.Equal(t, SeverityHigh, sev)

	_, err = ParseSeverity("urgent")
	assert.Error(t, err)
}

func TestSeverity_AtLeast(t *testing.T) {
	assert.True(t, SeverityCritical.AtLeast(SeverityMedium))
	assert.True(t, SeverityMedium.AtLeast(SeverityMedium))
	assert.False(t, SeverityLow.AtLeast(SeverityMedium))
}

func TestHierarchy_Ordered(t *testing.T) {
	h := Hierarchy{
		LayerData:         3,
		LayerPresentation: 0,
		LayerService:      2,
		"custom":          2,
	}
	assert.Equal(t, []Layer{LayerPresentation, "custom", LayerService, LayerData}, h.Ordered())
}

func TestAllowedDependencyMap_Allows(t *testing.T) {
	m := AllowedDependencyMap{LayerGateway: {LayerService, LayerData}}
	assert.True(t, m.Allows(LayerGateway, LayerData))
	assert.False(t, m.Allows(LayerData, LayerGateway))
}

func TestViolation_Key(t *testing.T) {
	v := Violation{Type: ViolationLayer, SourceModule: "a", TargetModule: "b"}
	assert.Equal(t, "layer_violation:a:b", v.Key())
}
