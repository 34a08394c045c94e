package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efebarandurmaz/driftwatch/internal/inference"
	"github.com/efebarandurmaz/driftwatch/internal/ir"
)

func configFor(h ir.Hierarchy) ir.ArchitectureConfig {
	return ir.ArchitectureConfig{
		Layers:              h.Ordered(),
		Hierarchy:           h,
		AllowedDependencies: inference.AllowedFrom(h),
	}
}

func defaultConfig() ir.ArchitectureConfig {
	h := ir.Hierarchy{}
	for l, lvl := range inference.DefaultLevels {
		h[l] = lvl
	}
	return configFor(h)
}

func TestReverseDependencyIsHigh(t *testing.T) {
	rs := Compile(configFor(ir.Hierarchy{ir.LayerGateway: 1, ir.LayerData: 3}))

	assert.False(t, rs.IsAllowed(ir.LayerData, ir.LayerGateway))
	assert.Equal(t, ir.SeverityHigh, rs.SeverityOf(ir.LayerData, ir.LayerGateway))
	assert.True(t, rs.IsAllowed(ir.LayerGateway, ir.LayerData))

	r, ok := rs.RuleFor(ir.LayerData, ir.LayerGateway)
	require.True(t, ok)
	assert.Equal(t, "data_to_gateway_forbidden", r.Name)
	assert.Equal(t, "data layer must not depend on gateway layer", r.Description)
}

func TestLegacyIsolationOverridesHierarchy(t *testing.T) {
	rs := Compile(defaultConfig())

	assert.True(t, inference.AllowedFrom(inference.DefaultLevels).Allows(ir.LayerService, ir.LayerLegacy))
	assert.False(t, rs.IsAllowed(ir.LayerService, ir.LayerLegacy))
	assert.Equal(t, ir.SeverityCritical, rs.SeverityOf(ir.LayerService, ir.LayerLegacy))

	r, ok := rs.RuleFor(ir.LayerService, ir.LayerLegacy)
	require.True(t, ok)
	assert.Equal(t, RuleLegacyIsolation, r.Name)
	assert.False(t, r.Allowed)
}

func TestLegacyIsolationRegardlessOfLevels(t *testing.T) {
	rs := Compile(configFor(ir.Hierarchy{ir.LayerService: 5, ir.LayerLegacy: 0}))
	assert.False(t, rs.IsAllowed(ir.LayerService, ir.LayerLegacy))
	assert.Equal(t, ir.SeverityCritical, rs.SeverityOf(ir.LayerService, ir.LayerLegacy))
}

func TestCompileEmitsEveryOrderedPair(t *testing.T) {
	rs := Compile(defaultConfig())
	all := rs.Rules()

	require.Len(t, all, 5*4+1)
	assert.Equal(t, RuleLegacyIsolation, all[len(all)-1].Name)
	assert.Empty(t, all[len(all)-1].Source)

	names := map[string]bool{}
	for _, r := range all {
		names[r.Name] = true
	}
	assert.True(t, names["presentation_to_gateway_allowed"])
	assert.True(t, names["gateway_to_presentation_forbidden"])
	assert.True(t, names["data_to_service_forbidden"])
}

func TestNoLegacyRuleWithoutLegacyLayer(t *testing.T) {
	rs := Compile(configFor(ir.Hierarchy{ir.LayerGateway: 1, ir.LayerService: 2}))
	assert.Len(t, rs.Rules(), 2)
}

func TestSeverityOrder(t *testing.T) {
	rs := Compile(defaultConfig())
	tests := []struct {
		src, tgt ir.Layer
		want     ir.Severity
	}{
		{ir.LayerData, ir.LayerGateway, ir.SeverityCritical},
		{ir.LayerData, ir.LayerPresentation, ir.SeverityCritical},
		{ir.LayerService, ir.LayerGateway, ir.SeverityHigh},
		{ir.LayerGateway, ir.LayerPresentation, ir.SeverityHigh},
		{ir.LayerPresentation, ir.LayerData, ir.SeverityMedium},
		{ir.LayerPresentation, ir.LayerGateway, ir.SeverityLow},
		{ir.LayerGateway, ir.LayerLegacy, ir.SeverityCritical},
	}
	for _, tt := range tests {
		t.Run(string(tt.src)+"->"+string(tt.tgt), func(t *testing.T) {
			assert.Equal(t, tt.want, rs.SeverityOf(tt.src, tt.tgt))
		})
	}
}

func TestDepthIsDense(t *testing.T) {
	rs := Compile(configFor(ir.Hierarchy{ir.LayerGateway: 4, ir.LayerService: 2, ir.LayerData: 3}))
	assert.Equal(t, 0, rs.Depth(ir.LayerService))
	assert.Equal(t, 1, rs.Depth(ir.LayerData))
	assert.Equal(t, 2, rs.Depth(ir.LayerGateway))
	assert.Equal(t, unknownDepth, rs.Depth("infra"))
}

func TestUnknownLayersFallBackToAllowedMap(t *testing.T) {
	cfg := configFor(ir.Hierarchy{ir.LayerService: 2})
	cfg.AllowedDependencies["infra"] = []ir.Layer{ir.LayerService}
	rs := Compile(cfg)

	_, ok := rs.RuleFor("infra", ir.LayerService)
	assert.False(t, ok)
	assert.True(t, rs.IsAllowed("infra", ir.LayerService))
	assert.False(t, rs.IsAllowed(ir.LayerService, "infra"))
	assert.Equal(t, ir.SeverityCritical, rs.SeverityOf("infra", ir.LayerService))
}

func TestCompileEmptyConfig(t *testing.T) {
	rs := Compile(ir.ArchitectureConfig{})
	assert.Empty(t, rs.Rules())
	assert.False(t, rs.IsAllowed(ir.LayerService, ir.LayerData))
}
