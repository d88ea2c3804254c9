package simviewer

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockModule struct {
	installed bool
	viewer    *Viewer
}

func (m *MockModule) Install(v *Viewer) error {
	m.installed = true
	m.viewer = v
	return nil
}

type failingModule struct{}

func (failingModule) Install(v *Viewer) error { return errors.New("boom") }

func TestViewerBuilder_RequiresHost(t *testing.T) {
	_, err := NewViewerBuilder().Build()
	assert.Error(t, err)
}

func TestViewerBuilder_Defaults(t *testing.T) {
	v, err := NewViewerBuilder().UseHost(newFakeHost()).Build()
	require.NoError(t, err)

	assert.Equal(t, 125, v.Palette().Len())
	assert.Equal(t, LightsNotConfigured, v.Lights().State())
	assert.True(t, v.GarbageCollecting())
	assert.Equal(t, float32(0.2), v.Scene().DsFactor)
	assert.Equal(t, DefaultToggles(), v.Registry().Toggles())
	assert.NotNil(t, v.Logger())
}

func TestViewerBuilder_UseModule(t *testing.T) {
	mod := &MockModule{}
	builder := NewViewerBuilder().UseHost(newFakeHost()).UseModule(mod)
	if len(builder.modules) != 1 {
		t.Errorf("Expected modules to contain 1 module, got %v", len(builder.modules))
	}

	v, err := builder.Build()
	require.NoError(t, err)
	assert.True(t, mod.installed)
	assert.Same(t, v, mod.viewer)
}

func TestViewerBuilder_ModuleFailure(t *testing.T) {
	_, err := NewViewerBuilder().UseHost(newFakeHost()).UseModule(failingModule{}).Build()
	assert.ErrorContains(t, err, "boom")
}

func TestViewerBuilder_BinWidthWins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Palette.BinWidth = 0.5
	v, err := NewViewerBuilder().UseHost(newFakeHost()).UseConfig(cfg).Build()
	require.NoError(t, err)
	assert.Equal(t, 8, v.Palette().Len())
}

func TestViewerBuilder_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Scene.Size = []float32{1, 2}
	_, err := NewViewerBuilder().UseHost(newFakeHost()).UseConfig(cfg).Build()
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	cfg = DefaultConfig()
	cfg.Palette.BinsPerChannel = 20
	_, err = NewViewerBuilder().UseHost(newFakeHost()).UseConfig(cfg).Build()
	assert.ErrorIs(t, err, ErrInvalidPaletteConfiguration)
}

func TestViewerBuilder_Lights(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lights.Enabled = true
	host := newFakeHost()
	v, err := NewViewerBuilder().UseHost(host).UseConfig(cfg).Build()
	require.NoError(t, err)
	assert.Equal(t, LightsNone, v.Lights().State())
	assert.Len(t, host.liveOfKind(NodeLight), 36)

	v, err = NewViewerBuilder().UseHost(newFakeHost()).UseModule(LightsModule{State: LightsFront}).Build()
	require.NoError(t, err)
	assert.Equal(t, LightsFront, v.Lights().State())

	_, err = NewViewerBuilder().UseHost(newFakeHost()).UseModule(LightsModule{State: LightsState(99)}).Build()
	assert.Error(t, err)
}
