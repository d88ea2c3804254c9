package simviewer

import (
	"bytes"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViewer(t *testing.T, cfg *Config) (*Viewer, *fakeHost) {
	t.Helper()
	if cfg == nil {
		cfg = DefaultConfig()
	}
	host := newFakeHost()
	v, err := NewViewerBuilder().UseHost(host).UseConfig(cfg).Build()
	require.NoError(t, err)
	return v, host
}

func TestViewerEndOfTick(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Collector.Tolerance = 1
	v, _ := newTestViewer(t, cfg)
	id := MustPackID(1, false, 1)
	require.NoError(t, v.Registry().UpsertPoint(id, unitPoint(mgl32.Vec3{})))

	tick, err := v.EndOfTick()
	require.NoError(t, err)
	assert.Equal(t, 1, tick)
	assert.Equal(t, 1, v.Registry().Counts().Points)

	_, err = v.EndOfTick()
	require.NoError(t, err)
	assert.Zero(t, v.Registry().Counts().Points)

	v.SetGarbageCollecting(false)
	require.NoError(t, v.Registry().UpsertPoint(id, unitPoint(mgl32.Vec3{})))
	for i := 0; i < 5; i++ {
		_, err = v.EndOfTick()
		require.NoError(t, err)
	}
	assert.Equal(t, 1, v.Registry().Counts().Points)
}

func TestViewerResizeScene(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lights.Enabled = true
	v, host := newTestViewer(t, cfg)

	assert.ErrorIs(t, v.ResizeScene(), ErrEmptyRegistry)

	require.NoError(t, v.Registry().UpsertLine(MustPackID(1, false, 1), Line{Vector: mgl32.Vec3{10, 20, 40}}))
	_, err := v.ToggleLights()
	require.NoError(t, err)

	require.NoError(t, v.ResizeScene())
	assertVec(t, mgl32.Vec3{-1, -2, -4}, v.Scene().Offset)
	assertVec(t, mgl32.Vec3{12, 24, 48}, v.Scene().Size)
	assert.Equal(t, LightsBoth, v.Lights().State())
	assert.Len(t, host.liveOfKind(NodeLight), 36)

	require.NoError(t, v.ResizeScene(0, 0, 0))
	assertVec(t, mgl32.Vec3{10, 20, 40}, v.Scene().Size)
	assert.ErrorIs(t, v.ResizeScene(0.1), ErrDimensionMismatch)

	require.NoError(t, v.ResizeSceneTo([]float32{0, 0, 0}, []float32{1, 1, 1}))
	assertVec(t, mgl32.Vec3{-0.1, -0.1, -0.1}, v.RootPosition())
}

func TestViewerRescaleScene(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lights.Enabled = true
	v, _ := newTestViewer(t, cfg)
	before := v.Lights().Intensity()

	require.NoError(t, v.RescaleScene(0.4))
	assert.Equal(t, float32(0.4), v.Scene().DsFactor)
	assert.InDelta(t, 2*before, v.Lights().Intensity(), 1e-4)

	assert.Error(t, v.RescaleScene(0))
}

func TestViewerToggleCulling(t *testing.T) {
	v, _ := newTestViewer(t, nil)
	mode, err := v.ToggleFrontFaceCulling()
	require.NoError(t, err)
	assert.Equal(t, CullFront, mode)
	mode, err = v.ToggleFrontFaceCulling()
	require.NoError(t, err)
	assert.Equal(t, CullNone, mode)
}

func TestViewerStop(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Lights.Enabled = true
	v, host := newTestViewer(t, cfg)
	require.NoError(t, v.Registry().UpsertPoint(MustPackID(1, false, 1), unitPoint(mgl32.Vec3{})))
	require.NoError(t, v.Registry().UpsertVector(MustPackID(1, false, 1), Vector{Vector: mgl32.Vec3{1, 0, 0}}))

	require.NoError(t, v.Stop())
	assert.Zero(t, host.live())
	assert.Zero(t, v.Registry().Counts().Total())
}

func TestViewerReportSettings(t *testing.T) {
	v, _ := newTestViewer(t, nil)
	require.NoError(t, v.Registry().UpsertPoint(MustPackID(1, false, 1), unitPoint(mgl32.Vec3{})))
	require.NoError(t, v.Registry().SetToggle(KindLines, ScopeGeneral, false))

	var buf bytes.Buffer
	v.ReportSettings(&buf)
	out := buf.String()

	assert.Contains(t, out, "tickCounter            : 0")
	assert.Contains(t, out, "scene lights    : NOTUSED")
	assert.Contains(t, out, "scene size      : 480,220,220 microns")
	assert.Contains(t, out, "         lines  :  Y   N")
	assert.Contains(t, out, "number of points: 1")
}
