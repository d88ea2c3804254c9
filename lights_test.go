package simviewer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestRig(t *testing.T) (*LightRig, *Scene, *fakeHost) {
	t.Helper()
	host := newFakeHost()
	sc, err := NewScene([]float32{0, 0, 0}, []float32{480, 220, 220}, 0.2)
	require.NoError(t, err)
	return NewLightRig(host, nil), sc, host
}

func litRamps(host *fakeHost) (visible int) {
	for _, n := range host.liveOfKind(NodeLight) {
		if n.visible {
			visible++
		}
	}
	return visible
}

func TestLightRigNotConfigured(t *testing.T) {
	lr, sc, host := newTestRig(t)
	assert.Equal(t, LightsNotConfigured, lr.State())

	state, err := lr.Toggle(sc)
	require.NoError(t, err)
	assert.Equal(t, LightsNotConfigured, state)
	assert.Zero(t, host.live())
	assert.Zero(t, lr.Intensity())
	require.NoError(t, lr.Rebuild(sc))
	assert.Zero(t, host.live())
}

func TestLightRigCreate(t *testing.T) {
	lr, sc, host := newTestRig(t)
	require.NoError(t, lr.Create(sc))

	assert.Equal(t, LightsNone, lr.State())
	assert.True(t, lr.Available())
	lights := host.liveOfKind(NodeLight)
	assert.Len(t, lights, 6+6+12+2*6)
	assert.Zero(t, litRamps(host))

	assert.InDelta(t, 10, lr.Intensity(), 1e-5)
	assert.InDelta(t, 1.1*220*0.2, lights[0].light.Radius, 1e-3)

	// recreating tears the old lights down first
	require.NoError(t, lr.Create(sc))
	assert.Len(t, host.liveOfKind(NodeLight), 36)
}

func TestLightRigCycle(t *testing.T) {
	lr, sc, host := newTestRig(t)
	require.NoError(t, lr.Create(sc))

	want := []struct {
		state LightsState
		lit   int
	}{
		{LightsBoth, 12},
		{LightsFront, 6},
		{LightsRear, 6},
		{LightsCircle, 24},
		{LightsNone, 0},
		{LightsBoth, 12},
	}
	for _, w := range want {
		state, err := lr.Toggle(sc)
		require.NoError(t, err)
		assert.Equal(t, w.state, state)
		assert.Equal(t, w.lit, litRamps(host), "state %s", state)
	}
}

func TestLightRigToggleRecreatesRemovedLights(t *testing.T) {
	lr, sc, host := newTestRig(t)
	require.NoError(t, lr.Create(sc))
	require.NoError(t, lr.Remove())
	assert.Equal(t, LightsNone, lr.State())
	assert.Zero(t, host.live())

	state, err := lr.Toggle(sc)
	require.NoError(t, err)
	assert.Equal(t, LightsBoth, state)
	assert.Equal(t, 12, litRamps(host))
}

func TestLightRigRebuildKeepsState(t *testing.T) {
	lr, sc, host := newTestRig(t)
	require.NoError(t, lr.Create(sc))
	for lr.State() != LightsRear {
		_, err := lr.Toggle(sc)
		require.NoError(t, err)
	}

	require.NoError(t, sc.Resize([]float32{0, 0, 0}, []float32{10, 10, 10}))
	require.NoError(t, lr.Rebuild(sc))
	assert.Equal(t, LightsRear, lr.State())
	assert.Equal(t, 6, litRamps(host))
	assert.Len(t, host.liveOfKind(NodeLight), 36)
}

func TestLightRigIntensity(t *testing.T) {
	lr, sc, host := newTestRig(t)
	v, err := lr.IncreaseIntensity()
	require.NoError(t, err)
	assert.Zero(t, v)

	require.NoError(t, lr.Create(sc))
	v, err = lr.IncreaseIntensity()
	require.NoError(t, err)
	assert.InDelta(t, 10.2, v, 1e-4)
	for _, n := range host.liveOfKind(NodeLight) {
		assert.InDelta(t, 10.2, n.light.Intensity, 1e-4)
	}

	for i := 0; i < 100; i++ {
		v, err = lr.DecreaseIntensity()
		require.NoError(t, err)
	}
	assert.InDelta(t, 0.1, v, 1e-6)
}

func TestLightRigReposition(t *testing.T) {
	lr, sc, host := newTestRig(t)
	require.NoError(t, lr.Create(sc))
	before := lr.ramps[rampFront][0].position

	require.NoError(t, lr.Reposition(0.5))
	after := host.node(lr.ramps[rampFront][0].node).tr.Position
	assertVec(t, before.Mul(0.5), after)
	assert.InDelta(t, 5, lr.Intensity(), 1e-5)
}

func TestLightRigCreateFailureCleansUp(t *testing.T) {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	core, logs := observer.New(level)
	host := newFakeHost()
	sc, err := NewScene([]float32{0, 0, 0}, []float32{480, 220, 220}, 0.2)
	require.NoError(t, err)
	lr := NewLightRig(host, NewZapLogger(zap.New(core), level))

	// the eighth light cannot be configured, earlier ones are torn down
	host.fail("SetLight", 8)
	err = lr.Create(sc)
	assert.ErrorIs(t, err, ErrHostOperationFailed)
	assert.ErrorIs(t, err, errHostDown)
	assert.False(t, lr.Available())
	assert.Zero(t, host.live())
	assert.Zero(t, logs.FilterLevelExact(zapcore.WarnLevel).Len())

	// the broken light itself cannot be destroyed either
	host.fail("SetLight", 3)
	host.fail("DestroyNode", 1)
	err = lr.Create(sc)
	assert.ErrorIs(t, err, errHostDown)
	assert.ErrorContains(t, err, "destroy PointLight Ramp1 front #2")
	assert.Equal(t, 1, host.live())
	assert.Equal(t, 1, logs.FilterMessageSnippet("left node").Len())

	// a teardown failure during cleanup is reported too
	host.fail("SetVisible", 4)
	host.fail("DestroyNode", 2)
	err = lr.Create(sc)
	assert.ErrorIs(t, err, errHostDown)
	assert.ErrorContains(t, err, "destroy light")
	assert.Equal(t, 1, logs.FilterMessageSnippet("cleanup after failed setup").Len())
}

func TestLightsStateString(t *testing.T) {
	assert.Equal(t, "NOTUSED", LightsNotConfigured.String())
	assert.Equal(t, "CIRCLE", LightsCircle.String())
	assert.Equal(t, "LightsState(42)", LightsState(42).String())
}
