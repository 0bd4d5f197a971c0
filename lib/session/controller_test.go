package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onkernel/screencap/lib/capture"
	"github.com/onkernel/screencap/lib/sink"
)

type recordingPublisher struct {
	published []*sink.Artifact
}

func (p *recordingPublisher) Publish(_ context.Context, a *sink.Artifact) (string, error) {
	p.published = append(p.published, a)
	return "s3://bucket/" + a.Filename, nil
}

func TestController_OneSessionAtATime(t *testing.T) {
	h := newHarness(&fakeDevices{})
	c := NewController(h.deps())

	s, err := c.Start(t.Context(), Options{})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID())

	_, err = c.Start(t.Context(), Options{})
	require.ErrorIs(t, err, ErrSessionActive)

	st := c.Status()
	assert.Equal(t, StateRecording, st.State)
	assert.True(t, st.StopEnabled)
	assert.True(t, st.Previewing)
	require.NotNil(t, st.Session)
	assert.Equal(t, s.ID(), st.Session.ID)

	_, err = c.Stop(t.Context())
	require.NoError(t, err)
	_, err = waitDone(t, s)
	require.NoError(t, err)

	st = c.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.False(t, st.StopEnabled)
	assert.False(t, st.Previewing)

	// a finished session frees the slot
	s2, err := c.Start(t.Context(), Options{})
	require.NoError(t, err)
	assert.NotEqual(t, s.ID(), s2.ID())
	require.NoError(t, c.Shutdown(t.Context()))
	assert.Equal(t, StateIdle, s2.State())
}

func TestController_StopWithoutSession(t *testing.T) {
	c := NewController(newHarness(&fakeDevices{}).deps())

	_, err := c.Stop(t.Context())
	require.ErrorIs(t, err, ErrNoSession)
	_, err = c.ForceStop(t.Context())
	require.ErrorIs(t, err, ErrNoSession)
	require.NoError(t, c.Shutdown(t.Context()))
	assert.Equal(t, StateIdle, c.Status().State)
}

func TestController_StopIsIdempotent(t *testing.T) {
	h := newHarness(&fakeDevices{})
	c := NewController(h.deps())
	s, err := c.Start(t.Context(), Options{})
	require.NoError(t, err)

	for range 3 {
		_, err := c.Stop(t.Context())
		require.NoError(t, err)
	}
	_, err = waitDone(t, s)
	require.NoError(t, err)
	_, err = c.Stop(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, h.rec(t).stops)
}

func TestController_FailedStartFreesSlot(t *testing.T) {
	devices := &fakeDevices{displayErr: capture.ErrPermissionDenied}
	c := NewController(newHarness(devices).deps())

	_, err := c.Start(t.Context(), Options{})
	require.ErrorIs(t, err, capture.ErrPermissionDenied)
	assert.Equal(t, StateIdle, c.Status().State)

	devices.displayErr = nil
	s, err := c.Start(t.Context(), Options{})
	require.NoError(t, err)
	require.NoError(t, c.Shutdown(t.Context()))
	assert.Equal(t, StateIdle, s.State())
}

func TestController_KeepsArtifacts(t *testing.T) {
	h := newHarness(&fakeDevices{})
	pub := &recordingPublisher{}
	deps := h.deps()
	deps.Publisher = pub
	c := NewController(deps)

	ids := make([]string, 0, 2)
	for i := range 2 {
		h.mu.Lock()
		h.recs = nil
		h.mu.Unlock()

		s, err := c.Start(t.Context(), Options{})
		require.NoError(t, err)
		h.rec(t).emit(string(rune('a' + i)))
		_, err = c.Stop(t.Context())
		require.NoError(t, err)
		_, err = waitDone(t, s)
		require.NoError(t, err)
		ids = append(ids, s.ID())
	}

	artifacts := c.Artifacts()
	require.Len(t, artifacts, 2)
	assert.Equal(t, ids[0], artifacts[0].ID)
	assert.Equal(t, ids[1], artifacts[1].ID)

	a, ok := c.Artifact(ids[1])
	require.True(t, ok)
	assert.Equal(t, "b", readArtifact(t, a))
	_, ok = c.Artifact("missing")
	assert.False(t, ok)

	assert.Len(t, pub.published, 2)
	assert.Contains(t, h.status.String(), "uploaded to s3://bucket/screenrecording.webm")
}
