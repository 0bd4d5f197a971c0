package api

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/zstd"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onkernel/screencap/lib/capture"
	"github.com/onkernel/screencap/lib/media"
	oapi "github.com/onkernel/screencap/lib/oapi"
	"github.com/onkernel/screencap/lib/recorder"
	"github.com/onkernel/screencap/lib/session"
	"github.com/onkernel/screencap/lib/statuslog"
)

type mockDevices struct {
	mu         sync.Mutex
	displayErr error
	lastOpts   capture.DisplayOptions
}

func (d *mockDevices) Microphone(context.Context) (*media.Stream, error) {
	return media.NewStream(media.NewTrack(media.KindAudio, "mic", media.Source{Format: "lavfi", Device: "sine"})), nil
}

func (d *mockDevices) Display(_ context.Context, opts capture.DisplayOptions) (*media.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastOpts = opts
	if d.displayErr != nil {
		return nil, d.displayErr
	}
	return media.NewStream(media.NewTrack(media.KindVideo, "display", media.Source{Format: "lavfi", Device: "testsrc"})), nil
}

// mockRecorder emits one chunk on start and closes its data channel on stop.
type mockRecorder struct {
	id        string
	params    recorder.Params
	data      chan []byte
	closeOnce sync.Once
}

func (r *mockRecorder) ID() string { return r.id }
func (r *mockRecorder) Start(context.Context) error {
	r.data <- []byte("webm-bytes")
	return nil
}
func (r *mockRecorder) Stop(context.Context) error {
	r.closeOnce.Do(func() { close(r.data) })
	return nil
}
func (r *mockRecorder) ForceStop(ctx context.Context) error { return r.Stop(ctx) }
func (r *mockRecorder) State() recorder.State               { return recorder.StateRecording }
func (r *mockRecorder) MimeType() string                    { return "video/webm;codecs=vp8,opus" }
func (r *mockRecorder) Data() <-chan []byte                 { return r.data }
func (r *mockRecorder) Err() error                          { return nil }
func (r *mockRecorder) Metadata() *recorder.RecordingMetadata {
	return &recorder.RecordingMetadata{}
}

type mockFactory struct {
	mu   sync.Mutex
	recs []*mockRecorder
}

func (f *mockFactory) create(id string, _ *media.Stream, overrides recorder.Params) (recorder.Recorder, error) {
	r := &mockRecorder{id: id, params: overrides, data: make(chan []byte, 8)}
	f.mu.Lock()
	f.recs = append(f.recs, r)
	f.mu.Unlock()
	return r, nil
}

func (f *mockFactory) last(t *testing.T) *mockRecorder {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.recs)
	return f.recs[len(f.recs)-1]
}

type testEnv struct {
	svc     *ApiService
	ctrl    *session.Controller
	devices *mockDevices
	factory *mockFactory
	status  *statuslog.Log
	server  *httptest.Server
}

func newApiServiceForTest(t *testing.T) *testEnv {
	t.Helper()
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))
	env := &testEnv{
		devices: &mockDevices{},
		factory: &mockFactory{},
		status:  statuslog.New(discard),
	}
	env.ctrl = session.NewController(session.Deps{
		Devices:   env.devices,
		Recorders: env.factory.create,
		Status:    env.status,
	})
	svc, err := New(env.ctrl, env.status)
	require.NoError(t, err)
	env.svc = svc

	r := chi.NewRouter()
	oapi.HandlerFromMux(oapi.NewStrictHandler(svc, nil), r)
	r.Get("/logs/ws", svc.HandleLogsSocket)
	env.server = httptest.NewServer(r)
	t.Cleanup(env.server.Close)
	t.Cleanup(func() { _ = svc.Shutdown(context.Background()) })
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(t.Context(), method, e.server.URL+path, rd)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (e *testEnv) waitIdle(t *testing.T) {
	t.Helper()
	s := e.ctrl.Current()
	require.NotNil(t, s)
	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	_, err := s.Wait(ctx)
	require.NotErrorIs(t, err, context.DeadlineExceeded)
}

func TestApiService_StartCapture(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		env := newApiServiceForTest(t)

		resp, err := env.svc.StartCapture(ctx, oapi.StartCaptureRequestObject{})
		require.NoError(t, err)
		require.IsType(t, oapi.StartCapture201JSONResponse{}, resp)

		st := resp.(oapi.StartCapture201JSONResponse)
		assert.Equal(t, oapi.Recording, st.State)
		assert.True(t, st.StopEnabled)
		assert.Len(t, st.Preview, 2)
		require.NotNil(t, st.Session)
		require.NotNil(t, st.Session.AudioPolicy)
		assert.Equal(t, oapi.Microphone, *st.Session.AudioPolicy)
		assert.True(t, env.devices.lastOpts.Audio, "system audio is requested by default")
	})

	t.Run("already recording", func(t *testing.T) {
		env := newApiServiceForTest(t)

		_, err := env.svc.StartCapture(ctx, oapi.StartCaptureRequestObject{})
		require.NoError(t, err)

		resp, err := env.svc.StartCapture(ctx, oapi.StartCaptureRequestObject{})
		require.NoError(t, err)
		require.IsType(t, oapi.StartCapture409JSONResponse{}, resp)
	})

	t.Run("display denied", func(t *testing.T) {
		env := newApiServiceForTest(t)
		env.devices.displayErr = capture.ErrPermissionDenied

		resp, err := env.svc.StartCapture(ctx, oapi.StartCaptureRequestObject{})
		require.NoError(t, err)
		require.IsType(t, oapi.StartCapture403JSONResponse{}, resp)
		assert.Equal(t, oapi.Idle, env.svc.captureStatus().State)
	})

	t.Run("invalid parameters", func(t *testing.T) {
		env := newApiServiceForTest(t)
		zero, huge, rel := 0, 10001, "out.webm"
		avi := oapi.StartCaptureRequestContainer("avi")

		for _, req := range []*oapi.StartCaptureRequest{
			{FrameRate: &zero},
			{MaxDurationInSeconds: &zero},
			{MaxFileSizeInMb: &huge},
			{Destination: &rel},
			{Container: &avi},
		} {
			resp, err := env.svc.StartCapture(ctx, oapi.StartCaptureRequestObject{Body: req})
			require.NoError(t, err)
			require.IsType(t, oapi.StartCapture400JSONResponse{}, resp)
		}
		assert.Nil(t, env.ctrl.Current(), "no session is created for invalid requests")
	})

	t.Run("overrides reach devices and recorder", func(t *testing.T) {
		env := newApiServiceForTest(t)
		fr, dur, mp4, audio := 24, 30, oapi.Mp4, false

		resp, err := env.svc.StartCapture(ctx, oapi.StartCaptureRequestObject{Body: &oapi.StartCaptureRequest{
			FrameRate:            &fr,
			MaxDurationInSeconds: &dur,
			Container:            &mp4,
			SystemAudio:          &audio,
		}})
		require.NoError(t, err)
		require.IsType(t, oapi.StartCapture201JSONResponse{}, resp)

		assert.False(t, env.devices.lastOpts.Audio)
		require.NotNil(t, env.devices.lastOpts.FrameRate)
		assert.Equal(t, 24, *env.devices.lastOpts.FrameRate)

		params := env.factory.last(t).params
		require.NotNil(t, params.MaxDurationInSeconds)
		assert.Equal(t, 30, *params.MaxDurationInSeconds)
		assert.Equal(t, recorder.ContainerMP4, *params.Container)
	})
}

func TestApiService_StopCapture(t *testing.T) {
	ctx := context.Background()

	t.Run("no session", func(t *testing.T) {
		env := newApiServiceForTest(t)

		resp, err := env.svc.StopCapture(ctx, oapi.StopCaptureRequestObject{})
		require.NoError(t, err)
		require.IsType(t, oapi.StopCapture200JSONResponse{}, resp)
		assert.Equal(t, "already stopped", lo.FromPtr(resp.(oapi.StopCapture200JSONResponse).Message))
	})

	t.Run("stop twice", func(t *testing.T) {
		env := newApiServiceForTest(t)
		_, err := env.svc.StartCapture(ctx, oapi.StartCaptureRequestObject{})
		require.NoError(t, err)

		resp, err := env.svc.StopCapture(ctx, oapi.StopCaptureRequestObject{})
		require.NoError(t, err)
		st := resp.(oapi.StopCapture200JSONResponse)
		assert.False(t, st.StopEnabled)
		assert.Nil(t, st.Message)

		env.waitIdle(t)
		resp, err = env.svc.StopCapture(ctx, oapi.StopCaptureRequestObject{})
		require.NoError(t, err)
		assert.Equal(t, "already stopped", lo.FromPtr(resp.(oapi.StopCapture200JSONResponse).Message))
	})

	t.Run("force", func(t *testing.T) {
		env := newApiServiceForTest(t)
		_, err := env.svc.StartCapture(ctx, oapi.StartCaptureRequestObject{})
		require.NoError(t, err)

		resp, err := env.svc.StopCapture(ctx, oapi.StopCaptureRequestObject{Body: &oapi.StopCaptureRequest{Force: lo.ToPtr(true)}})
		require.NoError(t, err)
		require.IsType(t, oapi.StopCapture200JSONResponse{}, resp)
		env.waitIdle(t)
		assert.Equal(t, oapi.Explicit, lo.FromPtr(env.svc.captureStatus().Session.StopTrigger))
	})
}

func TestApiService_HTTPRoundTrip(t *testing.T) {
	env := newApiServiceForTest(t)

	resp := env.do(t, http.MethodGet, "/capture", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	st := decode[oapi.CaptureStatus](t, resp)
	assert.Equal(t, oapi.Idle, st.State)
	assert.False(t, st.StopEnabled)
	assert.Empty(t, st.Preview)

	resp = env.do(t, http.MethodPost, "/capture/start", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	st = decode[oapi.CaptureStatus](t, resp)
	require.NotNil(t, st.Session)
	id := st.Session.Id

	// still recording
	resp = env.do(t, http.MethodGet, "/recordings/"+id, nil)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "5", resp.Header.Get("Retry-After"))

	resp = env.do(t, http.MethodPost, "/capture/stop", map[string]any{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	env.waitIdle(t)

	resp = env.do(t, http.MethodGet, "/recordings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[[]oapi.RecordingInfo](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].Id)
	assert.Equal(t, "screenrecording.webm", list[0].Filename)

	resp = env.do(t, http.MethodGet, "/recordings/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "video/webm;codecs=vp8,opus", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename=screenrecording.webm`, resp.Header.Get("Content-Disposition"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "webm-bytes", string(body))

	resp = env.do(t, http.MethodGet, "/recordings/nope", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/logs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	logs, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "ready to download as screenrecording.webm")
}

func TestApiService_ArchiveRecordings(t *testing.T) {
	env := newApiServiceForTest(t)

	resp := env.do(t, http.MethodGet, "/recordings/archive", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	ids := make([]string, 0, 2)
	for range 2 {
		resp = env.do(t, http.MethodPost, "/capture/start", nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		ids = append(ids, decode[oapi.CaptureStatus](t, resp).Session.Id)
		resp = env.do(t, http.MethodPost, "/capture/stop", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		env.waitIdle(t)
	}

	resp = env.do(t, http.MethodGet, "/recordings/archive?level=ultra", nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/recordings/archive?level=fastest", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/zstd", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename=recordings.tar.zst`, resp.Header.Get("Content-Disposition"))

	zr, err := zstd.NewReader(resp.Body)
	require.NoError(t, err)
	defer zr.Close()
	tr := tar.NewReader(zr)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(tr)
		require.NoError(t, err)
		assert.Equal(t, "webm-bytes", string(body))
		names = append(names, hdr.Name)
	}
	assert.Equal(t, []string{ids[0] + "-screenrecording.webm", ids[1] + "-screenrecording.webm"}, names)
}

func TestApiService_BadBody(t *testing.T) {
	env := newApiServiceForTest(t)

	req, err := http.NewRequestWithContext(t.Context(), http.MethodPost, env.server.URL+"/capture/start", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestApiService_LogsSocket(t *testing.T) {
	env := newApiServiceForTest(t)
	env.status.Logf("backlog line")

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/logs/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	_, msg, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "backlog line", string(msg))

	// live lines follow the backlog
	go func() {
		time.Sleep(50 * time.Millisecond)
		env.status.Logf("live line")
	}()
	for {
		_, msg, err = conn.Read(ctx)
		require.NoError(t, err)
		if string(msg) == "live line" {
			break
		}
	}
	conn.Close(websocket.StatusNormalClosure, "")
}
