package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"time"

	"github.com/samber/lo"

	"github.com/onkernel/screencap/lib/capture"
	"github.com/onkernel/screencap/lib/logger"
	oapi "github.com/onkernel/screencap/lib/oapi"
	"github.com/onkernel/screencap/lib/recorder"
	"github.com/onkernel/screencap/lib/session"
	"github.com/onkernel/screencap/lib/sink"
	"github.com/onkernel/screencap/lib/statuslog"
	"github.com/onkernel/screencap/lib/zstdutil"
)

type ApiService struct {
	ctrl   *session.Controller
	status *statuslog.Log
}

func New(ctrl *session.Controller, status *statuslog.Log) (*ApiService, error) {
	switch {
	case ctrl == nil:
		return nil, fmt.Errorf("session controller cannot be nil")
	case status == nil:
		return nil, fmt.Errorf("status log cannot be nil")
	}
	return &ApiService{ctrl: ctrl, status: status}, nil
}

var _ oapi.StrictServerInterface = (*ApiService)(nil)

// Shutdown stops any capture in progress and waits for its recording to be saved.
func (s *ApiService) Shutdown(ctx context.Context) error {
	return s.ctrl.Shutdown(ctx)
}

const (
	maxFrameRate   = 120
	maxFileSizeMB  = 10000
	retryAfterSecs = 5
)

func (s *ApiService) StartCapture(ctx context.Context, request oapi.StartCaptureRequestObject) (oapi.StartCaptureResponseObject, error) {
	log := logger.FromContext(ctx)

	badRequest := func(msg string) (oapi.StartCaptureResponseObject, error) {
		return oapi.StartCapture400JSONResponse{BadRequestErrorJSONResponse: oapi.BadRequestErrorJSONResponse{Message: msg}}, nil
	}

	opts := session.Options{Display: capture.DisplayOptions{Audio: true}}
	if req := request.Body; req != nil {
		if req.Destination != nil && *req.Destination != "" {
			if !filepath.IsAbs(*req.Destination) {
				return badRequest("destination must be an absolute path")
			}
			opts.Destination = filepath.Clean(*req.Destination)
		}
		if req.FrameRate != nil {
			if *req.FrameRate <= 0 || *req.FrameRate > maxFrameRate {
				return badRequest(fmt.Sprintf("frame_rate must be between 1 and %d", maxFrameRate))
			}
			opts.Display.FrameRate = req.FrameRate
		}
		if req.MaxDurationInSeconds != nil {
			if *req.MaxDurationInSeconds <= 0 {
				return badRequest("max_duration_in_seconds must be greater than 0")
			}
			opts.Recorder.MaxDurationInSeconds = req.MaxDurationInSeconds
		}
		if req.MaxFileSizeInMb != nil {
			if *req.MaxFileSizeInMb <= 0 || *req.MaxFileSizeInMb > maxFileSizeMB {
				return badRequest(fmt.Sprintf("max_file_size_in_mb must be between 1 and %d", maxFileSizeMB))
			}
			opts.Recorder.MaxSizeInMB = req.MaxFileSizeInMb
		}
		if req.Container != nil {
			c, err := recorder.ParseContainer(string(*req.Container))
			if err != nil {
				return badRequest(err.Error())
			}
			opts.Recorder.Container = &c
		}
		if req.SystemAudio != nil {
			opts.Display.Audio = *req.SystemAudio
		}
	}

	sess, err := s.ctrl.Start(ctx, opts)
	switch {
	case errors.Is(err, session.ErrSessionActive):
		log.Error("attempted to start capture while one is already active")
		return oapi.StartCapture409JSONResponse{ConflictErrorJSONResponse: oapi.ConflictErrorJSONResponse{Message: "capture already in progress"}}, nil
	case errors.Is(err, capture.ErrPermissionDenied), errors.Is(err, capture.ErrUnsupportedPlatform):
		log.Error("display capture denied", "err", err, "session_id", sess.ID())
		return oapi.StartCapture403JSONResponse{Message: "display capture denied"}, nil
	case err != nil:
		log.Error("failed to start capture", "err", err, "session_id", sess.ID())
		return oapi.StartCapture500JSONResponse{InternalErrorJSONResponse: oapi.InternalErrorJSONResponse{Message: "failed to start capture"}}, nil
	}

	return oapi.StartCapture201JSONResponse(s.captureStatus()), nil
}

func (s *ApiService) StopCapture(ctx context.Context, request oapi.StopCaptureRequestObject) (oapi.StopCaptureResponseObject, error) {
	log := logger.FromContext(ctx)

	force := request.Body != nil && request.Body.Force != nil && *request.Body.Force

	current := s.ctrl.Current()
	if current == nil || current.State() != session.StateRecording {
		log.Warn("capture already stopped")
		st := s.captureStatus()
		st.Message = lo.ToPtr("already stopped")
		return oapi.StopCapture200JSONResponse(st), nil
	}

	var err error
	if force {
		log.Info("force stopping capture", "session_id", current.ID())
		_, err = s.ctrl.ForceStop(ctx)
	} else {
		log.Info("gracefully stopping capture", "session_id", current.ID())
		_, err = s.ctrl.Stop(ctx)
	}
	if err != nil {
		log.Error("error occurred while stopping capture", "err", err, "force", force)
	}

	return oapi.StopCapture200JSONResponse(s.captureStatus()), nil
}

func (s *ApiService) GetCapture(context.Context, oapi.GetCaptureRequestObject) (oapi.GetCaptureResponseObject, error) {
	return oapi.GetCapture200JSONResponse(s.captureStatus()), nil
}

func (s *ApiService) GetLogs(context.Context, oapi.GetLogsRequestObject) (oapi.GetLogsResponseObject, error) {
	return oapi.GetLogs200TextResponse(s.status.String()), nil
}

func (s *ApiService) ListRecordings(context.Context, oapi.ListRecordingsRequestObject) (oapi.ListRecordingsResponseObject, error) {
	infos := lo.Map(s.ctrl.Artifacts(), func(a *sink.Artifact, _ int) oapi.RecordingInfo {
		info := oapi.RecordingInfo{
			Id:         a.ID,
			Filename:   a.Filename,
			MimeType:   a.MimeType,
			Size:       a.Size,
			Chunks:     a.Chunks,
			StartedAt:  a.StartedAt,
			FinishedAt: a.FinishedAt,
		}
		if a.Path != "" {
			info.Path = lo.ToPtr(a.Path)
		}
		return info
	})
	return oapi.ListRecordings200JSONResponse(infos), nil
}

func (s *ApiService) DownloadRecording(ctx context.Context, request oapi.DownloadRecordingRequestObject) (oapi.DownloadRecordingResponseObject, error) {
	log := logger.FromContext(ctx)
	id := request.Id

	a, ok := s.ctrl.Artifact(id)
	if !ok {
		if current := s.ctrl.Current(); current != nil && current.ID() == id && current.State() != session.StateIdle {
			return oapi.DownloadRecording202Response{Headers: oapi.DownloadRecording202ResponseHeaders{RetryAfter: retryAfterSecs}}, nil
		}
		log.Error("attempted to download non-existent recording", "recording_id", id)
		return oapi.DownloadRecording404JSONResponse{Message: "no recording found"}, nil
	}

	body, err := a.Open()
	if err != nil {
		log.Error("failed to open recording", "err", err, "recording_id", id)
		return oapi.DownloadRecording500JSONResponse{InternalErrorJSONResponse: oapi.InternalErrorJSONResponse{Message: "failed to open recording"}}, nil
	}

	log.Info("serving recording for download", "size", a.Size, "recording_id", id)
	return oapi.DownloadRecording200VideoResponse{
		Body:          body,
		ContentType:   a.MimeType,
		ContentLength: a.Size,
		Headers: oapi.DownloadRecording200ResponseHeaders{
			ContentDisposition:   mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}),
			XRecordingStartedAt:  a.StartedAt.Format(time.RFC3339),
			XRecordingFinishedAt: a.FinishedAt.Format(time.RFC3339),
		},
	}, nil
}

// ArchiveRecordings bundles every finished recording into one tar.zst,
// compressed while it is sent.
func (s *ApiService) ArchiveRecordings(ctx context.Context, request oapi.ArchiveRecordingsRequestObject) (oapi.ArchiveRecordingsResponseObject, error) {
	log := logger.FromContext(ctx)

	var level string
	if request.Params.Level != nil {
		level = string(*request.Params.Level)
	}
	lvl, err := zstdutil.ParseLevel(level)
	if err != nil {
		return oapi.ArchiveRecordings400JSONResponse{Message: err.Error()}, nil
	}
	artifacts := s.ctrl.Artifacts()
	if len(artifacts) == 0 {
		return oapi.ArchiveRecordings404JSONResponse{Message: "no recordings to archive"}, nil
	}
	entries := lo.Map(artifacts, func(a *sink.Artifact, _ int) zstdutil.Entry {
		return zstdutil.Entry{
			Name:    a.ID + "-" + a.Filename,
			Size:    a.Size,
			ModTime: a.FinishedAt,
			Open:    a.Open,
		}
	})

	pr, pw := io.Pipe()
	go func() {
		pw.CloseWithError(zstdutil.WriteTarZstd(pw, entries, lvl))
	}()

	log.Info("serving recordings archive", "count", len(entries), "level", lvl)
	return oapi.ArchiveRecordings200ApplicationzstdResponse{
		Body: pr,
		Headers: oapi.ArchiveRecordings200ResponseHeaders{
			ContentDisposition: mime.FormatMediaType("attachment", map[string]string{"filename": "recordings.tar.zst"}),
		},
	}, nil
}

func (s *ApiService) captureStatus() oapi.CaptureStatus {
	st := s.ctrl.Status()
	out := oapi.CaptureStatus{
		State:       oapi.CaptureState(st.State),
		StopEnabled: st.StopEnabled,
		Preview:     []oapi.TrackInfo{},
	}
	for _, t := range s.ctrl.Preview().Tracks() {
		out.Preview = append(out.Preview, oapi.TrackInfo{
			Id:         t.ID(),
			Kind:       oapi.TrackInfoKind(t.Kind()),
			Label:      t.Label(),
			ReadyState: oapi.TrackInfoReadyState(t.ReadyState()),
		})
	}
	if snap := st.Session; snap != nil {
		info := &oapi.SessionInfo{
			Id:          snap.ID,
			State:       oapi.CaptureState(snap.State),
			AudioPolicy: optional(oapi.SessionInfoAudioPolicy(snap.Policy)),
			StopTrigger: optional(oapi.SessionInfoStopTrigger(snap.Trigger)),
			MimeType:    optional(snap.MimeType),
			StartedAt:   timeOrNil(snap.StartedAt),
			FinishedAt:  timeOrNil(snap.FinishedAt),
			Chunks:      snap.Chunks,
			Bytes:       snap.Bytes,
			RecordingId: optional(snap.ArtifactID),
		}
		if snap.Err != nil {
			info.Error = lo.ToPtr(snap.Err.Error())
		}
		out.Session = info
	}
	return out
}

// optional maps the zero value to an omitted field.
func optional[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}

func timeOrNil(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
