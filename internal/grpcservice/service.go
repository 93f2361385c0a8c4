// Package grpcservice exposes a running recall daemon over gRPC (and a small
// HTTP/JSON view of the same data) on the local IPC socket.
package grpcservice

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	"google.golang.org/genproto/googleapis/api/httpbody"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"go.klb.dev/recall/internal/history"
	"go.klb.dev/recall/internal/recall"
	"go.klb.dev/recall/internal/watcher"
)

// Service implements HistoryServer on top of the daemon's recall.Service.
type Service struct {
	app       *recall.Service
	watcher   *watcher.Watcher
	version   string
	startedAt time.Time
}

// New returns a Service. w may be nil when the daemon runs without a
// clipboard watcher.
func New(app *recall.Service, w *watcher.Watcher, version string) *Service {
	return &Service{app: app, watcher: w, version: version, startedAt: time.Now()}
}

// Status implements HistoryServer.Status.
func (s *Service) Status(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st := StatusInfo{
		Version:   s.version,
		Backend:   s.app.Clip.Name(),
		StartedAt: s.startedAt,
		Entries:   s.app.History.Len(ctx),
	}
	if s.watcher != nil {
		st.Watching = s.watcher.Running()
		st.PollInterval = s.watcher.Interval()
	}
	if list := s.app.List(ctx); len(list) > 0 {
		st.LastCapture = list[0].Time()
	}
	return st.encode()
}

// List implements HistoryServer.List.
func (s *Service) List(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return encodeEntries(s.app.List(ctx))
}

// Get implements HistoryServer.Get. The index is zero-based.
func (s *Service) Get(ctx context.Context, req *wrapperspb.Int64Value) (*httpbody.HttpBody, error) {
	idx := req.GetValue()
	if idx < 0 || idx > math.MaxInt32 {
		return nil, status.Errorf(codes.InvalidArgument, "index %d out of range", idx)
	}
	text, ok := s.app.History.Get(ctx, int(idx))
	if !ok {
		return nil, status.Error(codes.NotFound, recall.NoticeNoHistory)
	}
	return &httpbody.HttpBody{
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte(text),
	}, nil
}

// Add implements HistoryServer.Add.
func (s *Service) Add(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	added, err := s.app.Add(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus("add", err)
	}
	return wrapperspb.Bool(added), nil
}

// Cycle implements HistoryServer.Cycle.
func (s *Service) Cycle(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	msg, err := s.app.Cycle(ctx)
	if err != nil {
		return nil, toStatus("cycle", err)
	}
	return wrapperspb.String(msg), nil
}

// Restore implements HistoryServer.Restore. The position is one-based.
func (s *Service) Restore(ctx context.Context, req *wrapperspb.Int64Value) (*wrapperspb.StringValue, error) {
	n := req.GetValue()
	if n > math.MaxInt32 {
		return nil, status.Errorf(codes.InvalidArgument, "position %d out of range", n)
	}
	msg, err := s.app.Restore(ctx, int(n))
	if err != nil {
		return nil, toStatus("restore", err)
	}
	return wrapperspb.String(msg), nil
}

// RestoreText implements HistoryServer.RestoreText: it copies a text picked
// from a listing, so a capture in between cannot shift the choice.
func (s *Service) RestoreText(ctx context.Context, req *wrapperspb.StringValue) (*wrapperspb.StringValue, error) {
	msg, err := s.app.RestoreText(ctx, req.GetValue())
	if err != nil {
		return nil, toStatus("restore", err)
	}
	return wrapperspb.String(msg), nil
}

// Clear implements HistoryServer.Clear.
func (s *Service) Clear(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	if err := s.app.Clear(ctx); err != nil {
		return nil, toStatus("clear", err)
	}
	return &emptypb.Empty{}, nil
}

// toStatus maps recall errors onto gRPC codes. Internal failures are logged
// here and reach the client without detail.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, recall.ErrNoHistory):
		return status.Error(codes.NotFound, recall.NoticeNoHistory)
	case errors.Is(err, recall.ErrInvalidIndex):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		slog.Error("rpc failed", "op", op, "err", err)
		return status.Errorf(codes.Internal, "%s failed", op)
	}
}

// ── wire encoding ─────────────────────────────────────────────────────────

// StatusInfo is the decoded form of a Status response.
type StatusInfo struct {
	Version      string
	Backend      string
	Watching     bool
	PollInterval time.Duration
	Entries      int
	StartedAt    time.Time
	LastCapture  time.Time
}

func (st StatusInfo) encode() (*structpb.Struct, error) {
	m := map[string]any{
		"version":          st.Version,
		"backend":          st.Backend,
		"watching":         st.Watching,
		"poll_interval_ms": st.PollInterval.Milliseconds(),
		"entries":          st.Entries,
		"started_at":       st.StartedAt.UnixMilli(),
	}
	if !st.LastCapture.IsZero() {
		m["last_capture"] = st.LastCapture.UnixMilli()
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return s, nil
}

func decodeStatus(s *structpb.Struct) StatusInfo {
	f := s.GetFields()
	st := StatusInfo{
		Version:      f["version"].GetStringValue(),
		Backend:      f["backend"].GetStringValue(),
		Watching:     f["watching"].GetBoolValue(),
		PollInterval: time.Duration(f["poll_interval_ms"].GetNumberValue()) * time.Millisecond,
		Entries:      int(f["entries"].GetNumberValue()),
		StartedAt:    time.UnixMilli(int64(f["started_at"].GetNumberValue())),
	}
	if v, ok := f["last_capture"]; ok {
		st.LastCapture = time.UnixMilli(int64(v.GetNumberValue()))
	}
	return st
}

func encodeEntries(entries []history.Entry) (*structpb.Struct, error) {
	list := make([]any, len(entries))
	for i, e := range entries {
		list[i] = map[string]any{"text": e.Text, "timestamp": e.Timestamp}
	}
	s, err := structpb.NewStruct(map[string]any{"entries": list})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode history: %v", err)
	}
	return s, nil
}

func decodeEntries(s *structpb.Struct) []history.Entry {
	values := s.GetFields()["entries"].GetListValue().GetValues()
	out := make([]history.Entry, 0, len(values))
	for _, v := range values {
		f := v.GetStructValue().GetFields()
		out = append(out, history.Entry{
			Text:      f["text"].GetStringValue(),
			Timestamp: int64(f["timestamp"].GetNumberValue()),
		})
	}
	return out
}
