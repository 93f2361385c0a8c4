package grpcservice

import (
	"net/http"
	"strconv"

	gwruntime "github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// NewGateway returns an HTTP/JSON view of s:
//
//	GET /v1/status          daemon status
//	GET /v1/history         all entries, newest first
//	GET /v1/history/{index} raw text of one entry (0 = newest)
//	GET /healthz            liveness
//
// Errors use grpc-gateway's status mapping (NotFound → 404, ...).
func NewGateway(s *Service) (*gwruntime.ServeMux, error) {
	mux := gwruntime.NewServeMux()
	marshaler := &gwruntime.JSONPb{}

	routes := []struct {
		pattern string
		handler gwruntime.HandlerFunc
	}{
		{"/healthz", func(w http.ResponseWriter, _ *http.Request, _ map[string]string) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("ok\n"))
		}},
		{"/v1/status", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			out, err := s.Status(r.Context(), &emptypb.Empty{})
			if err != nil {
				gwruntime.HTTPError(r.Context(), mux, marshaler, w, r, err)
				return
			}
			writeJSON(w, r, mux, marshaler, out)
		}},
		{"/v1/history", func(w http.ResponseWriter, r *http.Request, _ map[string]string) {
			out, err := s.List(r.Context(), &emptypb.Empty{})
			if err != nil {
				gwruntime.HTTPError(r.Context(), mux, marshaler, w, r, err)
				return
			}
			writeJSON(w, r, mux, marshaler, out)
		}},
		{"/v1/history/{index}", func(w http.ResponseWriter, r *http.Request, params map[string]string) {
			idx, err := strconv.ParseInt(params["index"], 10, 64)
			if err != nil {
				gwruntime.HTTPError(r.Context(), mux, marshaler, w, r,
					status.Errorf(codes.InvalidArgument, "invalid index %q", params["index"]))
				return
			}
			body, err := s.Get(r.Context(), wrapperspb.Int64(idx))
			if err != nil {
				gwruntime.HTTPError(r.Context(), mux, marshaler, w, r, err)
				return
			}
			w.Header().Set("Content-Type", body.GetContentType())
			_, _ = w.Write(body.GetData())
		}},
	}
	for _, rt := range routes {
		if err := mux.HandlePath(http.MethodGet, rt.pattern, rt.handler); err != nil {
			return nil, err
		}
	}
	return mux, nil
}

func writeJSON(w http.ResponseWriter, r *http.Request, mux *gwruntime.ServeMux, m gwruntime.Marshaler, v any) {
	data, err := m.Marshal(v)
	if err != nil {
		gwruntime.HTTPError(r.Context(), mux, m, w, r, status.Error(codes.Internal, "encode response"))
		return
	}
	w.Header().Set("Content-Type", m.ContentType(v))
	_, _ = w.Write(data)
}
