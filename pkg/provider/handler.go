package provider

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/getmockd/contractmock/pkg/codec"
	"github.com/getmockd/contractmock/pkg/httputil"
	"github.com/getmockd/contractmock/pkg/metrics"
	"github.com/getmockd/contractmock/pkg/model"
)

// BootcheckHeader marks the readiness probe sent by test harnesses.
const BootcheckHeader = "X-Pact-Bootcheck"

// Pipeline stages, used as fault metric labels.
const (
	stageDecode   = "decode"
	stageGenerate = "generate"
	stageRespond  = "respond"
)

// Handler is the per-request interception pipeline.
type Handler struct {
	gen         model.Generator
	log         *slog.Logger
	metrics     *metrics.Metrics
	maxBodySize int64
}

// statusRecorder remembers whether the response was started.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.status = http.StatusOK
		w.wroteHeader = true
	}
	return w.ResponseWriter.Write(b)
}

// Flush implements http.Flusher if the underlying ResponseWriter supports it.
func (w *statusRecorder) Flush() {
	if flusher, ok := w.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func isBootcheck(r *http.Request) bool {
	if r.Method != http.MethodOptions {
		return false
	}
	_, ok := r.Header[http.CanonicalHeaderKey(BootcheckHeader)]
	return ok
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	if isBootcheck(r) {
		rec.Header().Set(BootcheckHeader, "true")
		rec.WriteHeader(http.StatusOK)
		h.metrics.ObserveRequest(r.Method, metrics.OutcomeProbe, http.StatusOK, time.Since(start))
		return
	}

	log := h.log.With("requestId", uuid.NewString())
	outcome := metrics.OutcomeResponse
	if stage, err := h.serve(r.Context(), rec, r, log); err != nil {
		outcome = metrics.OutcomeFault
		h.metrics.IncFault(stage)
		if rec.wroteHeader {
			log.Error("failed to write response", "method", r.Method, "path", r.URL.Path, "error", err)
		} else {
			log.Error("failed to generate response", "method", r.Method, "path", r.URL.Path, "stage", stage, "error", err)
			httputil.WriteFault(rec, err)
		}
	}
	h.metrics.ObserveRequest(r.Method, outcome, rec.status, time.Since(start))
}

func (h *Handler) serve(ctx context.Context, w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, error) {
	if h.maxBodySize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	}

	req, err := codec.ToRequest(r)
	if err != nil {
		return stageDecode, err
	}
	log.Debug("received request",
		"method", req.Method,
		"path", req.Path,
		"contentType", req.Body.ContentType,
		"bodySize", humanize.Bytes(uint64(len(req.Body.Content))))

	resp, err := h.generate(ctx, req)
	if err != nil {
		return stageGenerate, err
	}

	if err := codec.WriteResponse(w, resp); err != nil {
		return stageRespond, err
	}
	log.Debug("generated response",
		"status", resp.Status,
		"bodySize", humanize.Bytes(uint64(len(resp.Body.Content))))
	return "", nil
}

// generate calls the generator, turning a panic into an error so it
// surfaces as a fault response.
func (h *Handler) generate(ctx context.Context, req *model.Request) (resp *model.Response, err error) {
	defer func() {
		if v := recover(); v != nil {
			if v == http.ErrAbortHandler { //nolint:errorlint // sentinel panic value
				panic(v)
			}
			if e, ok := v.(error); ok {
				err = fmt.Errorf("panic: %w", e)
				return
			}
			err = fmt.Errorf("panic: %v", v)
		}
	}()
	resp, err = h.gen.Generate(ctx, req)
	if err == nil && resp == nil {
		err = codec.ErrNilResponse
	}
	return resp, err
}
