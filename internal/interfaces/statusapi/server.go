package statusapi

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/valyala/bytebufferpool"
	"github.com/valyala/fasthttp"

	"github.com/vglazkov/euro-oracle/internal/platform/logging"
	"github.com/vglazkov/euro-oracle/internal/usecase"
)

// SyncReporter exposes the last sync run's outcome.
type SyncReporter interface {
	Status() usecase.SyncStatus
}

// Server answers liveness and sync-status probes. It carries no game
// functionality; the bot talks to users over the Telegram transport.
type Server struct {
	addr    string
	service string
	version string
	sync    SyncReporter
	log     *logging.Logger
	srv     *fasthttp.Server
	started time.Time
}

func NewServer(addr, service, version string, sync SyncReporter, log *logging.Logger) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	s := &Server{
		addr:    addr,
		service: service,
		version: version,
		sync:    sync,
		log:     log,
		started: time.Now(),
	}
	s.srv = &fasthttp.Server{
		Handler:      s.handle,
		Name:         service,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	s.log.Info("status server starting", "addr", s.addr)
	return s.srv.ListenAndServe(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.ShutdownWithContext(ctx)
}

type statusPayload struct {
	Service string      `json:"service"`
	Version string      `json:"version"`
	Uptime  string      `json:"uptime"`
	Sync    syncPayload `json:"sync"`
}

type syncPayload struct {
	LastRunAt string `json:"last_run_at,omitempty"`
	LastError string `json:"last_error,omitempty"`
	Fixtures  int    `json:"fixtures"`
	Synced    int    `json:"synced"`
	Failed    int    `json:"failed"`
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	switch string(ctx.Path()) {
	case "/healthz":
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBodyString("ok")
	case "/status":
		s.handleStatus(ctx)
	default:
		ctx.SetStatusCode(fasthttp.StatusNotFound)
	}
}

func (s *Server) handleStatus(ctx *fasthttp.RequestCtx) {
	payload := statusPayload{
		Service: s.service,
		Version: s.version,
		Uptime:  time.Since(s.started).Truncate(time.Second).String(),
	}
	if s.sync != nil {
		st := s.sync.Status()
		payload.Sync = syncPayload{
			LastError: st.LastError,
			Fixtures:  st.Fixtures,
			Synced:    st.Synced,
			Failed:    st.Failed,
		}
		if !st.LastRunAt.IsZero() {
			payload.Sync.LastRunAt = st.LastRunAt.UTC().Format(time.RFC3339)
		}
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(payload); err != nil {
		s.log.Error("encode status payload", "error", err)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
		return
	}

	ctx.SetContentType("application/json; charset=utf-8")
	ctx.SetStatusCode(fasthttp.StatusOK)
	ctx.SetBody(buf.B)
}
