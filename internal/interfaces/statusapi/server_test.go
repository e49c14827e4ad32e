package statusapi

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	"github.com/vglazkov/euro-oracle/internal/usecase"
)

type stubReporter struct {
	status usecase.SyncStatus
}

func (s *stubReporter) Status() usecase.SyncStatus { return s.status }

func doRequest(t *testing.T, srv *Server, path string) *fasthttp.RequestCtx {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.SetRequestURI(path)
	srv.handle(&ctx)
	return &ctx
}

func TestHealthz(t *testing.T) {
	srv := NewServer(":0", "euro-oracle", "test", nil, nil)

	ctx := doRequest(t, srv, "/healthz")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	require.Equal(t, "ok", string(ctx.Response.Body()))
}

func TestStatusReportsLastSyncRun(t *testing.T) {
	ranAt := time.Date(2024, 6, 12, 18, 0, 0, 0, time.UTC)
	reporter := &stubReporter{status: usecase.SyncStatus{
		LastRunAt: ranAt,
		Fixtures:  51,
		Synced:    50,
		Failed:    1,
	}}
	srv := NewServer(":0", "euro-oracle", "test", reporter, nil)

	ctx := doRequest(t, srv, "/status")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())

	var payload statusPayload
	require.NoError(t, sonic.Unmarshal(ctx.Response.Body(), &payload))
	require.Equal(t, "euro-oracle", payload.Service)
	require.Equal(t, "2024-06-12T18:00:00Z", payload.Sync.LastRunAt)
	require.Equal(t, 51, payload.Sync.Fixtures)
	require.Equal(t, 50, payload.Sync.Synced)
	require.Equal(t, 1, payload.Sync.Failed)
	require.Empty(t, payload.Sync.LastError)
}

func TestUnknownPath(t *testing.T) {
	srv := NewServer(":0", "euro-oracle", "test", nil, nil)

	ctx := doRequest(t, srv, "/metrics")
	require.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}
