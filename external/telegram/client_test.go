package telegram

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/stretchr/testify/require"

	"github.com/vglazkov/euro-oracle/internal/usecase"
)

type recordedCall struct {
	path string
	body []byte
}

type fakeAPI struct {
	mu      sync.Mutex
	calls   []recordedCall
	respond func(path string) string
}

func (f *fakeAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.calls = append(f.calls, recordedCall{path: r.URL.Path, body: body})
		f.mu.Unlock()
		io.WriteString(w, f.respond(r.URL.Path))
	}
}

func (f *fakeAPI) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedCall(nil), f.calls...)
}

func newTestBot(t *testing.T, srv *httptest.Server) *Bot {
	t.Helper()
	b, err := NewBot(Config{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		Token:      "123:abc",
	})
	require.NoError(t, err)
	return b
}

func TestNewBotRequiresToken(t *testing.T) {
	_, err := NewBot(Config{Token: "  "})
	require.Error(t, err)
}

func TestSendMessageBuildsMarkdownRequest(t *testing.T) {
	api := &fakeAPI{respond: func(string) string { return `{"ok":true}` }}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	b := newTestBot(t, srv)
	err := b.SendMessage(context.Background(), 42, "Привет!", nil)
	require.NoError(t, err)

	calls := api.recorded()
	require.Len(t, calls, 1)
	require.Equal(t, "/bot123:abc/sendMessage", calls[0].path)

	var sent sendMessageRequest
	require.NoError(t, sonic.Unmarshal(calls[0].body, &sent))
	require.Equal(t, int64(42), sent.ChatID)
	require.Equal(t, "Привет!", sent.Text)
	require.Equal(t, "Markdown", sent.ParseMode)
	require.Nil(t, sent.ReplyMarkup)
}

func TestSendMessageKeyboardOneButtonPerRow(t *testing.T) {
	api := &fakeAPI{respond: func(string) string { return `{"ok":true}` }}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	b := newTestBot(t, srv)
	err := b.SendMessage(context.Background(), 42, "Выберите группу", []string{"A", "B", "C"})
	require.NoError(t, err)

	var sent sendMessageRequest
	require.NoError(t, sonic.Unmarshal(api.recorded()[0].body, &sent))
	require.NotNil(t, sent.ReplyMarkup)
	require.Equal(t, [][]string{{"A"}, {"B"}, {"C"}}, sent.ReplyMarkup.Keyboard)
	require.True(t, sent.ReplyMarkup.OneTimeKeyboard)
}

func TestSendMessageSurfacesAPIRejection(t *testing.T) {
	api := &fakeAPI{respond: func(string) string {
		return `{"ok":false,"description":"Bad Request: chat not found"}`
	}}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	b := newTestBot(t, srv)
	err := b.SendMessage(context.Background(), 42, "hi", nil)
	require.ErrorContains(t, err, "chat not found")
}

func TestPollAdvancesOffsetAndStopsOnCancel(t *testing.T) {
	responses := []string{
		`{"ok":true,"result":[
			{"update_id":7,"message":{"text":"/start","chat":{"id":100},"from":{"first_name":"Вася","username":"vasya"}}},
			{"update_id":8,"message":{"text":"/help","chat":{"id":100},"from":{"first_name":"Вася","username":"vasya"}}}
		]}`,
		`{"ok":true,"result":[]}`,
	}
	api := &fakeAPI{}
	api.respond = func(string) string {
		api.mu.Lock()
		n := len(api.calls)
		api.mu.Unlock()
		if n <= len(responses) {
			return responses[n-1]
		}
		return `{"ok":true,"result":[]}`
	}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	b := newTestBot(t, srv)
	ctx, cancel := context.WithCancel(context.Background())

	var handled []usecase.IncomingMessage
	b.Poll(ctx, func(_ context.Context, in usecase.IncomingMessage) error {
		handled = append(handled, in)
		if len(handled) == 2 {
			cancel()
		}
		return nil
	})

	require.Len(t, handled, 2)
	require.Equal(t, "/start", handled[0].Text)
	require.Equal(t, int64(100), handled[0].ChatID)
	require.Equal(t, "Вася", handled[0].FirstName)
	require.Equal(t, "vasya", handled[0].UserName)

	calls := api.recorded()
	var first struct {
		Offset int64 `json:"offset"`
	}
	require.NoError(t, sonic.Unmarshal(calls[0].body, &first))
	require.Equal(t, int64(0), first.Offset)
	require.Equal(t, int64(9), b.offset)
}

func TestPollSkipsUpdatesWithoutText(t *testing.T) {
	api := &fakeAPI{}
	api.respond = func(string) string {
		api.mu.Lock()
		n := len(api.calls)
		api.mu.Unlock()
		if n == 1 {
			return `{"ok":true,"result":[
				{"update_id":1},
				{"update_id":2,"message":{"text":"","chat":{"id":5}}},
				{"update_id":3,"message":{"text":"привет","chat":{"id":5},"from":{"first_name":"Оля"}}}
			]}`
		}
		return `{"ok":true,"result":[]}`
	}
	srv := httptest.NewServer(api.handler())
	defer srv.Close()

	b := newTestBot(t, srv)
	ctx, cancel := context.WithCancel(context.Background())

	var handled []usecase.IncomingMessage
	b.Poll(ctx, func(_ context.Context, in usecase.IncomingMessage) error {
		handled = append(handled, in)
		cancel()
		return nil
	})

	require.Len(t, handled, 1)
	require.Equal(t, "привет", handled[0].Text)
	require.Equal(t, int64(4), b.offset)
}

func TestSanitizeTokenRedactsSecret(t *testing.T) {
	got := sanitizeToken(`Post "https://api.telegram.org/bot123:abc/getUpdates": timeout`, "123:abc")
	require.NotContains(t, got, "123:abc")
	require.Contains(t, got, "REDACTED")
}
