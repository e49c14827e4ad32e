package telegram

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/vglazkov/euro-oracle/internal/platform/logging"
	"github.com/vglazkov/euro-oracle/internal/usecase"
)

const (
	defaultAPIBaseURL  = "https://api.telegram.org"
	defaultPollTimeout = 30 * time.Second
	pollRetryDelay     = 3 * time.Second
)

// Bot is a minimal Telegram Bot API client: long-poll getUpdates in,
// sendMessage out. Markdown parse mode matches the message texts the
// conversation layer produces.
type Bot struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logging.Logger

	pollTimeout time.Duration
	offset      int64
}

type Config struct {
	HTTPClient  *http.Client
	BaseURL     string
	Token       string
	PollTimeout time.Duration
	Logger      *logging.Logger
}

func NewBot(cfg Config) (*Bot, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, crerr.New("telegram bot token is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultAPIBaseURL
	}
	pollTimeout := cfg.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = defaultPollTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		// The long poll holds the connection open for pollTimeout, so
		// the client timeout must exceed it.
		httpClient = &http.Client{Timeout: pollTimeout + 10*time.Second}
	}

	return &Bot{
		httpClient:  httpClient,
		baseURL:     baseURL,
		token:       token,
		logger:      logger,
		pollTimeout: pollTimeout,
	}, nil
}

type apiEnvelope struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

type update struct {
	UpdateID int64    `json:"update_id"`
	Message  *message `json:"message"`
}

type message struct {
	Text string `json:"text"`
	Chat struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	From struct {
		FirstName string `json:"first_name"`
		UserName  string `json:"username"`
	} `json:"from"`
}

type updatesEnvelope struct {
	apiEnvelope
	Result []update `json:"result"`
}

type sendMessageRequest struct {
	ChatID      int64        `json:"chat_id"`
	Text        string       `json:"text"`
	ParseMode   string       `json:"parse_mode"`
	ReplyMarkup *replyMarkup `json:"reply_markup,omitempty"`
}

type replyMarkup struct {
	Keyboard        [][]string `json:"keyboard"`
	OneTimeKeyboard bool       `json:"one_time_keyboard"`
	ResizeKeyboard  bool       `json:"resize_keyboard"`
}

// SendMessage delivers one outgoing message. A non-empty keyboard
// becomes a one-time reply keyboard, one button per option.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string, keyboard []string) error {
	payload := sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: "Markdown",
	}
	if len(keyboard) > 0 {
		rows := make([][]string, 0, len(keyboard))
		for _, option := range keyboard {
			rows = append(rows, []string{option})
		}
		payload.ReplyMarkup = &replyMarkup{Keyboard: rows, OneTimeKeyboard: true, ResizeKeyboard: true}
	}

	var envelope apiEnvelope
	if err := b.call(ctx, "sendMessage", payload, &envelope); err != nil {
		return fmt.Errorf("send message chat_id=%d: %w", chatID, err)
	}
	return nil
}

// Poll long-polls for updates until the context is cancelled, handing
// each text message to the handler. Handler errors are logged; the
// loop never stops on them.
func (b *Bot) Poll(ctx context.Context, handler func(ctx context.Context, in usecase.IncomingMessage) error) {
	for {
		if ctx.Err() != nil {
			return
		}

		updates, err := b.getUpdates(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.WarnContext(ctx, "get updates failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= b.offset {
				b.offset = upd.UpdateID + 1
			}
			if upd.Message == nil || upd.Message.Text == "" {
				continue
			}
			in := usecase.IncomingMessage{
				ChatID:    upd.Message.Chat.ID,
				FirstName: upd.Message.From.FirstName,
				UserName:  upd.Message.From.UserName,
				Text:      upd.Message.Text,
			}
			if err := handler(ctx, in); err != nil {
				b.logger.ErrorContext(ctx, "handle message failed", "chat_id", in.ChatID, "error", err)
			}
		}
	}
}

func (b *Bot) getUpdates(ctx context.Context) ([]update, error) {
	payload := struct {
		Offset  int64 `json:"offset"`
		Timeout int   `json:"timeout"`
	}{
		Offset:  b.offset,
		Timeout: int(b.pollTimeout / time.Second),
	}

	var envelope updatesEnvelope
	if err := b.call(ctx, "getUpdates", payload, &envelope); err != nil {
		return nil, err
	}
	return envelope.Result, nil
}

type apiResponse interface {
	status() (bool, string)
}

func (e *apiEnvelope) status() (bool, string) { return e.OK, e.Description }

func (b *Bot) call(ctx context.Context, method string, payload any, target apiResponse) error {
	encoded, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", method, err)
	}

	fullURL := fmt.Sprintf("%s/bot%s/%s", b.baseURL, b.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return crerr.Newf("request %s: %s", method, sanitizeToken(err.Error(), b.token))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return crerr.Wrapf(err, "read %s response", method)
	}
	if err := sonic.Unmarshal(body, target); err != nil {
		return crerr.Wrapf(err, "decode %s response status=%d", method, resp.StatusCode)
	}
	if ok, description := target.status(); !ok {
		return crerr.Newf("%s rejected: status=%d description=%s", method, resp.StatusCode, description)
	}
	return nil
}

func sanitizeToken(value, token string) string {
	if token == "" {
		return value
	}
	return strings.ReplaceAll(value, token, "REDACTED")
}
