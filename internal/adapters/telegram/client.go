/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/magicronn/jira-scg-utils/internal/config"
)

// Telegram rejects messages above this many characters.
const maxMessageLen = 4096

type Client struct {
	token   string
	apiBase string
	chatIDs []int64
	http    *http.Client
	log     zerolog.Logger
}

func NewClient(cfg config.Config, log zerolog.Logger) *Client {
	return &Client{
		token:   cfg.TelegramToken,
		apiBase: "https://api.telegram.org",
		chatIDs: cfg.TelegramChatIDs,
		http:    &http.Client{Timeout: 10 * time.Second},
		log:     log.With().Str("adapter", "telegram").Logger(),
	}
}

// Enabled reports whether a token and at least one chat are configured.
func (c *Client) Enabled() bool { return c.token != "" && len(c.chatIDs) > 0 }

// ChatIDs are the configured digest recipients.
func (c *Client) ChatIDs() []int64 { return c.chatIDs }

// SendMarkdownV2 sends a message using MarkdownV2 parse mode.
func (c *Client) SendMarkdownV2(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, chatID, text, "MarkdownV2")
}

// SendMessagePlain sends without parse_mode to avoid markdown parsing errors
func (c *Client) SendMessagePlain(ctx context.Context, chatID int64, text string) error {
	return c.send(ctx, chatID, text, "")
}

func (c *Client) send(ctx context.Context, chatID int64, text, parseMode string) error {
	if c.token == "" || chatID == 0 {
		return fmt.Errorf("telegram: missing token or chat id")
	}
	if len([]rune(text)) > maxMessageLen {
		text = string([]rune(text)[:maxMessageLen-1]) + "…"
	}
	body := map[string]any{"chat_id": chatID, "text": text, "disable_web_page_preview": true}
	if parseMode != "" {
		body["parse_mode"] = parseMode
	}
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	u := strings.TrimRight(c.apiBase, "/") + "/bot" + c.token + "/sendMessage"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		// the request URL carries the bot token
		return fmt.Errorf("telegram sendMessage: %w", redact(err, c.token))
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return fmt.Errorf("telegram sendMessage status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	c.log.Debug().Int64("chat_id", chatID).Msg("telegram message sent")
	return nil
}

type redactedError struct{ msg string }

func (e redactedError) Error() string { return e.msg }

func redact(err error, token string) error {
	if token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), token, "***")}
}
