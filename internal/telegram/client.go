package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akoszegi/paintbot/internal/model"
)

// Client talks to the Telegram Bot API over plain HTTPS: getUpdates long
// polling for inbound prompts, sendMessage and sendPhoto for replies.
type Client struct {
	http        *http.Client
	baseURL     string
	token       string
	pollTimeout time.Duration
}

func NewClient(baseURL, token string, pollTimeout time.Duration) *Client {
	if pollTimeout <= 0 {
		pollTimeout = 30 * time.Second
	}
	return &Client{
		// The long poll holds the connection open for pollTimeout; give the
		// transport a little headroom beyond that.
		http: &http.Client{
			Timeout: pollTimeout + 30*time.Second,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		token:       token,
		pollTimeout: pollTimeout,
	}
}

type update struct {
	UpdateID int64    `json:"update_id"`
	Message  *message `json:"message,omitempty"`
}

type message struct {
	MessageID int64  `json:"message_id"`
	Chat      *chat  `json:"chat,omitempty"`
	From      *user  `json:"from,omitempty"`
	Text      string `json:"text,omitempty"`
}

type chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

type user struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot,omitempty"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

func displayName(u *user) string {
	if u == nil {
		return ""
	}
	first := strings.TrimSpace(u.FirstName)
	last := strings.TrimSpace(u.LastName)
	username := strings.TrimSpace(u.Username)
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	case username != "":
		return "@" + username
	default:
		return ""
	}
}

type getUpdatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

type okResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// FetchNewMessages long polls getUpdates starting at cursor and returns the
// text messages found plus the next cursor (highest update_id + 1). Updates
// without usable text, and messages sent by bots, are skipped but still
// acknowledged through the returned cursor.
func (c *Client) FetchNewMessages(ctx context.Context, cursor int64) ([]model.InboundMessage, int64, error) {
	secs := int(c.pollTimeout.Seconds())
	if secs < 1 {
		secs = 1
	}
	url := fmt.Sprintf("%s/bot%s/getUpdates?timeout=%d", c.baseURL, c.token, secs)
	if cursor > 0 {
		url += fmt.Sprintf("&offset=%d", cursor)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.pollTimeout+5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, cursor, redactURLError("getUpdates", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, cursor, redactURLError("getUpdates", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, cursor, requestError(resp.StatusCode, raw)
	}

	var out getUpdatesResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, cursor, fmt.Errorf("telegram getUpdates: failed to decode json: %w", err)
	}
	if !out.OK {
		return nil, cursor, requestError(resp.StatusCode, raw)
	}

	next := cursor
	var msgs []model.InboundMessage
	for _, u := range out.Result {
		if u.UpdateID >= next {
			next = u.UpdateID + 1
		}
		m := u.Message
		if m == nil || m.Chat == nil || strings.TrimSpace(m.Text) == "" {
			continue
		}
		if m.From != nil && m.From.IsBot {
			continue
		}
		msgs = append(msgs, model.InboundMessage{
			UpdateID: u.UpdateID,
			ChatID:   m.Chat.ID,
			Sender:   displayName(m.From),
			Text:     m.Text,
		})
	}
	return msgs, next, nil
}

type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// DeliverText sends a plain text reply to a chat.
func (c *Client) DeliverText(ctx context.Context, chatID int64, text string) error {
	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return redactURLError("sendMessage", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return redactURLError("sendMessage", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	return checkOK(resp.StatusCode, raw)
}

// DeliverImage uploads in-memory image bytes via sendPhoto, captioned with
// the prompt that produced them.
func (c *Client) DeliverImage(ctx context.Context, chatID int64, image []byte, caption string) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if err := mw.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return err
	}
	if caption != "" {
		if err := mw.WriteField("caption", caption); err != nil {
			return err
		}
	}
	part, err := mw.CreateFormFile("photo", "generated_image.png")
	if err != nil {
		return err
	}
	if _, err := part.Write(image); err != nil {
		return err
	}
	if err := mw.Close(); err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendPhoto", c.baseURL, c.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return redactURLError("sendPhoto", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return redactURLError("sendPhoto", err)
	}
	raw, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	return checkOK(resp.StatusCode, raw)
}

func checkOK(statusCode int, raw []byte) error {
	if statusCode < 200 || statusCode >= 300 {
		return requestError(statusCode, raw)
	}
	var out okResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("telegram: failed to decode json: %w", err)
	}
	if !out.OK {
		return requestError(statusCode, raw)
	}
	return nil
}

func requestError(statusCode int, raw []byte) error {
	var out okResponse
	_ = json.Unmarshal(raw, &out)
	return &RequestError{
		StatusCode:  statusCode,
		ErrorCode:   out.ErrorCode,
		Description: out.Description,
	}
}
