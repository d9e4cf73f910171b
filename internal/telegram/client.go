// Package telegram is a minimal Bot API client covering the calls the bot
// needs: long polling, text and photo messages, inline keyboards and file
// downloads.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

func NewClient(baseURL, token string, pollTimeout time.Duration) *Client {
	return &Client{
		// The read timeout must outlive the long-poll window.
		httpClient: &http.Client{Timeout: pollTimeout + 10*time.Second},
		baseURL:    baseURL,
		token:      token,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result,omitempty"`
	Description string          `json:"description,omitempty"`
	ErrorCode   int             `json:"error_code,omitempty"`
}

func (c *Client) call(ctx context.Context, method string, payload, result any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/%s", c.baseURL, c.token, method), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", method, err)
	}
	defer resp.Body.Close()

	return decodeResponse(method, resp.Body, result)
}

func decodeResponse(method string, body io.Reader, result any) error {
	var api apiResponse
	if err := json.NewDecoder(body).Decode(&api); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if !api.OK {
		return fmt.Errorf("%s failed: %s (code %d)", method, api.Description, api.ErrorCode)
	}
	if result != nil {
		if err := json.Unmarshal(api.Result, result); err != nil {
			return fmt.Errorf("decode %s result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for updates past offset. The server holds the
// request open up to timeout before answering with an empty batch.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	payload := map[string]any{
		"offset":          offset,
		"timeout":         int(timeout.Seconds()),
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []Update
	if err := c.call(ctx, "getUpdates", payload, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

type SendMessageParams struct {
	ChatID      int64
	Text        string
	ReplyMarkup *InlineKeyboardMarkup
}

func (c *Client) SendMessage(ctx context.Context, params SendMessageParams) (*Message, error) {
	payload := map[string]any{
		"chat_id": params.ChatID,
		"text":    params.Text,
	}
	if params.ReplyMarkup != nil {
		payload["reply_markup"] = params.ReplyMarkup
	}
	var msg Message
	if err := c.call(ctx, "sendMessage", payload, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	payload := map[string]any{
		"chat_id":    chatID,
		"message_id": messageID,
		"text":       text,
	}
	if markup != nil {
		payload["reply_markup"] = markup
	}
	return c.call(ctx, "editMessageText", payload, nil)
}

func (c *Client) DeleteMessage(ctx context.Context, chatID, messageID int64) error {
	payload := map[string]any{"chat_id": chatID, "message_id": messageID}
	return c.call(ctx, "deleteMessage", payload, nil)
}

// AnswerCallbackQuery acknowledges a button press. With text set the
// client shows a toast; alert promotes it to a modal.
func (c *Client) AnswerCallbackQuery(ctx context.Context, callbackID, text string, alert bool) error {
	payload := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
		payload["show_alert"] = alert
	}
	return c.call(ctx, "answerCallbackQuery", payload, nil)
}

// SendPhoto uploads a local image file as a photo message.
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photoPath, caption string, markup *InlineKeyboardMarkup) (*Message, error) {
	file, err := os.Open(photoPath)
	if err != nil {
		return nil, fmt.Errorf("open photo: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return nil, fmt.Errorf("write chat_id field: %w", err)
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return nil, fmt.Errorf("write caption field: %w", err)
		}
	}
	if markup != nil {
		markupJSON, err := json.Marshal(markup)
		if err != nil {
			return nil, fmt.Errorf("marshal reply markup: %w", err)
		}
		if err := w.WriteField("reply_markup", string(markupJSON)); err != nil {
			return nil, fmt.Errorf("write reply_markup field: %w", err)
		}
	}
	part, err := w.CreateFormFile("photo", file.Name())
	if err != nil {
		return nil, fmt.Errorf("create photo part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy photo: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/sendPhoto", c.baseURL, c.token), &buf)
	if err != nil {
		return nil, fmt.Errorf("build sendPhoto request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call sendPhoto: %w", err)
	}
	defer resp.Body.Close()

	var msg Message
	if err := decodeResponse("sendPhoto", resp.Body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// SendDocument uploads a local file as a document attachment.
func (c *Client) SendDocument(ctx context.Context, chatID int64, docPath, caption string) (*Message, error) {
	file, err := os.Open(docPath)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return nil, fmt.Errorf("write chat_id field: %w", err)
	}
	if caption != "" {
		if err := w.WriteField("caption", caption); err != nil {
			return nil, fmt.Errorf("write caption field: %w", err)
		}
	}
	part, err := w.CreateFormFile("document", file.Name())
	if err != nil {
		return nil, fmt.Errorf("create document part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy document: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/bot%s/sendDocument", c.baseURL, c.token), &buf)
	if err != nil {
		return nil, fmt.Errorf("build sendDocument request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call sendDocument: %w", err)
	}
	defer resp.Body.Close()

	var msg Message
	if err := decodeResponse("sendDocument", resp.Body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// GetFile resolves a file id to its server-side path for download.
func (c *Client) GetFile(ctx context.Context, fileID string) (*File, error) {
	var f File
	if err := c.call(ctx, "getFile", map[string]any{"file_id": fileID}, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// Download fetches the file contents for a path returned by GetFile.
func (c *Client) Download(ctx context.Context, filePath string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/file/bot%s/%s", c.baseURL, c.token, filePath), nil)
	if err != nil {
		return nil, fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file body: %w", err)
	}
	return data, nil
}
