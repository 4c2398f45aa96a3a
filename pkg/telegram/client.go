// Package telegram is a minimal Telegram Bot API client covering the methods
// the bot needs: long polling, text messages, video uploads and file
// downloads.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultBaseURL = "https://api.telegram.org"

type Client struct {
	http  *resty.Client
	token string
}

func NewClient(token, proxy string) *Client {
	httpClient := resty.New().
		SetBaseURL(defaultBaseURL).
		SetTimeout(120 * time.Second)
	if proxy != "" {
		httpClient.SetProxy(proxy)
	}
	return &Client{
		http:  httpClient,
		token: token,
	}
}

// WithBaseURL points the client at a different API host. Used in tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.http.SetBaseURL(baseURL)
	return c
}

type apiResponse struct {
	Ok          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func (c *Client) methodPath(method string) string {
	return fmt.Sprintf("/bot%s/%s", c.token, method)
}

func (c *Client) call(ctx context.Context, method string, params map[string]string, out interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(params).
		Post(c.methodPath(method))
	if err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	return decodeAPIResponse(method, resp.Body(), out)
}

func decodeAPIResponse(method string, body []byte, out interface{}) error {
	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("telegram %s: decode response: %w", method, err)
	}
	if !envelope.Ok {
		return fmt.Errorf("telegram %s: api error: %s", method, envelope.Description)
	}
	if out != nil {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("telegram %s: decode result: %w", method, err)
		}
	}
	return nil
}

// GetUpdates long-polls for updates after offset. Blocks up to timeoutSeconds
// on the server side.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]Update, error) {
	var updates []Update
	err := c.call(ctx, "getUpdates", map[string]string{
		"offset":  strconv.FormatInt(offset, 10),
		"timeout": strconv.Itoa(timeoutSeconds),
	}, &updates)
	if err != nil {
		return nil, err
	}
	return updates, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	return c.call(ctx, "sendMessage", map[string]string{
		"chat_id": strconv.FormatInt(chatID, 10),
		"text":    text,
	}, nil)
}

// SendVideo uploads a local video file with streaming enabled so clients can
// start playback before the download completes.
func (c *Client) SendVideo(ctx context.Context, chatID int64, filePath string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFile("video", filePath).
		SetFormData(map[string]string{
			"chat_id":            strconv.FormatInt(chatID, 10),
			"supports_streaming": "true",
		}).
		Post(c.methodPath("sendVideo"))
	if err != nil {
		return fmt.Errorf("telegram sendVideo: %w", err)
	}
	return decodeAPIResponse("sendVideo", resp.Body(), nil)
}

// GetFile resolves a file_id to a server-side file path for downloading.
func (c *Client) GetFile(ctx context.Context, fileID string) (File, error) {
	var file File
	err := c.call(ctx, "getFile", map[string]string{"file_id": fileID}, &file)
	return file, err
}

// DownloadFile fetches a file previously resolved with GetFile into destPath.
func (c *Client) DownloadFile(ctx context.Context, remotePath, destPath string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetOutput(destPath).
		Get(fmt.Sprintf("/file/bot%s/%s", c.token, remotePath))
	if err != nil {
		return fmt.Errorf("telegram download: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("telegram download: status %s", resp.Status())
	}
	return nil
}
