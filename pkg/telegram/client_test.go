package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewClient("test-token", "").WithBaseURL(server.URL)
	return client, server
}

func TestGetUpdates(t *testing.T) {
	var gotOffset, gotTimeout string
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/getUpdates", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotOffset = r.FormValue("offset")
		gotTimeout = r.FormValue("timeout")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"ok": true,
			"result": []map[string]interface{}{
				{
					"update_id": 101,
					"message": map[string]interface{}{
						"message_id": 1,
						"chat":       map[string]interface{}{"id": 42},
						"text":       "/start",
					},
				},
			},
		})
	}))
	defer server.Close()

	updates, err := client.GetUpdates(context.Background(), 100, 30)
	require.NoError(t, err)
	assert.Equal(t, "100", gotOffset)
	assert.Equal(t, "30", gotTimeout)
	require.Len(t, updates, 1)
	assert.Equal(t, int64(101), updates[0].UpdateID)
	require.NotNil(t, updates[0].Message)
	assert.Equal(t, int64(42), updates[0].Message.Chat.ID)
	assert.Equal(t, "/start", updates[0].Message.Text)
}

func TestSendMessage(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "42", r.FormValue("chat_id"))
		assert.Equal(t, "hello", r.FormValue("text"))
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	require.NoError(t, client.SendMessage(context.Background(), 42, "hello"))
}

func TestSendMessageAPIError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Forbidden: bot was blocked by the user"}`))
	}))
	defer server.Close()

	err := client.SendMessage(context.Background(), 42, "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot was blocked")
}

func TestSendVideoUploadsMultipart(t *testing.T) {
	videoPath := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(videoPath, []byte("fake video bytes"), 0o644))

	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendVideo", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "42", r.FormValue("chat_id"))
		assert.Equal(t, "true", r.FormValue("supports_streaming"))

		file, header, err := r.FormFile("video")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "clip.mp4", header.Filename)

		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	require.NoError(t, client.SendVideo(context.Background(), 42, videoPath))
}

func TestGetFileAndDownload(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/bottest-token/getFile":
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "file-abc", r.FormValue("file_id"))
			_, _ = w.Write([]byte(`{"ok":true,"result":{"file_id":"file-abc","file_path":"videos/file_0.mp4"}}`))
		case "/file/bottest-token/videos/file_0.mp4":
			_, _ = w.Write([]byte("video payload"))
		default:
			t.Errorf("unexpected request path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	file, err := client.GetFile(context.Background(), "file-abc")
	require.NoError(t, err)
	assert.Equal(t, "videos/file_0.mp4", file.FilePath)

	destPath := filepath.Join(t.TempDir(), "source.mp4")
	require.NoError(t, client.DownloadFile(context.Background(), file.FilePath, destPath))

	data, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, "video payload", string(data))
}
