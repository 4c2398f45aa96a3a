// Package bot runs the Telegram conversation that collects a clip job: the
// source video plus title, channel, clip duration and background color. A
// completed conversation hands the assembled job to a submitter for
// background execution.
package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"clipcast/internal/types"
	"clipcast/log"
	"clipcast/pkg/telegram"
)

const pollRetryDelay = 3 * time.Second

// Transport is the slice of the Bot API client the conversation needs.
type Transport interface {
	GetUpdates(ctx context.Context, offset int64, timeoutSeconds int) ([]telegram.Update, error)
	SendMessage(ctx context.Context, chatID int64, text string) error
	GetFile(ctx context.Context, fileID string) (telegram.File, error)
	DownloadFile(ctx context.Context, remotePath, destPath string) error
}

// Submitter accepts a fully assembled job for background execution.
type Submitter interface {
	SubmitClipJob(job types.JobInput) error
}

type Bot struct {
	transport   Transport
	submitter   Submitter
	uploadDir   string
	pollTimeout int

	mu       sync.Mutex
	sessions map[int64]*session
}

func New(transport Transport, submitter Submitter, uploadDir string, pollTimeout int) *Bot {
	return &Bot{
		transport:   transport,
		submitter:   submitter,
		uploadDir:   uploadDir,
		pollTimeout: pollTimeout,
		sessions:    make(map[int64]*session),
	}
}

// Poll long-polls for updates until ctx is canceled. Transport errors are
// logged and retried after a short delay.
func (b *Bot) Poll(ctx context.Context) error {
	var offset int64

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		updates, err := b.transport.GetUpdates(ctx, offset, b.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.GetLogger().Warn("failed to fetch updates", zap.Error(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update telegram.Update) {
	msg := update.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	switch strings.TrimSpace(msg.Text) {
	case "/start":
		b.startConversation(ctx, chatID)
		return
	case "/cancel":
		b.cancelConversation(ctx, chatID)
		return
	}

	b.mu.Lock()
	sess, ok := b.sessions[chatID]
	b.mu.Unlock()
	if !ok {
		b.reply(ctx, chatID, "Send /start to begin.")
		return
	}

	switch sess.state {
	case stateAwaitVideo:
		b.handleVideo(ctx, chatID, sess, msg)
	case stateAwaitTitle:
		b.handleTitle(ctx, chatID, sess, msg)
	case stateAwaitChannel:
		b.handleChannel(ctx, chatID, sess, msg)
	case stateAwaitDuration:
		b.handleDuration(ctx, chatID, sess, msg)
	case stateAwaitColor:
		b.handleColor(ctx, chatID, sess, msg)
	}
}

func (b *Bot) startConversation(ctx context.Context, chatID int64) {
	b.mu.Lock()
	if existing, ok := b.sessions[chatID]; ok {
		removeSource(existing.draft.SourcePath)
	}
	b.sessions[chatID] = &session{state: stateAwaitVideo}
	b.mu.Unlock()

	b.reply(ctx, chatID,
		"Hi! I can split your video into clips with a custom layout.\n\n"+
			"Please send me the video you want to process. "+
			"For best results on this platform, please keep videos under 5-10 minutes.")
}

func (b *Bot) cancelConversation(ctx context.Context, chatID int64) {
	b.mu.Lock()
	if sess, ok := b.sessions[chatID]; ok {
		removeSource(sess.draft.SourcePath)
		delete(b.sessions, chatID)
	}
	b.mu.Unlock()

	b.reply(ctx, chatID, "Operation cancelled. Send /start to begin again.")
}

func (b *Bot) handleVideo(ctx context.Context, chatID int64, sess *session, msg *telegram.Message) {
	if msg.Video == nil {
		b.reply(ctx, chatID, "Please send a video to continue, or /cancel to stop.")
		return
	}

	sourcePath, err := b.downloadVideo(ctx, msg.Video.FileID)
	if err != nil {
		log.GetLogger().Error("failed to download video",
			zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(ctx, chatID, "I couldn't download that video. Please try sending it again.")
		return
	}

	sess.draft.SourcePath = sourcePath
	sess.state = stateAwaitTitle
	b.reply(ctx, chatID,
		"Great! Now, what should be the main title for the clips? (e.g., 'Best of Animated')")
}

func (b *Bot) handleTitle(ctx context.Context, chatID int64, sess *session, msg *telegram.Message) {
	if msg.Text == "" {
		b.reply(ctx, chatID, "Please send the title as a text message.")
		return
	}
	sess.draft.Title = msg.Text
	sess.state = stateAwaitChannel
	b.reply(ctx, chatID, "Got it. What is your channel/username? (e.g., '@Alokchauhan1100')")
}

func (b *Bot) handleChannel(ctx context.Context, chatID int64, sess *session, msg *telegram.Message) {
	if msg.Text == "" {
		b.reply(ctx, chatID, "Please send the channel name as a text message.")
		return
	}
	sess.draft.Channel = msg.Text
	sess.state = stateAwaitDuration
	b.reply(ctx, chatID, "Perfect. What duration (in seconds) should each clip be? (e.g., 60)")
}

func (b *Bot) handleDuration(ctx context.Context, chatID int64, sess *session, msg *telegram.Message) {
	seconds, err := strconv.Atoi(strings.TrimSpace(msg.Text))
	if err != nil || seconds <= 0 {
		b.reply(ctx, chatID, "That's not a valid number. Please enter the duration in seconds.")
		return
	}
	sess.draft.ClipSeconds = seconds
	sess.state = stateAwaitColor
	b.reply(ctx, chatID,
		"Almost done! What background color would you like?\n\n"+
			"You can use a name (e.g., `orange`, `blue`) or a hex code (e.g., `#FAD9A1`).")
}

func (b *Bot) handleColor(ctx context.Context, chatID int64, sess *session, msg *telegram.Message) {
	if msg.Text == "" {
		b.reply(ctx, chatID, "Please send the color as a text message.")
		return
	}

	sess.draft.Color = msg.Text
	sess.draft.ChatID = chatID
	sess.draft.JobID = uuid.NewString()
	job := sess.draft

	b.mu.Lock()
	delete(b.sessions, chatID)
	b.mu.Unlock()

	b.reply(ctx, chatID,
		"All set! I'm starting to process your video. This might take a while.\n\n"+
			"I'll send you each clip as soon as it's ready.")

	if err := b.submitter.SubmitClipJob(job); err != nil {
		log.GetLogger().Error("failed to submit clip job",
			zap.String("job_id", job.JobID), zap.Error(err))
		removeSource(job.SourcePath)
		b.reply(ctx, chatID,
			"I'm too busy to take this job right now. Please try again in a few minutes.")
	}
}

func (b *Bot) downloadVideo(ctx context.Context, fileID string) (string, error) {
	file, err := b.transport.GetFile(ctx, fileID)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(b.uploadDir, 0o755); err != nil {
		return "", err
	}
	destPath := filepath.Join(b.uploadDir, fmt.Sprintf("%s.mp4", fileID))

	if err := b.transport.DownloadFile(ctx, file.FilePath, destPath); err != nil {
		return "", err
	}
	return destPath, nil
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.transport.SendMessage(ctx, chatID, text); err != nil {
		log.GetLogger().Warn("failed to send reply",
			zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func removeSource(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.GetLogger().Warn("failed to remove uploaded video",
			zap.String("path", path), zap.Error(err))
	}
}
