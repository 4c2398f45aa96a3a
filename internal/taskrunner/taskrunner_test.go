package taskrunner

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"clipcast/internal/compose"
	"clipcast/internal/mocks"
	"clipcast/internal/pipeline"
	"clipcast/internal/service"
	"clipcast/internal/types"
	"clipcast/log"
)

func init() {
	log.InitLogger()
}

// notifyRecorder collects messenger texts across goroutines.
type notifyRecorder struct {
	mu    sync.Mutex
	texts []string
}

func (r *notifyRecorder) SendText(ctx context.Context, chatID int64, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return nil
}

func (r *notifyRecorder) sawText(want string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, text := range r.texts {
		if text == want {
			return true
		}
	}
	return false
}

func testJob(t *testing.T, jobID string) types.JobInput {
	t.Helper()
	sourcePath := filepath.Join(t.TempDir(), "source.mp4")
	require.NoError(t, os.WriteFile(sourcePath, []byte("source"), 0o644))
	return types.JobInput{
		JobID:       jobID,
		ChatID:      42,
		SourcePath:  sourcePath,
		Title:       "Best of Animated",
		Channel:     "@example",
		ClipSeconds: 60,
		Color:       "orange",
	}
}

func newTestService(t *testing.T, prober types.Prober) (*service.Service, *notifyRecorder) {
	t.Helper()

	transcoder := new(mocks.MockTranscoder)
	transcoder.On("Transcode", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	sink := new(mocks.MockSink)
	sink.On("Deliver", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	recorder := &notifyRecorder{}

	return service.NewServiceWithPipeline(pipeline.Pipeline{
		Prober:     prober,
		Builder:    compose.Builder{FontFile: "font.ttf"},
		Transcoder: transcoder,
		Sink:       sink,
		Messenger:  recorder,
		WorkDir:    t.TempDir(),
	}), recorder
}

func TestSubmitClipJobRequiresSource(t *testing.T) {
	svc, _ := newTestService(t, new(mocks.MockProber))
	runner := New(svc, DefaultConfig())
	defer runner.Close()

	err := runner.SubmitClipJob(types.JobInput{JobID: "job-1"})
	require.Error(t, err)
}

func TestSubmitAfterCloseReturnsStopped(t *testing.T) {
	svc, _ := newTestService(t, new(mocks.MockProber))
	runner := New(svc, DefaultConfig())
	runner.Close()

	err := runner.SubmitClipJob(testJob(t, "job-1"))
	assert.ErrorIs(t, err, ErrRunnerStopped)
}

func TestRunnerProcessesJob(t *testing.T) {
	prober := new(mocks.MockProber)
	prober.On("Probe", mock.Anything, mock.Anything).Return(65.0, nil)

	svc, recorder := newTestService(t, prober)
	runner := New(svc, Config{QueueSize: 4, Concurrency: 1})
	defer runner.Close()

	require.NoError(t, runner.SubmitClipJob(testJob(t, "job-1")))

	require.Eventually(t, func() bool {
		return recorder.sawText("All done! I have sent you all the clips.")
	}, 5*time.Second, 10*time.Millisecond)
}

// blockingProber parks every probe until released, keeping the single worker
// busy so queue capacity can be filled deterministically.
type blockingProber struct {
	release chan struct{}
}

func (p *blockingProber) Probe(ctx context.Context, sourcePath string) (float64, error) {
	<-p.release
	return 65.0, nil
}

func TestSubmitRejectsWhenQueueFull(t *testing.T) {
	prober := &blockingProber{release: make(chan struct{})}
	svc, _ := newTestService(t, prober)
	runner := New(svc, Config{QueueSize: 1, Concurrency: 1})
	defer func() {
		close(prober.release)
		runner.Close()
	}()

	// First job occupies the worker, second fills the queue.
	require.NoError(t, runner.SubmitClipJob(testJob(t, "job-1")))
	require.Eventually(t, func() bool {
		return runner.Pending() == 0
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, runner.SubmitClipJob(testJob(t, "job-2")))

	err := runner.SubmitClipJob(testJob(t, "job-3"))
	assert.ErrorIs(t, err, ErrQueueFull)
}
