package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipcast/internal/compose"
	"clipcast/internal/types"
	"clipcast/log"
	apperrors "clipcast/pkg/errors"
)

func init() {
	log.InitLogger()
}

type fakeProber struct {
	duration float64
	err      error
}

func (p fakeProber) Probe(ctx context.Context, sourcePath string) (float64, error) {
	return p.duration, p.err
}

// fakeTranscoder writes a placeholder file for every part except those listed
// in failParts.
type fakeTranscoder struct {
	failParts map[int]error
	calls     []int
}

func (t *fakeTranscoder) Transcode(ctx context.Context, spec types.CompositionSpec, outputPath string) error {
	part := partFromSpec(spec)
	t.calls = append(t.calls, part)
	if err, ok := t.failParts[part]; ok {
		return err
	}
	return os.WriteFile(outputPath, []byte("clip"), 0o644)
}

// partFromSpec recovers the part number from the PART overlay text.
func partFromSpec(spec types.CompositionSpec) int {
	var part int
	for _, layer := range spec.Texts {
		if n, err := fmt.Sscanf(layer.Text, "PART %d", &part); err == nil && n == 1 {
			return part
		}
	}
	return -1
}

func partFromFileName(name string) int {
	var part int
	if n, _ := fmt.Sscanf(name, "part_%d_", &part); n == 1 {
		return part
	}
	return -1
}

type fakeSink struct {
	failParts map[int]error
	delivered []string
}

func (s *fakeSink) Deliver(ctx context.Context, chatID int64, filePath string) error {
	part := partFromFileName(filepath.Base(filePath))
	if err, ok := s.failParts[part]; ok {
		return err
	}
	s.delivered = append(s.delivered, filepath.Base(filePath))
	return nil
}

type recordingMessenger struct {
	texts []string
}

func (m *recordingMessenger) SendText(ctx context.Context, chatID int64, text string) error {
	m.texts = append(m.texts, text)
	return nil
}

func newTestJob(t *testing.T) (types.JobInput, string) {
	t.Helper()
	workDir := t.TempDir()

	sourcePath := filepath.Join(workDir, "source.mp4")
	require.NoError(t, os.WriteFile(sourcePath, []byte("video"), 0o644))

	return types.JobInput{
		JobID:       "job-abc",
		ChatID:      7,
		SourcePath:  sourcePath,
		Title:       "Best of Animated",
		Channel:     "@chan",
		ClipSeconds: 60,
		Color:       "orange",
	}, workDir
}

func newTestPipeline(workDir string, prober types.Prober, transcoder types.Transcoder, sink types.Sink, messenger types.Messenger) Pipeline {
	return Pipeline{
		Prober:     prober,
		Builder:    compose.Builder{FontFile: "fonts/LiberationSans-Regular.ttf"},
		Transcoder: transcoder,
		Sink:       sink,
		Messenger:  messenger,
		WorkDir:    workDir,
	}
}

func TestRunDeliversAllClipsInOrder(t *testing.T) {
	job, workDir := newTestJob(t)
	transcoder := &fakeTranscoder{}
	sink := &fakeSink{}
	messenger := &recordingMessenger{}

	p := newTestPipeline(workDir, fakeProber{duration: 125}, transcoder, sink, messenger)
	result := p.Run(context.Background(), job)

	require.NoError(t, result.Err)
	assert.Equal(t, 3, result.TotalClips)
	assert.Equal(t, 3, result.Delivered)

	assert.Equal(t, []string{
		"part_1_job-abc.mp4",
		"part_2_job-abc.mp4",
		"part_3_job-abc.mp4",
	}, sink.delivered)
	assert.Equal(t, []int{1, 2, 3}, transcoder.calls)

	// Artifacts never outlive their loop iteration.
	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	// Source removed by cleanup.
	_, err = os.Stat(job.SourcePath)
	assert.True(t, os.IsNotExist(err))

	require.NotEmpty(t, messenger.texts)
	assert.Contains(t, messenger.texts[0], "3 clips")
}

func TestRunAbortsRemainingOnTranscodeFailure(t *testing.T) {
	job, workDir := newTestJob(t)
	transcoder := &fakeTranscoder{
		failParts: map[int]error{2: errors.New("encoder blew up")},
	}
	sink := &fakeSink{}

	p := newTestPipeline(workDir, fakeProber{duration: 170}, transcoder, sink, nil)
	result := p.Run(context.Background(), job)

	require.Error(t, result.Err)
	assert.True(t, apperrors.Is(result.Err, apperrors.CodeTranscodeFailed))

	// Part 1 delivered, part 2 failed, part 3 never attempted.
	assert.Equal(t, []string{"part_1_job-abc.mp4"}, sink.delivered)
	assert.Equal(t, []int{1, 2}, transcoder.calls)
	assert.Equal(t, 1, result.Delivered)
	assert.Equal(t, 3, result.TotalClips)

	// Source still removed.
	_, err := os.Stat(job.SourcePath)
	assert.True(t, os.IsNotExist(err))
}

func TestRunTreatsSinkFailureLikeTranscodeFailure(t *testing.T) {
	job, workDir := newTestJob(t)
	transcoder := &fakeTranscoder{}
	sink := &fakeSink{
		failParts: map[int]error{2: errors.New("chat rejected upload")},
	}

	p := newTestPipeline(workDir, fakeProber{duration: 170}, transcoder, sink, nil)
	result := p.Run(context.Background(), job)

	require.Error(t, result.Err)
	assert.True(t, apperrors.Is(result.Err, apperrors.CodeDeliveryFailed))
	assert.Equal(t, []string{"part_1_job-abc.mp4"}, sink.delivered)
	assert.Equal(t, []int{1, 2}, transcoder.calls)

	// The failed part's artifact was still removed.
	entries, err := os.ReadDir(workDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunProbeFailureSkipsClipWorkButCleansUp(t *testing.T) {
	job, workDir := newTestJob(t)
	transcoder := &fakeTranscoder{}
	sink := &fakeSink{}

	p := newTestPipeline(workDir, fakeProber{err: errors.New("corrupt source")}, transcoder, sink, nil)
	result := p.Run(context.Background(), job)

	require.Error(t, result.Err)
	assert.True(t, apperrors.Is(result.Err, apperrors.CodeProbeFailed))
	assert.Empty(t, transcoder.calls)
	assert.Empty(t, sink.delivered)

	_, err := os.Stat(job.SourcePath)
	assert.True(t, os.IsNotExist(err))
}

func TestRunHonorsCancellationBetweenClips(t *testing.T) {
	job, workDir := newTestJob(t)

	ctx, cancel := context.WithCancel(context.Background())
	sink := &fakeSink{}
	transcoder := &fakeTranscoder{}

	cancelingSink := sinkFunc(func(c context.Context, chatID int64, filePath string) error {
		cancel()
		return sink.Deliver(c, chatID, filePath)
	})

	p := newTestPipeline(workDir, fakeProber{duration: 170}, transcoder, cancelingSink, nil)
	result := p.Run(ctx, job)

	require.Error(t, result.Err)
	assert.ErrorIs(t, result.Err, context.Canceled)
	// The clip in flight finished; nothing new was started.
	assert.Equal(t, []int{1}, transcoder.calls)
	assert.Equal(t, 1, result.Delivered)
}

type sinkFunc func(ctx context.Context, chatID int64, filePath string) error

func (f sinkFunc) Deliver(ctx context.Context, chatID int64, filePath string) error {
	return f(ctx, chatID, filePath)
}

func TestOutputFileName(t *testing.T) {
	assert.Equal(t, "part_3_job-9.mp4", OutputFileName("job-9", 3))
}

func TestCleanupIdempotent(t *testing.T) {
	dir := t.TempDir()
	sourcePath := filepath.Join(dir, "source.mp4")
	require.NoError(t, os.WriteFile(sourcePath, []byte("video"), 0o644))

	job := types.JobInput{JobID: "job-1", SourcePath: sourcePath}

	Cleanup(job)
	_, err := os.Stat(sourcePath)
	assert.True(t, os.IsNotExist(err))

	// Second call must not fail or panic.
	Cleanup(job)
}

func TestCleanupIgnoresEmptyPath(t *testing.T) {
	Cleanup(types.JobInput{JobID: "job-1"})
}
