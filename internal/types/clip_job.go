package types

import "context"

// Clip job status values persisted with the job record.
const (
	ClipJobStatusRunning   = 1
	ClipJobStatusSucceeded = 2
	ClipJobStatusFailed    = 3
)

// JobInput is the validated input record for one clip job, assembled by the
// conversational front-end once all fields are collected. Immutable for the
// lifetime of the job.
type JobInput struct {
	JobID       string
	ChatID      int64
	SourcePath  string
	Title       string
	Channel     string
	ClipSeconds int
	Color       string
}

// ClipWindow is one planned slice of the source timeline. Windows are gapless,
// non-overlapping and cover [0, totalDuration) exactly; only the final window
// may be shorter than the requested length.
type ClipWindow struct {
	Index  int
	Start  float64
	Length float64
}

// PartNumber is the 1-based label used in overlays and output filenames.
func (w ClipWindow) PartNumber() int {
	return w.Index + 1
}

// TextLayer is one drawtext overlay. X and Y are ffmpeg position expressions
// evaluated against the canvas (w/h) and the measured text box (text_w/text_h).
type TextLayer struct {
	Text       string
	X          string
	Y          string
	FontSize   int
	FontColor  string
	FontFile   string
	Box        bool
	BoxColor   string
	BoxBorderW int
}

// CompositionSpec is the declarative description of one clip: the source
// sub-range, the colored canvas, the scaled source placement and the text
// overlays. It carries no identity beyond the window it was built for and is
// rendered by a Transcoder.
type CompositionSpec struct {
	SourcePath string
	Start      float64
	Length     float64

	CanvasWidth  int
	CanvasHeight int
	Background   string

	ScaleWidth int
	OverlayX   string
	OverlayY   string

	Texts []TextLayer
}

// ClipArtifact is the output file produced for one window. It lives for a
// single pipeline iteration: created by the transcoder, handed to the sink
// once, then deleted.
type ClipArtifact struct {
	Path     string
	Index    int
	Produced bool
}

// Prober reports the total duration of a source file in seconds.
type Prober interface {
	Probe(ctx context.Context, sourcePath string) (float64, error)
}

// Transcoder renders a CompositionSpec to outputPath. All-or-nothing: on error
// no usable partial file remains at outputPath.
type Transcoder interface {
	Transcode(ctx context.Context, spec CompositionSpec, outputPath string) error
}

// Sink delivers a finished clip file to a chat.
type Sink interface {
	Deliver(ctx context.Context, chatID int64, filePath string) error
}

// Messenger sends progress text to a chat. Best-effort; delivery of clips does
// not depend on it.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
}
