// Package compose builds the declarative composition description for one clip:
// a colored 1080x1920 canvas, the scaled source centered on it, and three text
// overlays (title, channel badge, part label).
package compose

import (
	"fmt"

	"clipcast/internal/types"
)

const (
	CanvasWidth  = 1080
	CanvasHeight = 1920

	// Source is scaled to this width; height follows the source aspect ratio.
	ScaledSourceWidth = 1000

	titleFontSize   = 70
	channelFontSize = 40
	partFontSize    = 60

	// Title sits this many pixels above visual center, part label the same
	// distance below.
	verticalTextOffset = 700

	channelBoxBorder = 10
)

// Expressions evaluated by the renderer. W/H are canvas dimensions, w/h the
// overlaid stream's; text_w/text_h the measured text box.
const (
	overlayCenteredX = "(W-w)/2"
	overlayCenteredY = "(H-h)/2"
	textCenteredX    = "(w-text_w)/2"
)

// Builder derives CompositionSpecs from clip windows. FontFile is the only
// environment-dependent input; Build is deterministic for a fixed Builder.
type Builder struct {
	FontFile string
}

// Build returns the composition for one window of job's source. The job color
// is passed through untouched; an invalid color string surfaces as a
// transcode failure, not here.
func (b Builder) Build(window types.ClipWindow, job types.JobInput) types.CompositionSpec {
	return types.CompositionSpec{
		SourcePath: job.SourcePath,
		Start:      window.Start,
		Length:     window.Length,

		CanvasWidth:  CanvasWidth,
		CanvasHeight: CanvasHeight,
		Background:   job.Color,

		ScaleWidth: ScaledSourceWidth,
		OverlayX:   overlayCenteredX,
		OverlayY:   overlayCenteredY,

		Texts: []types.TextLayer{
			b.titleLayer(job.Title),
			b.channelLayer(job.Channel),
			b.partLayer(window.PartNumber()),
		},
	}
}

func (b Builder) titleLayer(title string) types.TextLayer {
	return types.TextLayer{
		Text:      title,
		X:         textCenteredX,
		Y:         fmt.Sprintf("(h-text_h)/2 - %d", verticalTextOffset),
		FontSize:  titleFontSize,
		FontColor: "black",
		FontFile:  b.FontFile,
	}
}

// The channel badge keeps a semi-transparent box behind it so it stays legible
// on any canvas color.
func (b Builder) channelLayer(channel string) types.TextLayer {
	return types.TextLayer{
		Text:       channel,
		X:          "40",
		Y:          "40",
		FontSize:   channelFontSize,
		FontColor:  "white",
		FontFile:   b.FontFile,
		Box:        true,
		BoxColor:   "black@0.5",
		BoxBorderW: channelBoxBorder,
	}
}

func (b Builder) partLayer(partNumber int) types.TextLayer {
	return types.TextLayer{
		Text:      fmt.Sprintf("PART %d", partNumber),
		X:         textCenteredX,
		Y:         fmt.Sprintf("(h-text_h)/2 + %d", verticalTextOffset),
		FontSize:  partFontSize,
		FontColor: "black",
		FontFile:  b.FontFile,
	}
}
