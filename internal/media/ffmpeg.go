// Package media drives ffmpeg for probing sources and rendering composition
// specs into delivery-ready clip files.
package media

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"

	"clipcast/internal/types"
	"clipcast/log"
	apperrors "clipcast/pkg/errors"
)

// FFmpegProber reads the container duration via ffprobe.
type FFmpegProber struct{}

func NewProber() FFmpegProber {
	return FFmpegProber{}
}

func (FFmpegProber) Probe(ctx context.Context, sourcePath string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	raw, err := ffmpeg.Probe(sourcePath)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeProbeFailed, "Source probe failed", err)
	}

	duration, err := parseFormatDuration(raw)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeProbeFailed, "Source probe failed", err)
	}
	return duration, nil
}

func parseFormatDuration(probeJSON string) (float64, error) {
	var probed struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(probeJSON), &probed); err != nil {
		return 0, fmt.Errorf("parse probe output: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(probed.Format.Duration), 64)
	if err != nil {
		return 0, fmt.Errorf("no usable duration in probe output: %w", err)
	}
	if duration <= 0 {
		return 0, fmt.Errorf("probe reported non-positive duration %f", duration)
	}
	return duration, nil
}

// FFmpegTranscoder renders a CompositionSpec with libx264/aac into a
// fragmented mp4 so clips are playable before the download finishes.
type FFmpegTranscoder struct{}

func NewTranscoder() FFmpegTranscoder {
	return FFmpegTranscoder{}
}

func (t FFmpegTranscoder) Transcode(ctx context.Context, spec types.CompositionSpec, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	input := ffmpeg.Input(spec.SourcePath, ffmpeg.KwArgs{
		"ss": spec.Start,
		"t":  spec.Length,
	})
	scaled := input.Get("v").Filter("scale", ffmpeg.Args{strconv.Itoa(spec.ScaleWidth), "-1"})
	audio := input.Get("a")

	canvas := ffmpeg.Input(canvasSource(spec), ffmpeg.KwArgs{
		"f": "lavfi",
		"t": spec.Length,
	})

	composed := canvas.Overlay(scaled, "", ffmpeg.KwArgs{
		"x": spec.OverlayX,
		"y": spec.OverlayY,
	})
	for _, layer := range spec.Texts {
		composed = composed.Filter("drawtext", ffmpeg.Args{}, drawtextKwargs(layer))
	}

	err := ffmpeg.Output([]*ffmpeg.Stream{composed, audio}, outputPath, encodeKwargs()).
		OverWriteOutput().
		ErrorToStdOut().
		Run()
	if err != nil {
		// All-or-nothing contract: never leave a partial file behind.
		if removeErr := os.Remove(outputPath); removeErr != nil && !os.IsNotExist(removeErr) {
			log.GetLogger().Warn("failed to remove partial clip output",
				zap.String("path", outputPath), zap.Error(removeErr))
		}
		return apperrors.Wrap(apperrors.CodeTranscodeFailed, "Clip transcode failed", err)
	}
	return nil
}

// canvasSource is the lavfi color generator string for the background canvas.
// The color is passed through as the user supplied it; ffmpeg rejects invalid
// color syntax at run time.
func canvasSource(spec types.CompositionSpec) string {
	return fmt.Sprintf("color=c=%s:s=%dx%d", spec.Background, spec.CanvasWidth, spec.CanvasHeight)
}

func drawtextKwargs(layer types.TextLayer) ffmpeg.KwArgs {
	kwargs := ffmpeg.KwArgs{
		"text":      layer.Text,
		"x":         layer.X,
		"y":         layer.Y,
		"fontsize":  layer.FontSize,
		"fontcolor": layer.FontColor,
		"fontfile":  layer.FontFile,
	}
	if layer.Box {
		kwargs["box"] = 1
		kwargs["boxcolor"] = layer.BoxColor
		kwargs["boxborderw"] = layer.BoxBorderW
	}
	return kwargs
}

func encodeKwargs() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"vcodec": "libx264",
		"acodec": "aac",
		"preset": "fast",
		// Fragmented mp4 keeps the moov atom streamable for progressive
		// playback while the file is still uploading.
		"movflags": "frag_keyframe+empty_moov",
	}
}
