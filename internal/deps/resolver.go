// Package deps diagnoses the external tools and assets the pipeline needs at
// runtime: the ffmpeg binaries used for probing and composition, plus the
// font file rendered into every clip.
package deps

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"clipcast/config"
	"clipcast/log"
)

type DependencyTier string

const (
	DependencyTierMust     DependencyTier = "must"
	DependencyTierOptional DependencyTier = "optional"
)

type DependencyStatus string

const (
	DependencyStatusOK      DependencyStatus = "ok"
	DependencyStatusMissing DependencyStatus = "missing"
	DependencyStatusError   DependencyStatus = "error"
)

type DependencySource string

const (
	DependencySourceConfigured DependencySource = "configured"
	DependencySourceLookPath   DependencySource = "lookpath"
)

type DependencySpec struct {
	ID             string
	Name           string
	Command        string
	Tier           DependencyTier
	ConfiguredPath string
	Hint           string
}

type DependencyState struct {
	DependencySpec
	ResolvedPath string
	Status       DependencyStatus
	Source       DependencySource
	Error        string
}

type PathResolver struct {
	LookPath func(file string) (string, error)
	AbsPath  func(path string) (string, error)
	Stat     func(name string) (os.FileInfo, error)
}

func NewPathResolver() PathResolver {
	return PathResolver{
		LookPath: exec.LookPath,
		AbsPath:  filepath.Abs,
		Stat:     os.Stat,
	}
}

func (r PathResolver) Resolve(spec DependencySpec) DependencyState {
	state := DependencyState{DependencySpec: spec}
	configured := strings.TrimSpace(spec.ConfiguredPath)

	if configured != "" {
		state.Source = DependencySourceConfigured
		resolvedPath, err := r.resolveConfiguredPath(configured)
		if err == nil {
			state.Status = DependencyStatusOK
			state.ResolvedPath = resolvedPath
			return state
		}

		if absPath, absErr := r.AbsPath(configured); absErr == nil {
			state.ResolvedPath = absPath
		} else {
			state.ResolvedPath = configured
		}
		state.Error = err.Error()
		if isMissingPathError(err) {
			state.Status = DependencyStatusMissing
		} else {
			state.Status = DependencyStatusError
		}
		return state
	}

	state.Source = DependencySourceLookPath
	resolvedPath, err := r.LookPath(spec.Command)
	if err == nil {
		state.Status = DependencyStatusOK
		state.ResolvedPath = resolvedPath
		return state
	}

	state.Error = err.Error()
	if isMissingPathError(err) {
		state.Status = DependencyStatusMissing
		return state
	}
	state.Status = DependencyStatusError
	return state
}

func (r PathResolver) resolveConfiguredPath(configuredPath string) (string, error) {
	if resolvedPath, err := r.LookPath(configuredPath); err == nil {
		return resolvedPath, nil
	}

	absPath, err := r.AbsPath(configuredPath)
	if err != nil {
		return "", err
	}
	if _, err = r.Stat(absPath); err != nil {
		return "", err
	}
	return absPath, nil
}

func ResolveDependencyStates(specs []DependencySpec, resolver PathResolver) []DependencyState {
	resolved := make([]DependencyState, 0, len(specs))
	for _, spec := range specs {
		resolved = append(resolved, resolver.Resolve(spec))
	}
	return resolved
}

// BuildDependencyInventory lists everything a clip job touches outside the
// process. fontFile comes from configuration and may be empty; an empty path
// is resolved against PATH like a command, which will fail with a clear hint.
func BuildDependencyInventory(fontFile string) []DependencySpec {
	return []DependencySpec{
		{
			ID:      "ffmpeg",
			Name:    "ffmpeg",
			Command: "ffmpeg",
			Tier:    DependencyTierMust,
			Hint:    "Required for clip composition and encoding.",
		},
		{
			ID:      "ffprobe",
			Name:    "ffprobe",
			Command: "ffprobe",
			Tier:    DependencyTierMust,
			Hint:    "Required for source duration detection.",
		},
		{
			ID:             "font",
			Name:           "overlay font",
			Command:        "font",
			Tier:           DependencyTierMust,
			ConfiguredPath: fontFile,
			Hint:           "TTF font rendered into title, channel and part overlays. Set app.font_file in config.",
		},
	}
}

func ResolveDependencyInventory(fontFile string) []DependencyState {
	return ResolveDependencyStates(BuildDependencyInventory(fontFile), NewPathResolver())
}

// CheckDependency resolves the full inventory and fails when any must-have
// dependency is unavailable. The report is logged either way.
func CheckDependency() error {
	states := ResolveDependencyInventory(config.Conf.App.FontFile)
	log.GetLogger().Info(FormatDependencyReport(states))

	var missing []string
	for _, state := range states {
		if state.Tier == DependencyTierMust && state.Status != DependencyStatusOK {
			missing = append(missing, state.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required dependencies: %s", strings.Join(missing, ", "))
	}
	return nil
}

func FormatDependencyReport(states []DependencyState) string {
	if len(states) == 0 {
		return "No dependencies to diagnose."
	}

	var builder strings.Builder
	builder.WriteString("Dependency status")

	for _, state := range states {
		resolvedPath := strings.TrimSpace(state.ResolvedPath)
		if resolvedPath == "" {
			resolvedPath = "unknown"
		}

		source := strings.TrimSpace(string(state.Source))
		if source == "" {
			source = "n/a"
		}

		builder.WriteString("\n")
		builder.WriteString(fmt.Sprintf("- %s [%s]: %s | path=%s | source=%s", state.Name, strings.ToUpper(string(state.Tier)), state.Status, resolvedPath, source))
		if state.Error != "" {
			builder.WriteString("\n")
			builder.WriteString("  error: ")
			builder.WriteString(state.Error)
		}
		if state.Hint != "" {
			builder.WriteString("\n")
			builder.WriteString("  hint: ")
			builder.WriteString(state.Hint)
		}
	}

	return builder.String()
}

func isMissingPathError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, exec.ErrNotFound) {
		return true
	}

	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		if errors.Is(pathErr.Err, os.ErrNotExist) {
			return true
		}
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		if errors.Is(execErr.Err, exec.ErrNotFound) {
			return true
		}
	}

	message := strings.ToLower(err.Error())
	return strings.Contains(message, "not found") || strings.Contains(message, "cannot find")
}
