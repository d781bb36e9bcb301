// Package encode resolves the concrete encoder settings for an export and
// decides whether an export needs the media engine at all.
package encode

import (
	"fmt"

	"golang.org/x/exp/slices"

	"videothingy/models"
)

// FrameRate is the output frame rate of every re-encoded export.
const FrameRate = 30

// Params are the concrete output settings for one quality tier.
type Params struct {
	Quality     string
	Width       int
	Height      int
	BitrateKbps int
	FrameRate   int
}

// Bitrate returns the bitrate in the engine's "<n>k" notation.
func (p Params) Bitrate() string {
	return fmt.Sprintf("%dk", p.BitrateKbps)
}

var qualityTable = map[string]Params{
	models.Quality1080p: {Quality: models.Quality1080p, Width: 1920, Height: 1080, BitrateKbps: 5000, FrameRate: FrameRate},
	models.Quality720p:  {Quality: models.Quality720p, Width: 1280, Height: 720, BitrateKbps: 3000, FrameRate: FrameRate},
	models.Quality480p:  {Quality: models.Quality480p, Width: 854, Height: 480, BitrateKbps: 1500, FrameRate: FrameRate},
}

// DefaultQuality is used for any tier not in the table.
const DefaultQuality = models.Quality720p

// ForQuality looks up a quality tier. Unknown tiers resolve to 720p.
func ForQuality(quality string) Params {
	if p, ok := qualityTable[quality]; ok {
		return p
	}
	return qualityTable[DefaultQuality]
}

// SupportedQualities returns the known tiers, highest resolution first.
func SupportedQualities() []string {
	names := make([]string, 0, len(qualityTable))
	for name := range qualityTable {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return qualityTable[b].Height - qualityTable[a].Height
	})
	return names
}

// SupportedFormats lists the container formats an export can produce.
func SupportedFormats() []string {
	return []string{models.FormatMP4, models.FormatMOV, models.FormatWebM}
}

// IsSupportedFormat reports whether format is one of SupportedFormats.
func IsSupportedFormat(format string) bool {
	return slices.Contains(SupportedFormats(), format)
}

// Trim is a requested trim window in source seconds. End is nil when the
// export runs to the end of the source.
type Trim struct {
	Start float64
	End   *float64
}

// NeedsProcessing reports whether the export has to be re-encoded. When it
// returns false the source file is already the exact result.
func NeedsProcessing(overlayCount int, trim Trim, sourceDuration float64) bool {
	if overlayCount > 0 {
		return true
	}
	if trim.Start > 0 {
		return true
	}
	return trim.End != nil && *trim.End < sourceDuration
}

// Plan is the resolved encoding plan for one export.
type Plan struct {
	Params          Params
	NeedsProcessing bool

	// TrimStart is the input seek offset in seconds; zero means no seek.
	TrimStart float64
	// TrimEnd is the effective end of the export in source seconds.
	TrimEnd float64
	// TrimApplied is true when the output is shorter than the source.
	TrimApplied bool
}

// Duration returns the length of the exported clip in seconds.
func (p Plan) Duration() float64 {
	return p.TrimEnd - p.TrimStart
}

// Resolve builds the plan for a request against a source of the given
// duration. A missing trim end is taken to be the end of the source.
func Resolve(quality string, overlayCount int, trim Trim, sourceDuration float64) Plan {
	end := sourceDuration
	if trim.End != nil {
		end = *trim.End
	}
	start := trim.Start
	if start < 0 {
		start = 0
	}

	return Plan{
		Params:          ForQuality(quality),
		NeedsProcessing: NeedsProcessing(overlayCount, trim, sourceDuration),
		TrimStart:       start,
		TrimEnd:         end,
		TrimApplied:     start > 0 || end < sourceDuration,
	}
}
