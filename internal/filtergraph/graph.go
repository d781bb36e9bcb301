// Package filtergraph compiles an export's visual edits into a filter graph
// for the media engine. Compilation produces an ordered list of stages;
// Render turns that list into the engine's textual filter_complex syntax.
package filtergraph

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"videothingy/models"
)

// Stream labels used by compiled graphs.
const (
	InputLabel  = "0:v"
	ScaledLabel = "scaled"
	OutputLabel = "outv"
)

// Filter names emitted by the compiler.
const (
	OpScale     = "scale"
	OpDrawText  = "drawtext"
	OpSubtitles = "subtitles"
)

const (
	defaultFontSize  = 48
	defaultColor     = "#ffffff"
	backgroundAlpha  = "AA"
	backgroundBorder = 5
)

// Param is one filter argument. Params without a key are positional.
// Quoted values are wrapped in single quotes when rendered.
type Param struct {
	Key    string
	Value  string
	Quoted bool
}

// Stage is a single filter reading one labeled stream and writing another.
type Stage struct {
	Input  string
	Output string
	Op     string
	Params []Param
}

// Param returns the value of the named parameter.
func (s Stage) Param(key string) (string, bool) {
	for _, p := range s.Params {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Graph is a compiled filter graph. Output names the label to map as the
// encoded video stream.
type Graph struct {
	Stages []Stage
	Output string
}

// Count returns how many stages use the given filter.
func (g *Graph) Count(op string) int {
	n := 0
	for _, s := range g.Stages {
		if s.Op == op {
			n++
		}
	}
	return n
}

// Options control compilation.
type Options struct {
	Width    int
	Height   int
	FontFile string

	// SubtitlesFile, when set, burns the captions in that SRT file into
	// the frame before any text overlay is drawn.
	SubtitlesFile string
}

// Compile builds the filter graph for the target size and overlays.
// Overlays are drawn in slice order so later overlays paint over earlier
// ones, each stage reading the previous stage's output.
func Compile(opts Options, overlays []models.TextOverlay) *Graph {
	g := &Graph{}

	tail := len(overlays)
	if opts.SubtitlesFile != "" {
		tail++
	}

	scaleOut := ScaledLabel
	if tail == 0 {
		scaleOut = OutputLabel
	}
	g.Stages = append(g.Stages, Stage{
		Input:  InputLabel,
		Output: scaleOut,
		Op:     OpScale,
		Params: []Param{
			{Value: strconv.Itoa(opts.Width)},
			{Value: strconv.Itoa(opts.Height)},
		},
	})

	last := scaleOut
	next := func(i int) string {
		if i == tail-1 {
			return OutputLabel
		}
		return fmt.Sprintf("v%d", i)
	}

	i := 0
	if opts.SubtitlesFile != "" {
		out := next(i)
		g.Stages = append(g.Stages, Stage{
			Input:  last,
			Output: out,
			Op:     OpSubtitles,
			Params: []Param{{Key: "filename", Value: escapeText(opts.SubtitlesFile), Quoted: true}},
		})
		last = out
		i++
	}

	for _, overlay := range overlays {
		out := next(i)
		g.Stages = append(g.Stages, drawTextStage(last, out, opts.FontFile, overlay))
		last = out
		i++
	}

	g.Output = last
	return g
}

func drawTextStage(input, output, fontFile string, o models.TextOverlay) Stage {
	fontSize := o.FontSize
	if fontSize <= 0 {
		fontSize = defaultFontSize
	}
	color := o.Color
	if color == "" {
		color = defaultColor
	}

	params := []Param{
		{Key: "text", Value: escapeText(o.Text), Quoted: true},
		{Key: "fontfile", Value: escapeValue(fontFile)},
		{Key: "fontsize", Value: strconv.Itoa(fontSize)},
		{Key: "fontcolor", Value: ColorWithAlpha(color, AlphaHex(o.Opacity))},
		{Key: "x", Value: fmt.Sprintf("(w*%s)", formatNumber(o.X/100))},
		{Key: "y", Value: fmt.Sprintf("(h*%s)", formatNumber(o.Y/100))},
	}

	if o.HasBackground() {
		params = append(params,
			Param{Key: "box", Value: "1"},
			Param{Key: "boxcolor", Value: ColorWithAlpha(o.BackgroundColor, backgroundAlpha)},
			Param{Key: "boxborderw", Value: strconv.Itoa(backgroundBorder)},
		)
	}

	params = append(params, Param{
		Key:    "enable",
		Value:  fmt.Sprintf("between(t,%s,%s)", formatNumber(o.StartTime), formatNumber(o.EndTime)),
		Quoted: true,
	})

	return Stage{Input: input, Output: output, Op: OpDrawText, Params: params}
}

// AlphaHex maps an opacity percentage to a two digit hex alpha.
func AlphaHex(opacity float64) string {
	if opacity < 0 {
		opacity = 0
	}
	if opacity > 100 {
		opacity = 100
	}
	return fmt.Sprintf("%02x", int(math.Round(opacity/100*255)))
}

// ColorWithAlpha normalizes a color to the engine's 0xRRGGBB form and
// appends the alpha. Named colors use the name@0.xx form instead.
func ColorWithAlpha(color, alpha string) string {
	c := strings.TrimSpace(color)
	switch {
	case strings.HasPrefix(c, "#"):
		c = c[1:]
	case strings.HasPrefix(strings.ToLower(c), "0x"):
		c = c[2:]
	}

	if isHex(c) {
		if len(c) == 3 {
			c = string([]byte{c[0], c[0], c[1], c[1], c[2], c[2]})
		}
		return "0x" + c + alpha
	}

	a, err := strconv.ParseUint(alpha, 16, 8)
	if err != nil {
		return c
	}
	return fmt.Sprintf("%s@%s", c, formatNumber(math.Round(float64(a)/255*100)/100))
}

func isHex(s string) bool {
	if len(s) != 6 && len(s) != 3 {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// escapeText escapes a value rendered inside single quotes. A backslash
// cannot escape a quote there, so an apostrophe closes the quote, emits an
// escaped quote and reopens it.
func escapeText(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `'\''`, `:`, `\:`)
	return r.Replace(s)
}

// escapeValue escapes an unquoted value.
func escapeValue(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)
	return r.Replace(s)
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ResolveFont returns the first font file that exists on disk, or the
// fallback when none does.
func ResolveFont(fallback string, candidates ...string) string {
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return fallback
}
