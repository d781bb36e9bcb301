package ffmpeg

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	ffmpeg "github.com/u2takey/ffmpeg-go"

	"videothingy/internal/encode"
	"videothingy/internal/filtergraph"
)

// ErrEngine is wrapped by every error reported by the ffmpeg process.
var ErrEngine = errors.New("media engine failed")

// EncodeJob is one invocation of the media engine.
type EncodeJob struct {
	InputPath  string
	OutputPath string

	// Graph is applied with the params' bitrate and frame rate. A nil
	// graph only trims.
	Graph  *filtergraph.Graph
	Params encode.Params

	// TrimStart is the input seek in seconds. Duration limits how much of
	// the input is read; zero reads to the end.
	TrimStart float64
	Duration  float64
}

// Processor runs ffmpeg and ffprobe.
type Processor struct {
	log logrus.FieldLogger
}

// NewProcessor creates a Processor that logs to log.
func NewProcessor(log logrus.FieldLogger) *Processor {
	return &Processor{log: log}
}

func (p *Processor) stream(job EncodeJob) *ffmpeg.Stream {
	inputKwargs := ffmpeg.KwArgs{}
	if job.TrimStart > 0 {
		inputKwargs["ss"] = seconds(job.TrimStart)
	}
	if job.Duration > 0 {
		inputKwargs["t"] = seconds(job.Duration)
	}

	var outputKwargs ffmpeg.KwArgs
	if job.Graph != nil {
		outputKwargs = ffmpeg.KwArgs{
			"filter_complex": job.Graph.Render(),
			// The trailing ? keeps sources without audio from failing.
			"map": []string{job.Graph.MapLabel(), "0:a?"},
			"b:v": job.Params.Bitrate(),
			"r":   strconv.Itoa(job.Params.FrameRate),
		}
	} else {
		outputKwargs = ffmpeg.KwArgs{
			"map": []string{"0:v", "0:a?"},
		}
	}

	return ffmpeg.Input(job.InputPath, inputKwargs).
		Output(job.OutputPath, outputKwargs).
		OverWriteOutput()
}

// Args returns the ffmpeg command line for job, without the binary name.
func (p *Processor) Args(job EncodeJob) []string {
	return p.stream(job).GetArgs()
}

// Encode runs ffmpeg for job and blocks until it exits. There is no way to
// cancel a running encode.
func (p *Processor) Encode(job EncodeJob) error {
	log := p.log.WithField("output", job.OutputPath)
	stream := p.stream(job)
	log.WithField("command", "ffmpeg "+strings.Join(stream.GetArgs(), " ")).Info("Spawned ffmpeg")

	progress := newProgressWriter(job.Duration, log)
	if err := stream.WithErrorOutput(progress).Run(); err != nil {
		msg := progress.LastLine()
		if msg == "" {
			msg = err.Error()
		}
		return errors.Wrapf(ErrEngine, "%s (%v)", msg, err)
	}

	log.Info("Processing finished successfully")
	return nil
}

func seconds(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
