package ffmpeg

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Metadata is the subset of ffprobe output the export pipeline uses.
type Metadata struct {
	Duration float64
	Width    int
	Height   int
	HasAudio bool
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
}

// Probe runs ffprobe on path.
func (p *Processor) Probe(path string) (*Metadata, error) {
	out, err := ffmpeg.Probe(path)
	if err != nil {
		return nil, errors.Wrapf(err, "ffprobe %s", path)
	}
	return parseProbe([]byte(out))
}

func parseProbe(data []byte) (*Metadata, error) {
	var probe probeOutput
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.Wrap(err, "error unmarshalling ffprobe output")
	}

	md := &Metadata{}
	var videoDuration string
	for _, s := range probe.Streams {
		switch s.CodecType {
		case "video":
			if md.Width == 0 {
				md.Width, md.Height = s.Width, s.Height
				videoDuration = s.Duration
			}
		case "audio":
			md.HasAudio = true
		}
	}

	for _, d := range []string{probe.Format.Duration, videoDuration} {
		if d == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(d), 64)
		if err == nil && f > 0 {
			md.Duration = f
			break
		}
	}
	if md.Duration == 0 {
		return nil, errors.New("could not determine video duration")
	}
	return md, nil
}
