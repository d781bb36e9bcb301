// Package captions converts caption lists to and from the SRT subtitle
// format and builds captions from word-level transcripts.
package captions

import (
	"bufio"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"videothingy/models"
)

const timeArrow = " --> "

// ToSRT renders captions in SRT format, in the order given. Each entry is
// a 1-based index, a time range and the text, separated by a blank line.
func ToSRT(caps []models.Caption) string {
	entries := make([]string, 0, len(caps))
	for i, c := range caps {
		entries = append(entries, fmt.Sprintf("%d\n%s%s%s\n%s\n",
			i+1, FormatTimestamp(c.Start), timeArrow, FormatTimestamp(c.End), c.Text))
	}
	return strings.Join(entries, "\n")
}

// FormatTimestamp formats seconds as HH:MM:SS,mmm. Every field is floored.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	// The epsilon keeps values that were parsed from whole milliseconds
	// from flooring one millisecond low.
	total := int64(math.Floor(seconds*1000 + 1e-6))

	ms := total % 1000
	s := total / 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", s/3600, (s%3600)/60, s%60, ms)
}

// ParseTimestamp parses an HH:MM:SS,mmm timestamp into seconds.
func ParseTimestamp(ts string) (float64, error) {
	ts = strings.TrimSpace(ts)
	hms, msPart, ok := strings.Cut(ts, ",")
	if !ok {
		hms, msPart, ok = strings.Cut(ts, ".")
	}
	if !ok {
		return 0, errors.Errorf("invalid timestamp %q", ts)
	}

	parts := strings.Split(hms, ":")
	if len(parts) != 3 {
		return 0, errors.Errorf("invalid timestamp %q", ts)
	}

	var fields [4]int64
	for i, p := range append(parts, msPart) {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, errors.Errorf("invalid timestamp %q", ts)
		}
		fields[i] = n
	}

	ms := ((fields[0]*60+fields[1])*60+fields[2])*1000 + fields[3]
	return float64(ms) / 1000, nil
}

// ParseSRT reads SRT text back into captions. Caption ids are taken from
// the entry index.
func ParseSRT(text string) ([]models.Caption, error) {
	var (
		caps  []models.Caption
		block []string
	)

	flush := func() error {
		if len(block) == 0 {
			return nil
		}
		defer func() { block = block[:0] }()
		if len(block) < 2 {
			return errors.Errorf("incomplete subtitle entry %q", strings.Join(block, "\n"))
		}

		index := strings.TrimSpace(block[0])
		if _, err := strconv.Atoi(index); err != nil {
			return errors.Wrapf(err, "invalid subtitle index %q", index)
		}

		startText, endText, ok := strings.Cut(block[1], timeArrow)
		if !ok {
			return errors.Errorf("invalid time range %q", block[1])
		}
		start, err := ParseTimestamp(startText)
		if err != nil {
			return err
		}
		end, err := ParseTimestamp(endText)
		if err != nil {
			return err
		}

		caps = append(caps, models.Caption{
			ID:    index,
			Start: start,
			End:   end,
			Text:  strings.Join(block[2:], "\n"),
		})
		return nil
	}

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		block = append(block, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading subtitles")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	return caps, nil
}
