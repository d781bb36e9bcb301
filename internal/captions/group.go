package captions

import (
	"fmt"
	"strings"

	"videothingy/models"
)

// WordsPerCaption is how many transcript words go into one caption.
const WordsPerCaption = 8

// GroupWords chunks transcript words into captions of at most size words.
// A caption starts at its first word and ends at its last; word times are
// converted from milliseconds to seconds.
func GroupWords(words []models.TranscriptWord, size int) []models.Caption {
	if size <= 0 {
		size = WordsPerCaption
	}

	caps := make([]models.Caption, 0, (len(words)+size-1)/size)
	for i := 0; i < len(words); i += size {
		end := i + size
		if end > len(words) {
			end = len(words)
		}
		group := words[i:end]

		texts := make([]string, len(group))
		for j, w := range group {
			texts[j] = w.Text
		}

		caps = append(caps, models.Caption{
			ID:    fmt.Sprintf("cap_%d", i/size),
			Start: float64(group[0].Start) / 1000,
			End:   float64(group[len(group)-1].End) / 1000,
			Text:  strings.Join(texts, " "),
		})
	}
	return caps
}
