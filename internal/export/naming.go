package export

import (
	"fmt"
	"strings"
)

// DownloadName is the file name offered for an exported video.
func DownloadName(title, quality, format string) string {
	return fmt.Sprintf("%s_%s.%s", safeTitle(title), quality, format)
}

// CaptionsName is the file name offered for an export's subtitle file.
func CaptionsName(title string) string {
	return fmt.Sprintf("%s_captions.srt", safeTitle(title))
}

func safeTitle(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "export"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, title)
}
