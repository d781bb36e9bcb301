package models

// TransparentBackground is the background value that disables the text box.
const TransparentBackground = "transparent"

// TextOverlay is one timed, positioned text annotation burned into the export.
// X and Y are percentages of the frame; StartTime and EndTime are seconds on
// the exported (post-trim) timeline.
type TextOverlay struct {
	ID              string  `json:"id,omitempty"`
	Text            string  `json:"text" validate:"required"`
	X               float64 `json:"x" validate:"gte=0,lte=100"`
	Y               float64 `json:"y" validate:"gte=0,lte=100"`
	FontSize        int     `json:"fontSize" validate:"gte=0"`
	FontFamily      string  `json:"fontFamily,omitempty"`
	Color           string  `json:"color,omitempty"`
	Bold            bool    `json:"bold"`
	Italic          bool    `json:"italic"`
	Underline       bool    `json:"underline"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	Opacity         float64 `json:"opacity" validate:"gte=0,lte=100"`
	StartTime       float64 `json:"startTime" validate:"gte=0"`
	EndTime         float64 `json:"endTime" validate:"gtefield=StartTime"`
	Rotation        float64 `json:"rotation" validate:"gte=0,lt=360"`
	Scale           float64 `json:"scale" validate:"gt=0"`
}

// HasBackground reports whether a background box should be drawn.
func (o TextOverlay) HasBackground() bool {
	return o.BackgroundColor != "" && o.BackgroundColor != TransparentBackground
}
