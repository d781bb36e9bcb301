package models

// Caption represents one timed transcript line. Times are in seconds.
type Caption struct {
	ID    string  `json:"id"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}
