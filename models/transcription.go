package models

// TranscriptWord is one word returned by the transcription service.
// Start and End are milliseconds.
type TranscriptWord struct {
	Text  string `json:"text"`
	Start int64  `json:"start"`
	End   int64  `json:"end"`
}

// Transcript is the transcription service's view of a job.
type Transcript struct {
	ID     string           `json:"id"`
	Status string           `json:"status"`
	Error  string           `json:"error,omitempty"`
	Words  []TranscriptWord `json:"words,omitempty"`
}

// Transcript statuses reported by the transcription service.
const (
	TranscriptStatusQueued     = "queued"
	TranscriptStatusProcessing = "processing"
	TranscriptStatusCompleted  = "completed"
	TranscriptStatusError      = "error"
)
