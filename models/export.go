package models

import "time"

// Quality tiers accepted by the export pipeline.
const (
	Quality1080p = "1080p"
	Quality720p  = "720p"
	Quality480p  = "480p"
)

// Container formats accepted by the export pipeline.
const (
	FormatMP4  = "mp4"
	FormatMOV  = "mov"
	FormatWebM = "webm"
)

// ExportRequest describes one export attempt. It is built by the client,
// consumed once by the orchestrator and never persisted.
type ExportRequest struct {
	ProjectID       string        `json:"projectId" validate:"required"`
	Quality         string        `json:"quality,omitempty" validate:"omitempty,oneof=1080p 720p 480p"`
	Format          string        `json:"format,omitempty" validate:"omitempty,oneof=mp4 mov webm"`
	IncludeCaptions bool          `json:"includeCaptions"`
	BurnCaptions    bool          `json:"burnCaptions,omitempty"`
	TextOverlays    []TextOverlay `json:"textOverlays,omitempty" validate:"omitempty,dive"`
	TrimStart       float64       `json:"trimStart,omitempty" validate:"gte=0"`
	TrimEnd         *float64      `json:"trimEnd,omitempty" validate:"omitempty,gtfield=TrimStart"`

	// ExportID identifies this attempt. It is assigned on submission when
	// the caller does not provide one.
	ExportID string `json:"exportId,omitempty"`
}

// ApplyDefaults fills the fields a client may omit.
func (r *ExportRequest) ApplyDefaults() {
	if r.Quality == "" {
		r.Quality = Quality1080p
	}
	if r.Format == "" {
		r.Format = FormatMP4
	}
	if r.TextOverlays == nil {
		r.TextOverlays = []TextOverlay{}
	}
	if r.TrimStart < 0 {
		r.TrimStart = 0
	}
}

// ExportData is the result descriptor written onto the project when an
// export finishes. Pollers only accept it while ExportedAt is fresh.
type ExportData struct {
	ExportID            string    `json:"exportId,omitempty"`
	DownloadURL         string    `json:"downloadUrl"`
	SRTContent          *string   `json:"srtContent"`
	VideoFileID         string    `json:"videoFileId"`
	ExportedAt          time.Time `json:"exportedAt"`
	Processed           bool      `json:"processed,omitempty"`
	TextOverlaysApplied int       `json:"textOverlaysApplied,omitempty"`
	TrimApplied         bool      `json:"trimApplied,omitempty"`
}

// ExportAck is returned to the client when an export has been queued.
type ExportAck struct {
	ExportID    string    `json:"exportId"`
	ProjectID   string    `json:"projectId"`
	SubmittedAt time.Time `json:"submittedAt"`
}
