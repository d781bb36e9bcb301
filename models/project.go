package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProjectStatus is the lifecycle state of a project's source media.
type ProjectStatus string

const (
	ProjectStatusUploading  ProjectStatus = "uploading"
	ProjectStatusProcessing ProjectStatus = "processing"
	ProjectStatusReady      ProjectStatus = "ready"
	ProjectStatusError      ProjectStatus = "error"
)

// Project represents the structure of a project document in the database.
// Captions, text overlays, media items and the export result are stored as
// serialized JSON strings, which is how the editor writes them.
type Project struct {
	ID                string        `json:"id"`
	UserID            string        `json:"userId"`
	Title             string        `json:"title"`
	VideoFileID       string        `json:"videoFileId"`
	Duration          float64       `json:"duration"`
	Status            ProjectStatus `json:"status"`
	Captions          *string       `json:"captions,omitempty"` // Nullable TEXT (JSON array of Caption)
	CaptionsGenerated bool          `json:"captionsGenerated"`
	TextOverlays      *string       `json:"textOverlays,omitempty"` // Nullable TEXT (JSON array of TextOverlay)
	TrimStart         float64       `json:"trimStart"`
	TrimEnd           *float64      `json:"trimEnd,omitempty"`
	MediaItems        *string       `json:"mediaItems,omitempty"`
	ExportData        *string       `json:"exportData,omitempty"` // Nullable TEXT (JSON ExportData)
	CreatedAt         time.Time     `json:"createdAt"`
	UpdatedAt         time.Time     `json:"updatedAt"`
}

// DecodeCaptions parses the serialized caption list. A project without
// captions yields an empty slice.
func (p *Project) DecodeCaptions() ([]Caption, error) {
	if p.Captions == nil || *p.Captions == "" {
		return []Caption{}, nil
	}
	var captions []Caption
	if err := json.Unmarshal([]byte(*p.Captions), &captions); err != nil {
		return nil, fmt.Errorf("could not decode captions for project %s: %w", p.ID, err)
	}
	return captions, nil
}

// DecodeTextOverlays parses the serialized overlay list saved by the editor.
func (p *Project) DecodeTextOverlays() ([]TextOverlay, error) {
	if p.TextOverlays == nil || *p.TextOverlays == "" {
		return []TextOverlay{}, nil
	}
	var overlays []TextOverlay
	if err := json.Unmarshal([]byte(*p.TextOverlays), &overlays); err != nil {
		return nil, fmt.Errorf("could not decode text overlays for project %s: %w", p.ID, err)
	}
	return overlays, nil
}

// DecodeExportData parses the stored export result. It returns nil without
// an error when the project has never been exported.
func (p *Project) DecodeExportData() (*ExportData, error) {
	if p.ExportData == nil || *p.ExportData == "" || *p.ExportData == "{}" {
		return nil, nil
	}
	var data ExportData
	if err := json.Unmarshal([]byte(*p.ExportData), &data); err != nil {
		return nil, fmt.Errorf("could not decode export data for project %s: %w", p.ID, err)
	}
	return &data, nil
}
