// Package db is the project document store. The export pipeline reads a
// project once and only ever writes back the fields it owns.
package db

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"videothingy/models"
)

// ErrProjectNotFound is returned when no project has the requested id.
var ErrProjectNotFound = errors.New("project not found")

// Project fields the pipeline updates, named as they are serialized.
const (
	FieldExportData        = "exportData"
	FieldCaptions          = "captions"
	FieldCaptionsGenerated = "captionsGenerated"
	FieldVideoFileID       = "videoFileId"
	FieldStatus            = "status"
	FieldDuration          = "duration"
	FieldUpdatedAt         = "updatedAt"
)

// Fields is a partial project update keyed by serialized field name.
type Fields map[string]interface{}

// ProjectStore reads projects and applies partial updates to them.
// UpdateProject must leave fields not present in the update untouched.
type ProjectStore interface {
	GetProject(ctx context.Context, id string) (*models.Project, error)
	UpdateProject(ctx context.Context, id string, fields Fields) error
}

// SaveExportData replaces the project's export result descriptor.
func SaveExportData(ctx context.Context, s ProjectStore, projectID string, data *models.ExportData) error {
	b, err := json.Marshal(data)
	if err != nil {
		return errors.Wrap(err, "failed to marshal export data")
	}
	return s.UpdateProject(ctx, projectID, Fields{FieldExportData: string(b)})
}

// SaveCaptions stores generated captions and marks them as generated.
func SaveCaptions(ctx context.Context, s ProjectStore, projectID string, caps []models.Caption) error {
	if caps == nil {
		caps = []models.Caption{}
	}
	b, err := json.Marshal(caps)
	if err != nil {
		return errors.Wrap(err, "failed to marshal captions")
	}
	return s.UpdateProject(ctx, projectID, Fields{
		FieldCaptions:          string(b),
		FieldCaptionsGenerated: true,
	})
}
