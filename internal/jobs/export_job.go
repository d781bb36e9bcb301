package jobs

import (
	"context"

	"videothingy/models"
)

// Exporter runs one export request.
type Exporter interface {
	Export(ctx context.Context, req models.ExportRequest) (*models.ExportData, error)
}

// ExportJob runs an export request on a worker.
type ExportJob struct {
	Request  models.ExportRequest
	exporter Exporter
	result   *models.ExportData
}

// NewExportJob creates an ExportJob. req must already carry its ExportID.
func NewExportJob(exporter Exporter, req models.ExportRequest) *ExportJob {
	return &ExportJob{Request: req, exporter: exporter}
}

// ID returns the export attempt id.
func (j *ExportJob) ID() string {
	return j.Request.ExportID
}

// Type returns the type of the job.
func (j *ExportJob) Type() string {
	return models.JobTypeExport
}

// ProjectID returns the project being exported.
func (j *ExportJob) ProjectID() string {
	return j.Request.ProjectID
}

// Execute performs the export. The result is also written to the project.
func (j *ExportJob) Execute(ctx context.Context) error {
	data, err := j.exporter.Export(ctx, j.Request)
	if err != nil {
		return err
	}
	j.result = data
	return nil
}

// Result returns the export descriptor once Execute has succeeded.
func (j *ExportJob) Result() *models.ExportData {
	return j.result
}
