package jobs

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"videothingy/internal/db"
	"videothingy/internal/worker"
	"videothingy/models"
)

// ErrCaptionsUnavailable is returned when no transcription service is
// configured.
var ErrCaptionsUnavailable = errors.New("caption generation is not configured")

// RequestValidator applies defaults to an export request and checks it.
type RequestValidator interface {
	Validate(req *models.ExportRequest) error
}

// ValidatingExporter exports and validates requests.
type ValidatingExporter interface {
	Exporter
	RequestValidator
}

// Dispatcher queues jobs for the worker pool.
type Dispatcher interface {
	SubmitJob(job worker.Job) error
}

// Submitter turns client requests into queued jobs. Everything that can be
// rejected synchronously is checked before the job is queued.
type Submitter struct {
	exporter    ValidatingExporter
	dispatcher  Dispatcher
	store       db.ProjectStore
	storage     Downloader
	transcriber Transcriber
	log         logrus.FieldLogger
	now         func() time.Time
}

// NewSubmitter creates a Submitter. transcriber may be nil, in which case
// caption generation is unavailable.
func NewSubmitter(exporter ValidatingExporter, dispatcher Dispatcher, store db.ProjectStore, storage Downloader, transcriber Transcriber, log logrus.FieldLogger) *Submitter {
	return &Submitter{
		exporter:    exporter,
		dispatcher:  dispatcher,
		store:       store,
		storage:     storage,
		transcriber: transcriber,
		log:         log,
		now:         time.Now,
	}
}

// SubmitExport validates req, checks that its project exists and queues the
// export. The returned ack carries the export attempt id.
func (s *Submitter) SubmitExport(ctx context.Context, req models.ExportRequest) (*models.ExportAck, error) {
	if err := s.exporter.Validate(&req); err != nil {
		return nil, err
	}
	if _, err := s.store.GetProject(ctx, req.ProjectID); err != nil {
		return nil, err
	}
	if req.ExportID == "" {
		req.ExportID = uuid.NewString()
	}

	if err := s.dispatcher.SubmitJob(NewExportJob(s.exporter, req)); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"project_id": req.ProjectID, "export_id": req.ExportID}).Info("Export queued")

	return &models.ExportAck{
		ExportID:    req.ExportID,
		ProjectID:   req.ProjectID,
		SubmittedAt: s.now().UTC(),
	}, nil
}

// CaptionsAvailable reports whether a transcription service is configured.
func (s *Submitter) CaptionsAvailable() bool {
	return s.transcriber != nil
}

// SubmitCaptions queues caption generation for a project and returns the
// job id.
func (s *Submitter) SubmitCaptions(ctx context.Context, projectID string) (string, error) {
	if !s.CaptionsAvailable() {
		return "", ErrCaptionsUnavailable
	}
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return "", err
	}
	job := NewGenerateCaptionsJob(projectID, s.store, s.storage, s.transcriber, s.log)
	if err := s.dispatcher.SubmitJob(job); err != nil {
		return "", err
	}
	s.log.WithFields(logrus.Fields{"project_id": projectID, "job_id": job.ID()}).Info("Caption generation queued")
	return job.ID(), nil
}
