package jobs

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"videothingy/internal/captions"
	"videothingy/internal/db"
	"videothingy/models"
)

// Downloader opens a stored media object.
type Downloader interface {
	Download(ctx context.Context, objectID string) (io.ReadCloser, error)
}

// Transcriber turns media into timed words.
type Transcriber interface {
	Transcribe(ctx context.Context, media io.Reader) ([]models.TranscriptWord, error)
}

// GenerateCaptionsJob transcribes a project's source video and stores the
// result as grouped captions.
type GenerateCaptionsJob struct {
	JobID     string
	projectID string

	store       db.ProjectStore
	storage     Downloader
	transcriber Transcriber
	log         logrus.FieldLogger

	captions []models.Caption
}

// NewGenerateCaptionsJob creates a job for projectID.
func NewGenerateCaptionsJob(projectID string, store db.ProjectStore, storage Downloader, transcriber Transcriber, log logrus.FieldLogger) *GenerateCaptionsJob {
	return &GenerateCaptionsJob{
		JobID:       uuid.NewString(),
		projectID:   projectID,
		store:       store,
		storage:     storage,
		transcriber: transcriber,
		log:         log,
	}
}

// ID returns the unique identifier of the job.
func (j *GenerateCaptionsJob) ID() string {
	return j.JobID
}

// Type returns the type of the job.
func (j *GenerateCaptionsJob) Type() string {
	return models.JobTypeGenerateCaptions
}

// ProjectID returns the project being captioned.
func (j *GenerateCaptionsJob) ProjectID() string {
	return j.projectID
}

// Execute downloads the source, transcribes it and saves the captions.
// A failure to save is logged; the captions are still kept on the job.
func (j *GenerateCaptionsJob) Execute(ctx context.Context) error {
	log := j.log.WithFields(logrus.Fields{"job_id": j.JobID, "project_id": j.projectID})

	project, err := j.store.GetProject(ctx, j.projectID)
	if err != nil {
		return errors.Wrap(err, "failed to load project")
	}
	if project.VideoFileID == "" {
		return errors.Errorf("project %s has no source video", j.projectID)
	}

	media, err := j.storage.Download(ctx, project.VideoFileID)
	if err != nil {
		return errors.Wrap(err, "failed to download source video")
	}
	defer media.Close()

	log.Info("Transcribing source video")
	words, err := j.transcriber.Transcribe(ctx, media)
	if err != nil {
		return errors.Wrap(err, "failed to transcribe source video")
	}

	j.captions = captions.GroupWords(words, captions.WordsPerCaption)
	log.WithField("captions", len(j.captions)).Info("Generated captions")

	if err := db.SaveCaptions(ctx, j.store, j.projectID, j.captions); err != nil {
		log.WithError(err).Warn("Could not update project captions")
	}
	return nil
}

// Captions returns the captions produced by Execute.
func (j *GenerateCaptionsJob) Captions() []models.Caption {
	return j.captions
}
