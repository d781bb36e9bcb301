package handlers

import (
	"context"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"videothingy/internal/db"
	"videothingy/internal/export"
	"videothingy/internal/jobs"
	"videothingy/internal/worker"
	"videothingy/models"
	"videothingy/utils"
)

// Submitter queues export and caption jobs.
type Submitter interface {
	SubmitExport(ctx context.Context, req models.ExportRequest) (*models.ExportAck, error)
	SubmitCaptions(ctx context.Context, projectID string) (string, error)
}

// JobLookup reports the state of jobs known to this process.
type JobLookup interface {
	Get(id string) (models.ProcessingJob, bool)
	ForProject(projectID string) []models.ProcessingJob
}

// Uploader stores source media.
type Uploader interface {
	Upload(ctx context.Context, r io.Reader, contentType, ext string) (string, error)
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Store     db.ProjectStore
	Submitter Submitter
	Jobs      JobLookup
	Storage   Uploader
	Logger    logrus.FieldLogger
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(store db.ProjectStore, submitter Submitter, jobLookup JobLookup, storage Uploader, logger logrus.FieldLogger) *ApplicationHandler {
	return &ApplicationHandler{
		Store:     store,
		Submitter: submitter,
		Jobs:      jobLookup,
		Storage:   storage,
		Logger:    logger,
	}
}

// RegisterRoutes mounts the API on router, which is expected to be the
// /api/v1 group.
func (h *ApplicationHandler) RegisterRoutes(router fiber.Router) {
	projects := router.Group("/projects/:projectId")
	projects.Get("", h.GetProject)
	projects.Post("/source", h.UploadSourceVideo)
	projects.Post("/export", h.SubmitExport)
	projects.Get("/export", h.GetExport)
	projects.Get("/captions.srt", h.GetCaptionsSRT)
	projects.Post("/captions", h.GenerateCaptions)
	projects.Get("/jobs", h.ListProjectJobs)

	router.Get("/jobs/:jobId", h.GetJobStatus)
}

// ErrorResponse defines a common structure for error responses.
type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// respondWithFailure maps a pipeline error onto an HTTP status.
func (h *ApplicationHandler) respondWithFailure(c *fiber.Ctx, err error) error {
	switch {
	case export.FailureKind(err) == export.KindValidation:
		return utils.RespondWithError(c, fiber.StatusBadRequest, strings.Join(utils.FormatValidationErrors(err), ", "))
	case errors.Is(err, db.ErrProjectNotFound), export.FailureKind(err) == export.KindNotFound:
		return utils.RespondWithError(c, fiber.StatusNotFound, "Project not found")
	case errors.Is(err, worker.ErrQueueFull), errors.Is(err, worker.ErrStopped):
		return utils.RespondWithError(c, fiber.StatusServiceUnavailable, "Processor is busy, try again later")
	case errors.Is(err, jobs.ErrCaptionsUnavailable):
		return utils.RespondWithError(c, fiber.StatusNotImplemented, err.Error())
	default:
		h.Logger.WithError(err).Error("Request failed")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Internal server error")
	}
}

func projectID(c *fiber.Ctx) string {
	return utils.SanitizeInput(c.Params("projectId"))
}
