package handlers

import (
	"github.com/gofiber/fiber/v2"

	"videothingy/utils"
)

// GetJobStatus godoc
// @Summary Get job status
// @Description Returns a job tracked by this processor. Export jobs use the exportId as their id.
// @Tags jobs
// @Produce json
// @Param jobId path string true "Job ID"
// @Success 200 {object} models.ProcessingJob
// @Failure 404 {object} ErrorResponse "Job not found"
// @Router /jobs/{jobId} [get]
func (h *ApplicationHandler) GetJobStatus(c *fiber.Ctx) error {
	jobID := utils.SanitizeInput(c.Params("jobId"))
	job, ok := h.Jobs.Get(jobID)
	if !ok {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Job not found")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, job)
}

// ListProjectJobs godoc
// @Summary List a project's jobs
// @Tags jobs
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {array} models.ProcessingJob
// @Router /projects/{projectId}/jobs [get]
func (h *ApplicationHandler) ListProjectJobs(c *fiber.Ctx) error {
	return utils.RespondWithJSON(c, fiber.StatusOK, h.Jobs.ForProject(projectID(c)))
}
