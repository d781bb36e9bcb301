package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"videothingy/internal/captions"
	"videothingy/internal/export"
	"videothingy/utils"
)

// CaptionJobResponse is returned when caption generation has been queued.
type CaptionJobResponse struct {
	Status string            `json:"status"`
	Data   map[string]string `json:"data"`
}

// GetCaptionsSRT godoc
// @Summary Download captions as SRT
// @Tags captions
// @Produce plain
// @Param projectId path string true "Project ID"
// @Success 200 {string} string "SRT document"
// @Failure 404 {object} ErrorResponse "Project not found or has no captions"
// @Router /projects/{projectId}/captions.srt [get]
func (h *ApplicationHandler) GetCaptionsSRT(c *fiber.Ctx) error {
	project, err := h.Store.GetProject(c.UserContext(), projectID(c))
	if err != nil {
		return h.respondWithFailure(c, err)
	}
	caps, err := project.DecodeCaptions()
	if err != nil {
		return h.respondWithFailure(c, err)
	}
	if len(caps) == 0 {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Project has no captions")
	}

	c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", export.CaptionsName(project.Title)))
	return c.SendString(captions.ToSRT(caps))
}

// GenerateCaptions godoc
// @Summary Generate captions
// @Description Queues transcription of the project's source video. Captions are grouped and stored on the project.
// @Tags captions
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 202 {object} CaptionJobResponse
// @Failure 404 {object} ErrorResponse "Project not found"
// @Failure 501 {object} ErrorResponse "Transcription is not configured"
// @Failure 503 {object} ErrorResponse "Worker queue is full"
// @Router /projects/{projectId}/captions [post]
func (h *ApplicationHandler) GenerateCaptions(c *fiber.Ctx) error {
	id := projectID(c)
	jobID, err := h.Submitter.SubmitCaptions(c.UserContext(), id)
	if err != nil {
		return h.respondWithFailure(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusAccepted, fiber.Map{"jobId": jobID, "projectId": id})
}
