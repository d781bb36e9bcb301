package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"videothingy/models"
	"videothingy/utils"
)

// ExportAckResponse is returned when an export has been queued.
type ExportAckResponse struct {
	Status string           `json:"status"`
	Data   models.ExportAck `json:"data"`
}

// ExportDataResponse wraps the latest export result of a project.
type ExportDataResponse struct {
	Status string            `json:"status"`
	Data   models.ExportData `json:"data"`
}

// SubmitExport godoc
// @Summary Queue an export
// @Description Validates the request and queues an export of the project. The result is written onto the project's exportData.
// @Tags exports
// @Accept json
// @Produce json
// @Param projectId path string true "Project ID"
// @Param request body models.ExportRequest true "Export options; projectId is taken from the path"
// @Success 202 {object} ExportAckResponse
// @Failure 400 {object} ErrorResponse "Invalid export options"
// @Failure 404 {object} ErrorResponse "Project not found"
// @Failure 503 {object} ErrorResponse "Worker queue is full"
// @Router /projects/{projectId}/export [post]
func (h *ApplicationHandler) SubmitExport(c *fiber.Ctx) error {
	var req models.ExportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Cannot parse JSON: %v", err))
		}
	}
	req.ProjectID = projectID(c)

	ack, err := h.Submitter.SubmitExport(c.UserContext(), req)
	if err != nil {
		return h.respondWithFailure(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusAccepted, ack)
}

// GetExport godoc
// @Summary Get the latest export result
// @Tags exports
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} ExportDataResponse
// @Failure 404 {object} ErrorResponse "Project not found or never exported"
// @Router /projects/{projectId}/export [get]
func (h *ApplicationHandler) GetExport(c *fiber.Ctx) error {
	project, err := h.Store.GetProject(c.UserContext(), projectID(c))
	if err != nil {
		return h.respondWithFailure(c, err)
	}
	data, err := project.DecodeExportData()
	if err != nil {
		return h.respondWithFailure(c, err)
	}
	if data == nil {
		return utils.RespondWithError(c, fiber.StatusNotFound, "Project has not been exported")
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, data)
}
