package handlers

import (
	"github.com/gofiber/fiber/v2"

	"videothingy/models"
	"videothingy/utils"
)

// ProjectSuccessResponse defines the structure for a successful response for a single project.
type ProjectSuccessResponse struct {
	Status string         `json:"status"`
	Data   models.Project `json:"data"`
}

// GetProject godoc
// @Summary Get a project
// @Description Returns the project record, including the serialized exportData pollers read.
// @Tags projects
// @Produce json
// @Param projectId path string true "Project ID"
// @Success 200 {object} ProjectSuccessResponse
// @Failure 404 {object} ErrorResponse "Project not found"
// @Failure 500 {object} ErrorResponse
// @Router /projects/{projectId} [get]
func (h *ApplicationHandler) GetProject(c *fiber.Ctx) error {
	project, err := h.Store.GetProject(c.UserContext(), projectID(c))
	if err != nil {
		return h.respondWithFailure(c, err)
	}
	return utils.RespondWithJSON(c, fiber.StatusOK, project)
}
