package handlers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"

	"videothingy/internal/db"
	"videothingy/models"
	"videothingy/utils"
)

// UploadSourceVideo godoc
// @Summary Upload a project's source video
// @Description Stores the uploaded file and points the project's videoFileId at it. The duration is reset so the next export probes it.
// @Tags projects
// @Accept mpfd
// @Produce json
// @Param projectId path string true "Project ID"
// @Param file formData file true "Video file"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse "Project not found"
// @Router /projects/{projectId}/source [post]
func (h *ApplicationHandler) UploadSourceVideo(c *fiber.Ctx) error {
	id := projectID(c)
	log := h.Logger.WithField("project_id", id)

	if _, err := h.Store.GetProject(c.UserContext(), id); err != nil {
		return h.respondWithFailure(c, err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return utils.RespondWithError(c, fiber.StatusBadRequest, fmt.Sprintf("Error getting file: %v", err))
	}
	fileHandle, err := file.Open()
	if err != nil {
		log.WithError(err).Error("Error opening uploaded file")
		return utils.RespondWithError(c, fiber.StatusInternalServerError, "Error opening file")
	}
	defer fileHandle.Close()

	contentType := file.Header.Get(fiber.HeaderContentType)
	ext := strings.ToLower(filepath.Ext(file.Filename))

	objectID, err := h.Storage.Upload(c.UserContext(), fileHandle, contentType, ext)
	if err != nil {
		log.WithError(err).Error("Error uploading source video")
		return utils.RespondWithError(c, fiber.StatusBadGateway, "Upload failed")
	}

	err = h.Store.UpdateProject(c.UserContext(), id, db.Fields{
		db.FieldVideoFileID: objectID,
		db.FieldDuration:    0,
		db.FieldStatus:      string(models.ProjectStatusReady),
	})
	if err != nil {
		return h.respondWithFailure(c, err)
	}

	log.WithField("video_file_id", objectID).Info("Source video uploaded")
	return utils.RespondWithJSON(c, fiber.StatusOK, fiber.Map{"videoFileId": objectID})
}
