package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/solver-marketplace-api/internal/dto"
	apierrors "github.com/yukikurage/solver-marketplace-api/internal/errors"
	"github.com/yukikurage/solver-marketplace-api/internal/services"
	"go.uber.org/zap"
)

// multipartOverhead is the headroom allowed above the file limit for form
// boundaries and the other fields.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	uploads *services.UploadService
	log     *zap.Logger
}

func NewUploadHandler(uploads *services.UploadService, log *zap.Logger) *UploadHandler {
	return &UploadHandler{
		uploads: uploads,
		log:     log,
	}
}

// Upload stores a .zip deliverable. With a task_id form field the task is
// submitted with the stored file's URL.
func (h *UploadHandler) Upload(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploads.MaxBytes()+multipartOverhead)

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.BadRequestWithDetails(c, "File too large", gin.H{"max_bytes": h.uploads.MaxBytes()})
			return
		}
		apierrors.BadRequest(c, "No file provided")
		return
	}

	f, err := file.Open()
	if err != nil {
		apierrors.InternalError(c, "Failed to read file")
		return
	}
	defer f.Close()

	result, err := h.uploads.UploadDeliverable(c.Request.Context(), actor, services.UploadInput{
		TaskID:      c.PostForm("task_id"),
		Filename:    file.Filename,
		Size:        file.Size,
		ContentType: file.Header.Get("Content-Type"),
		Body:        f,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToUploadResponse(result))
}
