package file

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"filevault/internal/pkg/response"
	"filevault/internal/pkg/validator"
)

// multipartOverhead is the room left for part headers and the metadata
// field on top of the file itself.
const multipartOverhead = 1 << 20

// Handler exposes the lifecycle service and the syncer over HTTP.
type Handler struct {
	service       *Service
	syncer        *Syncer
	maxUploadSize int64
	logger        *slog.Logger
}

func NewHandler(service *Service, syncer *Syncer, maxUploadSize int64, logger *slog.Logger) *Handler {
	return &Handler{
		service:       service,
		syncer:        syncer,
		maxUploadSize: maxUploadSize,
		logger:        logger.With(slog.String("component", "files_http")),
	}
}

// List godoc
// @Summary List files under a folder
// @Description Prefix match: /a/ also returns files stored in /a/b/.
// @Tags Files
// @Produce json
// @Param path query string false "Folder prefix" default(/)
// @Success 200 {object} map[string]interface{}
// @Router /files [get]
func (h *Handler) List(c *gin.Context) {
	records, err := h.service.List(c.Request.Context(), c.DefaultQuery("path", "/"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponses(records))
}

// Get godoc
// @Summary Get file metadata by ID
// @Tags Files
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /files/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	rec, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(rec))
}

// Upload godoc
// @Summary Upload a file
// @Description Multipart body: "file" part plus a "json" field {"filepath","comment"}.
// @Tags Files
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "File to upload"
// @Param json formData string true "Metadata JSON"
// @Success 201 {object} map[string]interface{}
// @Failure 400,409,413,500 {object} map[string]interface{}
// @Router /files [post]
func (h *Handler) Upload(c *gin.Context) {
	bodyLimit := h.maxUploadSize + multipartOverhead
	if c.Request.ContentLength > bodyLimit {
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size")
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size")
			return
		}
		response.Error(c, http.StatusBadRequest, "NO_FILE", "no file part provided")
		return
	}
	raw, ok := c.GetPostForm("json")
	if !ok {
		response.Error(c, http.StatusBadRequest, "NO_METADATA", "no metadata part provided")
		return
	}
	meta := UploadMetadata{Filepath: "/"}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_METADATA", "metadata is not valid JSON")
		return
	}
	if meta.Filepath == "" {
		meta.Filepath = "/"
	}
	if fields := validator.Validate(meta); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "INVALID_METADATA", "metadata fields are too long", fields)
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size")
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "uploaded file cannot be read")
		return
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.maxUploadSize+1))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "NO_FILE", "uploaded file cannot be read")
		return
	}
	if int64(len(data)) > h.maxUploadSize {
		response.Error(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size")
		return
	}

	rec, err := h.service.Upload(c.Request.Context(), UploadInput{
		Name:     fileHeader.Filename,
		Filepath: meta.Filepath,
		Comment:  meta.Comment,
		Data:     data,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusCreated, toResponse(rec))
}

// Update godoc
// @Summary Rename, move or annotate a file
// @Tags Files
// @Accept json
// @Produce json
// @Param id path string true "File ID"
// @Param body body UpdateInput true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 400,404,409,500 {object} map[string]interface{}
// @Router /files/{id} [put]
func (h *Handler) Update(c *gin.Context) {
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		return
	}
	if fields := validator.Validate(in); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request body", fields)
		return
	}

	rec, err := h.service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(rec))
}

// Delete godoc
// @Summary Delete a file (record + physical file)
// @Tags Files
// @Produce json
// @Param id path string true "File ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404,500 {object} map[string]interface{}
// @Router /files/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	rec, err := h.service.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toResponse(rec))
}

// Download godoc
// @Summary Download file contents
// @Tags Files
// @Produce octet-stream
// @Param id path string true "File ID"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]interface{}
// @Router /files/{id}/download [get]
func (h *Handler) Download(c *gin.Context) {
	rec, f, err := h.service.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		h.fail(c, err)
		return
	}

	if mtype, err := mimetype.DetectReader(f); err == nil {
		c.Header("Content-Type", mtype.String())
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		h.fail(c, err)
		return
	}

	c.Header("Content-Disposition", mimeAttachment(rec.Name()))
	http.ServeContent(c.Writer, c.Request, rec.Name(), info.ModTime(), f)
}

// Sync godoc
// @Summary Reconcile records with the storage folder
// @Tags Files
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 409,500 {object} map[string]interface{}
// @Router /files/sync [post]
func (h *Handler) Sync(c *gin.Context) {
	result, err := h.syncer.Sync(c.Request.Context())
	if err != nil {
		status, code := Classify(err)
		if result != nil {
			response.ErrorWithDetails(c, status, code, err.Error(), result)
			return
		}
		response.Error(c, status, code, err.Error())
		return
	}
	response.Success(c, http.StatusOK, result)
}

func (h *Handler) fail(c *gin.Context, err error) {
	status, code := Classify(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	message := err.Error()
	if errors.Is(err, ErrFileExists) {
		message = "file with the same name already exists"
	}
	response.Error(c, status, code, message)
}
