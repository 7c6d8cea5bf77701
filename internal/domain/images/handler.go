package images

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"imageapi/internal/pkg/response"
	"imageapi/internal/pkg/validator"
	"imageapi/internal/storage"
)

const cacheControl = "max-age=86400, public"

var dispositionEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// Handler exposes the image service over HTTP.
type Handler struct {
	service        *Service
	maxUploadBytes int64
}

// NewHandler creates the image handler. maxUploadBytes <= 0 disables the body limit.
func NewHandler(service *Service, maxUploadBytes int64) *Handler {
	return &Handler{service: service, maxUploadBytes: maxUploadBytes}
}

// Upload godoc
// @Summary Upload an image
// @Description Stores an image bound to (referenceId, referenceType). The part's content type must be image/*.
// @Tags Images
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Image file"
// @Param uploadedBy formData string false "Uploader, defaults to anonymous"
// @Param referenceId formData string true "Reference id"
// @Param referenceType formData string true "Reference type"
// @Success 201 {object} UploadResponse
// @Failure 400,413,500 {object} map[string]interface{}
// @Router /images/upload [post]
func (h *Handler) Upload(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, "file exceeds maximum allowed size")
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeInvalidInput, ErrEmptyFile.Error())
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.writeError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}

	referenceID := c.PostForm("referenceId")
	referenceType := c.PostForm("referenceType")

	asset, err := h.service.Upload(c.Request.Context(), UploadInput{
		Data:             data,
		ContentType:      fileHeader.Header.Get("Content-Type"),
		OriginalFilename: fileHeader.Filename,
		UploadedBy:       c.PostForm("uploadedBy"),
		ReferenceID:      referenceID,
		ReferenceType:    referenceType,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	downloadURL := "/images/ref?" + url.Values{
		"referenceId":   {referenceID},
		"referenceType": {referenceType},
	}.Encode()
	metaURL := fmt.Sprintf("/images/%d/meta", asset.ID)

	c.Header("Location", downloadURL)
	c.JSON(http.StatusCreated, UploadResponse{
		ID:          asset.ID,
		DownloadURL: downloadURL,
		MetaURL:     metaURL,
	})
}

// GetByReference godoc
// @Summary Download the latest image for a reference
// @Tags Images
// @Produce octet-stream
// @Param referenceId query string true "Reference id"
// @Param referenceType query string true "Reference type"
// @Success 200 {file} binary
// @Failure 400,404 {object} map[string]interface{}
// @Router /images/ref [get]
func (h *Handler) GetByReference(c *gin.Context) {
	referenceID := c.Query("referenceId")
	referenceType := c.Query("referenceType")

	data, err := h.service.GetByReference(c.Request.Context(), referenceID, referenceType)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer data.Body.Close()

	filename := data.Meta.OriginalFilename
	if isBlank(filename) {
		filename = referenceID + "-" + referenceType
	}

	c.DataFromReader(http.StatusOK, data.Size, data.MediaType, data.Body, map[string]string{
		"ETag":                quoteETag(data.Meta.ChecksumSHA256),
		"Cache-Control":       cacheControl,
		"Content-Disposition": `attachment; filename="` + dispositionEscaper.Replace(filename) + `"`,
	})
}

// GetImage godoc
// @Summary Get raw image bytes by id
// @Description Honors If-None-Match against the quoted SHA-256 checksum.
// @Tags Images
// @Produce octet-stream
// @Param id path int true "Image ID"
// @Success 200 {file} binary
// @Success 304 "Not Modified"
// @Failure 400,404 {object} map[string]interface{}
// @Router /images/{id} [get]
func (h *Handler) GetImage(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	data, err := h.service.GetImageData(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	defer data.Body.Close()

	etag := quoteETag(data.Meta.ChecksumSHA256)
	if c.GetHeader("If-None-Match") == etag {
		c.Header("ETag", etag)
		c.Status(http.StatusNotModified)
		return
	}

	c.DataFromReader(http.StatusOK, data.Size, data.MediaType, data.Body, map[string]string{
		"ETag":          etag,
		"Cache-Control": cacheControl,
	})
}

// GetMeta godoc
// @Summary Get image metadata
// @Tags Images
// @Produce json
// @Param id path int true "Image ID"
// @Success 200 {object} MetaResponse
// @Failure 400,404 {object} map[string]interface{}
// @Router /images/{id}/meta [get]
func (h *Handler) GetMeta(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	meta, err := h.service.GetMeta(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

// ListAllMeta godoc
// @Summary List metadata of all images
// @Tags Images
// @Produce json
// @Success 200 {array} MetaResponse
// @Router /images/allmeta [get]
func (h *Handler) ListAllMeta(c *gin.Context) {
	metas, err := h.service.ListAllMeta(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, metas)
}

// UpdateMeta godoc
// @Summary Update uploadedBy and/or display filename
// @Tags Images
// @Accept json
// @Produce json
// @Param id path int true "Image ID"
// @Param request body UpdateMetaRequest true "Fields to change"
// @Success 200 {object} MetaResponse
// @Failure 400,404 {object} map[string]interface{}
// @Router /images/{id}/meta [put]
func (h *Handler) UpdateMeta(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req UpdateMetaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidationError, "validation failed", errs)
		return
	}

	meta, err := h.service.UpdateMeta(c.Request.Context(), id, req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

// Delete godoc
// @Summary Delete an image (file + metadata)
// @Tags Images
// @Param id path int true "Image ID"
// @Success 204 "No Content"
// @Failure 400,404 {object} map[string]interface{}
// @Router /images/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidInput, "invalid image id")
		return 0, false
	}
	return id, true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrImageNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, ErrEmptyFile),
		errors.Is(err, ErrReferenceRequired),
		errors.Is(err, ErrInvalidContentType),
		errors.Is(err, storage.ErrInvalidPath):
		response.Error(c, http.StatusBadRequest, response.CodeInvalidInput, err.Error())
	case errors.Is(err, storage.ErrStorageFault):
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeStorageFault, "cannot access file storage")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalError, "server_error")
	}
}

func quoteETag(checksum string) string {
	return `"` + checksum + `"`
}
