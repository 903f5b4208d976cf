package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"manualhub/internal/app"
	"manualhub/internal/extract"
	"manualhub/internal/transport/http/response"
)

type DocumentHandler struct {
	ingest  *app.IngestService
	library *app.LibraryService
}

func NewDocumentHandler(ingest *app.IngestService, library *app.LibraryService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest, library: library}
}

// Upload accepts a multipart PDF and runs the full ingestion pipeline. A
// repeat upload of identical content returns the existing document.
func (h *DocumentHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "unreadable upload")
		return
	}
	defer file.Close()

	result, err := h.ingest.Upload(c.Request.Context(), app.UploadInput{
		Filename: fileHeader.Filename,
		DeviceID: c.PostForm("device_id"),
		Size:     fileHeader.Size,
		Reader:   file,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrFileTooLarge):
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeFileTooLarge, err.Error())
		case errors.Is(err, extract.ErrNotPDF), errors.Is(err, extract.ErrNoPages), errors.Is(err, extract.ErrEmptyPDF):
			response.Error(c, http.StatusBadRequest, response.CodeInvalidPDF, err.Error())
		case errors.Is(err, app.ErrNoContent):
			response.Error(c, http.StatusUnprocessableEntity, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "upload failed")
		}
		return
	}

	response.OK(c, gin.H{
		"document":        result.Document,
		"chunks_stored":   result.ChunksStored,
		"already_indexed": result.AlreadyIndexed,
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	infos, err := h.library.List(c.Request.Context(), c.Query("device_id"))
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, gin.H{"documents": infos})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	collection := c.Param("collection")
	if collection == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing collection name")
		return
	}

	if err := h.library.Delete(c.Request.Context(), collection); err != nil {
		switch {
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted": collection})
}
