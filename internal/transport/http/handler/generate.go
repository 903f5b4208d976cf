package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"manualhub/internal/app"
	"manualhub/internal/transport/http/response"
)

type GenerateHandler struct {
	generate *app.GenerateService
}

func NewGenerateHandler(generate *app.GenerateService) *GenerateHandler {
	return &GenerateHandler{generate: generate}
}

func (h *GenerateHandler) Rules(c *gin.Context) {
	rules, err := h.generate.Rules(c.Request.Context(), c.Param("collection"))
	if err != nil {
		h.fail(c, err, "generate rules failed")
		return
	}
	response.OK(c, gin.H{"rules": rules})
}

func (h *GenerateHandler) MaintenanceSchedule(c *gin.Context) {
	tasks, err := h.generate.MaintenanceSchedule(c.Request.Context(), c.Param("collection"))
	if err != nil {
		h.fail(c, err, "generate maintenance schedule failed")
		return
	}
	response.OK(c, gin.H{"tasks": tasks})
}

func (h *GenerateHandler) SafetyInformation(c *gin.Context) {
	items, err := h.generate.SafetyInformation(c.Request.Context(), c.Param("collection"))
	if err != nil {
		h.fail(c, err, "generate safety information failed")
		return
	}
	response.OK(c, gin.H{"safety": items})
}

func (h *GenerateHandler) ListRules(c *gin.Context) {
	rules, err := h.generate.ListRules(c.Param("collection"))
	if err != nil {
		h.fail(c, err, "list rules failed")
		return
	}
	response.OK(c, gin.H{"rules": rules})
}

func (h *GenerateHandler) ListMaintenanceTasks(c *gin.Context) {
	tasks, err := h.generate.ListMaintenanceTasks(c.Param("collection"))
	if err != nil {
		h.fail(c, err, "list maintenance tasks failed")
		return
	}
	response.OK(c, gin.H{"tasks": tasks})
}

func (h *GenerateHandler) ListSafetyItems(c *gin.Context) {
	items, err := h.generate.ListSafetyItems(c.Param("collection"))
	if err != nil {
		h.fail(c, err, "list safety items failed")
		return
	}
	response.OK(c, gin.H{"safety": items})
}

func (h *GenerateHandler) fail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, app.ErrDocumentNotFound):
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
	case errors.Is(err, app.ErrNoContent):
		response.Error(c, http.StatusUnprocessableEntity, response.CodeBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, message)
	}
}
