package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"manualhub/internal/app"
	"manualhub/internal/transport/http/middleware"
	"manualhub/internal/transport/http/response"
)

type QueryHandler struct {
	ask *app.AskService
}

type AskRequest struct {
	Question   string `json:"question" binding:"required,min=1,max=2048"`
	Collection string `json:"collection"`
	DeviceID   string `json:"device_id"`
}

func NewQueryHandler(ask *app.AskService) *QueryHandler {
	return &QueryHandler{ask: ask}
}

func (h *QueryHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	result, err := h.ask.Ask(c.Request.Context(), app.AskInput{
		UserID:     userID,
		Question:   req.Question,
		Collection: req.Collection,
		DeviceID:   req.DeviceID,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "query failed")
		}
		return
	}

	response.OK(c, result)
}

func (h *QueryHandler) History(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	records, err := h.ask.History(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch history failed")
		return
	}
	response.OK(c, gin.H{"records": records})
}

func currentUserID(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok
}
