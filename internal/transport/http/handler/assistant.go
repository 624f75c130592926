package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"yyss-assistant/internal/app"
	"yyss-assistant/internal/assistant"
	"yyss-assistant/internal/transport/http/middleware"
	"yyss-assistant/internal/transport/http/response"
)

// multipartOverhead is the room left for form boundaries and headers on
// top of the file size limit.
const multipartOverhead = 1 << 20

type AssistantHandler struct {
	assistantService *app.AssistantService
	maxUpload        int64
}

type CreateSessionRequest struct {
	Title string `json:"title" binding:"max=128"`
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func NewAssistantHandler(assistantService *app.AssistantService, maxUpload int64) *AssistantHandler {
	return &AssistantHandler{assistantService: assistantService, maxUpload: maxUpload}
}

func (h *AssistantHandler) CreateSession(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}

	session, err := h.assistantService.CreateSession(c.Request.Context(), app.CreateSessionInput{
		UserID: userID,
		Title:  req.Title,
	})
	if err != nil {
		writeAssistantError(c, err, "create session failed")
		return
	}
	response.OK(c, session)
}

func (h *AssistantHandler) ListSessions(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessions, err := h.assistantService.ListSessions(c.Request.Context(), userID)
	if err != nil {
		writeAssistantError(c, err, "list sessions failed")
		return
	}
	response.OK(c, sessions)
}

func (h *AssistantHandler) DeleteSession(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessionID := c.Param("id")
	if err := h.assistantService.DeleteSession(c.Request.Context(), userID, sessionID); err != nil {
		writeAssistantError(c, err, "delete session failed")
		return
	}
	response.OK(c, gin.H{"deleted_session_id": sessionID})
}

func (h *AssistantHandler) UploadDocument(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	if h.maxUpload > 0 {
		if c.Request.ContentLength > h.maxUpload+multipartOverhead {
			writeAssistantError(c, app.ErrDocumentTooLarge, "")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+multipartOverhead)
	}
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAssistantError(c, app.ErrDocumentTooLarge, "")
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file field")
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read upload failed")
		return
	}
	defer file.Close()

	reader := io.Reader(file)
	if h.maxUpload > 0 {
		reader = io.LimitReader(file, h.maxUpload+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "read upload failed")
		return
	}

	doc, err := h.assistantService.UploadDocument(c.Request.Context(), app.UploadDocumentInput{
		UserID:    userID,
		SessionID: c.Param("id"),
		Name:      header.Filename,
		MIMEType:  header.Header.Get("Content-Type"),
		Data:      data,
	})
	if err != nil {
		writeAssistantError(c, err, "upload document failed")
		return
	}
	response.OK(c, gin.H{
		"message":  "Uploaded " + doc.Name,
		"document": doc,
	})
}

func (h *AssistantHandler) GetDocument(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	doc, err := h.assistantService.GetDocument(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeAssistantError(c, err, "get document failed")
		return
	}
	response.OK(c, doc)
}

func (h *AssistantHandler) SendMessage(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.assistantService.SendMessage(c.Request.Context(), app.SendMessageInput{
		UserID:    userID,
		SessionID: c.Param("id"),
		Content:   req.Content,
	})
	if err != nil {
		writeAssistantError(c, err, "send message failed")
		return
	}
	response.OK(c, result)
}

func (h *AssistantHandler) GetHistory(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	history, err := h.assistantService.GetHistory(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeAssistantError(c, err, "get history failed")
		return
	}
	response.OK(c, history)
}

func (h *AssistantHandler) ResetSession(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	sessionID := c.Param("id")
	if err := h.assistantService.ResetSession(c.Request.Context(), userID, sessionID); err != nil {
		writeAssistantError(c, err, "reset session failed")
		return
	}
	response.OK(c, gin.H{"reset_session_id": sessionID})
}

func writeAssistantError(c *gin.Context, err error, fallback string) {
	var extractionErr *assistant.ExtractionError
	switch {
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, assistant.ErrEmptyMessage):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.As(err, &extractionErr):
		response.Error(c, http.StatusBadRequest, response.CodeDocumentRejected, extractionErr.Error())
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, app.ErrNoDocument):
		response.Error(c, http.StatusNotFound, response.CodeNoDocument, err.Error())
	case errors.Is(err, app.ErrDocumentTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, response.CodeDocumentTooLarge, err.Error())
	case errors.Is(err, app.ErrRateLimited):
		response.Error(c, http.StatusTooManyRequests, response.CodeRateLimited, err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
