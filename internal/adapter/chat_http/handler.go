package chat_http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"book-rag/internal/domain"
	"book-rag/internal/usecase"
)

type Handler struct {
	chatUsecase   usecase.ChatUsecase
	ingestUsecase usecase.IngestCorpusUsecase
	logger        *slog.Logger
}

func NewHandler(
	chatUsecase usecase.ChatUsecase,
	ingestUsecase usecase.IngestCorpusUsecase,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		chatUsecase:   chatUsecase,
		ingestUsecase: ingestUsecase,
		logger:        logger,
	}
}

// RegisterRoutes mounts the API under /api/v1.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	v1 := e.Group("/api/v1")
	v1.POST("/ingest", h.Ingest)
	v1.POST("/chat", h.Chat)
	v1.POST("/chat/selection", h.ChatSelection)
	v1.GET("/chat/:session_id/history", h.History)
	v1.DELETE("/documents/:id", h.DeleteDocument)
}

type ingestRequest struct {
	ForceReindex bool `json:"force_reindex"`
}

type ingestResponse struct {
	Status         string `json:"status"`
	ProcessedFiles int    `json:"processed_files"`
	IndexedChunks  int    `json:"indexed_chunks"`
	Message        string `json:"message"`
}

// Ingest runs a full corpus ingestion pass.
// (POST /api/v1/ingest)
func (h *Handler) Ingest(ctx echo.Context) error {
	var req ingestRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	result, err := h.ingestUsecase.Ingest(ctx.Request().Context(), req.ForceReindex)
	if err != nil {
		return h.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, ingestResponse{
		Status:         result.Status,
		ProcessedFiles: result.ProcessedFiles,
		IndexedChunks:  result.IndexedChunks,
		Message:        result.Message,
	})
}

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatSelectionRequest struct {
	SelectedText string `json:"selected_text"`
	Question     string `json:"question"`
	SessionID    string `json:"session_id"`
}

type chatResponse struct {
	Response  string            `json:"response"`
	SessionID string            `json:"session_id"`
	Citations []domain.Citation `json:"citations"`
}

// Chat answers a question grounded in the indexed corpus.
// (POST /api/v1/chat)
func (h *Handler) Chat(ctx echo.Context) error {
	var req chatRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	result, err := h.chatUsecase.Chat(ctx.Request().Context(), req.Message, req.SessionID)
	if err != nil {
		return h.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, newChatResponse(result))
}

// ChatSelection answers a question grounded only in the supplied excerpt.
// (POST /api/v1/chat/selection)
func (h *Handler) ChatSelection(ctx echo.Context) error {
	var req chatSelectionRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	result, err := h.chatUsecase.ChatSelection(ctx.Request().Context(), req.SelectedText, req.Question, req.SessionID)
	if err != nil {
		return h.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, newChatResponse(result))
}

type historyMessage struct {
	Role      string            `json:"role"`
	Content   string            `json:"content"`
	Citations []domain.Citation `json:"citations"`
	CreatedAt string            `json:"created_at"`
}

type historyResponse struct {
	SessionID string           `json:"session_id"`
	Messages  []historyMessage `json:"messages"`
}

// History returns the messages of an existing session in order.
// (GET /api/v1/chat/:session_id/history)
func (h *Handler) History(ctx echo.Context) error {
	sessionID := ctx.Param("session_id")

	messages, err := h.chatUsecase.History(ctx.Request().Context(), sessionID)
	if err != nil {
		return h.mapError(ctx, err)
	}

	out := make([]historyMessage, 0, len(messages))
	for _, m := range messages {
		citations := m.Citations
		if citations == nil {
			citations = []domain.Citation{}
		}
		out = append(out, historyMessage{
			Role:      m.Role,
			Content:   m.Content,
			Citations: citations,
			CreatedAt: m.CreatedAt.Format(time.RFC3339),
		})
	}

	return ctx.JSON(http.StatusOK, historyResponse{
		SessionID: sessionID,
		Messages:  out,
	})
}

// DeleteDocument removes a document and everything indexed for it.
// (DELETE /api/v1/documents/:id)
func (h *Handler) DeleteDocument(ctx echo.Context) error {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": "document id must be a UUID"})
	}

	if err := h.ingestUsecase.Delete(ctx.Request().Context(), id); err != nil {
		return h.mapError(ctx, err)
	}

	return ctx.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

func newChatResponse(result *usecase.ChatResult) chatResponse {
	citations := result.Citations
	if citations == nil {
		citations = []domain.Citation{}
	}
	return chatResponse{
		Response:  result.Response,
		SessionID: result.SessionID,
		Citations: citations,
	}
}

// mapError translates domain errors into status codes. Internal failures are
// returned as a generic message so upstream details never leak to clients.
func (h *Handler) mapError(ctx echo.Context, err error) error {
	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		return ctx.JSON(http.StatusBadRequest, map[string]string{"error": validationErr.Error()})
	}
	if errors.Is(err, domain.ErrNotFound) {
		return ctx.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
	}

	h.logger.Error("request_failed", "path", ctx.Path(), "error", err)
	return ctx.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
