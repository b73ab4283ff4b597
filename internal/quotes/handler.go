package quotes

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fieldquote/fieldquote/internal/catalog"
	"github.com/fieldquote/fieldquote/internal/platform/httpx"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	orgID := orgIDFromRequest(r)

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	req := ListQuotesRequest{OrgID: orgID, Limit: limit, Offset: offset}
	if v := r.URL.Query().Get("status"); v != "" {
		status := QuoteStatus(v)
		req.Status = &status
	}
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			req.DateFrom = &t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			req.DateTo = &t
		}
	}

	list, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list quotes failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"quotes": list,
		"total":  total,
	})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateQuoteRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	q, err := h.service.Create(r.Context(), orgIDFromRequest(r), req)
	if err != nil {
		h.respondServiceError(w, "create quote failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	detail, err := h.service.Detail(r.Context(), orgIDFromRequest(r), id)
	if err != nil {
		h.respondServiceError(w, "get quote failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	q, err := h.service.AddItem(r.Context(), orgIDFromRequest(r), id, req)
	if err != nil {
		h.respondServiceError(w, "add quote item failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, q)
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemID")
	if itemID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "item id is required")
		return
	}

	if err := h.service.RemoveItem(r.Context(), orgIDFromRequest(r), id, itemID); err != nil {
		h.respondServiceError(w, "remove quote item failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Send, "send quote failed")
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Accept, "accept quote failed")
}

func (h *Handler) Decline(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.service.Decline, "decline quote failed")
}

func (h *Handler) IncrementAdvice(w http.ResponseWriter, r *http.Request) {
	var req IncrementAdviceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	resp, err := h.service.IncrementAdvice(r.Context(), orgIDFromRequest(r), req)
	if err != nil {
		h.respondServiceError(w, "increment advice failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(ctx context.Context, orgID, quoteID int64) (*Quote, error), msg string) {
	id, ok := h.quoteID(w, r)
	if !ok {
		return
	}
	q, err := fn(r.Context(), orgIDFromRequest(r), id)
	if err != nil {
		h.respondServiceError(w, msg, err)
		return
	}
	httpx.JSON(w, http.StatusOK, q)
}

func (h *Handler) quoteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "quote id must be numeric")
		return 0, false
	}
	return id, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, ErrNotFound) || errors.Is(err, catalog.ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "record not found")
		return
	}
	h.logger.Error(msg, slog.Any("error", err))
	httpx.Problem(w, http.StatusBadRequest, "Request Failed", err.Error())
}

func orgIDFromRequest(r *http.Request) int64 {
	if v := r.Header.Get("X-Org-ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	return 1
}
