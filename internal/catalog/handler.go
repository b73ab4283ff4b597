package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

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

	req := ListProductsRequest{
		OrgID:  orgID,
		Search: r.URL.Query().Get("search"),
		Limit:  limit,
		Offset: offset,
	}
	if v := r.URL.Query().Get("is_active"); v != "" {
		isActive := v == "true"
		req.IsActive = &isActive
	}

	products, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list products failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"products": products,
		"total":    total,
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, "get product failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	resp, err := h.service.Create(r.Context(), orgIDFromRequest(r), req)
	if err != nil {
		h.respondServiceError(w, "create product failed", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, resp)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}

	var req CreateProductRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	resp, err := h.service.Update(r.Context(), id, orgIDFromRequest(r), req)
	if err != nil {
		h.respondServiceError(w, "update product failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid ID", "product id must be numeric")
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondServiceError(w, "delete product failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) BulkPrice(w http.ResponseWriter, r *http.Request) {
	var req BulkPriceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	resp, err := h.service.BulkAdjustPrices(r.Context(), orgIDFromRequest(r), req)
	if err != nil {
		if resp != nil {
			// Prices saved but the reprice pass failed to queue.
			h.logger.Error("reprice enqueue failed", slog.Any("error", err))
			httpx.JSON(w, http.StatusOK, resp)
			return
		}
		h.respondServiceError(w, "bulk price update failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) respondServiceError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, ErrNotFound) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "product not found")
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
