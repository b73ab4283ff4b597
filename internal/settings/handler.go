package settings

import (
	"log/slog"
	"net/http"
	"strconv"

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

type updateSettingsRequest struct {
	CurrencySymbol   string  `json:"currency_symbol" validate:"required,max=4"`
	DecimalPrecision int     `json:"decimal_precision" validate:"gte=0,lte=4"`
	MarkupPercent    float64 `json:"markup_percent" validate:"gte=0,lte=1000"`
	TaxPercent       float64 `json:"tax_percent" validate:"gte=0,lte=100"`
	RangeLowerPct    float64 `json:"range_lower_pct" validate:"gte=0,lte=100"`
	RangeUpperPct    float64 `json:"range_upper_pct" validate:"gte=0,lte=100"`
	ShowPriceRange   bool    `json:"show_price_range"`
	AnnotateRange    bool    `json:"annotate_range"`
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	orgID := orgIDFromRequest(r)

	s, err := h.service.Get(r.Context(), orgID)
	if err != nil {
		h.logger.Error("get settings failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, s)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	orgID := orgIDFromRequest(r)

	var req updateSettingsRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}

	saved, err := h.service.Update(r.Context(), QuoteSettings{
		OrgID:            orgID,
		CurrencySymbol:   req.CurrencySymbol,
		DecimalPrecision: req.DecimalPrecision,
		MarkupPercent:    req.MarkupPercent,
		TaxPercent:       req.TaxPercent,
		RangeLowerPct:    req.RangeLowerPct,
		RangeUpperPct:    req.RangeUpperPct,
		ShowPriceRange:   req.ShowPriceRange,
		AnnotateRange:    req.AnnotateRange,
	})
	if err != nil {
		h.logger.Error("update settings failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusBadRequest, "Update Failed", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, saved)
}

// orgIDFromRequest resolves the acting organisation. The auth collaborator in
// front of this service injects the header; a single-tenant install omits it.
func orgIDFromRequest(r *http.Request) int64 {
	if v := r.Header.Get("X-Org-ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil && id > 0 {
			return id
		}
	}
	return 1
}
