package reports

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/ledger/internal/platform/httpx"
)

// Handler exposes the ledger query endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds the handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers report routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/trial-balance", h.trialBalance)
	r.Get("/reports/account-balance", h.accountBalance)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	periodID := r.URL.Query().Get("period_id")
	if periodID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "period_id required")
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), periodID)
	if err != nil {
		h.logger.Error("trial balance", slog.String("period_id", periodID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="trial-balance-`+periodID+`.csv"`)
		if err := WriteTrialBalanceCSV(w, tb); err != nil {
			h.logger.Error("write trial balance csv", slog.Any("error", err))
		}
		return
	}
	httpx.JSON(w, http.StatusOK, tb)
}

type accountBalanceResponse struct {
	AccountID    string `json:"account_id"`
	AsOfPeriodID string `json:"as_of_period_id"`
	Rollup       bool   `json:"rollup"`
	Balance      int64  `json:"balance"`
}

func (h *Handler) accountBalance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	accountID, periodID := q.Get("account_id"), q.Get("as_of_period_id")
	if accountID == "" || periodID == "" {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "account_id and as_of_period_id required")
		return
	}
	rollup, _ := strconv.ParseBool(q.Get("rollup"))
	balance, err := h.service.AccountBalance(r.Context(), accountID, periodID, rollup)
	if err != nil {
		h.logger.Warn("account balance", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, accountBalanceResponse{
		AccountID:    accountID,
		AsOfPeriodID: periodID,
		Rollup:       rollup,
		Balance:      balance,
	})
}
