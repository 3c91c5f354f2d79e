package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/dpx190/data-eng-hw/internal/report"
)

type Handler struct {
	reports report.Repository
}

func NewHandler(reports report.Repository) *Handler {
	return &Handler{reports: reports}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) UniqueUsers(w http.ResponseWriter, r *http.Request) {
	n, err := h.reports.UniqueUsers(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uniqueUsers": n})
}

func (h *Handler) Providers(w http.ResponseWriter, r *http.Request) {
	providers, err := h.reports.DistinctProviders(r.Context())
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if providers == nil {
		providers = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": providers})
}

func (h *Handler) TopProperty(w http.ResponseWriter, r *http.Request) {
	pc, err := h.reports.MostChangedProperty(r.Context())
	if err != nil {
		if errors.Is(err, report.ErrNoData) {
			http.Error(w, "no data", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, pc)
}

func (h *Handler) Impressions(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = report.DefaultProvider
	}
	date := r.URL.Query().Get("date")
	if date == "" {
		date = report.DefaultDate
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		http.Error(w, "bad date", http.StatusBadRequest)
		return
	}

	n, err := h.reports.ImpressionCount(r.Context(), provider, date)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"provider":    provider,
		"date":        date,
		"impressions": n,
	})
}

func (h *Handler) TopAd(w http.ResponseWriter, r *http.Request) {
	property := r.URL.Query().Get("property")
	if property == "" {
		property = report.DefaultProperty
	}
	value := r.URL.Query().Get("value")
	if value == "" {
		value = report.DefaultValue
	}

	ac, err := h.reports.TopAdForSegment(r.Context(), property, value)
	if err != nil {
		if errors.Is(err, report.ErrNoData) {
			http.Error(w, "no data", http.StatusNotFound)
			return
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, ac)
}

func (h *Handler) TopAds(w http.ResponseWriter, r *http.Request) {
	limit := report.DefaultTopAds
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	ads, err := h.reports.TopAdsByReach(r.Context(), limit)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if ads == nil {
		ads = []report.AdCount{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ads": ads})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
