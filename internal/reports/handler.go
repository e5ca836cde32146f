package reports

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vaxtrack/vaxtrack-platform/internal/observability/metrics"
	"github.com/vaxtrack/vaxtrack-platform/pkg/logging"
)

// Handler serves the reporting endpoints. Results go through the Redis cache
// when one is configured; a nil cache or nil metrics simply disables that
// concern.
type Handler struct {
	agg     *Aggregator
	cache   *Cache
	metrics *metrics.ReportMetrics
	logger  *logging.Logger
}

func NewHandler(agg *Aggregator, cache *Cache, m *metrics.ReportMetrics, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{agg: agg, cache: cache, metrics: m, logger: logger}
}

// AgeDemographics handles GET /api/reports/demographics/age.
func (h *Handler) AgeDemographics(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, "demographics-age", func(ctx context.Context) (map[string]int, error) {
		return h.agg.AgeDistribution(ctx)
	})
}

// GenderDemographics handles GET /api/reports/demographics/gender.
func (h *Handler) GenderDemographics(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, "demographics-gender", func(ctx context.Context) (map[string]int, error) {
		return h.agg.GenderDistribution(ctx)
	})
}

// DiseaseDemographics handles GET /api/reports/demographics/preexisting.
func (h *Handler) DiseaseDemographics(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, "demographics-preexisting", func(ctx context.Context) (map[string]int, error) {
		return h.agg.DiseaseDistribution(ctx)
	})
}

// ProfessionDemographics handles GET /api/reports/demographics/profession.
func (h *Handler) ProfessionDemographics(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, "demographics-profession", func(ctx context.Context) (map[string]int, error) {
		return h.agg.ProfessionDistribution(ctx)
	})
}

// DailyDoses handles GET /api/reports/daily-doses.
func (h *Handler) DailyDoses(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, "daily-doses", func(ctx context.Context) ([]DailyDose, error) {
		return h.agg.DailyDoses(ctx)
	})
}

// PopulationCoverage handles GET /api/reports/population-coverage.
func (h *Handler) PopulationCoverage(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, "population-coverage", func(ctx context.Context) (*PopulationCoverage, error) {
		return h.agg.PopulationCoverage(ctx)
	})
}

// VaccineDistribution handles GET /api/reports/vaccine-distribution.
func (h *Handler) VaccineDistribution(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, "vaccine-distribution", func(ctx context.Context) (map[string]int, error) {
		return h.agg.VaccineDistribution(ctx)
	})
}

// HospitalPerformance handles GET /api/reports/hospital-performance.
func (h *Handler) HospitalPerformance(w http.ResponseWriter, r *http.Request) {
	serveReport(h, w, r, "hospital-performance", func(ctx context.Context) (map[string]int, error) {
		return h.agg.HospitalPerformance(ctx)
	})
}

// DataIntegrity handles GET /api/reports/debug/data-integrity. Never cached;
// operators use it to inspect the live data.
func (h *Handler) DataIntegrity(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	report, err := h.agg.DataIntegrity(r.Context())
	if err != nil {
		h.metrics.ObserveRequest("data-integrity", "error")
		h.logger.Error("failed to compute data integrity report", "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveLatency("data-integrity", time.Since(start).Seconds())
	h.metrics.ObserveRequest("data-integrity", "ok")
	writeJSON(w, report)
}

// serveReport is the shared cache-then-compute path. Cache write failures are
// logged and ignored; the computed report still goes out.
func serveReport[T any](h *Handler, w http.ResponseWriter, r *http.Request, name string, compute func(context.Context) (T, error)) {
	ctx := r.Context()

	var cached T
	if h.cache.Get(ctx, name, &cached) {
		h.metrics.ObserveCache(name, true)
		h.metrics.ObserveRequest(name, "ok")
		writeJSON(w, cached)
		return
	}
	h.metrics.ObserveCache(name, false)

	start := time.Now()
	report, err := compute(ctx)
	if err != nil {
		h.metrics.ObserveRequest(name, "error")
		h.logger.Error("failed to compute report", "report", name, "error", err)
		http.Error(w, `{"error": "internal server error"}`, http.StatusInternalServerError)
		return
	}
	h.metrics.ObserveLatency(name, time.Since(start).Seconds())
	h.metrics.ObserveRequest(name, "ok")

	if err := h.cache.Set(ctx, name, report); err != nil {
		h.logger.Warn("failed to cache report", "report", name, "error", err)
	}
	writeJSON(w, report)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
