// Package api exposes the dashboard HTTP surface: scraper batch ingest,
// latest surebets, stake plans and the websocket subscription.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/surebet-tool/internal/datasource"
	"github.com/yourusername/surebet-tool/internal/metrics"
	"github.com/yourusername/surebet-tool/internal/models"
	"github.com/yourusername/surebet-tool/internal/publisher"
	"github.com/yourusername/surebet-tool/internal/push"
	"github.com/yourusername/surebet-tool/internal/service"
	"github.com/yourusername/surebet-tool/internal/stake"
)

// Config holds the API server configuration.
type Config struct {
	Port int
	// DeviationTolerance marks stake plans approximate when rounding moves
	// expected returns apart by more than this amount
	DeviationTolerance float64
}

// Server serves the dashboard API.
type Server struct {
	cfg       Config
	ingestion *service.IngestionService
	results   *publisher.ResultCache
	hub       *push.Hub
	metrics   *metrics.Metrics
	logger    *logrus.Logger
	server    *http.Server
}

// NewServer creates the API server
func NewServer(cfg Config, ingestion *service.IngestionService, results *publisher.ResultCache, hub *push.Hub, m *metrics.Metrics, logger *logrus.Logger) *Server {
	return &Server{
		cfg:       cfg,
		ingestion: ingestion,
		results:   results,
		hub:       hub,
		metrics:   m,
		logger:    logger,
	}
}

// Start runs the API server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/api/v1/data/ingest", s.handleIngest)
	mux.HandleFunc("/api/v1/surebets", s.handleSurebets)
	mux.HandleFunc("/api/v1/stakeplan", s.handleStakePlan)
	if s.hub != nil {
		mux.HandleFunc("/ws", s.hub.ServeWS)
	}

	s.server = &http.Server{
		Addr:         ":" + strconv.Itoa(s.cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.server.Shutdown(shutdownCtx)
	}()

	s.logger.WithField("port", s.cfg.Port).Info("API server starting")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server failed: %w", err)
	}
	return nil
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, r, http.StatusNotFound, "not found")
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]string{
		"service": "surebet-tool",
		"status":  "ok",
	})
}

// handleIngest accepts a pushed scraper batch. The whole batch is decoded and
// normalized before anything is committed.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sourceTag := r.URL.Query().Get("source")
	if sourceTag == "" {
		sourceTag = datasource.SourceTagScraper
	}

	records, err := datasource.DecodeScraperBatch(r.Body, time.Now().UTC())
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	upserted, rejections := s.ingestion.IngestBatch(r.Context(), records, sourceTag)

	s.writeJSON(w, r, http.StatusAccepted, map[string]any{
		"source":          sourceTag,
		"events_received": len(records),
		"events_upserted": upserted,
		"rejections":      rejections,
	})
}

// surebetView is the wire shape of one surebet. Numbers are rounded for
// display here and only here; internal values keep full precision.
type surebetView struct {
	EventID          string           `json:"event_id"`
	DisplayName      string           `json:"display_name"`
	Sport            string           `json:"sport"`
	Outcomes         []models.Outcome `json:"outcomes"`
	TotalInverseOdds float64          `json:"total_inverse_odds"`
	ProfitPercentage float64          `json:"profit_percentage"`
}

func toSurebetView(sb models.Surebet) surebetView {
	return surebetView{
		EventID:          sb.EventID,
		DisplayName:      sb.DisplayName,
		Sport:            sb.Sport,
		Outcomes:         sb.Outcomes,
		TotalInverseOdds: roundTo(sb.TotalInverseOdds, 4),
		ProfitPercentage: roundTo(sb.ProfitPercentage, 2),
	}
}

func (s *Server) handleSurebets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	pass, ok := s.results.Latest()
	if !ok {
		s.writeJSON(w, r, http.StatusOK, map[string]any{
			"surebets":       []surebetView{},
			"events_scanned": 0,
		})
		return
	}

	views := make([]surebetView, 0, len(pass.Surebets))
	for _, sb := range pass.Surebets {
		views = append(views, toSurebetView(sb))
	}

	s.writeJSON(w, r, http.StatusOK, map[string]any{
		"surebets":       views,
		"events_scanned": pass.EventsScanned,
		"detected_at":    pass.DetectedAt,
	})
}

type stakePlanRequest struct {
	EventID    string  `json:"event_id"`
	TotalStake float64 `json:"total_stake"`
}

type allocationView struct {
	Label          string  `json:"label"`
	Bookmaker      string  `json:"bookmaker"`
	Odds           float64 `json:"odds"`
	Stake          float64 `json:"stake"`
	ExpectedReturn float64 `json:"expected_return"`
}

type stakePlanView struct {
	EventID           string           `json:"event_id"`
	TotalStake        float64          `json:"total_stake"`
	Allocations       []allocationView `json:"allocations"`
	GuaranteedReturn  float64          `json:"guaranteed_return"`
	Profit            float64          `json:"profit"`
	RoundingDeviation float64          `json:"rounding_deviation"`
	Approximate       bool             `json:"approximate"`
}

func (s *Server) handleStakePlan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req stakePlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	surebet, found := s.results.Surebet(req.EventID)
	if !found {
		s.writeError(w, r, http.StatusNotFound, "no current surebet for event")
		return
	}

	// Best price per label: a surebet may carry more than one outcome per
	// label when bookmakers tie; allocation needs exactly one stake per label.
	best := surebet.BestByLabel()
	allocInput := surebet
	allocInput.Outcomes = make([]models.Outcome, 0, len(best))
	for _, label := range distinctLabels(surebet.Outcomes) {
		allocInput.Outcomes = append(allocInput.Outcomes, best[label])
	}

	plan, err := stake.Allocate(allocInput, req.TotalStake)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidStake):
			s.writeError(w, r, http.StatusBadRequest, "total_stake must be a positive number")
		case errors.Is(err, models.ErrNotArbitrage), errors.Is(err, models.ErrIncompleteMarket):
			s.writeError(w, r, http.StatusUnprocessableEntity, "event is not currently an arbitrage opportunity")
		default:
			s.writeError(w, r, http.StatusInternalServerError, "failed to compute stake plan")
		}
		return
	}

	if s.metrics != nil {
		s.metrics.StakePlans.Inc()
	}

	view := stakePlanView{
		EventID:           req.EventID,
		TotalStake:        roundTo(plan.TotalStake, 2),
		Allocations:       make([]allocationView, 0, len(plan.Allocations)),
		GuaranteedReturn:  roundTo(plan.GuaranteedReturn, 2),
		Profit:            roundTo(plan.Profit, 2),
		RoundingDeviation: roundTo(plan.RoundingDeviation, 4),
		Approximate:       plan.RoundingDeviation > s.cfg.DeviationTolerance,
	}
	for _, a := range plan.Allocations {
		view.Allocations = append(view.Allocations, allocationView{
			Label:          a.Label,
			Bookmaker:      a.Bookmaker,
			Odds:           a.Odds,
			Stake:          a.Stake,
			ExpectedReturn: roundTo(a.ExpectedReturn, 2),
		})
	}

	s.writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
	s.observe(r, status)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
	s.observe(r, status)
}

func (s *Server) observe(r *http.Request, status int) {
	if s.metrics != nil {
		s.metrics.HTTPRequests.WithLabelValues(r.URL.Path, strconv.Itoa(status)).Inc()
	}
}

func distinctLabels(outcomes []models.Outcome) []string {
	seen := make(map[string]bool, len(outcomes))
	labels := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if !seen[o.Label] {
			seen[o.Label] = true
			labels = append(labels, o.Label)
		}
	}
	return labels
}

func roundTo(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
