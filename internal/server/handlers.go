package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/aristath/fundflow/internal/modules/kpi"
	"github.com/aristath/fundflow/internal/modules/runner"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// runRequest optionally overrides the configured input paths.
type runRequest struct {
	Master   string `json:"master,omitempty"`
	FeeTable string `json:"fee_table,omitempty"`
	Balance  string `json:"balance,omitempty"`
	Cashflow string `json:"cashflow,omitempty"`
	Out      string `json:"out,omitempty"`
}

type runResponse struct {
	RunID          string  `json:"run_id"`
	Status         string  `json:"status"`
	Cached         bool    `json:"cached"`
	TotalFee       float64 `json:"total_fee"`
	TotalShortfall float64 `json:"total_shortfall"`
	Transfers      int     `json:"transfers"`
	OutPath        string  `json:"out_path,omitempty"`
}

func (s *Server) handleTriggerRun(w http.ResponseWriter, r *http.Request) {
	paths := s.cfg.Paths
	if r.Body != nil && r.ContentLength != 0 {
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		paths = overridePaths(paths, req)
	}

	started := time.Now()
	res, err := s.cfg.Runner.Run(r.Context(), paths)
	if err != nil {
		s.metrics.observeRun("failed", time.Since(started).Seconds())
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.metrics.observeRun(string(res.Plan.Status), time.Since(started).Seconds())

	s.writeJSON(w, http.StatusOK, runResponse{
		RunID:          res.RunID,
		Status:         string(res.Plan.Status),
		Cached:         res.Cached,
		TotalFee:       res.Plan.TotalFee,
		TotalShortfall: res.Plan.TotalShortfall,
		Transfers:      len(res.Plan.Transfers),
		OutPath:        res.OutPath,
	})
}

func overridePaths(base runner.Paths, req runRequest) runner.Paths {
	if req.Master != "" {
		base.Master = req.Master
	}
	if req.FeeTable != "" {
		base.FeeTable = req.FeeTable
	}
	if req.Balance != "" {
		base.Balance = req.Balance
	}
	if req.Cashflow != "" {
		base.Cashflow = req.Cashflow
	}
	if req.Out != "" {
		base.Out = req.Out
	}
	return base
}

func intQuery(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func (s *Server) handleRecentRuns(w http.ResponseWriter, r *http.Request) {
	limit := intQuery(r, "limit", 20)
	runs, err := s.cfg.Runs.Recent(limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []kpi.Record{}
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleRecentKPI(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 30)
	records, err := s.cfg.KPILog.LoadRecent(days)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []kpi.Record{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleKPITrend(w http.ResponseWriter, r *http.Request) {
	days := intQuery(r, "days", 90)
	window := intQuery(r, "window", 7)

	records, err := s.cfg.KPILog.LoadRecent(days)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	sma := kpi.FeeTrend(records, window)
	ema := kpi.FeeTrendExp(records, window)
	if sma == nil {
		sma = []float64{}
	}
	if ema == nil {
		ema = []float64{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"window": window,
		"sma":    sma,
		"ema":    ema,
	})
}
