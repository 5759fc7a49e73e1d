// Package runner orchestrates a full planning run: load the input tables,
// derive safety stocks and route fees, solve, export, and record the
// outcome.
package runner

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aristath/fundflow/internal/config"
	"github.com/aristath/fundflow/internal/domain"
	"github.com/aristath/fundflow/internal/events"
	"github.com/aristath/fundflow/internal/modules/fees"
	"github.com/aristath/fundflow/internal/modules/ingest"
	"github.com/aristath/fundflow/internal/modules/kpi"
	"github.com/aristath/fundflow/internal/modules/monitor"
	"github.com/aristath/fundflow/internal/modules/plancache"
	"github.com/aristath/fundflow/internal/modules/planner"
	"github.com/aristath/fundflow/internal/modules/safety"
)

const dateLayout = "2006-01-02"

// Paths locates the four input tables and the plan output. Out may be
// empty to skip the CSV export.
type Paths struct {
	Master   string
	FeeTable string
	Balance  string
	Cashflow string
	Out      string
}

// Archiver pushes an exported plan to long-term storage.
type Archiver interface {
	UploadPlan(ctx context.Context, runID, filePath string) (string, error)
}

// Exporter writes the transfer plan for downstream settlement tooling.
type Exporter func(transfers []domain.Transfer, path string) error

// Options wires the service's collaborators. Cache, Runs, KPILog, Archive
// and Bus are optional; a nil field disables that concern.
type Options struct {
	Params  config.Params
	Planner *planner.Planner
	Export  Exporter
	Cache   *plancache.Cache
	Runs    *RunRepository
	KPILog  *kpi.Logger
	Archive Archiver
	Bus     *events.Bus
	Log     zerolog.Logger
}

// Result is the outcome of one run.
type Result struct {
	RunID   string
	Plan    planner.Plan
	Cached  bool
	OutPath string
}

// Service runs the end-to-end pipeline.
type Service struct {
	opts Options
	log  zerolog.Logger
}

// New creates the service.
func New(opts Options) *Service {
	return &Service{
		opts: opts,
		log:  opts.Log.With().Str("component", "runner").Logger(),
	}
}

// Run executes one planning run. A non-optimal solve is reported in the
// result, not as an error; errors mean the pipeline itself failed.
func (s *Service) Run(ctx context.Context, paths Paths) (Result, error) {
	runID := uuid.NewString()
	started := time.Now()
	log := s.log.With().Str("run_id", runID).Logger()
	log.Info().Msg("Planning run started")
	s.publish(events.Event{Type: events.TypeRunStarted, RunID: runID, Timestamp: started})

	res, err := s.run(ctx, log, runID, paths)
	if err != nil {
		log.Error().Err(err).Msg("Planning run failed")
		s.publish(events.Event{
			Type: events.TypeRunFailed, RunID: runID,
			Error: err.Error(), Timestamp: time.Now(),
		})
		s.record(log, runID, started, "failed", planner.Plan{})
		return Result{}, err
	}

	s.record(log, runID, started, string(res.Plan.Status), res.Plan)
	s.publish(events.Event{
		Type: events.TypeRunCompleted, RunID: runID,
		Status: string(res.Plan.Status), TotalFee: res.Plan.TotalFee,
		Timestamp: time.Now(),
	})
	log.Info().
		Str("status", string(res.Plan.Status)).
		Bool("cached", res.Cached).
		Float64("total_fee", res.Plan.TotalFee).
		Msg("Planning run finished")
	return res, nil
}

func (s *Service) run(ctx context.Context, log zerolog.Logger, runID string, paths Paths) (Result, error) {
	loadTimer := monitor.Start("load", log)
	master, err := ingest.LoadMaster(paths.Master)
	if err != nil {
		return Result{}, fmt.Errorf("load master: %w", err)
	}
	feeRules, err := ingest.LoadFeeTable(paths.FeeTable)
	if err != nil {
		return Result{}, fmt.Errorf("load fee table: %w", err)
	}
	balances, err := ingest.LoadBalances(paths.Balance)
	if err != nil {
		return Result{}, fmt.Errorf("load balances: %w", err)
	}
	cashflow, err := ingest.LoadCashflow(paths.Cashflow)
	if err != nil {
		return Result{}, fmt.Errorf("load cashflow: %w", err)
	}
	loadTimer.Stop()

	req, err := s.buildRequest(master, feeRules, balances, cashflow)
	if err != nil {
		return Result{}, err
	}

	result := Result{RunID: runID}

	fingerprint := plancache.Fingerprint(req)
	if s.opts.Cache != nil {
		plan, ok, err := s.opts.Cache.Get(fingerprint)
		if err != nil {
			log.Warn().Err(err).Msg("Plan cache lookup failed")
		} else if ok {
			log.Info().Str("fingerprint", fingerprint).Msg("Plan served from cache")
			result.Plan = plan
			result.Cached = true
		}
	}

	if !result.Cached {
		solveTimer := monitor.Start("solve", log)
		plan, err := s.opts.Planner.Solve(ctx, req)
		solveTimer.Stop()
		if err != nil {
			return Result{}, fmt.Errorf("solve: %w", err)
		}
		result.Plan = plan
		if s.opts.Cache != nil && plan.Optimal() {
			if err := s.opts.Cache.Put(fingerprint, plan); err != nil {
				log.Warn().Err(err).Msg("Plan cache write failed")
			}
		}
	}

	if result.Plan.Optimal() && paths.Out != "" {
		if err := s.export(result.Plan.Transfers, paths.Out); err != nil {
			return Result{}, fmt.Errorf("export plan: %w", err)
		}
		result.OutPath = paths.Out
		if s.opts.Archive != nil {
			if key, err := s.opts.Archive.UploadPlan(ctx, runID, paths.Out); err != nil {
				log.Warn().Err(err).Msg("Plan archive upload failed")
			} else {
				log.Info().Str("key", key).Msg("Plan archived")
			}
		}
	}
	return result, nil
}

func (s *Service) export(transfers []domain.Transfer, path string) error {
	if s.opts.Export == nil {
		return fmt.Errorf("no exporter configured")
	}
	return s.opts.Export(transfers, path)
}

// buildRequest derives the solver inputs from the raw tables. Identifier
// ordering follows first appearance in the master so runs are reproducible.
func (s *Service) buildRequest(
	master []domain.MasterRow,
	feeRules []domain.FeeRule,
	balances []domain.BalanceSnapshot,
	cashflow []domain.CashflowObservation,
) (planner.Request, error) {
	if len(master) == 0 {
		return planner.Request{}, fmt.Errorf("master table is empty")
	}
	if len(cashflow) == 0 {
		return planner.Request{}, fmt.Errorf("cashflow history is empty")
	}

	var banks, services []string
	branches := make(map[string][]string)
	cutOffs := make(map[domain.BankService]string)
	seenBank := make(map[string]bool)
	seenBranch := make(map[domain.Account]bool)
	seenService := make(map[string]bool)
	for _, row := range master {
		if !seenBank[row.Bank] {
			seenBank[row.Bank] = true
			banks = append(banks, row.Bank)
		}
		acct := domain.Account{Bank: row.Bank, Branch: row.Branch}
		if !seenBranch[acct] {
			seenBranch[acct] = true
			branches[row.Bank] = append(branches[row.Bank], row.Branch)
		}
		if !seenService[row.Service] {
			seenService[row.Service] = true
			services = append(services, row.Service)
		}
		if row.CutOffTime != "" {
			cutOffs[domain.BankService{Bank: row.Bank, Service: row.Service}] = row.CutOffTime
		}
	}

	safetyStock, err := safety.Estimate(cashflow, s.opts.Params.HorizonDays, s.opts.Params.Quantile)
	if err != nil {
		return planner.Request{}, fmt.Errorf("estimate safety stock: %w", err)
	}

	routeFees, err := fees.BuildRouteFees(feeRules)
	if err != nil {
		return planner.Request{}, fmt.Errorf("build route fees: %w", err)
	}

	// The planning horizon is the set of observed cashflow dates; the net
	// forecast is inflow-positive.
	netCash := make(map[domain.BankDay]int64)
	daySet := make(map[string]bool)
	for _, o := range cashflow {
		day := o.Date.Format(dateLayout)
		daySet[day] = true
		signed := o.Amount
		if o.Direction == domain.DirectionOut {
			signed = -o.Amount
		}
		netCash[domain.BankDay{Bank: o.Bank, Day: day}] += signed
	}
	days := make([]string, 0, len(daySet))
	for d := range daySet {
		days = append(days, d)
	}
	sort.Strings(days)

	initial := make(map[string]int64, len(balances))
	for _, b := range balances {
		initial[b.Bank] = b.Balance
	}

	return planner.Request{
		Banks:            banks,
		Branches:         branches,
		Days:             days,
		Services:         services,
		NetCash:          netCash,
		InitialBalance:   initial,
		Safety:           safetyStock,
		RouteFees:        routeFees,
		CutOffs:          cutOffs,
		ShortfallPenalty: s.opts.Params.ShortfallPenalty,
		PlanningTime:     s.opts.Params.PlanningTime,
	}, nil
}

func (s *Service) record(log zerolog.Logger, runID string, started time.Time, status string, plan planner.Plan) {
	memMB, cpuPct := kpi.Snapshot()
	rec := kpi.Record{
		Timestamp:      started,
		RunID:          runID,
		Status:         status,
		TotalFee:       int64(math.Round(plan.TotalFee)),
		TotalShortfall: int64(math.Round(plan.TotalShortfall)),
		RuntimeSec:     time.Since(started).Seconds(),
		MemMB:          memMB,
		CPUPercent:     cpuPct,
	}
	if s.opts.KPILog != nil {
		if err := s.opts.KPILog.Append(rec); err != nil {
			log.Warn().Err(err).Msg("KPI log append failed")
		}
	}
	if s.opts.Runs != nil {
		if err := s.opts.Runs.Save(rec); err != nil {
			log.Warn().Err(err).Msg("Run history save failed")
		}
	}
}

func (s *Service) publish(ev events.Event) {
	if s.opts.Bus != nil {
		s.opts.Bus.Publish(ev)
	}
}
