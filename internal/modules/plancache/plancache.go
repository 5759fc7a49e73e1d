// Package plancache caches solved plans keyed by a fingerprint of the
// solver request, so re-running an unchanged input set skips the solve.
package plancache

import (
	"crypto/md5"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/aristath/fundflow/internal/database"
	"github.com/aristath/fundflow/internal/domain"
	"github.com/aristath/fundflow/internal/modules/planner"
	"github.com/aristath/fundflow/internal/solver"
)

// Fingerprint hashes a request into a stable cache key. Map fields are
// flattened into sorted key/value lists so iteration order cannot leak
// into the hash.
func Fingerprint(req planner.Request) string {
	flat := struct {
		Banks            []string
		Branches         []string
		Days             []string
		Services         []string
		NetCash          []string
		InitialBalance   []string
		Safety           []string
		RouteFees        []string
		CutOffs          []string
		ShortfallPenalty float64
		PlanningTime     string
	}{
		Banks:            req.Banks,
		Days:             req.Days,
		Services:         req.Services,
		ShortfallPenalty: req.ShortfallPenalty,
		PlanningTime:     req.PlanningTime,
	}

	for bank, brs := range req.Branches {
		for _, br := range brs {
			flat.Branches = append(flat.Branches, bank+"|"+br)
		}
	}
	for k, v := range req.NetCash {
		flat.NetCash = append(flat.NetCash, fmt.Sprintf("%s|%s|%d", k.Bank, k.Day, v))
	}
	for k, v := range req.InitialBalance {
		flat.InitialBalance = append(flat.InitialBalance, fmt.Sprintf("%s|%d", k, v))
	}
	for k, v := range req.Safety {
		flat.Safety = append(flat.Safety, fmt.Sprintf("%s|%d", k, v))
	}
	for k, v := range req.RouteFees {
		flat.RouteFees = append(flat.RouteFees, fmt.Sprintf("%s|%s|%s|%s|%s|%d",
			k.FromBank, k.FromBranch, k.ToBank, k.ToBranch, k.Service, v))
	}
	for k, v := range req.CutOffs {
		flat.CutOffs = append(flat.CutOffs, fmt.Sprintf("%s|%s|%s", k.Bank, k.Service, v))
	}
	sort.Strings(flat.Branches)
	sort.Strings(flat.NetCash)
	sort.Strings(flat.InitialBalance)
	sort.Strings(flat.Safety)
	sort.Strings(flat.RouteFees)
	sort.Strings(flat.CutOffs)

	data, err := json.Marshal(flat)
	if err != nil {
		// Marshalling strings and floats cannot fail; keep the signature
		// honest anyway.
		return ""
	}
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// bankDayValue flattens a struct-keyed map entry for the msgpack payload.
type bankDayValue struct {
	Bank  string
	Day   string
	Value float64
}

type payload struct {
	Status         string
	Transfers      []domain.Transfer
	Balances       []bankDayValue
	Shortfalls     []bankDayValue
	TotalFee       float64
	TotalShortfall float64
	Objective      float64
}

func toPayload(plan planner.Plan) payload {
	p := payload{
		Status:         string(plan.Status),
		Transfers:      plan.Transfers,
		TotalFee:       plan.TotalFee,
		TotalShortfall: plan.TotalShortfall,
		Objective:      plan.Objective,
	}
	for k, v := range plan.Balances {
		p.Balances = append(p.Balances, bankDayValue{Bank: k.Bank, Day: k.Day, Value: v})
	}
	for k, v := range plan.Shortfalls {
		p.Shortfalls = append(p.Shortfalls, bankDayValue{Bank: k.Bank, Day: k.Day, Value: v})
	}
	return p
}

func fromPayload(p payload) planner.Plan {
	plan := planner.Plan{
		Status:         solver.Status(p.Status),
		Transfers:      p.Transfers,
		Balances:       make(map[domain.BankDay]float64, len(p.Balances)),
		Shortfalls:     make(map[domain.BankDay]float64, len(p.Shortfalls)),
		TotalFee:       p.TotalFee,
		TotalShortfall: p.TotalShortfall,
		Objective:      p.Objective,
	}
	for _, e := range p.Balances {
		plan.Balances[domain.BankDay{Bank: e.Bank, Day: e.Day}] = e.Value
	}
	for _, e := range p.Shortfalls {
		plan.Shortfalls[domain.BankDay{Bank: e.Bank, Day: e.Day}] = e.Value
	}
	return plan
}

// Cache stores msgpack-encoded plans in the plan_cache table.
type Cache struct {
	db *database.DB
}

// New creates a cache over the given store.
func New(db *database.DB) *Cache {
	return &Cache{db: db}
}

// Get returns the cached plan for the fingerprint, reporting whether one
// was found.
func (c *Cache) Get(fingerprint string) (planner.Plan, bool, error) {
	var blob []byte
	err := c.db.Conn().QueryRow(
		`SELECT payload FROM plan_cache WHERE fingerprint = ?`, fingerprint).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return planner.Plan{}, false, nil
	}
	if err != nil {
		return planner.Plan{}, false, err
	}

	var p payload
	if err := msgpack.Unmarshal(blob, &p); err != nil {
		return planner.Plan{}, false, fmt.Errorf("decode cached plan: %w", err)
	}
	return fromPayload(p), true, nil
}

// Put stores the plan under the fingerprint, replacing any previous entry.
func (c *Cache) Put(fingerprint string, plan planner.Plan) error {
	blob, err := msgpack.Marshal(toPayload(plan))
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	_, err = c.db.Conn().Exec(
		`INSERT OR REPLACE INTO plan_cache (fingerprint, created_at, payload) VALUES (?, ?, ?)`,
		fingerprint, time.Now().UTC().Format(time.RFC3339), blob)
	return err
}
