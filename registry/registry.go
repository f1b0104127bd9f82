// Package registry creates and indexes sale instances. It implements the
// narrow factory/registry collaborator: registering instances under
// generated ids, looking them up, and listing live instances by scanning
// state.
package registry

import (
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v2"
	"go.uber.org/zap"

	"github.com/Faro-Company/FaroContracts/config"
	"github.com/Faro-Company/FaroContracts/core"
	"github.com/Faro-Company/FaroContracts/dutch"
	"github.com/Faro-Company/FaroContracts/english"
	"github.com/Faro-Company/FaroContracts/offering"
	"github.com/Faro-Company/FaroContracts/saleapi"
)

// Instance is what the registry knows about a sale: identity, ownership
// and the read accessors used to filter live listings.
type Instance interface {
	ID() string
	Owner() string
	State(now time.Time) core.State
	IsLive(now time.Time) bool
}

type entry struct {
	kind string
	inst Instance
}

// Registry indexes deployed sale instances. Lookups go through a
// concurrent map; the insertion order is kept separately for stable
// paging.
type Registry struct {
	limits config.Limits
	log    *zap.Logger
	emit   core.Emitter

	byID  *xsync.MapOf[string, entry]
	mu    xsync.RBMutex
	order []string
}

// New returns an empty registry applying the given limits to the
// instances it creates.
func New(limits config.Limits, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		limits: limits,
		log:    log,
		emit:   core.NewLogEmitter(log),
		byID:   xsync.NewMapOf[entry](),
	}
}

func (r *Registry) register(kind string, inst Instance) {
	r.byID.Store(inst.ID(), entry{kind: kind, inst: inst})
	r.mu.Lock()
	r.order = append(r.order, inst.ID())
	r.mu.Unlock()
	r.log.Info("sale registered", zap.String("kind", kind), zap.String("id", inst.ID()),
		zap.String("owner", inst.Owner()))
}

// CreateEnglish deploys and registers an English auction. A missing ID
// gets a generated uuid; a zero MaxDuration gets the registry's limit.
func (r *Registry) CreateEnglish(p english.Params, custody core.AssetCustody, rail core.PaymentRail) (*english.Auction, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.MaxDuration <= 0 {
		p.MaxDuration = r.limits.MaxAuctionDuration
	}
	a, err := english.New(p, custody, rail,
		english.WithLogger(r.log), english.WithEmitter(r.emit))
	if err != nil {
		return nil, err
	}
	r.register(saleapi.KindEnglish, a)
	return a, nil
}

// CreateDutch deploys and registers a Dutch auction. A missing ID gets a
// generated uuid; a zero TickDuration gets the registry's default.
func (r *Registry) CreateDutch(p dutch.Params, rail core.PaymentRail) (*dutch.Auction, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.TickDuration <= 0 {
		p.TickDuration = r.limits.TickDuration
	}
	a, err := dutch.New(p, rail,
		dutch.WithLogger(r.log), dutch.WithEmitter(r.emit))
	if err != nil {
		return nil, err
	}
	r.register(saleapi.KindDutch, a)
	return a, nil
}

// CreateOffering deploys and registers a fixed-price allocation sale.
func (r *Registry) CreateOffering(p offering.Params, rail core.PaymentRail) (*offering.Offering, error) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	o, err := offering.New(p, rail,
		offering.WithLogger(r.log), offering.WithEmitter(r.emit))
	if err != nil {
		return nil, err
	}
	r.register(saleapi.KindOffering, o)
	return o, nil
}

// Get returns the instance registered under id.
func (r *Registry) Get(id string) (Instance, bool) {
	e, ok := r.byID.Load(id)
	if !ok {
		return nil, false
	}
	return e.inst, true
}

// Count returns the number of registered instances.
func (r *Registry) Count() int {
	return r.byID.Size()
}

// Live scans the registration-order window [start, end) and returns the
// instances that are live at now. Bounds are clamped; a paused offering
// or any sale outside Started is excluded.
func (r *Registry) Live(start, end int, now time.Time) []Instance {
	t := r.mu.RLock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	r.mu.RUnlock(t)

	if start < 0 {
		start = 0
	}
	if end > len(ids) {
		end = len(ids)
	}
	if start >= end {
		return nil
	}

	live := make([]Instance, 0, end-start)
	for _, id := range ids[start:end] {
		e, ok := r.byID.Load(id)
		if !ok {
			continue
		}
		if e.inst.IsLive(now) {
			live = append(live, e.inst)
		}
	}
	return live
}

// LiveFirstPage returns the first page of live instances, sized by the
// configured LivePageSize limit.
func (r *Registry) LiveFirstPage(now time.Time) []Instance {
	return r.Live(0, r.limits.LivePageSize, now)
}

// Summaries returns the wire view of every registered instance in
// registration order.
func (r *Registry) Summaries(now time.Time) []saleapi.SaleSummary {
	t := r.mu.RLock()
	ids := make([]string, len(r.order))
	copy(ids, r.order)
	r.mu.RUnlock(t)

	summaries := make([]saleapi.SaleSummary, 0, len(ids))
	for _, id := range ids {
		e, ok := r.byID.Load(id)
		if !ok {
			continue
		}
		summaries = append(summaries, saleapi.SaleSummary{
			ID:    e.inst.ID(),
			Kind:  e.kind,
			Owner: e.inst.Owner(),
			State: e.inst.State(now).String(),
			Live:  e.inst.IsLive(now),
		})
	}
	return summaries
}
