/*
Copyright SUSE LLC.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package resolver

import (
	"context"
	"fmt"
	"io"
	"math"
	"sync"

	"github.com/Masterminds/log-go"
	"github.com/pkg/errors"

	"github.com/rancher-sandbox/pkgresolver/internal/universe"
)

// Config holds the parameters of a Resolver.
type Config struct {
	Weights
	// Infinity bounds scores: steps scoring below -Infinity are dropped.
	// Zero disables the bound.
	Infinity int
	// FutureHorizon is how many extra steps are searched once a solution is
	// known, in case a better one is close by.
	FutureHorizon int
	// Initial hypothesises versions for some packages instead of the current
	// ones.
	Initial map[universe.Package]universe.Version
	Logger  log.Logger
	// Strict turns internal consistency failures into panics.
	Strict bool
}

// Counts is a snapshot of the search statistics.
type Counts struct {
	Open        int
	Closed      int
	Deferred    int
	Conflicts   int
	Promotions  int
	Finished    bool
	CurrentTier Tier
}

// Visitor is told about every package whose versions the search touched.
type Visitor func(universe.Package)

// Resolver searches for solutions to the broken dependencies of a universe.
type Resolver struct {
	u       universe.Universe
	initial *universe.InitialState
	scores  *scores
	minimum int
	horizon int
	logger  log.Logger
	strict  bool

	graph      *searchGraph
	pending    *stepQueue
	future     *stepQueue
	parked     map[int]bool
	closed     map[string]int
	promotions *PromotionSet
	// promotionQueue holds promotions not yet applied to the graph.
	promotionQueue []Promotion
	initialBroken  []universe.Dep
	versionTiers   []Tier
	deferrals      *deferrals
	watchers       map[int][]int
	returned       map[string]bool
	finished       bool
	violations     int

	execMu    sync.Mutex
	executing bool
	cancelled bool

	countsMu sync.Mutex
	counts   Counts
}

// New builds a resolver over u.
func New(u universe.Universe, cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Current
	}
	minimum := math.MinInt
	if cfg.Infinity > 0 {
		minimum = -cfg.Infinity
	}
	r := &Resolver{
		u:            u,
		initial:      universe.NewInitialState(u, cfg.Initial),
		scores:       newScores(cfg.Weights, u.VersionCount()),
		minimum:      minimum,
		horizon:      cfg.FutureHorizon,
		logger:       logger,
		strict:       cfg.Strict,
		graph:        newSearchGraph(),
		parked:       map[int]bool{},
		closed:       map[string]int{},
		promotions:   NewPromotionSet(),
		versionTiers: make([]Tier, u.VersionCount()),
		deferrals:    newDeferrals(),
		watchers:     map[int][]int{},
		returned:     map[string]bool{},
	}
	for i := range r.versionTiers {
		r.versionTiers[i] = MinimumTier
	}
	r.pending = newStepQueue(r.graph)
	r.future = newStepQueue(r.graph)
	r.initialBroken = universe.BrokenDeps(u, r.initial)
	r.counts.CurrentTier = MinimumTier
	for p, v := range r.initial.Overrides() {
		logger.Debugf("initial state: %s is %s", p.Name(), v.Name())
	}
	return r
}

// Universe returns the universe being searched.
func (r *Resolver) Universe() universe.Universe { return r.u }

// InitialState returns the installation the search starts from.
func (r *Resolver) InitialState() *universe.InitialState { return r.initial }

// InitialBroken returns the dependencies broken in the initial state.
func (r *Resolver) InitialBroken() []universe.Dep {
	return append([]universe.Dep(nil), r.initialBroken...)
}

// InvariantViolations counts internal consistency failures seen so far.
func (r *Resolver) InvariantViolations() int { return r.violations }

func (r *Resolver) invariant(format string, args ...any) {
	r.violations++
	msg := fmt.Sprintf(format, args...)
	r.logger.Errorf("internal error: %s", msg)
	if r.strict {
		panic(errors.New(msg))
	}
}

// SetVersionScore sets the score of installing v.
func (r *Resolver) SetVersionScore(v universe.Version, score int) {
	r.scores.versions[v.ID()] = score
}

// AddVersionScore adds to the score of installing v.
func (r *Resolver) AddVersionScore(v universe.Version, score int) {
	r.scores.versions[v.ID()] += score
}

// AddJointScore adds score to every solution that installs all of vs. It has
// no effect if one of vs is the version its package starts with.
func (r *Resolver) AddJointScore(vs []universe.Version, score int) {
	for _, v := range vs {
		if r.initial.VersionOf(v.Package()).ID() == v.ID() {
			return
		}
	}
	r.scores.addJoint(vs, score)
}

// VersionScore returns the score of installing v.
func (r *Resolver) VersionScore(v universe.Version) int {
	return r.scores.versions[v.ID()]
}

// Weights returns the score parameters.
func (r *Resolver) Weights() Weights { return r.scores.Weights }

// SetVersionTier sets the tier of installing v. Steps that install v are
// placed in that tier at least.
func (r *Resolver) SetVersionTier(v universe.Version, t Tier) {
	r.versionTiers[v.ID()] = t
}

// SetVersionMinTier raises the tier of v to t if it is lower.
func (r *Resolver) SetVersionMinTier(v universe.Version, t Tier) {
	if r.versionTiers[v.ID()].Less(t) {
		r.versionTiers[v.ID()] = t
	}
}

// VersionTier returns the tier of installing v.
func (r *Resolver) VersionTier(v universe.Version) Tier {
	return r.versionTiers[v.ID()]
}

// DumpScores writes the version and joint scores to w.
func (r *Resolver) DumpScores(w io.Writer) error {
	return r.scores.dump(w, r.u)
}

// RejectVersion defers any solution installing v. A mandate of v is lifted.
func (r *Resolver) RejectVersion(v universe.Version) {
	f := r.deferrals.version(v.ID())
	r.deferrals.set(f.approve, false)
	r.deferrals.set(f.forbid, true)
	r.flushDeferrals()
}

func (r *Resolver) UnrejectVersion(v universe.Version) {
	r.deferrals.set(r.deferrals.version(v.ID()).forbid, false)
	r.flushDeferrals()
}

// MandateVersion defers solutions that solve a dependency of v by other
// means than installing v. A rejection of v is lifted.
func (r *Resolver) MandateVersion(v universe.Version) {
	f := r.deferrals.version(v.ID())
	r.deferrals.set(f.forbid, false)
	r.deferrals.set(f.approve, true)
	r.flushDeferrals()
}

func (r *Resolver) UnmandateVersion(v universe.Version) {
	r.deferrals.set(r.deferrals.version(v.ID()).approve, false)
	r.flushDeferrals()
}

func (r *Resolver) IsRejected(v universe.Version) bool {
	return r.deferrals.version(v.ID()).forbid.value
}

func (r *Resolver) IsMandatory(v universe.Version) bool {
	return r.deferrals.version(v.ID()).approve.value
}

// HardenDep defers solutions that leave the soft dependency d broken. An
// approval to break d is lifted.
func (r *Resolver) HardenDep(d universe.Dep) error {
	if !d.IsSoft() {
		return errors.Errorf("cannot harden %s: not a soft dependency", universe.DepString(d))
	}
	f := r.deferrals.dep(d.ID())
	r.deferrals.set(f.approve, false)
	r.deferrals.set(f.forbid, true)
	r.flushDeferrals()
	return nil
}

func (r *Resolver) UnhardenDep(d universe.Dep) {
	r.deferrals.set(r.deferrals.dep(d.ID()).forbid, false)
	r.flushDeferrals()
}

// ApproveBreak defers solutions that solve d by installing something. A
// hardening of d is lifted.
func (r *Resolver) ApproveBreak(d universe.Dep) {
	f := r.deferrals.dep(d.ID())
	r.deferrals.set(f.forbid, false)
	r.deferrals.set(f.approve, true)
	r.flushDeferrals()
}

func (r *Resolver) UnapproveBreak(d universe.Dep) {
	r.deferrals.set(r.deferrals.dep(d.ID()).approve, false)
	r.flushDeferrals()
}

func (r *Resolver) IsHardened(d universe.Dep) bool {
	return r.deferrals.dep(d.ID()).forbid.value
}

func (r *Resolver) IsApprovedBroken(d universe.Dep) bool {
	return r.deferrals.dep(d.ID()).approve.value
}

// AddPromotion teaches the resolver that steps implying choices belong at
// least to tier t.
func (r *Resolver) AddPromotion(choices ChoiceSet, t Tier) {
	r.insertPromotion(NewPromotion(choices, t))
	r.settle()
}

// Promotions returns the promotions learned so far.
func (r *Resolver) Promotions() *PromotionSet { return r.promotions }

// Cancel asks a running search to stop at its next step. It is a no-op when
// nothing is running.
func (r *Resolver) Cancel() {
	r.execMu.Lock()
	defer r.execMu.Unlock()
	if r.executing {
		r.cancelled = true
	}
}

// Uncancel withdraws a pending cancellation.
func (r *Resolver) Uncancel() {
	r.execMu.Lock()
	defer r.execMu.Unlock()
	r.cancelled = false
}

func (r *Resolver) enter() error {
	r.execMu.Lock()
	defer r.execMu.Unlock()
	if r.executing {
		return ErrDoubleRun
	}
	r.executing = true
	r.cancelled = false
	return nil
}

func (r *Resolver) leave() {
	r.execMu.Lock()
	defer r.execMu.Unlock()
	r.executing = false
	r.cancelled = false
}

func (r *Resolver) interrupted(ctx context.Context) bool {
	r.execMu.Lock()
	c := r.cancelled
	r.execMu.Unlock()
	return c || ctx.Err() != nil
}

// Counts returns the search statistics. While a search runs the snapshot is
// the one taken at its last step.
func (r *Resolver) Counts() Counts {
	r.execMu.Lock()
	if !r.executing {
		r.updateCounts()
	}
	r.execMu.Unlock()
	r.countsMu.Lock()
	defer r.countsMu.Unlock()
	return r.counts
}

func (r *Resolver) updateCounts() {
	deferred := len(r.parked)
	for n := range r.future.all() {
		if r.graph.step(n).tier.IsDeferred() {
			deferred++
		}
	}
	tier := MinimumTier
	if n, ok := r.pending.first(); ok {
		tier = r.graph.step(n).tier
	}
	r.countsMu.Lock()
	defer r.countsMu.Unlock()
	r.counts = Counts{
		Open:        r.pending.Len(),
		Closed:      len(r.closed),
		Deferred:    deferred,
		Conflicts:   r.promotions.Conflicts(),
		Promotions:  r.promotions.Len() - r.promotions.Conflicts(),
		Finished:    r.finished,
		CurrentTier: tier,
	}
}

// Fresh reports whether no search has been started since the last Reset.
func (r *Resolver) Fresh() bool {
	return r.pending.Len() == 0 && r.future.Len() == 0 && len(r.parked) == 0 &&
		len(r.closed) == 0 && !r.finished
}

// Exhausted reports whether every solution has been produced.
func (r *Resolver) Exhausted() bool {
	return !r.pendingHasCandidate() && !r.futureHasCandidate() && r.finished
}

// Reset drops the search state and zeroes the version scores. Tiers,
// constraints and learned promotions are kept, except those recording the
// solutions already produced.
func (r *Resolver) Reset() {
	r.graph.clear()
	r.pending.clear()
	r.future.clear()
	r.parked = map[int]bool{}
	r.closed = map[string]int{}
	r.promotionQueue = nil
	r.watchers = map[int][]int{}
	r.returned = map[string]bool{}
	r.finished = false
	r.promotions.DropTier(AlreadyGeneratedTier)
	for i := range r.scores.versions {
		r.scores.versions[i] = 0
	}
	r.updateCounts()
}
