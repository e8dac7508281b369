package abtest

import (
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"

	"github.com/routecore/routecore/logging"
)

// Manager owns experiments, cached assignments and the exposure log. Safe
// for concurrent use. All state is process-local.
type Manager struct {
	mu          sync.RWMutex
	experiments map[string]*Experiment
	assignments map[string]Assignment // keyed by userID + "\x00" + experimentID
	results     map[string][]Result   // keyed by experimentID

	logger logging.Logger
	now    func() time.Time
}

// NewManager constructs an empty Manager.
func NewManager(logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Manager{
		experiments: make(map[string]*Experiment),
		assignments: make(map[string]Assignment),
		results:     make(map[string][]Result),
		logger:      logger,
		now:         time.Now,
	}
}

// Register validates and stores an experiment. A missing ID is generated,
// a missing status defaults to draft, a missing metric to success rate.
func (m *Manager) Register(exp Experiment) (*Experiment, error) {
	if err := exp.Validate(); err != nil {
		return nil, fmt.Errorf("register experiment: %w", err)
	}
	if exp.ID == "" {
		exp.ID = uuid.NewString()
	}
	if exp.Status == "" {
		exp.Status = StatusDraft
	}
	if exp.PrimaryMetric == "" {
		exp.PrimaryMetric = MetricSuccessRate
	}
	if exp.CreatedAt.IsZero() {
		exp.CreatedAt = m.now()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.experiments[exp.ID]; exists {
		return nil, fmt.Errorf("register experiment: id %q already registered", exp.ID)
	}
	m.experiments[exp.ID] = &exp
	m.logger.Info("experiment registered", "experiment_id", exp.ID, "name", exp.Name)
	return &exp, nil
}

// UpdateStatus advances an experiment through its lifecycle. Illegal
// transitions are configuration errors.
func (m *Manager) UpdateStatus(experimentID string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	exp, ok := m.experiments[experimentID]
	if !ok {
		return fmt.Errorf("experiment %q not found", experimentID)
	}
	if !canTransition(exp.Status, status) {
		return fmt.Errorf("experiment %q cannot transition %s -> %s", experimentID, exp.Status, status)
	}
	exp.Status = status
	m.logger.Info("experiment status changed", "experiment_id", experimentID, "status", string(status))
	return nil
}

// Experiment returns a copy of a registered experiment.
func (m *Manager) Experiment(experimentID string) (Experiment, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	exp, ok := m.experiments[experimentID]
	if !ok {
		return Experiment{}, false
	}
	return *exp, true
}

// Assign maps a user to a variant of a running experiment, with no
// organization or category context for targeting.
func (m *Manager) Assign(userID, experimentID string) *Variant {
	return m.AssignScoped(userID, experimentID, "", "")
}

// AssignScoped maps a user to a variant. The bucket is a deterministic hash
// of (userID, experimentID) modulo 100, allocated to the control first and
// then the treatments in declared order; the computed assignment is cached so
// repeated calls are stable. Experiments that are not running, or for which
// the user fails targeting, yield nil.
func (m *Manager) AssignScoped(userID, experimentID, organizationID, category string) *Variant {
	m.mu.RLock()
	exp, ok := m.experiments[experimentID]
	if !ok || exp.Status != StatusRunning || !eligible(exp, userID, organizationID, category) {
		m.mu.RUnlock()
		return nil
	}
	expCopy := *exp

	key := assignmentKey(userID, experimentID)
	if cached, ok := m.assignments[key]; ok {
		variant, found := expCopy.variantByID(cached.VariantID)
		m.mu.RUnlock()
		if found {
			return &variant
		}
		return nil
	}
	m.mu.RUnlock()

	bucket := int(xxhash.Sum64String(userID+":"+experimentID) % 100)
	variant := variantForBucket(&expCopy, bucket)

	m.mu.Lock()
	// Recheck under the write lock; a concurrent call may have assigned first.
	if cached, ok := m.assignments[key]; ok {
		if v, found := expCopy.variantByID(cached.VariantID); found {
			m.mu.Unlock()
			return &v
		}
	}
	m.assignments[key] = Assignment{ExperimentID: experimentID, VariantID: variant.ID, AssignedAt: m.now()}
	m.mu.Unlock()

	return &variant
}

// assignmentKey builds the (user, experiment) cache key.
func assignmentKey(userID, experimentID string) string {
	return userID + "\x00" + experimentID
}

// variantForBucket resolves a traffic bucket to a variant: control owns the
// first range, treatments the rest in declared order.
func variantForBucket(exp *Experiment, bucket int) Variant {
	upper := exp.Control.TrafficPercent
	if bucket < upper {
		return exp.Control
	}
	for _, v := range exp.Treatments {
		upper += v.TrafficPercent
		if bucket < upper {
			return v
		}
	}
	// Unreachable when percentages sum to 100; fall back to control.
	return exp.Control
}

// eligible applies the experiment's targeting filters. Empty filters are
// unrestricted.
func eligible(exp *Experiment, userID, organizationID, category string) bool {
	if len(exp.TargetUserIDs) > 0 && !contains(exp.TargetUserIDs, userID) {
		return false
	}
	if len(exp.TargetOrganizationIDs) > 0 && !contains(exp.TargetOrganizationIDs, organizationID) {
		return false
	}
	if len(exp.TargetCategories) > 0 && !contains(exp.TargetCategories, category) {
		return false
	}
	return true
}

func contains(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}

// RecordResult appends one exposure to the log. Unknown experiments or
// variants are rejected; a missing ID and timestamp are filled in.
func (m *Manager) RecordResult(res Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	exp, ok := m.experiments[res.ExperimentID]
	if !ok {
		return fmt.Errorf("record result: experiment %q not found", res.ExperimentID)
	}
	if _, ok := exp.variantByID(res.VariantID); !ok {
		return fmt.Errorf("record result: variant %q not in experiment %q", res.VariantID, res.ExperimentID)
	}

	if res.ID == "" {
		res.ID = uuid.NewString()
	}
	if res.Timestamp.IsZero() {
		res.Timestamp = m.now()
	}

	m.results[res.ExperimentID] = append(m.results[res.ExperimentID], res)
	return nil
}

// Stats recomputes experiment statistics from the full exposure log: per
// variant aggregates plus a two-proportion z-test of the control against the
// best-performing treatment on the experiment's primary metric. The test
// requires at least 30 samples in each arm; p < 0.05 marks a winner.
func (m *Manager) Stats(experimentID string) (ExperimentStats, error) {
	m.mu.RLock()
	exp, ok := m.experiments[experimentID]
	if !ok {
		m.mu.RUnlock()
		return ExperimentStats{}, fmt.Errorf("experiment %q not found", experimentID)
	}
	results := m.results[experimentID]
	expCopy := *exp
	m.mu.RUnlock()

	stats := ExperimentStats{
		ExperimentID:   experimentID,
		Status:         expCopy.Status,
		TotalExposures: len(results),
	}

	controlStats := computeVariantStats(expCopy.Control.ID, results)
	stats.Variants = append(stats.Variants, controlStats)

	var best *VariantStats
	for _, v := range expCopy.Treatments {
		vs := computeVariantStats(v.ID, results)
		stats.Variants = append(stats.Variants, vs)
		if vs.SampleSize == 0 {
			continue
		}
		if best == nil || betterThan(expCopy.PrimaryMetric, metricValue(expCopy.PrimaryMetric, vs), metricValue(expCopy.PrimaryMetric, *best)) {
			copied := vs
			best = &copied
		}
	}

	if best != nil && controlStats.SampleSize >= minSamplesForSignificance && best.SampleSize >= minSamplesForSignificance {
		z, p := twoProportionZTest(controlStats.SuccessCount, controlStats.SampleSize, best.SuccessCount, best.SampleSize)
		sig := &Significance{
			ControlID:   expCopy.Control.ID,
			TreatmentID: best.VariantID,
			ZScore:      z,
			PValue:      p,
			Significant: p < significanceAlpha,
		}
		if sig.Significant {
			controlValue := metricValue(expCopy.PrimaryMetric, controlStats)
			bestValue := metricValue(expCopy.PrimaryMetric, *best)
			if betterThan(expCopy.PrimaryMetric, bestValue, controlValue) {
				sig.WinnerID = best.VariantID
			} else {
				sig.WinnerID = expCopy.Control.ID
			}
		}
		stats.Significance = sig
	}

	return stats, nil
}
