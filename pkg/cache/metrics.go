package cache

import "sync"

// Metrics accumulates cache outcome counts, both overall and per category
// (e.g. "context", "tool"). An empty category normalizes to "general" so
// every get/set/delete is always attributed somewhere.
type Metrics struct {
	mu sync.Mutex

	Hits    int64
	Misses  int64
	Sets    int64
	Deletes int64
	Errors  int64

	byCategory map[string]*categoryCounts
}

type categoryCounts struct {
	Hits    int64
	Misses  int64
	Sets    int64
	Deletes int64
	Errors  int64
}

// NewMetrics constructs an empty Metrics accumulator.
func NewMetrics() *Metrics {
	return &Metrics{byCategory: make(map[string]*categoryCounts)}
}

func normalizeCategory(category string) string {
	if category == "" {
		return "general"
	}
	return category
}

func (m *Metrics) category(category string) *categoryCounts {
	category = normalizeCategory(category)
	c, ok := m.byCategory[category]
	if !ok {
		c = &categoryCounts{}
		m.byCategory[category] = c
	}
	return c
}

func (m *Metrics) recordHit(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Hits++
	m.category(category).Hits++
}

func (m *Metrics) recordMiss(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Misses++
	m.category(category).Misses++
}

func (m *Metrics) recordSet(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	m.category(category).Sets++
}

func (m *Metrics) recordDelete(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deletes++
	m.category(category).Deletes++
}

func (m *Metrics) recordError(category string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors++
	m.category(category).Errors++
}

// Snapshot is a point-in-time copy of a Metrics accumulator, safe to read
// without holding any lock.
type Snapshot struct {
	Hits, Misses, Sets, Deletes, Errors int64
	ByCategory                          map[string]categoryCounts
}

// Snapshot returns a copy of the current counts.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	byCategory := make(map[string]categoryCounts, len(m.byCategory))
	for k, v := range m.byCategory {
		byCategory[k] = *v
	}
	return Snapshot{
		Hits:       m.Hits,
		Misses:     m.Misses,
		Sets:       m.Sets,
		Deletes:    m.Deletes,
		Errors:     m.Errors,
		ByCategory: byCategory,
	}
}
