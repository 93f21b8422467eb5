package mqtt

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/steelroute/rakeflow/core/model"
	"github.com/steelroute/rakeflow/core/sim"
)

// Publisher pushes finished dispatch plans to downstream consumers.
type Publisher interface {
	PublishPlan(sol model.Solution, kpis *sim.KPISet) error
	Disconnect()
}

// planPayload is the wire format for a published plan.
type planPayload struct {
	RunID       string             `json:"run_id"`
	Method      string             `json:"method"`
	Status      string             `json:"status"`
	Objective   float64            `json:"objective"`
	Seed        int64              `json:"seed"`
	Assignments []model.Assignment `json:"assignments"`
	KPIs        *sim.KPISet        `json:"kpis,omitempty"`
	PublishedAt int64              `json:"published_at_ms"`
}

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	mu       sync.Mutex
	Plans    []model.Solution
	FailNext bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

// PublishPlan records the plan or returns an error if configured to fail.
func (m *MockPublisher) PublishPlan(sol model.Solution, _ *sim.KPISet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailNext {
		m.FailNext = false
		return fmt.Errorf("publish failed")
	}
	m.Plans = append(m.Plans, sol)
	return nil
}

// Disconnect is a no-op for the mock.
func (m *MockPublisher) Disconnect() {}

func marshalPlan(sol model.Solution, kpis *sim.KPISet) ([]byte, error) {
	return json.Marshal(planPayload{
		RunID:       sol.RunID,
		Method:      sol.Method,
		Status:      string(sol.Status),
		Objective:   sol.Objective,
		Seed:        sol.Seed,
		Assignments: sol.Assignments,
		KPIs:        kpis,
		PublishedAt: time.Now().UnixMilli(),
	})
}
