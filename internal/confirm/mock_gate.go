package confirm

import (
	"context"

	"github.com/draketools/w2fill/internal/parse"
)

// MockGate is a scripted Gate for tests: it records what was presented and
// answers with a fixed decision.
type MockGate struct {
	Decision   Decision
	PresentErr error
	AwaitErr   error

	Presented []*parse.Record
	Awaited   int
}

func (m *MockGate) Present(_ context.Context, rec *parse.Record) error {
	m.Presented = append(m.Presented, rec)
	return m.PresentErr
}

func (m *MockGate) Await(_ context.Context) (Decision, error) {
	m.Awaited++
	return m.Decision, m.AwaitErr
}
