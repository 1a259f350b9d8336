package runner

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pyneda/stapi/pkg/client"
	"github.com/pyneda/stapi/pkg/client/clienttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*clienttest.Backend, *client.Client) {
	t.Helper()
	backend := clienttest.New(t)
	user := backend.AddUser("alice", "alice@example.com", "secret123")
	backend.AddAPI(client.API{Name: "Shop", URL: "https://shop.example.com", AddedBy: user.PK})
	backend.AddAPI(client.API{Name: "Bank", URL: "https://bank.example.com", AddedBy: user.PK})
	backend.AddTest("SQL Injection", "")
	backend.AddTest("Auth bypass", "")
	backend.AddTest("Rate limit", "")
	backend.SetOutcome(2, client.StatusVulnerable, "token reuse")
	return backend, backend.Client(t, client.StaticToken(backend.IssueToken("alice")))
}

func countPrefix(requests []string, prefix string) int {
	n := 0
	for _, r := range requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyBatch, s)
	s, err = ParseStrategy("Parallel")
	require.NoError(t, err)
	assert.Equal(t, StrategyParallel, s)
	_, err = ParseStrategy("serial")
	assert.Error(t, err)
}

func TestBatchRun(t *testing.T) {
	backend, c := setup(t)
	outcomes, err := New(c.Tests, Options{}).Run(context.Background(), []int{2, 1, 2})
	require.NoError(t, err)
	require.Len(t, outcomes, 6)

	assert.Equal(t, 1, outcomes[0].APIID)
	assert.Equal(t, 1, outcomes[0].TestID)
	assert.Equal(t, "SQL Injection", outcomes[0].TestName)
	assert.Equal(t, client.StatusVulnerable, outcomes[1].Status)
	assert.Equal(t, 2, outcomes[3].APIID)
	assert.True(t, HasVulnerable(outcomes))

	assert.Equal(t, 2, countPrefix(backend.Requests(), "POST /run-tests/"))
	assert.Zero(t, countPrefix(backend.Requests(), "POST /run-test/"))
}

func TestParallelRun(t *testing.T) {
	backend, c := setup(t)
	backend.FailRun(3)

	outcomes, err := New(c.Tests, Options{Strategy: StrategyParallel, Concurrency: 2}).Run(context.Background(), []int{1})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Equal(t, []int{1, 2, 3}, []int{outcomes[0].TestID, outcomes[1].TestID, outcomes[2].TestID})
	assert.Equal(t, client.StatusSafe, outcomes[0].Status)
	assert.Equal(t, client.StatusVulnerable, outcomes[1].Status)

	failed := outcomes[2]
	assert.True(t, failed.Failed())
	assert.Equal(t, client.StatusError, failed.Status)
	assert.Equal(t, "failed to run test ID: 3", failed.Detail)
	assert.ErrorContains(t, failed.Err, "test crashed")

	assert.Equal(t, 3, countPrefix(backend.Requests(), "POST /run-test/1/"))
	assert.Zero(t, countPrefix(backend.Requests(), "POST /run-tests/"))
}

func TestSelectedTestsRunIndividually(t *testing.T) {
	backend, c := setup(t)
	outcomes, err := New(c.Tests, Options{Strategy: StrategyBatch, TestIDs: []int{2}}).Run(context.Background(), []int{1, 2})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	for _, o := range outcomes {
		assert.Equal(t, 2, o.TestID)
		assert.Equal(t, "Auth bypass", o.TestName)
	}
	assert.Zero(t, countPrefix(backend.Requests(), "POST /run-tests/"))

	_, err = New(c.Tests, Options{TestIDs: []int{99}}).Run(context.Background(), []int{1})
	assert.ErrorContains(t, err, "unknown test id: 99")
}

func TestBatchRunUnknownAPI(t *testing.T) {
	_, c := setup(t)
	outcomes, err := New(c.Tests, Options{}).Run(context.Background(), []int{1, 42})
	require.NoError(t, err)
	require.Len(t, outcomes, 4)

	last := outcomes[3]
	assert.Equal(t, 42, last.APIID)
	assert.True(t, last.Failed())
	assert.True(t, client.IsNotFound(last.Err))
}

func TestRunRequiresAPI(t *testing.T) {
	_, c := setup(t)
	_, err := New(c.Tests, Options{}).Run(context.Background(), nil)
	assert.Error(t, err)
	_, err = New(c.Tests, Options{}).Run(context.Background(), []int{0})
	assert.Error(t, err)
}

type slowService struct {
	tests   []client.Test
	running atomic.Int32
	peak    atomic.Int32
	mu      sync.Mutex
}

func (s *slowService) List(context.Context) ([]client.Test, error) { return s.tests, nil }

func (s *slowService) RunAll(context.Context, int) ([]client.RunResult, error) { return nil, nil }

func (s *slowService) Run(_ context.Context, _ int, testID int) (*client.RunResult, error) {
	n := s.running.Add(1)
	s.mu.Lock()
	if n > s.peak.Load() {
		s.peak.Store(n)
	}
	s.mu.Unlock()
	time.Sleep(10 * time.Millisecond)
	s.running.Add(-1)
	return &client.RunResult{TestID: testID, Status: client.StatusSafe}, nil
}

func TestParallelRespectsConcurrency(t *testing.T) {
	svc := &slowService{}
	for i := 1; i <= 8; i++ {
		svc.tests = append(svc.tests, client.Test{ID: i})
	}
	outcomes, err := New(svc, Options{Strategy: StrategyParallel, Concurrency: 2}).Run(context.Background(), []int{1})
	require.NoError(t, err)
	assert.Len(t, outcomes, 8)
	assert.LessOrEqual(t, svc.peak.Load(), int32(2))
}
