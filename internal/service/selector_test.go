package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/property-service/internal/domain"
)

func worker(id string, load int) domain.Worker {
	assigned := make([]string, load)
	for i := range assigned {
		assigned[i] = "x"
	}
	return domain.Worker{ID: id, AssignedIssues: assigned, Active: true}
}

func TestSelectWorkerEmptyPool(t *testing.T) {
	require.Nil(t, SelectWorker(nil, domain.IssuePriorityNormal, nil))
	require.Nil(t, SelectWorker([]domain.Worker{}, domain.IssuePriorityUrgent, nil))
}

func TestSelectWorkerLeastLoad(t *testing.T) {
	candidates := []domain.Worker{
		worker("w-003", 2),
		worker("w-001", 5),
		worker("w-002", 1),
	}
	pick := SelectWorker(candidates, domain.IssuePriorityNormal, nil)
	require.NotNil(t, pick)
	require.Equal(t, "w-002", pick.ID)
}

func TestSelectWorkerTieBrokenByID(t *testing.T) {
	candidates := []domain.Worker{
		worker("w-009", 3),
		worker("w-002", 3),
		worker("w-005", 3),
	}
	pick := SelectWorker(candidates, domain.IssuePriorityNormal, nil)
	require.Equal(t, "w-002", pick.ID)
}

func TestSelectWorkerDeterministic(t *testing.T) {
	candidates := []domain.Worker{
		worker("w-004", 2),
		worker("w-001", 2),
		worker("w-003", 0),
		worker("w-002", 0),
	}
	first := SelectWorker(candidates, domain.IssuePriorityUrgent, nil)
	for i := 0; i < 10; i++ {
		again := SelectWorker(candidates, domain.IssuePriorityUrgent, nil)
		require.Equal(t, first.ID, again.ID)
	}
	require.Equal(t, "w-002", first.ID)
}

func TestSelectWorkerDoesNotMutateInput(t *testing.T) {
	candidates := []domain.Worker{
		worker("w-002", 4),
		worker("w-001", 1),
	}
	SelectWorker(candidates, domain.IssuePriorityNormal, nil)
	require.Equal(t, "w-002", candidates[0].ID)
	require.Equal(t, "w-001", candidates[1].ID)
}

func TestSelectWorkerHighPriorityTieBreak(t *testing.T) {
	candidates := []domain.Worker{
		worker("w-001", 1),
		worker("w-002", 2),
		worker("w-003", 3),
		worker("w-004", 9),
	}

	var pooled []string
	tieBreak := func(pool []domain.Worker) *domain.Worker {
		pooled = nil
		for i := range pool {
			pooled = append(pooled, pool[i].ID)
		}
		return &pool[len(pool)-1]
	}

	pick := SelectWorker(candidates, domain.IssuePriorityHigh, tieBreak)
	require.Equal(t, "w-003", pick.ID)
	// only workers within the load delta reach the hook
	require.Equal(t, []string{"w-001", "w-002", "w-003"}, pooled)
}

func TestSelectWorkerTieBreakOnlyForHigh(t *testing.T) {
	candidates := []domain.Worker{
		worker("w-001", 1),
		worker("w-002", 2),
	}
	tieBreak := func(pool []domain.Worker) *domain.Worker {
		return &pool[len(pool)-1]
	}

	for _, priority := range []domain.IssuePriority{domain.IssuePriorityNormal, domain.IssuePriorityUrgent} {
		pick := SelectWorker(candidates, priority, tieBreak)
		require.Equal(t, "w-001", pick.ID, "priority %s must ignore the hook", priority)
	}
}

func TestSelectWorkerTieBreakNilFallsBack(t *testing.T) {
	candidates := []domain.Worker{
		worker("w-002", 1),
		worker("w-001", 1),
	}
	tieBreak := func([]domain.Worker) *domain.Worker { return nil }
	pick := SelectWorker(candidates, domain.IssuePriorityHigh, tieBreak)
	require.Equal(t, "w-001", pick.ID)
}
