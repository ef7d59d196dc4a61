package service

import (
	"sort"

	"github.com/spec-kit/property-service/internal/domain"
)

// TieBreak picks among candidates the load comparison could not separate.
// It exists so a future experience signal can influence high-priority
// routing; returning nil falls back to the default ordering.
type TieBreak func(candidates []domain.Worker) *domain.Worker

// highPriorityLoadDelta bounds the load spread considered equivalent for
// high-priority tie-breaking.
const highPriorityLoadDelta = 2

// SelectWorker picks one worker from the candidate pool. Selection is
// deterministic for a given snapshot: fewest assigned issues first, ties
// broken by worker ID. Returns nil for an empty pool.
func SelectWorker(candidates []domain.Worker, priority domain.IssuePriority, tieBreak TieBreak) *domain.Worker {
	if len(candidates) == 0 {
		return nil
	}

	ordered := make([]domain.Worker, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Load() != ordered[j].Load() {
			return ordered[i].Load() < ordered[j].Load()
		}
		return ordered[i].ID < ordered[j].ID
	})

	if priority == domain.IssuePriorityHigh && tieBreak != nil {
		minLoad := ordered[0].Load()
		pool := make([]domain.Worker, 0, len(ordered))
		for _, worker := range ordered {
			if worker.Load()-minLoad <= highPriorityLoadDelta {
				pool = append(pool, worker)
			}
		}
		if pick := tieBreak(pool); pick != nil {
			return pick
		}
	}

	return &ordered[0]
}
