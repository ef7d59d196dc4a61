package worker

import (
	"github.com/spec-kit/property-service/internal/config"
	"github.com/spec-kit/property-service/internal/scheduler"
	"github.com/spec-kit/property-service/internal/service"
)

// RegisterEscalationSweeps wires the escalation sweeps onto the scheduler.
func RegisterEscalationSweeps(sched *scheduler.Scheduler, escalations *service.EscalationService, cfg config.EscalationConfig) {
	sched.Register("stuck_assignments", cfg.StuckSweepInterval, escalations.SweepStuckAssignments)
	sched.Register("confirmation_timeouts", cfg.ConfirmSweepInterval, escalations.SweepConfirmationTimeouts)
	sched.Register("stalled_progress", cfg.StalledSweepInterval, escalations.SweepStalledProgress)
}
