package worker

// audit_cron.go
// Background goroutine that periodically audits the pairing table and
// publishes the findings per invariant as a gauge. Rows only end up there
// through writes that bypass the service (manual SQL, imports).

import (
	"context"
	"time"

	"rawvariant/internal/observability"
	"rawvariant/internal/pairing"

	"github.com/rs/zerolog/log"
)

// Auditor is satisfied by *pairing.Service.
type Auditor interface {
	Audit(ctx context.Context) ([]pairing.Finding, error)
}

// AuditCronConfig holds all dependencies for the audit goroutine.
type AuditCronConfig struct {
	Auditor  Auditor
	Interval time.Duration
}

// StartAuditCron launches the audit loop. A zero interval disables it.
// It respects the context for graceful shutdown.
func StartAuditCron(ctx context.Context, cfg AuditCronConfig) {
	if cfg.Interval <= 0 {
		log.Info().Msg("audit_cron: disabled")
		return
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("interval", cfg.Interval).Msg("audit_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("audit_cron: shutting down")
				return
			case <-ticker.C:
				RunAudit(ctx, cfg.Auditor)
			}
		}
	}()
}

// RunAudit performs one audit pass and returns the findings grouped by
// invariant. Failures are logged and leave the gauges untouched.
func RunAudit(ctx context.Context, a Auditor) map[string]int {
	findings, err := a.Audit(ctx)
	if err != nil {
		log.Error().Err(err).Msg("audit_cron: audit failed")
		return nil
	}

	counts := map[string]int{
		pairing.InvariantUnexpectedPairing: 0,
		pairing.InvariantRawRole:           0,
		pairing.InvariantMainRole:          0,
		pairing.InvariantTemplateMismatch:  0,
		pairing.InvariantMissingPair:       0,
	}
	for _, f := range findings {
		counts[f.Invariant]++
	}
	for inv, n := range counts {
		observability.AuditFindings.WithLabelValues(inv).Set(float64(n))
	}

	if len(findings) > 0 {
		log.Warn().Int("findings", len(findings)).Msg("audit_cron: pairing violations found")
	}
	return counts
}
