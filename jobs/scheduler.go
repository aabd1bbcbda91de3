package jobs

import (
	"time"

	"aurex/database"
	"aurex/pkg/logger"
	"aurex/services"
)

const (
	sessionIdleWindow    = 30 * time.Minute
	depositReconcileLag  = 10 * time.Minute
	sessionSweepInterval = time.Minute
	wagerSweepInterval   = 10 * time.Minute
	reconcileInterval    = 2 * time.Minute
)

// Start launches the background sweeps: idle session termination, wager
// expiry, and pending deposit reconciliation.
func Start() {
	tickerSessions := time.NewTicker(sessionSweepInterval)
	go func() {
		for {
			<-tickerSessions.C
			if _, err := services.TerminateIdleSessions(database.DB, sessionIdleWindow); err != nil {
				logger.Error("idle session sweep failed", "error", err)
			}
		}
	}()

	tickerWagers := time.NewTicker(wagerSweepInterval)
	go func() {
		for {
			<-tickerWagers.C
			if err := services.SweepExpiredWagers(database.DB, time.Now()); err != nil {
				logger.Error("wager expiry sweep failed", "error", err)
			}
		}
	}()

	tickerDeposits := time.NewTicker(reconcileInterval)
	go func() {
		for {
			<-tickerDeposits.C
			if err := services.ReconcilePendingDeposits(database.DB, depositReconcileLag); err != nil {
				logger.Error("deposit reconciliation failed", "error", err)
			}
		}
	}()
}
