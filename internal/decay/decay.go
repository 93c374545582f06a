// Package decay implements the daily listing maintenance charge: every
// order older than 24 hours costs its owner one token per run, floored at a
// zero balance.
package decay

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/gamemarket/rmt-marketplace/internal/ledger"
	"github.com/gamemarket/rmt-marketplace/internal/models"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const eligibleAge = 24 * time.Hour

type Scheduler struct {
	db     *gorm.DB
	ledger *ledger.Ledger
	log    *zap.Logger
	cron   *cron.Cron
	// running guards against overlapping runs if a trigger fires while the
	// previous run is still charging orders.
	running atomic.Bool
}

func NewScheduler(db *gorm.DB, l *ledger.Ledger, log *zap.Logger) *Scheduler {
	return &Scheduler{db: db, ledger: l, log: log}
}

// Start registers Run on the given cron expression and starts the timer.
func (s *Scheduler) Start(spec string) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(spec, func() {
		s.Run(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("decay scheduler started", zap.String("cron", spec))
	return nil
}

// Stop halts the timer and waits for an in-flight run to finish.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

// Eligible returns the orders created more than 24 hours before now. The
// check is always against creation time, not a rolling last-charged mark:
// an order older than 48 hours is still charged exactly once per run.
func Eligible(now time.Time, orders []models.Order) []models.Order {
	eligible := make([]models.Order, 0)
	cutoff := now.Add(-eligibleAge)
	for _, order := range orders {
		if order.CreatedAt.Before(cutoff) {
			eligible = append(eligible, order)
		}
	}
	return eligible
}

// Run executes one decay pass: each eligible order charges its owner one
// token through the floored debit path. A failure on one order is logged
// and the rest of the run continues. Owners left at zero are logged for
// review; their orders are never auto-cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn("decay run already in progress, skipping")
		return
	}
	defer s.running.Store(false)

	s.log.Info("running daily token maintenance")

	var orders []models.Order
	if err := s.db.WithContext(ctx).Find(&orders).Error; err != nil {
		s.log.Error("failed to load orders for decay", zap.Error(err))
		return
	}

	eligible := Eligible(time.Now(), orders)
	s.log.Info("orders eligible for token maintenance", zap.Int("count", len(eligible)))

	charged := 0
	for _, order := range eligible {
		orderID := order.ID
		remaining, didCharge, err := s.ledger.DebitFloored(ctx, order.UserID, ledger.ReasonDailyMaintenance, &orderID)
		if err != nil {
			s.log.Error("failed to charge order maintenance",
				zap.Uint("orderID", order.ID),
				zap.Uint("userID", order.UserID),
				zap.Error(err))
			continue
		}
		if didCharge {
			charged++
		}
		if remaining == 0 {
			s.log.Warn("user out of tokens, listings should be reviewed",
				zap.Uint("userID", order.UserID),
				zap.Uint("orderID", order.ID))
		}
	}

	s.log.Info("daily token maintenance completed",
		zap.Int("eligible", len(eligible)),
		zap.Int("charged", charged))
}
