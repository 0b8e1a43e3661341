package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/duwit-online/engageloop-sub001/models"
	"github.com/duwit-online/engageloop-sub001/trust"

	"gorm.io/gorm"
)

// SweepSummary counts what one sweep pass did. Skipped rows lost a
// conditional-transition race to another writer; Failed rows hit a storage
// error and stay eligible for the next pass.
type SweepSummary struct {
	Scanned  int `json:"scanned"`
	Released int `json:"released"`
	NotDue   int `json:"not_due"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

func (s SweepSummary) String() string {
	return fmt.Sprintf("scanned=%d released=%d not_due=%d skipped=%d failed=%d",
		s.Scanned, s.Released, s.NotDue, s.Skipped, s.Failed)
}

// Sweeper releases verified submissions whose trust-derived pending delay has
// elapsed, crediting each at most once. Safe to run concurrently with itself
// and with moderator actions: the verified->released step is a conditional
// UPDATE and every ledger write is an atomic increment, so overlapping
// invocations cannot double-pay.
type Sweeper struct {
	db *gorm.DB

	// Now is swappable for tests.
	Now func() time.Time
}

func NewSweeper(db *gorm.DB) *Sweeper {
	return &Sweeper{db: db, Now: time.Now}
}

// Run processes one snapshot of verified rows. Each row is handled
// independently; a failure on one never aborts the rest. Idempotent by
// construction: released rows simply drop out of the next scan.
func (s *Sweeper) Run(ctx context.Context) SweepSummary {
	var summary SweepSummary

	var due []models.TaskSubmission
	if err := s.db.WithContext(ctx).Where("status = ?", models.SubmissionVerified).Find(&due).Error; err != nil {
		log.Printf("[sweep] scan failed: %v", err)
		summary.Failed++
		return summary
	}

	now := s.Now()
	for i := range due {
		sub := due[i]
		summary.Scanned++

		if sub.VerifiedAt == nil {
			log.Printf("[sweep] submission %d is verified without verified_at, skipping", sub.ID)
			summary.Failed++
			continue
		}
		delay := time.Duration(sub.PendingDelaySeconds) * time.Second
		if delay == 0 {
			// Rows verified before delay snapshots existed: fall back to the
			// owner's current score.
			delay = s.fallbackDelay(&sub)
		}
		if now.Before(sub.VerifiedAt.Add(delay)) {
			summary.NotDue++
			continue
		}

		err := s.release(ctx, &sub, now)
		switch {
		case err == nil:
			summary.Released++
		case errors.Is(err, ErrTransitionConflict):
			summary.Skipped++
		default:
			log.Printf("[sweep] submission %d: %v", sub.ID, err)
			summary.Failed++
		}
	}
	return summary
}

func (s *Sweeper) fallbackDelay(sub *models.TaskSubmission) time.Duration {
	score := models.DefaultTrustScore
	if sub.UserID != nil {
		if row, err := trust.NewLedger(s.db).Get(*sub.UserID); err == nil {
			score = row.TrustScore
		}
	}
	return trust.ResolveTier(score).PendingDelay
}

// release transitions one row and pays it out. The conditional transition
// goes first; the credit only happens inside the same transaction after the
// transition is confirmed, so a credit can never land without the status
// change (or twice).
func (s *Sweeper) release(ctx context.Context, sub *models.TaskSubmission, now time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.TaskSubmission{}).
			Where("id = ? AND status = ?", sub.ID, models.SubmissionVerified).
			Updates(map[string]interface{}{
				"status":      models.SubmissionReleased,
				"released_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTransitionConflict
		}

		if sub.UserID == nil {
			// Anonymous/legacy rows release without a payout target.
			return nil
		}
		uid := *sub.UserID

		ledger := trust.NewLedger(tx)
		if _, err := ledger.Ensure(uid); err != nil {
			return err
		}
		if err := ledger.CreditRelease(uid, sub.CapsulesEarned, now); err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", uid).
			Update("capsule_balance", gorm.Expr("capsule_balance + ?", sub.CapsulesEarned)).Error; err != nil {
			return err
		}

		msg := fmt.Sprintf("Reward for %s task #%d", sub.TaskType, sub.TaskID)
		credit := models.CapsuleTransaction{
			UserID:       uid,
			SubmissionID: &sub.ID,
			Amount:       sub.CapsulesEarned,
			Flow:         "credit",
			ReferenceID:  newReferenceID(),
			Message:      &msg,
		}
		return tx.Create(&credit).Error
	})
}

// RunEvery drives the sweep on a fixed cadence until ctx is cancelled. The
// cron endpoint may trigger extra passes at any time; overlap is harmless.
func (s *Sweeper) RunEvery(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	log.Printf("[sweep] release sweeper running every %s", interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("[sweep] release sweeper stopped")
			return
		case <-ticker.C:
			summary := s.Run(ctx)
			if summary.Scanned > 0 {
				log.Printf("[sweep] %s", summary)
			}
		}
	}
}
