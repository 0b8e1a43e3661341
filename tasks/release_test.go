package tasks

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/duwit-online/engageloop-sub001/models"
	"github.com/duwit-online/engageloop-sub001/trust"

	"gorm.io/gorm"
)

func seedVerified(t *testing.T, db *gorm.DB, userID uint, verifiedAt time.Time, delay time.Duration, capsules int64) *models.TaskSubmission {
	t.Helper()
	sub := seedSubmission(t, db, userID, models.SubmissionVerified, capsules)
	err := db.Model(sub).Updates(map[string]interface{}{
		"verified_at":           verifiedAt,
		"pending_delay_seconds": int(delay / time.Second),
	}).Error
	if err != nil {
		t.Fatalf("seed verified: %v", err)
	}
	sub.VerifiedAt = &verifiedAt
	sub.PendingDelaySeconds = int(delay / time.Second)
	return sub
}

func TestSweepHonorsPendingDelay(t *testing.T) {
	db := testDB(t)
	uid := seedUser(t, db, 85)
	base := time.Now().Add(-time.Hour)
	sub := seedVerified(t, db, uid, base, 10*time.Minute, 5)

	s := NewSweeper(db)

	// Nine minutes in: not due yet.
	s.Now = func() time.Time { return base.Add(9 * time.Minute) }
	sum := s.Run(context.Background())
	if sum.NotDue != 1 || sum.Released != 0 {
		t.Fatalf("at T+9m expected not_due=1 released=0, got %s", sum)
	}
	var check models.TaskSubmission
	db.First(&check, sub.ID)
	if check.Status != models.SubmissionVerified {
		t.Fatalf("row must stay verified before the delay elapses, got %s", check.Status)
	}

	// Eleven minutes in: released and paid exactly once.
	s.Now = func() time.Time { return base.Add(11 * time.Minute) }
	sum = s.Run(context.Background())
	if sum.Released != 1 {
		t.Fatalf("at T+11m expected released=1, got %s", sum)
	}
	db.First(&check, sub.ID)
	if check.Status != models.SubmissionReleased || check.ReleasedAt == nil {
		t.Fatalf("expected released with released_at set, got %s", check.Status)
	}

	row, err := trust.NewLedger(db).Get(uid)
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if row.TotalCapsulesEarned != 5 {
		t.Errorf("expected earned 5, got %d", row.TotalCapsulesEarned)
	}
	if row.TotalTasksCompleted != 1 {
		t.Errorf("expected completed 1, got %d", row.TotalTasksCompleted)
	}
	if row.TrustScore != 86 {
		t.Errorf("expected score 86, got %d", row.TrustScore)
	}
	if row.LastTaskAt == nil {
		t.Error("last_task_at should be stamped on release")
	}

	var user models.User
	db.First(&user, uid)
	if user.CapsuleBalance != 5 {
		t.Errorf("expected balance 5, got %d", user.CapsuleBalance)
	}
	var credits int64
	db.Model(&models.CapsuleTransaction{}).Where("user_id = ? AND flow = ?", uid, "credit").Count(&credits)
	if credits != 1 {
		t.Errorf("expected one credit transaction, got %d", credits)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	db := testDB(t)
	uid := seedUser(t, db, 60)
	base := time.Now().Add(-2 * time.Hour)
	seedVerified(t, db, uid, base, 30*time.Minute, 7)

	s := NewSweeper(db)
	first := s.Run(context.Background())
	if first.Released != 1 {
		t.Fatalf("first pass should release, got %s", first)
	}

	second := s.Run(context.Background())
	if second.Scanned != 0 || second.Released != 0 {
		t.Fatalf("second pass must find nothing, got %s", second)
	}

	row, _ := trust.NewLedger(db).Get(uid)
	if row.TotalCapsulesEarned != 7 {
		t.Fatalf("earned must stay 7 after a second pass, got %d", row.TotalCapsulesEarned)
	}
	if row.TotalTasksCompleted != 1 {
		t.Fatalf("completed must stay 1 after a second pass, got %d", row.TotalTasksCompleted)
	}
}

// Two overlapping sweeps observing the same row: whichever loses the
// conditional transition must record a skip and credit nothing.
func TestReleaseConflictIsBenignSkip(t *testing.T) {
	db := testDB(t)
	uid := seedUser(t, db, 60)
	base := time.Now().Add(-2 * time.Hour)
	sub := seedVerified(t, db, uid, base, 30*time.Minute, 7)

	s := NewSweeper(db)
	now := time.Now()

	// First writer wins the compare-and-swap.
	if err := s.release(context.Background(), sub, now); err != nil {
		t.Fatalf("first release: %v", err)
	}

	// Second writer still holds the stale verified snapshot of the row.
	err := s.release(context.Background(), sub, now)
	if !errors.Is(err, ErrTransitionConflict) {
		t.Fatalf("expected ErrTransitionConflict, got %v", err)
	}

	row, _ := trust.NewLedger(db).Get(uid)
	if row.TotalCapsulesEarned != 7 {
		t.Fatalf("conflict loser must not credit, earned=%d", row.TotalCapsulesEarned)
	}
}

func TestReversedRowsExcludedFromSweeps(t *testing.T) {
	db := testDB(t)
	uid := seedUser(t, db, 60)
	base := time.Now().Add(-2 * time.Hour)
	sub := seedVerified(t, db, uid, base, 30*time.Minute, 7)

	if err := db.Model(sub).Update("status", models.SubmissionReversed).Error; err != nil {
		t.Fatalf("seed reversal: %v", err)
	}

	sum := NewSweeper(db).Run(context.Background())
	if sum.Scanned != 0 {
		t.Fatalf("reversed rows must not be scanned, got %s", sum)
	}
}

func TestSweepFallsBackForLegacyRows(t *testing.T) {
	db := testDB(t)
	uid := seedUser(t, db, 85) // current score -> 10 minute delay
	base := time.Now().Add(-15 * time.Minute)
	seedVerified(t, db, uid, base, 0, 3) // no snapshot on the row

	sum := NewSweeper(db).Run(context.Background())
	if sum.Released != 1 {
		t.Fatalf("legacy row past the recomputed delay should release, got %s", sum)
	}
}
