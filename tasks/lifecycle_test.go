package tasks

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/duwit-online/engageloop-sub001/models"
	"github.com/duwit-online/engageloop-sub001/trust"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.TrustScore{},
		&models.TaskSubmission{},
		&models.CapsuleTransaction{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *gorm.DB, score int) uint {
	t.Helper()
	user := models.User{Name: "Tester", Email: fmt.Sprintf("%s@test.local", strings.ReplaceAll(t.Name(), "/", "_")), Password: "x"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if err := db.Create(&models.TrustScore{UserID: user.ID, TrustScore: score}).Error; err != nil {
		t.Fatalf("seed trust: %v", err)
	}
	return user.ID
}

func seedSubmission(t *testing.T, db *gorm.DB, userID uint, status models.SubmissionStatus, capsules int64) *models.TaskSubmission {
	t.Helper()
	sub := models.TaskSubmission{
		TaskID:         1,
		UserID:         &userID,
		Platform:       "instagram",
		TaskType:       string(TaskLike),
		ScreenshotURL:  "https://evidence.example/s.png",
		TimerSeconds:   30,
		CapsulesEarned: capsules,
		Status:         status,
	}
	if err := db.Create(&sub).Error; err != nil {
		t.Fatalf("seed submission: %v", err)
	}
	return &sub
}

func TestVerifySnapshotsDelayFromScoreAtVerification(t *testing.T) {
	db := testDB(t)
	uid := seedUser(t, db, 85)
	sub := seedSubmission(t, db, uid, models.SubmissionPending, 5)

	l := NewLifecycle(db)
	got, err := l.Verify(sub.ID, 1)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Status != models.SubmissionVerified {
		t.Fatalf("expected verified, got %s", got.Status)
	}
	if got.VerifiedAt == nil || got.ReviewedAt == nil {
		t.Fatal("verified_at and reviewed_at must be stamped")
	}
	if want := int((10 * time.Minute) / time.Second); got.PendingDelaySeconds != want {
		t.Fatalf("score 85 should snapshot a %ds delay, got %ds", want, got.PendingDelaySeconds)
	}
	// No capsules yet: verification never credits.
	row, err := trust.NewLedger(db).Get(uid)
	if err != nil {
		t.Fatalf("ledger get: %v", err)
	}
	if row.TotalCapsulesEarned != 0 {
		t.Fatalf("verify must not credit, earned=%d", row.TotalCapsulesEarned)
	}
}

func TestVerifyRejectsNonPending(t *testing.T) {
	db := testDB(t)
	uid := seedUser(t, db, 50)
	sub := seedSubmission(t, db, uid, models.SubmissionReleased, 5)

	if _, err := NewLifecycle(db).Verify(sub.ID, 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRejectNeedsReason(t *testing.T) {
	db := testDB(t)
	uid := seedUser(t, db, 50)
	sub := seedSubmission(t, db, uid, models.SubmissionPending, 5)
	l := NewLifecycle(db)

	if _, err := l.Reject(sub.ID, 1, "   "); !errors.Is(err, ErrRejectionReasonRequired) {
		t.Fatalf("expected reason requirement, got %v", err)
	}

	got, err := l.Reject(sub.ID, 1, "screenshot does not match the task")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if got.Status != models.SubmissionRejected || got.RejectionReason == nil {
		t.Fatalf("expected rejected with reason, got %s", got.Status)
	}
	row, _ := trust.NewLedger(db).Get(uid)
	if row.TotalTasksRejected != 1 {
		t.Fatalf("expected rejection counter 1, got %d", row.TotalTasksRejected)
	}
}

func TestFlagOnlyFromPendingOrVerified(t *testing.T) {
	db := testDB(t)
	uid := seedUser(t, db, 50)
	l := NewLifecycle(db)

	pending := seedSubmission(t, db, uid, models.SubmissionPending, 5)
	if _, err := l.Flag(pending.ID, 1); err != nil {
		t.Fatalf("flagging pending: %v", err)
	}

	rejected := seedSubmission(t, db, uid, models.SubmissionRejected, 5)
	if _, err := l.Flag(rejected.ID, 1); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for rejected row, got %v", err)
	}
}

func TestReverseReleasedClawsBack(t *testing.T) {
	db := testDB(t)
	uid := seedUser(t, db, 60)
	sub := seedSubmission(t, db, uid, models.SubmissionReleased, 8)

	// Simulate the earlier payout.
	ledger := trust.NewLedger(db)
	if err := ledger.CreditRelease(uid, 8, time.Now()); err != nil {
		t.Fatalf("seed credit: %v", err)
	}
	if err := db.Model(&models.User{}).Where("id = ?", uid).
		Update("capsule_balance", gorm.Expr("capsule_balance + ?", 8)).Error; err != nil {
		t.Fatalf("seed balance: %v", err)
	}

	got, err := NewLifecycle(db).Reverse(sub.ID, 2)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if got.Status != models.SubmissionReversed {
		t.Fatalf("expected reversed, got %s", got.Status)
	}

	row, _ := ledger.Get(uid)
	if row.TotalCapsulesEarned != 0 {
		t.Errorf("expected earned debited to 0, got %d", row.TotalCapsulesEarned)
	}
	if row.TotalCapsulesSlashed != 8 {
		t.Errorf("expected slashed 8, got %d", row.TotalCapsulesSlashed)
	}

	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.CapsuleBalance != 0 {
		t.Errorf("expected balance clawed back to 0, got %d", user.CapsuleBalance)
	}

	var slashes int64
	db.Model(&models.CapsuleTransaction{}).Where("user_id = ? AND flow = ?", uid, "slash").Count(&slashes)
	if slashes != 1 {
		t.Errorf("expected one slash transaction, got %d", slashes)
	}
}

func TestReverseTerminalRowsRejected(t *testing.T) {
	db := testDB(t)
	uid := seedUser(t, db, 50)
	l := NewLifecycle(db)

	for _, status := range []models.SubmissionStatus{models.SubmissionRejected, models.SubmissionReversed} {
		sub := seedSubmission(t, db, uid, status, 5)
		if _, err := l.Reverse(sub.ID, 1); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("%s -> reversed should be illegal, got %v", status, err)
		}
	}
}

func TestCanTransitionTable(t *testing.T) {
	if CanTransition(models.SubmissionReleased, models.SubmissionPending) {
		t.Error("released must never go back to pending")
	}
	if CanTransition(models.SubmissionRejected, models.SubmissionReleased) {
		t.Error("rejected rows can never be released")
	}
	if !CanTransition(models.SubmissionVerified, models.SubmissionReleased) {
		t.Error("verified -> released must be legal")
	}
	if !CanTransition(models.SubmissionPending, models.SubmissionFlagged) {
		t.Error("pending -> flagged must be legal")
	}
}
