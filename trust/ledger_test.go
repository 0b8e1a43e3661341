package trust

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/duwit-online/engageloop-sub001/models"

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
	if err := db.AutoMigrate(&models.TrustScore{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestEnsureCreatesDefaultRowOnce(t *testing.T) {
	l := NewLedger(testDB(t))

	row, err := l.Ensure(7)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if row.TrustScore != models.DefaultTrustScore {
		t.Fatalf("expected default score %d, got %d", models.DefaultTrustScore, row.TrustScore)
	}

	again, err := l.Ensure(7)
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if again.ID != row.ID {
		t.Fatalf("ensure must be idempotent, got new row %d vs %d", again.ID, row.ID)
	}
}

func TestAdjustScoreClamps(t *testing.T) {
	db := testDB(t)
	l := NewLedger(db)

	cases := []struct {
		start, delta, want int
	}{
		{98, 10, 100},
		{3, -20, 0},
		{50, 10, 60},
		{0, -1, 0},
		{100, 1, 100},
	}
	for i, c := range cases {
		uid := uint(100 + i)
		if err := db.Create(&models.TrustScore{UserID: uid, TrustScore: c.start}).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
		if err := l.AdjustScore(uid, c.delta); err != nil {
			t.Fatalf("adjust: %v", err)
		}
		row, err := l.Get(uid)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if row.TrustScore != c.want {
			t.Errorf("start %d delta %d: expected %d, got %d", c.start, c.delta, c.want, row.TrustScore)
		}
	}
}

func TestCreditReleaseAppliesAllFields(t *testing.T) {
	l := NewLedger(testDB(t))
	if _, err := l.Ensure(9); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	now := time.Now()
	if err := l.CreditRelease(9, 5, now); err != nil {
		t.Fatalf("credit release: %v", err)
	}

	row, err := l.Get(9)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if row.TotalCapsulesEarned != 5 {
		t.Errorf("expected earned 5, got %d", row.TotalCapsulesEarned)
	}
	if row.TotalTasksCompleted != 1 {
		t.Errorf("expected completed 1, got %d", row.TotalTasksCompleted)
	}
	if row.TrustScore != models.DefaultTrustScore+1 {
		t.Errorf("expected score %d, got %d", models.DefaultTrustScore+1, row.TrustScore)
	}
	if row.LastTaskAt == nil {
		t.Error("last_task_at should be set")
	}
}

func TestSlashMovesEarnedToSlashed(t *testing.T) {
	l := NewLedger(testDB(t))
	if _, err := l.Ensure(4); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := l.CreditEarned(4, 12); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if err := l.Slash(4, 12); err != nil {
		t.Fatalf("slash: %v", err)
	}

	row, _ := l.Get(4)
	if row.TotalCapsulesEarned != 0 {
		t.Errorf("expected earned 0 after slash, got %d", row.TotalCapsulesEarned)
	}
	if row.TotalCapsulesSlashed != 12 {
		t.Errorf("expected slashed 12, got %d", row.TotalCapsulesSlashed)
	}
}

func TestSetCooldown(t *testing.T) {
	l := NewLedger(testDB(t))
	if _, err := l.Ensure(2); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	until := time.Now().Add(2 * time.Hour)
	if err := l.SetCooldown(2, &until); err != nil {
		t.Fatalf("set cooldown: %v", err)
	}
	row, _ := l.Get(2)
	if !row.InCooldown(time.Now()) {
		t.Error("user should be in cooldown")
	}

	if err := l.SetCooldown(2, nil); err != nil {
		t.Fatalf("clear cooldown: %v", err)
	}
	row, _ = l.Get(2)
	if row.InCooldown(time.Now()) {
		t.Error("cooldown should be cleared")
	}
}

func TestMutationWithoutRowFails(t *testing.T) {
	l := NewLedger(testDB(t))
	if err := l.AdjustScore(999, 5); !errors.Is(err, ErrNoLedgerRow) {
		t.Fatalf("expected ErrNoLedgerRow, got %v", err)
	}
}
