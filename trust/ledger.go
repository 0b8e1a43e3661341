package trust

import (
	"errors"
	"time"

	"github.com/duwit-online/engageloop-sub001/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNoLedgerRow is returned when a mutation targets a user without a trust
// ledger row. Callers create the row via Ensure before mutating.
var ErrNoLedgerRow = errors.New("trust: no ledger row for user")

// clampedAdd adds delta to trust_score inside the UPDATE itself so the result
// lands in [0,100] no matter what other writers do concurrently. CASE keeps it
// portable between MySQL and SQLite.
func clampedAdd(delta int) clause.Expr {
	return gorm.Expr(
		"CASE WHEN trust_score + ? > 100 THEN 100 WHEN trust_score + ? < 0 THEN 0 ELSE trust_score + ? END",
		delta, delta, delta,
	)
}

// Ledger owns every TrustScore mutation. All numeric updates are expressed as
// atomic increments or clamped sets at the storage layer; nothing here does a
// read-modify-write in application memory, because the release sweep and
// moderator actions race on the same rows.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Ensure returns the user's ledger row, creating it with the default score on
// first task activity.
func (l *Ledger) Ensure(userID uint) (*models.TrustScore, error) {
	row := models.TrustScore{UserID: userID, TrustScore: models.DefaultTrustScore}
	err := l.db.Where(models.TrustScore{UserID: userID}).FirstOrCreate(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (l *Ledger) Get(userID uint) (*models.TrustScore, error) {
	var row models.TrustScore
	if err := l.db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (l *Ledger) update(userID uint, values map[string]interface{}) error {
	res := l.db.Model(&models.TrustScore{}).Where("user_id = ?", userID).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNoLedgerRow
	}
	return nil
}

// CreditEarned adds amount to total_capsules_earned.
func (l *Ledger) CreditEarned(userID uint, amount int64) error {
	return l.update(userID, map[string]interface{}{
		"total_capsules_earned": gorm.Expr("total_capsules_earned + ?", amount),
	})
}

// IncrementCompleted bumps total_tasks_completed by one.
func (l *Ledger) IncrementCompleted(userID uint) error {
	return l.update(userID, map[string]interface{}{
		"total_tasks_completed": gorm.Expr("total_tasks_completed + 1"),
	})
}

// IncrementRejected bumps total_tasks_rejected by one.
func (l *Ledger) IncrementRejected(userID uint) error {
	return l.update(userID, map[string]interface{}{
		"total_tasks_rejected": gorm.Expr("total_tasks_rejected + 1"),
	})
}

// AdjustScore moves trust_score by delta, clamped into [0,100]. The clamp is
// the ledger's job, not the caller's.
func (l *Ledger) AdjustScore(userID uint, delta int) error {
	return l.update(userID, map[string]interface{}{
		"trust_score": clampedAdd(delta),
	})
}

// SetCooldown blocks the user from submitting until the given time. A nil
// until clears the cooldown.
func (l *Ledger) SetCooldown(userID uint, until *time.Time) error {
	return l.update(userID, map[string]interface{}{
		"cooldown_until": until,
	})
}

// Slash claws back a previously credited amount: total_capsules_earned goes
// down, total_capsules_slashed goes up, in one statement.
func (l *Ledger) Slash(userID uint, amount int64) error {
	return l.update(userID, map[string]interface{}{
		"total_capsules_earned":  gorm.Expr("total_capsules_earned - ?", amount),
		"total_capsules_slashed": gorm.Expr("total_capsules_slashed + ?", amount),
	})
}

// CreditRelease applies the whole verified-to-released payout in a single
// UPDATE: earned total, completion counter, +1 trust score (capped) and
// last_task_at. Called only after the submission's conditional transition to
// released has been confirmed.
func (l *Ledger) CreditRelease(userID uint, amount int64, at time.Time) error {
	return l.update(userID, map[string]interface{}{
		"total_capsules_earned": gorm.Expr("total_capsules_earned + ?", amount),
		"total_tasks_completed": gorm.Expr("total_tasks_completed + 1"),
		"trust_score":           clampedAdd(1),
		"last_task_at":          at,
	})
}
