package tasks

import (
	"fmt"
	"strings"
	"time"

	"github.com/duwit-online/engageloop-sub001/models"
	"github.com/duwit-online/engageloop-sub001/trust"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// transitions is the closed map of legal status moves. Everything else is
// ErrInvalidTransition.
var transitions = map[models.SubmissionStatus][]models.SubmissionStatus{
	models.SubmissionPending:  {models.SubmissionVerified, models.SubmissionRejected, models.SubmissionFlagged, models.SubmissionReversed},
	models.SubmissionVerified: {models.SubmissionReleased, models.SubmissionFlagged, models.SubmissionReversed},
	models.SubmissionFlagged:  {models.SubmissionReversed},
	models.SubmissionReleased: {models.SubmissionReversed},
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to models.SubmissionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func newReferenceID() string {
	return "CAP-" + uuid.NewString()
}

// Lifecycle owns every TaskSubmission status transition. Each move is a
// conditional single-row UPDATE ("id = ? AND status = ?") so concurrent
// reviewers, moderators and the release sweep cannot double-apply a
// transition; the loser of a race gets ErrTransitionConflict.
type Lifecycle struct {
	db     *gorm.DB
	ledger *trust.Ledger
}

func NewLifecycle(db *gorm.DB) *Lifecycle {
	return &Lifecycle{db: db, ledger: trust.NewLedger(db)}
}

func (l *Lifecycle) load(id uint) (*models.TaskSubmission, error) {
	var sub models.TaskSubmission
	if err := l.db.First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

func (l *Lifecycle) cas(tx *gorm.DB, id uint, from models.SubmissionStatus, values map[string]interface{}) error {
	res := tx.Model(&models.TaskSubmission{}).Where("id = ? AND status = ?", id, from).Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTransitionConflict
	}
	return nil
}

// Verify moves a pending submission to verified. The pending delay is
// resolved from the owner's trust score as read now and snapshotted onto the
// row; it is never recomputed afterwards. No capsules are credited yet.
func (l *Lifecycle) Verify(id uint, reviewerID int64) (*models.TaskSubmission, error) {
	sub, err := l.load(id)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubmissionPending {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, models.SubmissionVerified)
	}

	score := models.DefaultTrustScore
	if sub.UserID != nil {
		row, err := l.ledger.Ensure(*sub.UserID)
		if err != nil {
			return nil, err
		}
		score = row.TrustScore
	}
	delay := trust.ResolveTier(score).PendingDelay

	now := time.Now()
	err = l.cas(l.db, id, models.SubmissionPending, map[string]interface{}{
		"status":                models.SubmissionVerified,
		"verified_at":           now,
		"reviewed_at":           now,
		"reviewer_id":           reviewerID,
		"pending_delay_seconds": int(delay / time.Second),
	})
	if err != nil {
		return nil, err
	}
	return l.load(id)
}

// Reject moves a pending submission to rejected. The reason is mandatory and
// the owner's rejection counter is bumped; nothing is ever credited.
func (l *Lifecycle) Reject(id uint, reviewerID int64, reason string) (*models.TaskSubmission, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrRejectionReasonRequired
	}
	sub, err := l.load(id)
	if err != nil {
		return nil, err
	}
	if sub.Status != models.SubmissionPending {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, models.SubmissionRejected)
	}

	now := time.Now()
	err = l.cas(l.db, id, models.SubmissionPending, map[string]interface{}{
		"status":           models.SubmissionRejected,
		"reviewed_at":      now,
		"reviewer_id":      reviewerID,
		"rejection_reason": reason,
	})
	if err != nil {
		return nil, err
	}
	if sub.UserID != nil {
		if _, err := l.ledger.Ensure(*sub.UserID); err != nil {
			return nil, err
		}
		if err := l.ledger.IncrementRejected(*sub.UserID); err != nil {
			return nil, err
		}
	}
	return l.load(id)
}

// Flag parks a pending or verified submission for moderator attention. The
// release sweep never touches flagged rows.
func (l *Lifecycle) Flag(id uint, reviewerID int64) (*models.TaskSubmission, error) {
	sub, err := l.load(id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(sub.Status, models.SubmissionFlagged) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, models.SubmissionFlagged)
	}
	err = l.cas(l.db, id, sub.Status, map[string]interface{}{
		"status":      models.SubmissionFlagged,
		"reviewed_at": time.Now(),
		"reviewer_id": reviewerID,
	})
	if err != nil {
		return nil, err
	}
	return l.load(id)
}

// Reverse is the moderator kill switch. Any non-terminal submission can be
// reversed; reversing an already-released one also claws the credited amount
// back out of the ledger and the user's balance, and records the slash.
func (l *Lifecycle) Reverse(id uint, reviewerID int64) (*models.TaskSubmission, error) {
	sub, err := l.load(id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(sub.Status, models.SubmissionReversed) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, sub.Status, models.SubmissionReversed)
	}
	wasReleased := sub.Status == models.SubmissionReleased

	err = l.db.Transaction(func(tx *gorm.DB) error {
		if err := l.cas(tx, id, sub.Status, map[string]interface{}{
			"status":      models.SubmissionReversed,
			"reviewed_at": time.Now(),
			"reviewer_id": reviewerID,
		}); err != nil {
			return err
		}
		if !wasReleased || sub.UserID == nil {
			return nil
		}

		uid := *sub.UserID
		ledger := trust.NewLedger(tx)
		if err := ledger.Slash(uid, sub.CapsulesEarned); err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", uid).
			Update("capsule_balance", gorm.Expr("capsule_balance - ?", sub.CapsulesEarned)).Error; err != nil {
			return err
		}
		msg := fmt.Sprintf("Clawback for reversed submission #%d", sub.ID)
		slash := models.CapsuleTransaction{
			UserID:       uid,
			SubmissionID: &sub.ID,
			Amount:       sub.CapsulesEarned,
			Flow:         "slash",
			ReferenceID:  newReferenceID(),
			Message:      &msg,
		}
		return tx.Create(&slash).Error
	})
	if err != nil {
		return nil, err
	}
	return l.load(id)
}
