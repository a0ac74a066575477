package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/learnhub-api/internal/models"
	appErrors "github.com/noah-isme/learnhub-api/pkg/errors"
)

var errAccountNotFound = appErrors.Clone(appErrors.ErrNotFound, "account not found")

// AccountRepository is the point ledger of user accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (models.Account, error)
	IncrementPoints(ctx context.Context, id string, delta int64) (int64, error)
	Create(ctx context.Context, account *models.Account) error
}

type accountRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAccountRepository constructs an account repository.
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db, now: time.Now}
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (models.Account, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return models.Account{}, appErrors.Clone(appErrors.ErrInvalidID, "invalid account id")
	}

	var account models.Account
	if err := r.db.WithContext(ctx).Where("id = ?", parsed.String()).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Account{}, errAccountNotFound
		}
		return models.Account{}, err
	}

	return account, nil
}

// IncrementPoints applies the delta with a single arithmetic UPDATE and reads the total back
// inside the same transaction, so concurrent credits are never lost.
func (r *accountRepository) IncrementPoints(ctx context.Context, id string, delta int64) (int64, error) {
	if delta < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "points delta must not be negative")
	}

	var total int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.Account{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"points":     gorm.Expr("points + ?", delta),
				"updated_at": r.now(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errAccountNotFound
		}

		var account models.Account
		if err := tx.Select("points").Where("id = ?", id).First(&account).Error; err != nil {
			return err
		}
		total = account.Points
		return nil
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

func (r *accountRepository) Create(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}
