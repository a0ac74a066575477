package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/learnhub-api/internal/models"
)

// RankingRepository persists the leaderboard projection.
type RankingRepository interface {
	Upsert(ctx context.Context, entry *models.RankingEntry) error
	Advance(ctx context.Context, entry *models.RankingEntry) error
	Top(ctx context.Context, limit int) ([]models.RankingEntry, error)
}

type rankingRepository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRankingRepository constructs the ranking repository.
func NewRankingRepository(db *gorm.DB) RankingRepository {
	return &rankingRepository{db: db, now: time.Now}
}

// Upsert inserts the entry or overwrites name, points and avatar of the existing row for the user.
func (r *rankingRepository) Upsert(ctx context.Context, entry *models.RankingEntry) error {
	return r.upsert(ctx, entry, clause.AssignmentColumns([]string{"name", "points", "avatar", "updated_at"}))
}

// Advance behaves like Upsert but never lowers the stored points, so a late refresh carrying an
// older total cannot roll the leaderboard back.
func (r *rankingRepository) Advance(ctx context.Context, entry *models.RankingEntry) error {
	return r.upsert(ctx, entry, clause.Assignments(map[string]interface{}{
		"name":       gorm.Expr("excluded.name"),
		"avatar":     gorm.Expr("excluded.avatar"),
		"updated_at": gorm.Expr("excluded.updated_at"),
		"points":     gorm.Expr("CASE WHEN excluded.points > rankings.points THEN excluded.points ELSE rankings.points END"),
	}))
}

func (r *rankingRepository) upsert(ctx context.Context, entry *models.RankingEntry, updates clause.Set) error {
	now := r.now()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: updates,
	}).Create(entry).Error
	if err != nil {
		return err
	}

	var stored models.RankingEntry
	if err := r.db.WithContext(ctx).Where("user_id = ?", entry.UserID).First(&stored).Error; err != nil {
		return err
	}
	*entry = stored
	return nil
}

// Top returns entries by points descending; ties keep storage order.
func (r *rankingRepository) Top(ctx context.Context, limit int) ([]models.RankingEntry, error) {
	entries := make([]models.RankingEntry, 0)
	query := r.db.WithContext(ctx).Order("points DESC").Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
