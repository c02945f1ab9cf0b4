package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"nutrition-diary/internal/model"
)

// ErrStorageUnavailable marks writes and reads that failed at the storage
// boundary. The caller must not assume the record was persisted.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Period selects the date window for meal listings.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
	PeriodAll   Period = "all"
)

// ParsePeriod maps user input to a Period, defaulting to day.
func ParsePeriod(raw string) (Period, error) {
	switch Period(raw) {
	case PeriodDay, PeriodWeek, PeriodMonth, PeriodAll:
		return Period(raw), nil
	case "":
		return PeriodDay, nil
	default:
		return "", fmt.Errorf("unknown period %q", raw)
	}
}

// MealRepository handles persistence of meal records.
type MealRepository struct {
	db *gorm.DB
}

func NewMealRepository(db *gorm.DB) *MealRepository {
	return &MealRepository{db: db}
}

// Create inserts a new record. Nil macro fields are legal and stored as NULL.
func (r *MealRepository) Create(ctx context.Context, meal *model.Meal) error {
	if err := r.db.WithContext(ctx).Create(meal).Error; err != nil {
		return fmt.Errorf("create meal: %w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// ListByPeriod returns the user's meals inside the window anchored at now,
// most recent (date, time) first. Week and month are trailing 7 and 30 day
// windows inclusive. Dates are ISO strings, so string comparison orders them.
func (r *MealRepository) ListByPeriod(ctx context.Context, userID int64, period Period, now time.Time) ([]model.Meal, error) {
	q := r.db.WithContext(ctx).Where("user_id = ?", userID)

	switch period {
	case PeriodDay:
		q = q.Where("date = ?", now.Format("2006-01-02"))
	case PeriodWeek:
		q = q.Where("date >= ?", now.AddDate(0, 0, -7).Format("2006-01-02"))
	case PeriodMonth:
		q = q.Where("date >= ?", now.AddDate(0, 0, -30).Format("2006-01-02"))
	case PeriodAll:
		// no date filter
	default:
		return nil, fmt.Errorf("unknown period %q", period)
	}

	var meals []model.Meal
	if err := q.Order("date DESC, time DESC").Find(&meals).Error; err != nil {
		return nil, fmt.Errorf("list meals: %w: %v", ErrStorageUnavailable, err)
	}
	return meals, nil
}

// DeleteByID removes a record. Deleting a nonexistent id is not an error.
func (r *MealRepository) DeleteByID(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&model.Meal{}, id).Error; err != nil {
		return fmt.Errorf("delete meal: %w: %v", ErrStorageUnavailable, err)
	}
	return nil
}

// CountForDate reports how many meals the user logged on the given date.
// Used by the daily reminder to skip users who already logged something.
func (r *MealRepository) CountForDate(ctx context.Context, userID int64, date string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Meal{}).
		Where("user_id = ? AND date = ?", userID, date).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count meals: %w: %v", ErrStorageUnavailable, err)
	}
	return count, nil
}
