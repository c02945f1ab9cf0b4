package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nutrition-diary/internal/model"
)

func newTestRepo(t *testing.T) *MealRepository {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB() failed: %v", err)
	}
	return NewMealRepository(db)
}

func intPtr(v int) *int           { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestCreateAndListRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	meal := &model.Meal{
		UserID:      42,
		Date:        "2026-08-28",
		Time:        "13:45",
		Description: "гречка с курицей",
		Calories:    intPtr(450),
		Proteins:    floatPtr(35.5),
		Fats:        floatPtr(12),
		Carbs:       floatPtr(55),
	}
	if err := repo.Create(ctx, meal); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if meal.ID == 0 {
		t.Fatal("Create() did not assign an id")
	}

	meals, err := repo.ListByPeriod(ctx, 42, PeriodAll, time.Now())
	if err != nil {
		t.Fatalf("ListByPeriod() failed: %v", err)
	}
	if len(meals) != 1 {
		t.Fatalf("got %d meals, want 1", len(meals))
	}

	got := meals[0]
	if got.UserID != 42 || got.Date != "2026-08-28" || got.Time != "13:45" || got.Description != "гречка с курицей" {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.Calories == nil || *got.Calories != 450 {
		t.Errorf("Calories = %v, want 450", got.Calories)
	}
	if got.Proteins == nil || *got.Proteins != 35.5 {
		t.Errorf("Proteins = %v, want 35.5", got.Proteins)
	}
}

func TestCreateWithNullMacros(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	meal := &model.Meal{UserID: 1, Date: "2026-08-28", Time: "09:00", Description: "что-то"}
	if err := repo.Create(ctx, meal); err != nil {
		t.Fatalf("Create() with null macros failed: %v", err)
	}

	meals, err := repo.ListByPeriod(ctx, 1, PeriodAll, time.Now())
	if err != nil {
		t.Fatalf("ListByPeriod() failed: %v", err)
	}
	if meals[0].Calories != nil || meals[0].Proteins != nil || meals[0].Fats != nil || meals[0].Carbs != nil {
		t.Errorf("macros should stay NULL: %+v", meals[0])
	}
}

func TestListByPeriodDayFilter(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	older := &model.Meal{UserID: 7, Date: "2026-08-27", Time: "20:00", Description: "ужин вчера"}
	today := &model.Meal{UserID: 7, Date: "2026-08-28", Time: "08:30", Description: "завтрак сегодня"}
	for _, m := range []*model.Meal{older, today} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	meals, err := repo.ListByPeriod(ctx, 7, PeriodDay, now)
	if err != nil {
		t.Fatalf("ListByPeriod() failed: %v", err)
	}
	if len(meals) != 1 || meals[0].Description != "завтрак сегодня" {
		t.Errorf("day filter returned %+v, want only today's meal", meals)
	}
}

func TestListByPeriodWindows(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	dates := []string{"2026-08-28", "2026-08-22", "2026-08-10", "2026-06-01"}
	for _, d := range dates {
		if err := repo.Create(ctx, &model.Meal{UserID: 9, Date: d, Time: "12:00", Description: d}); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	tests := []struct {
		period Period
		want   int
	}{
		{PeriodDay, 1},
		{PeriodWeek, 2},
		{PeriodMonth, 3},
		{PeriodAll, 4},
	}
	for _, tt := range tests {
		meals, err := repo.ListByPeriod(ctx, 9, tt.period, now)
		if err != nil {
			t.Fatalf("ListByPeriod(%s) failed: %v", tt.period, err)
		}
		if len(meals) != tt.want {
			t.Errorf("ListByPeriod(%s) = %d meals, want %d", tt.period, len(meals), tt.want)
		}
	}
}

func TestListByPeriodOrdering(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	entries := []struct{ date, tm string }{
		{"2026-08-27", "22:00"},
		{"2026-08-28", "08:00"},
		{"2026-08-28", "13:00"},
	}
	for _, e := range entries {
		if err := repo.Create(ctx, &model.Meal{UserID: 3, Date: e.date, Time: e.tm, Description: e.date + " " + e.tm}); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}

	meals, err := repo.ListByPeriod(ctx, 3, PeriodAll, time.Now())
	if err != nil {
		t.Fatalf("ListByPeriod() failed: %v", err)
	}

	want := []string{"2026-08-28 13:00", "2026-08-28 08:00", "2026-08-27 22:00"}
	for i, desc := range want {
		if meals[i].Description != desc {
			t.Errorf("position %d = %q, want %q", i, meals[i].Description, desc)
		}
	}
}

func TestListByPeriodScopedToUser(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, &model.Meal{UserID: 1, Date: "2026-08-28", Time: "12:00", Description: "mine"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if err := repo.Create(ctx, &model.Meal{UserID: 2, Date: "2026-08-28", Time: "12:00", Description: "theirs"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	meals, err := repo.ListByPeriod(ctx, 1, PeriodAll, time.Now())
	if err != nil {
		t.Fatalf("ListByPeriod() failed: %v", err)
	}
	if len(meals) != 1 || meals[0].Description != "mine" {
		t.Errorf("got %+v, want only user 1's meal", meals)
	}
}

func TestDeleteByIDIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	meal := &model.Meal{UserID: 5, Date: "2026-08-28", Time: "10:00", Description: "каша"}
	if err := repo.Create(ctx, meal); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	if err := repo.DeleteByID(ctx, meal.ID); err != nil {
		t.Fatalf("DeleteByID() failed: %v", err)
	}
	// Deleting the same or a nonexistent id is not an error.
	if err := repo.DeleteByID(ctx, meal.ID); err != nil {
		t.Errorf("repeat DeleteByID() failed: %v", err)
	}
	if err := repo.DeleteByID(ctx, 9999); err != nil {
		t.Errorf("DeleteByID(nonexistent) failed: %v", err)
	}

	meals, err := repo.ListByPeriod(ctx, 5, PeriodAll, time.Now())
	if err != nil {
		t.Fatalf("ListByPeriod() failed: %v", err)
	}
	if len(meals) != 0 {
		t.Errorf("store still has %d meals after delete", len(meals))
	}
}

func TestCountForDate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.Create(ctx, &model.Meal{UserID: 8, Date: "2026-08-28", Time: "12:00", Description: "обед"}); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	count, err := repo.CountForDate(ctx, 8, "2026-08-28")
	if err != nil {
		t.Fatalf("CountForDate() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("count = %d, want 1", count)
	}

	count, err = repo.CountForDate(ctx, 8, "2026-08-27")
	if err != nil {
		t.Fatalf("CountForDate() failed: %v", err)
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		raw     string
		want    Period
		wantErr bool
	}{
		{"day", PeriodDay, false},
		{"week", PeriodWeek, false},
		{"month", PeriodMonth, false},
		{"all", PeriodAll, false},
		{"", PeriodDay, false},
		{"year", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePeriod(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("ParsePeriod(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}
