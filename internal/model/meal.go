package model

import "time"

// Meal is one logged meal with its estimated nutrition. Records are
// immutable: corrections are a delete plus a new entry. Nil macro fields
// mean the model reply lacked that value; the entry is still kept so the
// user does not lose it.
type Meal struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      int64  `gorm:"index"`
	Date        string `gorm:"index"` // YYYY-MM-DD, server-local
	Time        string // HH:MM
	Description string
	Calories    *int
	Proteins    *float64
	Fats        *float64
	Carbs       *float64
	CreatedAt   time.Time
}
