package model

import "time"

// PlanStatus описывает состояние плана поездки.
type PlanStatus string

const (
	PlanStatusDraft     PlanStatus = "draft"
	PlanStatusCompleted PlanStatus = "completed"
	PlanStatusCancelled PlanStatus = "cancelled"
)

// PlanStatuses перечисляет допустимые статусы в порядке объявления.
var PlanStatuses = []PlanStatus{PlanStatusDraft, PlanStatusCompleted, PlanStatusCancelled}

// Valid сообщает, входит ли статус в фиксированный набор.
func (s PlanStatus) Valid() bool {
	for _, st := range PlanStatuses {
		if s == st {
			return true
		}
	}
	return false
}

// Plan представляет планируемую поездку пользователя.
type Plan struct {
	ID          int64      `db:"id" json:"id"`
	UserID      int64      `db:"user_id" json:"user"`
	Destination string     `db:"destination" json:"destination"`
	StartDate   Date       `db:"start_date" json:"start_date"`
	EndDate     Date       `db:"end_date" json:"end_date"`
	Activities  *string    `db:"activities" json:"activities"`
	Notes       *string    `db:"notes" json:"notes"`
	Status      PlanStatus `db:"status" json:"status"`
	Duration    int        `db:"duration" json:"duration"` // дни между start_date и end_date, фиксируются при создании
	Budget      int64      `db:"budget" json:"budget"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// DaysBetween возвращает число календарных дней от start до end.
// Считается по номерам дней, поэтому не ограничено диапазоном time.Duration.
func DaysBetween(start, end Date) int {
	return int(dayNumber(end) - dayNumber(start))
}

// dayNumber номер календарного дня от эпохи Unix.
func dayNumber(d Date) int64 {
	y, m, day := d.Time.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC).Unix() / 86400
}
