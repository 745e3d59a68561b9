package models

import "time"

// CalendarEntry is one date-bucketed row of the calendar projection, scoped
// to activities the requesting user participates in.
type CalendarEntry struct {
	ID             int64     `db:"id" json:"id"`
	GroupID        int64     `db:"group_id" json:"group_id"`
	Title          string    `db:"title" json:"title"`
	Description    *string   `db:"description" json:"description,omitempty"`
	StartTime      TimeOfDay `db:"start_time" json:"start_time"`
	EndTime        TimeOfDay `db:"end_time" json:"end_time"`
	DayOfWeek      string    `db:"day_of_week" json:"day_of_week"`
	ActivityDate   Date      `db:"activity_date" json:"activity_date"`
	LocationName   *string   `db:"location_name" json:"location_name,omitempty"`
	LocationLat    *float64  `db:"location_lat" json:"location_lat,omitempty"`
	LocationLng    *float64  `db:"location_lng" json:"location_lng,omitempty"`
	IsCompleted    bool      `db:"is_completed" json:"is_completed"`
	Status         string    `db:"calendar_status" json:"calendar_status"`
	ConfirmedCount int64     `db:"confirmed_count" json:"confirmed_count"`
	MaybeCount     int64     `db:"maybe_count" json:"maybe_count"`
	DeclinedCount  int64     `db:"declined_count" json:"declined_count"`
	TotalMembers   int64     `db:"total_members" json:"total_members"`
	CreatorName    *string   `db:"creator_name" json:"creator_name,omitempty"`
	CreatorAvatar  *string   `db:"creator_avatar" json:"creator_avatar,omitempty"`
}

// MondayOf normalizes a date to the same-or-preceding Monday.
func MondayOf(d Date) Date {
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDays(-offset)
}

// MonthRange returns the first and last day of a calendar month.
func MonthRange(year int, month time.Month) (Date, Date) {
	start := NewDate(year, month, 1)
	end := Date{Time: start.Time.AddDate(0, 1, -1)}
	return start, end
}
