package repositories

import (
	"context"

	"github.com/jmoiron/sqlx"

	"trip-service/internal/models"
)

// CalendarRepository projects activities into date-bucketed calendar rows.
type CalendarRepository interface {
	ListByGroupAndRange(ctx context.Context, groupID, userID int64, start, end *models.Date) ([]models.CalendarEntry, error)
}

// CalendarRepo is a sqlx implementation of CalendarRepository.
type CalendarRepo struct {
	db *sqlx.DB
}

// NewCalendarRepo constructs a CalendarRepo.
func NewCalendarRepo(db *sqlx.DB) *CalendarRepo {
	return &CalendarRepo{db: db}
}

// ListByGroupAndRange returns one row per activity the requesting user
// participates in, restricted to [start, end] when bounds are given. The
// projected status is completed when the flag is set, otherwise the
// requester's own participation state.
func (r *CalendarRepo) ListByGroupAndRange(ctx context.Context, groupID, userID int64, start, end *models.Date) ([]models.CalendarEntry, error) {
	entries := []models.CalendarEntry{}
	err := r.db.SelectContext(ctx, &entries, `
		SELECT
			a.id, a.group_id, a.name AS title, a.description,
			a.start_time, a.end_time,
			TRIM(TO_CHAR(a.start_date, 'Day')) AS day_of_week,
			a.start_date AS activity_date,
			CASE a.activity_type
				WHEN 'EVENT' THEN a.event_location_name
				ELSE a.trip_destination_name
			END AS location_name,
			CASE a.activity_type
				WHEN 'EVENT' THEN a.event_location_latitude
				ELSE a.trip_destination_latitude
			END AS location_lat,
			CASE a.activity_type
				WHEN 'EVENT' THEN a.event_location_longitude
				ELSE a.trip_destination_longitude
			END AS location_lng,
			a.is_completed,
			CASE
				WHEN a.is_completed THEN 'completed'
				WHEN ap.status = 'CONFIRMED' THEN 'confirmed'
				WHEN ap.status = 'DECLINED' THEN 'declined'
				ELSE 'pending'
			END AS calendar_status,
			(SELECT COUNT(*) FROM activity_participants p WHERE p.activity_id = a.id AND p.status = 'CONFIRMED') AS confirmed_count,
			(SELECT COUNT(*) FROM activity_participants p WHERE p.activity_id = a.id AND p.status = 'MAYBE') AS maybe_count,
			(SELECT COUNT(*) FROM activity_participants p WHERE p.activity_id = a.id AND p.status = 'DECLINED') AS declined_count,
			(SELECT COUNT(*) FROM group_members m WHERE m.group_id = a.group_id) AS total_members,
			creator.name AS creator_name,
			creator.avatar_url AS creator_avatar
		FROM activities a
		JOIN activity_participants ap ON ap.activity_id = a.id
		JOIN group_members gm ON gm.id = ap.group_member_id AND gm.user_id = $2
		LEFT JOIN users creator ON creator.id = a.created_by
		WHERE a.group_id = $1
		  AND ($3::date IS NULL OR a.start_date >= $3)
		  AND ($4::date IS NULL OR a.start_date <= $4)
		ORDER BY a.start_date, a.start_time`,
		groupID, userID, start, end)
	return entries, err
}
