package repositories

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"trip-service/internal/apperrors"
	"trip-service/internal/models"
)

// ActivityRepository abstracts activity, participant and ordering persistence.
type ActivityRepository interface {
	CreateActivity(ctx context.Context, activity models.Activity, participantMemberIDs []int64) (models.Activity, error)
	GetActivity(ctx context.Context, activityID int64) (models.Activity, error)
	ListActivities(ctx context.Context, groupID int64) ([]models.Activity, error)
	UpdateActivity(ctx context.Context, activity models.Activity) (models.Activity, error)
	DeleteActivity(ctx context.Context, activityID int64) error
	ToggleCompletion(ctx context.Context, activityID int64) (models.Activity, error)
	ReorderActivities(ctx context.Context, groupID int64, activityIDs []int64) error

	AddParticipant(ctx context.Context, activityID, memberID int64, status models.ParticipantStatus, notes *string) (models.ActivityParticipant, error)
	UpdateParticipant(ctx context.Context, activityID, participantID int64, status models.ParticipantStatus, notes *string) (models.ActivityParticipant, error)
	RemoveParticipant(ctx context.Context, activityID, participantID int64) error
	ListParticipants(ctx context.Context, activityID int64) ([]models.ActivityParticipant, error)
}

// ActivityRepo is a sqlx implementation of ActivityRepository.
type ActivityRepo struct {
	db *sqlx.DB
}

// NewActivityRepo constructs an ActivityRepo.
func NewActivityRepo(db *sqlx.DB) *ActivityRepo {
	return &ActivityRepo{db: db}
}

// jsonMap stores free-form location metadata in a JSONB column.
type jsonMap map[string]any

func (m jsonMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *jsonMap) Scan(src any) error {
	if src == nil {
		*m = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("cannot scan %T into jsonMap", src)
	}
}

// activityRow flattens the single-table union; the variant columns are NULL
// for the other variant.
type activityRow struct {
	ID           int64           `db:"id"`
	GroupID      int64           `db:"group_id"`
	Type         string          `db:"activity_type"`
	Name         string          `db:"name"`
	Description  *string         `db:"description"`
	StartDate    models.Date     `db:"start_date"`
	EndDate      models.Date     `db:"end_date"`
	StartTime    models.TimeOfDay `db:"start_time"`
	EndTime      models.TimeOfDay `db:"end_time"`
	IsCompleted  bool            `db:"is_completed"`
	DisplayOrder int             `db:"display_order"`
	TotalCost    decimal.Decimal `db:"total_cost"`
	CreatedBy    *int64          `db:"created_by"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`

	EventLocationName      *string           `db:"event_location_name"`
	EventLocationAddress   *string           `db:"event_location_address"`
	EventLocationLatitude  *float64          `db:"event_location_latitude"`
	EventLocationLongitude *float64          `db:"event_location_longitude"`
	EventLocationPlaceID   *string           `db:"event_location_place_id"`
	EventLocationMetadata  jsonMap           `db:"event_location_metadata"`
	EventCategory          *string           `db:"event_category"`
	EventBookingURL        *string           `db:"event_booking_url"`
	EventBookingReference  *string           `db:"event_booking_reference"`
	EventReservationTime   *models.TimeOfDay `db:"event_reservation_time"`

	TripOriginName           *string           `db:"trip_origin_name"`
	TripOriginAddress        *string           `db:"trip_origin_address"`
	TripOriginLatitude       *float64          `db:"trip_origin_latitude"`
	TripOriginLongitude      *float64          `db:"trip_origin_longitude"`
	TripOriginPlaceID        *string           `db:"trip_origin_place_id"`
	TripOriginMetadata       jsonMap           `db:"trip_origin_metadata"`
	TripDestinationName      *string           `db:"trip_destination_name"`
	TripDestinationAddress   *string           `db:"trip_destination_address"`
	TripDestinationLatitude  *float64          `db:"trip_destination_latitude"`
	TripDestinationLongitude *float64          `db:"trip_destination_longitude"`
	TripDestinationPlaceID   *string           `db:"trip_destination_place_id"`
	TripDestinationMetadata  jsonMap           `db:"trip_destination_metadata"`
	TripTransportMode        *string           `db:"trip_transport_mode"`
	TripDepartureTime        *models.TimeOfDay `db:"trip_departure_time"`
	TripArrivalTime          *models.TimeOfDay `db:"trip_arrival_time"`
	TripBookingReference     *string           `db:"trip_booking_reference"`
}

const activityColumns = `
	id, group_id, activity_type, name, description, start_date, end_date,
	start_time, end_time, is_completed, display_order, total_cost, created_by,
	created_at, updated_at,
	event_location_name, event_location_address, event_location_latitude,
	event_location_longitude, event_location_place_id, event_location_metadata,
	event_category, event_booking_url, event_booking_reference, event_reservation_time,
	trip_origin_name, trip_origin_address, trip_origin_latitude, trip_origin_longitude,
	trip_origin_place_id, trip_origin_metadata,
	trip_destination_name, trip_destination_address, trip_destination_latitude,
	trip_destination_longitude, trip_destination_place_id, trip_destination_metadata,
	trip_transport_mode, trip_departure_time, trip_arrival_time, trip_booking_reference`

func (row activityRow) toModel() models.Activity {
	activity := models.Activity{
		ID:           row.ID,
		GroupID:      row.GroupID,
		Type:         models.ActivityType(row.Type),
		Name:         row.Name,
		Description:  row.Description,
		StartDate:    row.StartDate,
		EndDate:      row.EndDate,
		StartTime:    row.StartTime,
		EndTime:      row.EndTime,
		IsCompleted:  row.IsCompleted,
		DisplayOrder: row.DisplayOrder,
		TotalCost:    row.TotalCost,
		CreatedBy:    row.CreatedBy,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}

	switch activity.Type {
	case models.ActivityEvent:
		event := &models.EventDetails{
			Location: models.Location{
				Name:      row.EventLocationName,
				Address:   row.EventLocationAddress,
				Latitude:  row.EventLocationLatitude,
				Longitude: row.EventLocationLongitude,
				PlaceID:   row.EventLocationPlaceID,
				Metadata:  row.EventLocationMetadata,
			},
			BookingURL:       row.EventBookingURL,
			BookingReference: row.EventBookingReference,
			ReservationTime:  row.EventReservationTime,
		}
		if row.EventCategory != nil {
			event.Category = models.EventCategory(*row.EventCategory)
		}
		activity.Event = event
	case models.ActivityTrip:
		trip := &models.TripDetails{
			Origin: models.Location{
				Name:      row.TripOriginName,
				Address:   row.TripOriginAddress,
				Latitude:  row.TripOriginLatitude,
				Longitude: row.TripOriginLongitude,
				PlaceID:   row.TripOriginPlaceID,
				Metadata:  row.TripOriginMetadata,
			},
			Destination: models.Location{
				Name:      row.TripDestinationName,
				Address:   row.TripDestinationAddress,
				Latitude:  row.TripDestinationLatitude,
				Longitude: row.TripDestinationLongitude,
				PlaceID:   row.TripDestinationPlaceID,
				Metadata:  row.TripDestinationMetadata,
			},
			DepartureTime:    row.TripDepartureTime,
			ArrivalTime:      row.TripArrivalTime,
			BookingReference: row.TripBookingReference,
		}
		if row.TripTransportMode != nil {
			trip.TransportMode = models.TransportMode(*row.TripTransportMode)
		}
		activity.Trip = trip
	}
	return activity
}

// variantArgs flattens the variant payload into the column order of
// activityVariantColumns.
func variantArgs(activity models.Activity) []any {
	var (
		eventCategory *string
		transportMode *string
		event         models.EventDetails
		trip          models.TripDetails
	)
	if activity.Event != nil {
		event = *activity.Event
		category := string(event.Category)
		eventCategory = &category
	}
	if activity.Trip != nil {
		trip = *activity.Trip
		mode := string(trip.TransportMode)
		transportMode = &mode
	}
	return []any{
		event.Location.Name, event.Location.Address, event.Location.Latitude,
		event.Location.Longitude, event.Location.PlaceID, jsonMap(event.Location.Metadata),
		eventCategory, event.BookingURL, event.BookingReference, event.ReservationTime,
		trip.Origin.Name, trip.Origin.Address, trip.Origin.Latitude, trip.Origin.Longitude,
		trip.Origin.PlaceID, jsonMap(trip.Origin.Metadata),
		trip.Destination.Name, trip.Destination.Address, trip.Destination.Latitude,
		trip.Destination.Longitude, trip.Destination.PlaceID, jsonMap(trip.Destination.Metadata),
		transportMode, trip.DepartureTime, trip.ArrivalTime, trip.BookingReference,
	}
}

// CreateActivity inserts an activity and its initial participant roster
// atomically. Every roster member must belong to the activity's group, and a
// member listed twice rejects the whole call.
func (r *ActivityRepo) CreateActivity(ctx context.Context, activity models.Activity, participantMemberIDs []int64) (models.Activity, error) {
	seen := make(map[int64]struct{}, len(participantMemberIDs))
	for _, memberID := range participantMemberIDs {
		if _, dup := seen[memberID]; dup {
			return models.Activity{}, apperrors.AlreadyParticipant()
		}
		seen[memberID] = struct{}{}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Activity{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var order int
	if err = tx.GetContext(ctx, &order,
		`SELECT COALESCE(MAX(display_order), -1) + 1 FROM activities WHERE group_id=$1`, activity.GroupID); err != nil {
		return models.Activity{}, err
	}

	args := []any{
		activity.GroupID, activity.Type, activity.Name, activity.Description,
		activity.StartDate, activity.EndDate, activity.StartTime, activity.EndTime,
		order, activity.TotalCost, activity.CreatedBy,
	}
	args = append(args, variantArgs(activity)...)

	var row activityRow
	if err = tx.GetContext(ctx, &row, `
		INSERT INTO activities (
			group_id, activity_type, name, description, start_date, end_date,
			start_time, end_time, display_order, total_cost, created_by,
			event_location_name, event_location_address, event_location_latitude,
			event_location_longitude, event_location_place_id, event_location_metadata,
			event_category, event_booking_url, event_booking_reference, event_reservation_time,
			trip_origin_name, trip_origin_address, trip_origin_latitude, trip_origin_longitude,
			trip_origin_place_id, trip_origin_metadata,
			trip_destination_name, trip_destination_address, trip_destination_latitude,
			trip_destination_longitude, trip_destination_place_id, trip_destination_metadata,
			trip_transport_mode, trip_departure_time, trip_arrival_time, trip_booking_reference
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17, $18, $19, $20, $21,
			$22, $23, $24, $25, $26, $27,
			$28, $29, $30, $31, $32, $33, $34, $35, $36, $37
		) RETURNING `+activityColumns, args...); err != nil {
		return models.Activity{}, err
	}

	for _, memberID := range participantMemberIDs {
		var belongs bool
		if err = tx.GetContext(ctx, &belongs,
			`SELECT EXISTS(SELECT 1 FROM group_members WHERE id=$1 AND group_id=$2)`,
			memberID, activity.GroupID); err != nil {
			return models.Activity{}, err
		}
		if !belongs {
			err = apperrors.MemberNotFound()
			return models.Activity{}, err
		}
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO activity_participants (activity_id, group_member_id) VALUES ($1, $2)`,
			row.ID, memberID); err != nil {
			return models.Activity{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Activity{}, err
	}
	return row.toModel(), nil
}

// GetActivity fetches a single activity with its variant payload.
func (r *ActivityRepo) GetActivity(ctx context.Context, activityID int64) (models.Activity, error) {
	var row activityRow
	err := r.db.GetContext(ctx, &row,
		`SELECT `+activityColumns+` FROM activities WHERE id=$1`, activityID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Activity{}, apperrors.ActivityNotFound(activityID)
	}
	if err != nil {
		return models.Activity{}, err
	}
	return row.toModel(), nil
}

// ListActivities returns a group's activities in display order.
func (r *ActivityRepo) ListActivities(ctx context.Context, groupID int64) ([]models.Activity, error) {
	rows := []activityRow{}
	err := r.db.SelectContext(ctx, &rows, `
		SELECT `+activityColumns+`
		FROM activities WHERE group_id=$1
		ORDER BY display_order, start_date, start_time`, groupID)
	if err != nil {
		return nil, err
	}
	activities := make([]models.Activity, 0, len(rows))
	for _, row := range rows {
		activities = append(activities, row.toModel())
	}
	return activities, nil
}

// UpdateActivity rewrites all mutable fields of an activity. The caller has
// already merged the incoming payload with the stored row.
func (r *ActivityRepo) UpdateActivity(ctx context.Context, activity models.Activity) (models.Activity, error) {
	args := []any{
		activity.ID, activity.Name, activity.Description,
		activity.StartDate, activity.EndDate, activity.StartTime, activity.EndTime,
		activity.TotalCost,
	}
	args = append(args, variantArgs(activity)...)

	var row activityRow
	err := r.db.GetContext(ctx, &row, `
		UPDATE activities SET
			name=$2, description=$3, start_date=$4, end_date=$5,
			start_time=$6, end_time=$7, total_cost=$8,
			event_location_name=$9, event_location_address=$10, event_location_latitude=$11,
			event_location_longitude=$12, event_location_place_id=$13, event_location_metadata=$14,
			event_category=$15, event_booking_url=$16, event_booking_reference=$17,
			event_reservation_time=$18,
			trip_origin_name=$19, trip_origin_address=$20, trip_origin_latitude=$21,
			trip_origin_longitude=$22, trip_origin_place_id=$23, trip_origin_metadata=$24,
			trip_destination_name=$25, trip_destination_address=$26, trip_destination_latitude=$27,
			trip_destination_longitude=$28, trip_destination_place_id=$29, trip_destination_metadata=$30,
			trip_transport_mode=$31, trip_departure_time=$32, trip_arrival_time=$33,
			trip_booking_reference=$34,
			updated_at=NOW()
		WHERE id=$1
		RETURNING `+activityColumns, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Activity{}, apperrors.ActivityNotFound(activity.ID)
	}
	if err != nil {
		return models.Activity{}, err
	}
	return row.toModel(), nil
}

// DeleteActivity removes the activity; participants and expenses cascade.
func (r *ActivityRepo) DeleteActivity(ctx context.Context, activityID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id=$1`, activityID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ActivityNotFound(activityID)
	}
	return nil
}

// ToggleCompletion flips the completion flag and returns the fresh row.
func (r *ActivityRepo) ToggleCompletion(ctx context.Context, activityID int64) (models.Activity, error) {
	var row activityRow
	err := r.db.GetContext(ctx, &row, `
		UPDATE activities SET is_completed = NOT is_completed, updated_at = NOW()
		WHERE id=$1
		RETURNING `+activityColumns, activityID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Activity{}, apperrors.ActivityNotFound(activityID)
	}
	if err != nil {
		return models.Activity{}, err
	}
	return row.toModel(), nil
}

// ReorderActivities assigns display_order by position in activityIDs. Every
// id must belong to the group.
func (r *ActivityRepo) ReorderActivities(ctx context.Context, groupID int64, activityIDs []int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for i, id := range activityIDs {
		var res sql.Result
		res, err = tx.ExecContext(ctx,
			`UPDATE activities SET display_order=$3, updated_at=NOW() WHERE id=$1 AND group_id=$2`,
			id, groupID, i)
		if err != nil {
			return err
		}
		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			err = apperrors.ActivityNotFound(id)
			return err
		}
	}

	return tx.Commit()
}

const participantColumns = `
	ap.id, ap.activity_id, ap.group_member_id, ap.status, ap.notes,
	ap.created_at, ap.updated_at,
	gm.user_id AS user_id, u.name AS user_name`

// AddParticipant enrolls a group member into an activity's roster. The
// member must belong to the activity's group.
func (r *ActivityRepo) AddParticipant(ctx context.Context, activityID, memberID int64, status models.ParticipantStatus, notes *string) (models.ActivityParticipant, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ActivityParticipant{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var groupID int64
	err = tx.GetContext(ctx, &groupID, `SELECT group_id FROM activities WHERE id=$1`, activityID)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperrors.ActivityNotFound(activityID)
		return models.ActivityParticipant{}, err
	}
	if err != nil {
		return models.ActivityParticipant{}, err
	}

	var belongs bool
	if err = tx.GetContext(ctx, &belongs,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE id=$1 AND group_id=$2)`, memberID, groupID); err != nil {
		return models.ActivityParticipant{}, err
	}
	if !belongs {
		err = apperrors.MemberNotFound()
		return models.ActivityParticipant{}, err
	}

	var already bool
	if err = tx.GetContext(ctx, &already,
		`SELECT EXISTS(SELECT 1 FROM activity_participants WHERE activity_id=$1 AND group_member_id=$2)`,
		activityID, memberID); err != nil {
		return models.ActivityParticipant{}, err
	}
	if already {
		err = apperrors.AlreadyParticipant()
		return models.ActivityParticipant{}, err
	}

	var participantID int64
	if err = tx.GetContext(ctx, &participantID,
		`INSERT INTO activity_participants (activity_id, group_member_id, status, notes)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		activityID, memberID, status, notes); err != nil {
		return models.ActivityParticipant{}, err
	}

	var participant models.ActivityParticipant
	if err = tx.GetContext(ctx, &participant, `
		SELECT `+participantColumns+`
		FROM activity_participants ap
		JOIN group_members gm ON gm.id = ap.group_member_id
		JOIN users u ON u.id = gm.user_id
		WHERE ap.id=$1`, participantID); err != nil {
		return models.ActivityParticipant{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.ActivityParticipant{}, err
	}
	return participant, nil
}

// UpdateParticipant changes a participant's status and notes.
func (r *ActivityRepo) UpdateParticipant(ctx context.Context, activityID, participantID int64, status models.ParticipantStatus, notes *string) (models.ActivityParticipant, error) {
	var participant models.ActivityParticipant
	err := r.db.GetContext(ctx, &participant, `
		WITH updated AS (
			UPDATE activity_participants SET status=$3, notes=COALESCE($4, notes), updated_at=NOW()
			WHERE id=$2 AND activity_id=$1
			RETURNING id, activity_id, group_member_id, status, notes, created_at, updated_at
		)
		SELECT ap.id, ap.activity_id, ap.group_member_id, ap.status, ap.notes,
		       ap.created_at, ap.updated_at,
		       gm.user_id AS user_id, u.name AS user_name
		FROM updated ap
		JOIN group_members gm ON gm.id = ap.group_member_id
		JOIN users u ON u.id = gm.user_id`,
		activityID, participantID, status, notes)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ActivityParticipant{}, apperrors.ParticipantNotFound(participantID)
	}
	return participant, err
}

// RemoveParticipant deletes a participant row from an activity's roster.
func (r *ActivityRepo) RemoveParticipant(ctx context.Context, activityID, participantID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM activity_participants WHERE id=$1 AND activity_id=$2`, participantID, activityID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.ParticipantNotFound(participantID)
	}
	return nil
}

// ListParticipants returns an activity's roster with joined user fields.
func (r *ActivityRepo) ListParticipants(ctx context.Context, activityID int64) ([]models.ActivityParticipant, error) {
	participants := []models.ActivityParticipant{}
	err := r.db.SelectContext(ctx, &participants, `
		SELECT `+participantColumns+`
		FROM activity_participants ap
		JOIN group_members gm ON gm.id = ap.group_member_id
		JOIN users u ON u.id = gm.user_id
		WHERE ap.activity_id=$1
		ORDER BY ap.created_at`, activityID)
	return participants, err
}
