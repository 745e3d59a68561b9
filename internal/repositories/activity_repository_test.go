package repositories

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"trip-service/internal/apperrors"
	"trip-service/internal/models"
)

var activityTestColumns = []string{
	"id", "group_id", "activity_type", "name", "description", "start_date", "end_date",
	"start_time", "end_time", "is_completed", "display_order", "total_cost", "created_by",
	"created_at", "updated_at",
	"event_location_name", "event_location_address", "event_location_latitude",
	"event_location_longitude", "event_location_place_id", "event_location_metadata",
	"event_category", "event_booking_url", "event_booking_reference", "event_reservation_time",
	"trip_origin_name", "trip_origin_address", "trip_origin_latitude", "trip_origin_longitude",
	"trip_origin_place_id", "trip_origin_metadata",
	"trip_destination_name", "trip_destination_address", "trip_destination_latitude",
	"trip_destination_longitude", "trip_destination_place_id", "trip_destination_metadata",
	"trip_transport_mode", "trip_departure_time", "trip_arrival_time", "trip_booking_reference",
}

func eventActivityRow(id, groupID int64, completed bool) []driver.Value {
	now := time.Now()
	return []driver.Value{
		id, groupID, "EVENT", "Dinner", nil, "2026-07-11", "2026-07-11",
		"19:00", "21:00", completed, 0, "0", nil,
		now, now,
		"Taberna", nil, nil, nil, nil, nil,
		"RESTAURANT", nil, nil, nil,
		nil, nil, nil, nil, nil, nil,
		nil, nil, nil, nil, nil, nil,
		nil, nil, nil, nil,
	}
}

func expectToggle(mock sqlmock.Sqlmock, activityID int64, completedAfter bool) {
	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE activities SET is_completed = NOT is_completed, updated_at = NOW()`)).
		WithArgs(activityID).
		WillReturnRows(sqlmock.NewRows(activityTestColumns).AddRow(eventActivityRow(activityID, 9, completedAfter)...))
}

func TestToggleCompletionDoubleToggleRestores(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewActivityRepo(db)

	expectToggle(mock, 11, true)
	expectToggle(mock, 11, false)

	first, err := repo.ToggleCompletion(context.Background(), 11)
	require.NoError(t, err)
	require.True(t, first.IsCompleted)

	second, err := repo.ToggleCompletion(context.Background(), 11)
	require.NoError(t, err)
	require.False(t, second.IsCompleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleCompletionNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewActivityRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE activities SET is_completed = NOT is_completed, updated_at = NOW()`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(activityTestColumns))

	_, err := repo.ToggleCompletion(context.Background(), 99)
	require.True(t, apperrors.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReorderActivitiesAssignsSequentialOrder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewActivityRepo(db)

	reorder := regexp.QuoteMeta(`UPDATE activities SET display_order=$3, updated_at=NOW() WHERE id=$1 AND group_id=$2`)

	mock.ExpectBegin()
	for i, id := range []int64{5, 3, 8} {
		mock.ExpectExec(reorder).
			WithArgs(id, int64(9), i).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	err := repo.ReorderActivities(context.Background(), 9, []int64{5, 3, 8})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReorderActivitiesForeignIDRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewActivityRepo(db)

	reorder := regexp.QuoteMeta(`UPDATE activities SET display_order=$3, updated_at=NOW() WHERE id=$1 AND group_id=$2`)

	mock.ExpectBegin()
	mock.ExpectExec(reorder).
		WithArgs(int64(5), int64(9), 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	// id 42 belongs to another group, so the update touches no row
	mock.ExpectExec(reorder).
		WithArgs(int64(42), int64(9), 1).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.ReorderActivities(context.Background(), 9, []int64{5, 42})
	require.True(t, apperrors.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateActivityDuplicateRosterRejected(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewActivityRepo(db)

	_, err := repo.CreateActivity(context.Background(), models.Activity{GroupID: 9, Type: models.ActivityEvent},
		[]int64{4, 4})
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, "ALREADY_PARTICIPANT", appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
