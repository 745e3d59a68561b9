package repositories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"trip-service/internal/apperrors"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

func expectGroupLock(mock sqlmock.Sqlmock, groupID int64) {
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM groups WHERE id=$1 FOR UPDATE`)).
		WithArgs(groupID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(groupID))
}

func TestLeaveGroupSoleMemberDeletesGroup(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupRepo(db)

	mock.ExpectBegin()
	expectGroupLock(mock, 9)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, group_id, user_id, role, joined_at FROM group_members WHERE group_id=$1 AND user_id=$2`)).
		WithArgs(int64(9), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "user_id", "role", "joined_at"}).
			AddRow(int64(3), int64(9), int64(1), "ADMIN", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM group_members WHERE group_id=$1`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM group_members WHERE group_id=$1 AND role='ADMIN'`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM groups WHERE id=$1`)).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	deleted, err := repo.LeaveGroup(context.Background(), 9, 1)
	require.NoError(t, err)
	require.True(t, deleted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLeaveGroupLastAdminRejected(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupRepo(db)

	mock.ExpectBegin()
	expectGroupLock(mock, 9)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, group_id, user_id, role, joined_at FROM group_members WHERE group_id=$1 AND user_id=$2`)).
		WithArgs(int64(9), int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "user_id", "role", "joined_at"}).
			AddRow(int64(3), int64(9), int64(1), "ADMIN", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM group_members WHERE group_id=$1`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(4)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM group_members WHERE group_id=$1 AND role='ADMIN'`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectRollback()

	_, err := repo.LeaveGroup(context.Background(), 9, 1)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, "LAST_ADMIN", appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMemberSelfRejected(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupRepo(db)

	mock.ExpectBegin()
	expectGroupLock(mock, 9)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, group_id, user_id, role, joined_at FROM group_members WHERE group_id=$1 AND id=$2`)).
		WithArgs(int64(9), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "user_id", "role", "joined_at"}).
			AddRow(int64(3), int64(9), int64(1), "MEMBER", time.Now()))
	mock.ExpectRollback()

	err := repo.RemoveMember(context.Background(), 9, 3, 1)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, "CANNOT_REMOVE_SELF", appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMemberLastAdminRejected(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupRepo(db)

	mock.ExpectBegin()
	expectGroupLock(mock, 9)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, group_id, user_id, role, joined_at FROM group_members WHERE group_id=$1 AND id=$2`)).
		WithArgs(int64(9), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "user_id", "role", "joined_at"}).
			AddRow(int64(3), int64(9), int64(7), "ADMIN", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM group_members WHERE group_id=$1 AND role='ADMIN'`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(1)))
	mock.ExpectRollback()

	err := repo.RemoveMember(context.Background(), 9, 3, 1)
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	require.Equal(t, "LAST_ADMIN", appErr.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMemberSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupRepo(db)

	mock.ExpectBegin()
	expectGroupLock(mock, 9)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, group_id, user_id, role, joined_at FROM group_members WHERE group_id=$1 AND id=$2`)).
		WithArgs(int64(9), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "group_id", "user_id", "role", "joined_at"}).
			AddRow(int64(3), int64(9), int64(7), "MEMBER", time.Now()))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM group_members WHERE id=$1`)).
		WithArgs(int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.RemoveMember(context.Background(), 9, 3, 1)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMemberGroupNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGroupRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM groups WHERE id=$1 FOR UPDATE`)).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	err := repo.RemoveMember(context.Background(), 9, 3, 1)
	require.True(t, apperrors.IsNotFound(err))
	require.NoError(t, mock.ExpectationsWereMet())
}
