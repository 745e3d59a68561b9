package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"trip-service/internal/apperrors"
	"trip-service/internal/models"
)

// GroupUpdate carries the optional fields of a partial group update. Nil
// fields are left untouched.
type GroupUpdate struct {
	Name              *string      `json:"name"`
	Description       *string      `json:"description"`
	VacationStartDate *models.Date `json:"vacation_start_date"`
	VacationEndDate   *models.Date `json:"vacation_end_date"`
	CoverImageURL     *string      `json:"cover_image_url"`
}

// GroupRepository abstracts group and membership persistence.
type GroupRepository interface {
	CreateGroup(ctx context.Context, creatorID int64, group models.Group, initialMembers []models.MemberSpec) (models.Group, error)
	ListGroupsForUser(ctx context.Context, userID int64) ([]models.Group, error)
	GetGroup(ctx context.Context, groupID int64) (models.Group, error)
	GetGroupWithMembers(ctx context.Context, groupID int64) (models.Group, error)
	UpdateGroup(ctx context.Context, groupID int64, update GroupUpdate) (models.Group, error)
	DeleteGroup(ctx context.Context, groupID int64) error

	ListMembers(ctx context.Context, groupID int64) ([]models.GroupMember, error)
	GetMember(ctx context.Context, groupID, memberID int64) (models.GroupMember, error)
	FindMembership(ctx context.Context, groupID, userID int64) (models.GroupMember, error)
	IsMember(ctx context.Context, groupID, userID int64) (bool, error)
	IsAdmin(ctx context.Context, groupID, userID int64) (bool, error)
	IsCreator(ctx context.Context, groupID, userID int64) (bool, error)
	AddMembers(ctx context.Context, groupID int64, specs []models.MemberSpec) ([]models.GroupMember, error)
	RemoveMember(ctx context.Context, groupID, memberID, actingUserID int64) error
	LeaveGroup(ctx context.Context, groupID, userID int64) (bool, error)
	LeaveStatus(ctx context.Context, groupID, userID int64) (models.LeaveStatus, error)
	UpdateMemberRole(ctx context.Context, groupID, memberID int64, role models.GroupRole) (models.GroupMember, error)
}

// GroupRepo is a sqlx implementation of GroupRepository.
type GroupRepo struct {
	db *sqlx.DB
}

// NewGroupRepo constructs a GroupRepo.
func NewGroupRepo(db *sqlx.DB) *GroupRepo {
	return &GroupRepo{db: db}
}

const memberColumns = `
	gm.id, gm.group_id, gm.user_id, gm.role, gm.joined_at,
	u.name AS user_name, u.email AS user_email, u.avatar_url AS user_avatar`

// queryer is the subset of sqlx shared by *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// resolveUserID looks up the user a MemberSpec points at, preferring email.
func resolveUserID(ctx context.Context, q queryer, spec models.MemberSpec) (int64, string, error) {
	var (
		id         int64
		identifier string
		err        error
	)
	if spec.Email != "" {
		identifier = spec.Email
		err = q.GetContext(ctx, &id, `SELECT id FROM users WHERE email=$1`, spec.Email)
	} else {
		identifier = spec.Username
		err = q.GetContext(ctx, &id, `SELECT id FROM users WHERE name=$1`, spec.Username)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return 0, identifier, apperrors.UserNotFound(identifier)
	}
	return id, identifier, err
}

// lockGroup takes the group row lock that serializes membership mutations.
func lockGroup(ctx context.Context, q queryer, groupID int64) error {
	var id int64
	err := q.GetContext(ctx, &id, `SELECT id FROM groups WHERE id=$1 FOR UPDATE`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.GroupNotFound(groupID)
	}
	return err
}

func memberCount(ctx context.Context, q queryer, groupID int64) (int64, error) {
	var n int64
	err := q.GetContext(ctx, &n, `SELECT COUNT(*) FROM group_members WHERE group_id=$1`, groupID)
	return n, err
}

func adminCount(ctx context.Context, q queryer, groupID int64) (int64, error) {
	var n int64
	err := q.GetContext(ctx, &n, `SELECT COUNT(*) FROM group_members WHERE group_id=$1 AND role='ADMIN'`, groupID)
	return n, err
}

// insertMember adds a (group, user) membership and returns the row joined
// with user fields. Duplicate memberships map to a conflict error.
func insertMember(ctx context.Context, q queryer, groupID, userID int64, role models.GroupRole, identifier string) (models.GroupMember, error) {
	var exists bool
	if err := q.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID); err != nil {
		return models.GroupMember{}, err
	}
	if exists {
		return models.GroupMember{}, apperrors.UserAlreadyMember(identifier)
	}

	var memberID int64
	if err := q.GetContext(ctx, &memberID,
		`INSERT INTO group_members (group_id, user_id, role) VALUES ($1, $2, $3) RETURNING id`,
		groupID, userID, role); err != nil {
		return models.GroupMember{}, err
	}

	var member models.GroupMember
	err := q.GetContext(ctx, &member, `
		SELECT `+memberColumns+`
		FROM group_members gm JOIN users u ON u.id = gm.user_id
		WHERE gm.id=$1`, memberID)
	return member, err
}

// CreateGroup creates a group, enrolls the creator as ADMIN, and resolves the
// initial member specs, all atomically. A spec that repeats a user (or names
// the creator) rejects the whole creation.
func (r *GroupRepo) CreateGroup(ctx context.Context, creatorID int64, group models.Group, initialMembers []models.MemberSpec) (models.Group, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Group{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var created models.Group
	if err = tx.GetContext(ctx, &created, `
		INSERT INTO groups (name, description, vacation_start_date, vacation_end_date, cover_image_url, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, name, description, vacation_start_date, vacation_end_date, cover_image_url, created_by, created_at, updated_at`,
		group.Name, group.Description, group.VacationStartDate, group.VacationEndDate, group.CoverImageURL, creatorID); err != nil {
		return models.Group{}, err
	}

	creator, err := insertMember(ctx, tx, created.ID, creatorID, models.RoleAdmin, "creator")
	if err != nil {
		return models.Group{}, err
	}
	created.Members = append(created.Members, creator)

	seen := map[int64]struct{}{creatorID: {}}
	for _, spec := range initialMembers {
		if !spec.HasIdentifier() {
			err = apperrors.Validation("each member needs an email or a username")
			return models.Group{}, err
		}
		role := spec.Role
		if role == "" {
			role = models.RoleMember
		}
		if !role.Valid() {
			err = apperrors.Validation("invalid role %q", spec.Role)
			return models.Group{}, err
		}

		var userID int64
		var identifier string
		userID, identifier, err = resolveUserID(ctx, tx, spec)
		if err != nil {
			return models.Group{}, err
		}
		if _, dup := seen[userID]; dup {
			err = apperrors.UserAlreadyMember(identifier)
			return models.Group{}, err
		}
		seen[userID] = struct{}{}

		if int64(len(seen)) > models.MaxMembersPerGroup {
			err = apperrors.MaxMembersReached()
			return models.Group{}, err
		}

		var member models.GroupMember
		member, err = insertMember(ctx, tx, created.ID, userID, role, identifier)
		if err != nil {
			return models.Group{}, err
		}
		created.Members = append(created.Members, member)
	}

	if err = tx.Commit(); err != nil {
		return models.Group{}, err
	}
	created.MemberCount = int64(len(created.Members))
	return created, nil
}

// ListGroupsForUser returns the groups the user belongs to, newest first.
func (r *GroupRepo) ListGroupsForUser(ctx context.Context, userID int64) ([]models.Group, error) {
	groups := []models.Group{}
	err := r.db.SelectContext(ctx, &groups, `
		SELECT g.id, g.name, g.description, g.vacation_start_date, g.vacation_end_date,
		       g.cover_image_url, g.created_by, g.created_at, g.updated_at,
		       (SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id) AS member_count
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id=$1
		ORDER BY g.created_at DESC`, userID)
	return groups, err
}

// GetGroup fetches a single group with its member count.
func (r *GroupRepo) GetGroup(ctx context.Context, groupID int64) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `
		SELECT g.id, g.name, g.description, g.vacation_start_date, g.vacation_end_date,
		       g.cover_image_url, g.created_by, g.created_at, g.updated_at,
		       (SELECT COUNT(*) FROM group_members m WHERE m.group_id = g.id) AS member_count
		FROM groups g WHERE g.id=$1`, groupID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, apperrors.GroupNotFound(groupID)
	}
	return group, err
}

// GetGroupWithMembers fetches a group with its full member roster.
func (r *GroupRepo) GetGroupWithMembers(ctx context.Context, groupID int64) (models.Group, error) {
	group, err := r.GetGroup(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	members, err := r.ListMembers(ctx, groupID)
	if err != nil {
		return models.Group{}, err
	}
	group.Members = members
	return group, nil
}

// UpdateGroup applies a partial update and returns the fresh row.
func (r *GroupRepo) UpdateGroup(ctx context.Context, groupID int64, update GroupUpdate) (models.Group, error) {
	var group models.Group
	err := r.db.GetContext(ctx, &group, `
		UPDATE groups SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			vacation_start_date = COALESCE($4, vacation_start_date),
			vacation_end_date = COALESCE($5, vacation_end_date),
			cover_image_url = COALESCE($6, cover_image_url),
			updated_at = NOW()
		WHERE id=$1
		RETURNING id, name, description, vacation_start_date, vacation_end_date, cover_image_url, created_by, created_at, updated_at`,
		groupID, update.Name, update.Description, update.VacationStartDate, update.VacationEndDate, update.CoverImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Group{}, apperrors.GroupNotFound(groupID)
	}
	return group, err
}

// DeleteGroup removes the group; members, activities, participants and
// expenses cascade.
func (r *GroupRepo) DeleteGroup(ctx context.Context, groupID int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id=$1`, groupID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.GroupNotFound(groupID)
	}
	return nil
}

// ListMembers returns the roster with joined user fields, admins first.
func (r *GroupRepo) ListMembers(ctx context.Context, groupID int64) ([]models.GroupMember, error) {
	members := []models.GroupMember{}
	err := r.db.SelectContext(ctx, &members, `
		SELECT `+memberColumns+`
		FROM group_members gm JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id=$1
		ORDER BY gm.role, gm.joined_at`, groupID)
	return members, err
}

// GetMember fetches one membership row by its id within the group.
func (r *GroupRepo) GetMember(ctx context.Context, groupID, memberID int64) (models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.GetContext(ctx, &member, `
		SELECT `+memberColumns+`
		FROM group_members gm JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id=$1 AND gm.id=$2`, groupID, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupMember{}, apperrors.MemberNotFound()
	}
	return member, err
}

// FindMembership fetches the membership row of a user within the group.
func (r *GroupRepo) FindMembership(ctx context.Context, groupID, userID int64) (models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.GetContext(ctx, &member, `
		SELECT `+memberColumns+`
		FROM group_members gm JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id=$1 AND gm.user_id=$2`, groupID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.GroupMember{}, apperrors.NotAMember()
	}
	return member, err
}

// IsMember checks membership.
func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2)`, groupID, userID)
	return exists, err
}

// IsAdmin checks for the ADMIN role.
func (r *GroupRepo) IsAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id=$1 AND user_id=$2 AND role='ADMIN')`, groupID, userID)
	return exists, err
}

// IsCreator checks whether the user created the group.
func (r *GroupRepo) IsCreator(ctx context.Context, groupID, userID int64) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM groups WHERE id=$1 AND created_by=$2)`, groupID, userID)
	return exists, err
}

// AddMembers resolves and enrolls a batch of member specs atomically,
// enforcing the member cap under the group row lock.
func (r *GroupRepo) AddMembers(ctx context.Context, groupID int64, specs []models.MemberSpec) ([]models.GroupMember, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = lockGroup(ctx, tx, groupID); err != nil {
		return nil, err
	}

	count, err := memberCount(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}

	added := make([]models.GroupMember, 0, len(specs))
	for _, spec := range specs {
		if !spec.HasIdentifier() {
			err = apperrors.Validation("each member needs an email or a username")
			return nil, err
		}
		role := spec.Role
		if role == "" {
			role = models.RoleMember
		}
		if !role.Valid() {
			err = apperrors.Validation("invalid role %q", spec.Role)
			return nil, err
		}

		var userID int64
		var identifier string
		userID, identifier, err = resolveUserID(ctx, tx, spec)
		if err != nil {
			return nil, err
		}

		if count+1 > models.MaxMembersPerGroup {
			err = apperrors.MaxMembersReached()
			return nil, err
		}

		var member models.GroupMember
		member, err = insertMember(ctx, tx, groupID, userID, role, identifier)
		if err != nil {
			return nil, err
		}
		count++
		added = append(added, member)
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}
	return added, nil
}

// RemoveMember removes a membership row. The acting user may not remove
// their own row, and the last admin may not be removed.
func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, memberID, actingUserID int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = lockGroup(ctx, tx, groupID); err != nil {
		return err
	}

	var target models.GroupMember
	err = tx.GetContext(ctx, &target,
		`SELECT id, group_id, user_id, role, joined_at FROM group_members WHERE group_id=$1 AND id=$2`,
		groupID, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperrors.MemberNotFound()
		return err
	}
	if err != nil {
		return err
	}

	if target.UserID == actingUserID {
		err = apperrors.CannotRemoveSelf()
		return err
	}

	if target.Role == models.RoleAdmin {
		var admins int64
		admins, err = adminCount(ctx, tx, groupID)
		if err != nil {
			return err
		}
		if admins <= 1 {
			err = apperrors.LastAdmin()
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM group_members WHERE id=$1`, target.ID); err != nil {
		return err
	}

	return tx.Commit()
}

// LeaveGroup removes the caller's own membership. When the caller is the
// sole member the whole group is deleted; the return value reports that.
// The last admin of a multi-member group cannot leave.
func (r *GroupRepo) LeaveGroup(ctx context.Context, groupID, userID int64) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = lockGroup(ctx, tx, groupID); err != nil {
		return false, err
	}

	var member models.GroupMember
	err = tx.GetContext(ctx, &member,
		`SELECT id, group_id, user_id, role, joined_at FROM group_members WHERE group_id=$1 AND user_id=$2`,
		groupID, userID)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperrors.NotAMember()
		return false, err
	}
	if err != nil {
		return false, err
	}

	members, err := memberCount(ctx, tx, groupID)
	if err != nil {
		return false, err
	}
	admins, err := adminCount(ctx, tx, groupID)
	if err != nil {
		return false, err
	}

	status := models.ComputeLeaveStatus(member.Role, members, admins)
	if !status.CanLeave {
		err = apperrors.LastAdmin()
		return false, err
	}

	if status.WillDeleteGroup {
		if _, err = tx.ExecContext(ctx, `DELETE FROM groups WHERE id=$1`, groupID); err != nil {
			return false, err
		}
		if err = tx.Commit(); err != nil {
			return false, err
		}
		return true, nil
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM group_members WHERE id=$1`, member.ID); err != nil {
		return false, err
	}
	if err = tx.Commit(); err != nil {
		return false, err
	}
	return false, nil
}

// LeaveStatus evaluates the leave branches without mutating anything.
func (r *GroupRepo) LeaveStatus(ctx context.Context, groupID, userID int64) (models.LeaveStatus, error) {
	member, err := r.FindMembership(ctx, groupID, userID)
	if err != nil {
		return models.LeaveStatus{}, err
	}
	members, err := memberCount(ctx, r.db, groupID)
	if err != nil {
		return models.LeaveStatus{}, err
	}
	admins, err := adminCount(ctx, r.db, groupID)
	if err != nil {
		return models.LeaveStatus{}, err
	}
	return models.ComputeLeaveStatus(member.Role, members, admins), nil
}

// UpdateMemberRole changes a member's role. Demoting the last admin is
// rejected.
func (r *GroupRepo) UpdateMemberRole(ctx context.Context, groupID, memberID int64, role models.GroupRole) (models.GroupMember, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.GroupMember{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if err = lockGroup(ctx, tx, groupID); err != nil {
		return models.GroupMember{}, err
	}

	var target models.GroupMember
	err = tx.GetContext(ctx, &target,
		`SELECT id, group_id, user_id, role, joined_at FROM group_members WHERE group_id=$1 AND id=$2`,
		groupID, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		err = apperrors.MemberNotFound()
		return models.GroupMember{}, err
	}
	if err != nil {
		return models.GroupMember{}, err
	}

	if target.Role == models.RoleAdmin && role == models.RoleMember {
		var admins int64
		admins, err = adminCount(ctx, tx, groupID)
		if err != nil {
			return models.GroupMember{}, err
		}
		if admins <= 1 {
			err = apperrors.LastAdmin()
			return models.GroupMember{}, err
		}
	}

	if _, err = tx.ExecContext(ctx, `UPDATE group_members SET role=$2 WHERE id=$1`, target.ID, role); err != nil {
		return models.GroupMember{}, err
	}

	var member models.GroupMember
	if err = tx.GetContext(ctx, &member, `
		SELECT `+memberColumns+`
		FROM group_members gm JOIN users u ON u.id = gm.user_id
		WHERE gm.id=$1`, target.ID); err != nil {
		return models.GroupMember{}, err
	}

	if err = tx.Commit(); err != nil {
		return models.GroupMember{}, err
	}
	return member, nil
}
