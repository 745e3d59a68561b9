package models

import "time"

// GroupRole is the role of a member within a group.
type GroupRole string

const (
	RoleAdmin  GroupRole = "ADMIN"
	RoleMember GroupRole = "MEMBER"
)

// Valid reports whether the role is one of the known roles.
func (r GroupRole) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

// MaxMembersPerGroup caps the total membership of a group, creator included.
const MaxMembersPerGroup = 50

// Group is a vacation planning unit owning members and activities.
type Group struct {
	ID                int64     `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Description       *string   `db:"description" json:"description,omitempty"`
	VacationStartDate Date      `db:"vacation_start_date" json:"vacation_start_date"`
	VacationEndDate   Date      `db:"vacation_end_date" json:"vacation_end_date"`
	CoverImageURL     *string   `db:"cover_image_url" json:"cover_image_url,omitempty"`
	CreatedBy         int64     `db:"created_by" json:"created_by"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`

	MemberCount int64         `db:"member_count" json:"member_count"`
	Members     []GroupMember `json:"members,omitempty"`
}

// GroupMember is a (group, user) pairing with a role. The User* fields are
// populated from the joined users row on reads.
type GroupMember struct {
	ID       int64     `db:"id" json:"id"`
	GroupID  int64     `db:"group_id" json:"group_id"`
	UserID   int64     `db:"user_id" json:"user_id"`
	Role     GroupRole `db:"role" json:"role"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`

	UserName   string  `db:"user_name" json:"user_name,omitempty"`
	UserEmail  string  `db:"user_email" json:"user_email,omitempty"`
	UserAvatar *string `db:"user_avatar" json:"user_avatar,omitempty"`
}

// MemberSpec identifies a user to add to a group, by email or by username,
// with the role to assign.
type MemberSpec struct {
	Email    string    `json:"email"`
	Username string    `json:"username"`
	Role     GroupRole `json:"role"`
}

// HasIdentifier reports whether either identifier is set.
func (s MemberSpec) HasIdentifier() bool {
	return s.Email != "" || s.Username != ""
}

// LeaveStatus mirrors the decision branches of the leave operation without
// mutating anything, so callers can warn the user before committing.
type LeaveStatus struct {
	CanLeave        bool   `json:"can_leave"`
	Reason          string `json:"reason,omitempty"`
	WillDeleteGroup bool   `json:"will_delete_group"`
	IsOnlyMember    bool   `json:"is_only_member"`
	IsLastAdmin     bool   `json:"is_last_admin"`
	MemberCount     int64  `json:"member_count"`
	AdminCount      int64  `json:"admin_count"`
}

// ComputeLeaveStatus evaluates the leave branches for a member with the
// given role against the group's current member and admin counts.
func ComputeLeaveStatus(role GroupRole, memberCount, adminCount int64) LeaveStatus {
	if memberCount == 1 {
		return LeaveStatus{
			CanLeave:        true,
			Reason:          "you are the only member; the group will be deleted",
			WillDeleteGroup: true,
			IsOnlyMember:    true,
			MemberCount:     memberCount,
			AdminCount:      adminCount,
		}
	}
	if role == RoleAdmin && adminCount <= 1 {
		return LeaveStatus{
			CanLeave:    false,
			Reason:      "you are the last admin; promote another member to admin first",
			IsLastAdmin: true,
			MemberCount: memberCount,
			AdminCount:  adminCount,
		}
	}
	return LeaveStatus{
		CanLeave:    true,
		MemberCount: memberCount,
		AdminCount:  adminCount,
	}
}
