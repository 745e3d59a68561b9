package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"trip-service/internal/models"
	"trip-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, email, name, passwordHash string) (models.User, error) {
	args := m.Called(ctx, email, name, passwordHash)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByName(ctx context.Context, name string) (models.User, error) {
	args := m.Called(ctx, name)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	args := m.Called(ctx, id)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListUsersNotInGroup(ctx context.Context, groupID int64) ([]models.User, error) {
	args := m.Called(ctx, groupID)
	var users []models.User
	if val := args.Get(0); val != nil {
		users = val.([]models.User)
	}
	return users, args.Error(1)
}

type GroupRepositoryMock struct {
	mock.Mock
}

func (m *GroupRepositoryMock) CreateGroup(ctx context.Context, creatorID int64, group models.Group, initialMembers []models.MemberSpec) (models.Group, error) {
	args := m.Called(ctx, creatorID, group, initialMembers)
	var created models.Group
	if val := args.Get(0); val != nil {
		created = val.(models.Group)
	}
	return created, args.Error(1)
}

func (m *GroupRepositoryMock) ListGroupsForUser(ctx context.Context, userID int64) ([]models.Group, error) {
	args := m.Called(ctx, userID)
	var groups []models.Group
	if val := args.Get(0); val != nil {
		groups = val.([]models.Group)
	}
	return groups, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroup(ctx context.Context, groupID int64) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) GetGroupWithMembers(ctx context.Context, groupID int64) (models.Group, error) {
	args := m.Called(ctx, groupID)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) UpdateGroup(ctx context.Context, groupID int64, update repositories.GroupUpdate) (models.Group, error) {
	args := m.Called(ctx, groupID, update)
	var group models.Group
	if val := args.Get(0); val != nil {
		group = val.(models.Group)
	}
	return group, args.Error(1)
}

func (m *GroupRepositoryMock) DeleteGroup(ctx context.Context, groupID int64) error {
	args := m.Called(ctx, groupID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) ListMembers(ctx context.Context, groupID int64) ([]models.GroupMember, error) {
	args := m.Called(ctx, groupID)
	var members []models.GroupMember
	if val := args.Get(0); val != nil {
		members = val.([]models.GroupMember)
	}
	return members, args.Error(1)
}

func (m *GroupRepositoryMock) GetMember(ctx context.Context, groupID, memberID int64) (models.GroupMember, error) {
	args := m.Called(ctx, groupID, memberID)
	var member models.GroupMember
	if val := args.Get(0); val != nil {
		member = val.(models.GroupMember)
	}
	return member, args.Error(1)
}

func (m *GroupRepositoryMock) FindMembership(ctx context.Context, groupID, userID int64) (models.GroupMember, error) {
	args := m.Called(ctx, groupID, userID)
	var member models.GroupMember
	if val := args.Get(0); val != nil {
		member = val.(models.GroupMember)
	}
	return member, args.Error(1)
}

func (m *GroupRepositoryMock) IsMember(ctx context.Context, groupID, userID int64) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) IsAdmin(ctx context.Context, groupID, userID int64) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) IsCreator(ctx context.Context, groupID, userID int64) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) AddMembers(ctx context.Context, groupID int64, specs []models.MemberSpec) ([]models.GroupMember, error) {
	args := m.Called(ctx, groupID, specs)
	var members []models.GroupMember
	if val := args.Get(0); val != nil {
		members = val.([]models.GroupMember)
	}
	return members, args.Error(1)
}

func (m *GroupRepositoryMock) RemoveMember(ctx context.Context, groupID, memberID, actingUserID int64) error {
	args := m.Called(ctx, groupID, memberID, actingUserID)
	return args.Error(0)
}

func (m *GroupRepositoryMock) LeaveGroup(ctx context.Context, groupID, userID int64) (bool, error) {
	args := m.Called(ctx, groupID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupRepositoryMock) LeaveStatus(ctx context.Context, groupID, userID int64) (models.LeaveStatus, error) {
	args := m.Called(ctx, groupID, userID)
	var status models.LeaveStatus
	if val := args.Get(0); val != nil {
		status = val.(models.LeaveStatus)
	}
	return status, args.Error(1)
}

func (m *GroupRepositoryMock) UpdateMemberRole(ctx context.Context, groupID, memberID int64, role models.GroupRole) (models.GroupMember, error) {
	args := m.Called(ctx, groupID, memberID, role)
	var member models.GroupMember
	if val := args.Get(0); val != nil {
		member = val.(models.GroupMember)
	}
	return member, args.Error(1)
}

type ActivityRepositoryMock struct {
	mock.Mock
}

func (m *ActivityRepositoryMock) CreateActivity(ctx context.Context, activity models.Activity, participantMemberIDs []int64) (models.Activity, error) {
	args := m.Called(ctx, activity, participantMemberIDs)
	var created models.Activity
	if val := args.Get(0); val != nil {
		created = val.(models.Activity)
	}
	return created, args.Error(1)
}

func (m *ActivityRepositoryMock) GetActivity(ctx context.Context, activityID int64) (models.Activity, error) {
	args := m.Called(ctx, activityID)
	var activity models.Activity
	if val := args.Get(0); val != nil {
		activity = val.(models.Activity)
	}
	return activity, args.Error(1)
}

func (m *ActivityRepositoryMock) ListActivities(ctx context.Context, groupID int64) ([]models.Activity, error) {
	args := m.Called(ctx, groupID)
	var activities []models.Activity
	if val := args.Get(0); val != nil {
		activities = val.([]models.Activity)
	}
	return activities, args.Error(1)
}

func (m *ActivityRepositoryMock) UpdateActivity(ctx context.Context, activity models.Activity) (models.Activity, error) {
	args := m.Called(ctx, activity)
	var updated models.Activity
	if val := args.Get(0); val != nil {
		updated = val.(models.Activity)
	}
	return updated, args.Error(1)
}

func (m *ActivityRepositoryMock) DeleteActivity(ctx context.Context, activityID int64) error {
	args := m.Called(ctx, activityID)
	return args.Error(0)
}

func (m *ActivityRepositoryMock) ToggleCompletion(ctx context.Context, activityID int64) (models.Activity, error) {
	args := m.Called(ctx, activityID)
	var activity models.Activity
	if val := args.Get(0); val != nil {
		activity = val.(models.Activity)
	}
	return activity, args.Error(1)
}

func (m *ActivityRepositoryMock) ReorderActivities(ctx context.Context, groupID int64, activityIDs []int64) error {
	args := m.Called(ctx, groupID, activityIDs)
	return args.Error(0)
}

func (m *ActivityRepositoryMock) AddParticipant(ctx context.Context, activityID, memberID int64, status models.ParticipantStatus, notes *string) (models.ActivityParticipant, error) {
	args := m.Called(ctx, activityID, memberID, status, notes)
	var participant models.ActivityParticipant
	if val := args.Get(0); val != nil {
		participant = val.(models.ActivityParticipant)
	}
	return participant, args.Error(1)
}

func (m *ActivityRepositoryMock) UpdateParticipant(ctx context.Context, activityID, participantID int64, status models.ParticipantStatus, notes *string) (models.ActivityParticipant, error) {
	args := m.Called(ctx, activityID, participantID, status, notes)
	var participant models.ActivityParticipant
	if val := args.Get(0); val != nil {
		participant = val.(models.ActivityParticipant)
	}
	return participant, args.Error(1)
}

func (m *ActivityRepositoryMock) RemoveParticipant(ctx context.Context, activityID, participantID int64) error {
	args := m.Called(ctx, activityID, participantID)
	return args.Error(0)
}

func (m *ActivityRepositoryMock) ListParticipants(ctx context.Context, activityID int64) ([]models.ActivityParticipant, error) {
	args := m.Called(ctx, activityID)
	var participants []models.ActivityParticipant
	if val := args.Get(0); val != nil {
		participants = val.([]models.ActivityParticipant)
	}
	return participants, args.Error(1)
}

type ExpenseRepositoryMock struct {
	mock.Mock
}

func (m *ExpenseRepositoryMock) CreateExpense(ctx context.Context, expense models.Expense) (models.Expense, error) {
	args := m.Called(ctx, expense)
	var created models.Expense
	if val := args.Get(0); val != nil {
		created = val.(models.Expense)
	}
	return created, args.Error(1)
}

func (m *ExpenseRepositoryMock) GetExpense(ctx context.Context, expenseID int64) (models.Expense, error) {
	args := m.Called(ctx, expenseID)
	var expense models.Expense
	if val := args.Get(0); val != nil {
		expense = val.(models.Expense)
	}
	return expense, args.Error(1)
}

func (m *ExpenseRepositoryMock) ListExpensesByActivity(ctx context.Context, activityID int64) ([]models.Expense, error) {
	args := m.Called(ctx, activityID)
	var expenses []models.Expense
	if val := args.Get(0); val != nil {
		expenses = val.([]models.Expense)
	}
	return expenses, args.Error(1)
}

func (m *ExpenseRepositoryMock) DeleteExpense(ctx context.Context, expenseID int64) error {
	args := m.Called(ctx, expenseID)
	return args.Error(0)
}

func (m *ExpenseRepositoryMock) MarkSplitPaid(ctx context.Context, expenseID, splitID int64, isPaid bool) (models.ExpenseSplit, error) {
	args := m.Called(ctx, expenseID, splitID, isPaid)
	var split models.ExpenseSplit
	if val := args.Get(0); val != nil {
		split = val.(models.ExpenseSplit)
	}
	return split, args.Error(1)
}

type CalendarRepositoryMock struct {
	mock.Mock
}

func (m *CalendarRepositoryMock) ListByGroupAndRange(ctx context.Context, groupID, userID int64, start, end *models.Date) ([]models.CalendarEntry, error) {
	args := m.Called(ctx, groupID, userID, start, end)
	var entries []models.CalendarEntry
	if val := args.Get(0); val != nil {
		entries = val.([]models.CalendarEntry)
	}
	return entries, args.Error(1)
}

// PublisherMock mocks the telemetry.Publisher used by the audit emitter.
type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, event any) error {
	return m.Called(ctx, routingKey, event).Error(0)
}

func (m *PublisherMock) Close() error {
	return m.Called().Error(0)
}
