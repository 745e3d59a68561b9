package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"trip-service/internal/apperrors"
	"trip-service/internal/middleware"
	"trip-service/internal/models"
	"trip-service/internal/repositories"
	"trip-service/internal/telemetry"
	"trip-service/internal/ws"
)

// GroupHandler manages group and membership endpoints.
type GroupHandler struct {
	groupRepo repositories.GroupRepository
	userRepo  repositories.UserRepository
	hub       *ws.Hub
	audit     *telemetry.AuditEmitter
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groupRepo repositories.GroupRepository, userRepo repositories.UserRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *GroupHandler {
	return &GroupHandler{groupRepo: groupRepo, userRepo: userRepo, hub: hub, audit: audit}
}

// CreateGroup handles POST /api/groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID := middleware.UserID(c)

	var req struct {
		Name              string              `json:"name" binding:"required"`
		Description       *string             `json:"description"`
		VacationStartDate models.Date         `json:"vacation_start_date" binding:"required"`
		VacationEndDate   models.Date         `json:"vacation_end_date" binding:"required"`
		CoverImageURL     *string             `json:"cover_image_url"`
		Members           []models.MemberSpec `json:"members"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.emitAudit(c, "ERROR", "invalid request payload")
		respondValidation(c, "invalid request payload", nil)
		return
	}

	if req.VacationStartDate.After(req.VacationEndDate) {
		respondError(c, apperrors.Validation("vacation_end_date must not be before vacation_start_date"))
		return
	}

	group, err := h.groupRepo.CreateGroup(c.Request.Context(), userID, models.Group{
		Name:              req.Name,
		Description:       req.Description,
		VacationStartDate: req.VacationStartDate,
		VacationEndDate:   req.VacationEndDate,
		CoverImageURL:     req.CoverImageURL,
	}, req.Members)
	if err != nil {
		h.emitAudit(c, "ERROR", "group creation failed")
		respondError(c, err)
		return
	}

	h.emitAudit(c, "INFO", "Group created")
	c.JSON(http.StatusCreated, group)
}

// ListGroups handles GET /api/groups.
func (h *GroupHandler) ListGroups(c *gin.Context) {
	userID := middleware.UserID(c)
	groups, err := h.groupRepo.ListGroupsForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// GetGroup handles GET /api/groups/:group_id.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	group, err := h.groupRepo.GetGroupWithMembers(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, group)
}

// UpdateGroup handles PUT /api/groups/:group_id.
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	if !h.requireAdmin(c, groupID) {
		return
	}

	var req repositories.GroupUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}
	if req.VacationStartDate != nil && req.VacationEndDate != nil &&
		req.VacationStartDate.After(*req.VacationEndDate) {
		respondError(c, apperrors.Validation("vacation_end_date must not be before vacation_start_date"))
		return
	}

	group, err := h.groupRepo.UpdateGroup(c.Request.Context(), groupID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "group_updated", group)
	h.emitAudit(c, "INFO", "Group updated")
	c.JSON(http.StatusOK, group)
}

// DeleteGroup handles DELETE /api/groups/:group_id.
func (h *GroupHandler) DeleteGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	if !h.requireCreator(c, groupID) {
		return
	}

	if err := h.groupRepo.DeleteGroup(c.Request.Context(), groupID); err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "group_deleted", gin.H{"group_id": groupID})
	h.emitAudit(c, "INFO", "Group deleted")
	c.Status(http.StatusNoContent)
}

// ListMembers handles GET /api/groups/:group_id/members.
func (h *GroupHandler) ListMembers(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	members, err := h.groupRepo.ListMembers(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"members": members})
}

// AddMember handles POST /api/groups/:group_id/members. Enrolls a single
// user identified by email or username.
func (h *GroupHandler) AddMember(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	if !h.requireAdmin(c, groupID) {
		return
	}

	var req models.MemberSpec
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}
	if !req.HasIdentifier() {
		respondError(c, apperrors.Validation("email or username is required"))
		return
	}

	added, err := h.groupRepo.AddMembers(c.Request.Context(), groupID, []models.MemberSpec{req})
	if err != nil {
		h.emitAudit(c, "ERROR", "member add failed")
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "members_added", added)
	h.emitAudit(c, "INFO", "Member added")
	c.JSON(http.StatusCreated, added[0])
}

// AddMembers handles POST /api/groups/:group_id/members/batch. Accepts a
// batch of member specs and enrolls them atomically.
func (h *GroupHandler) AddMembers(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	if !h.requireAdmin(c, groupID) {
		return
	}

	var req struct {
		Members []models.MemberSpec `json:"members" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}

	added, err := h.groupRepo.AddMembers(c.Request.Context(), groupID, req.Members)
	if err != nil {
		h.emitAudit(c, "ERROR", "member add failed")
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "members_added", added)
	h.emitAudit(c, "INFO", "Members added")
	c.JSON(http.StatusCreated, gin.H{"members": added})
}

// RemoveMember handles DELETE /api/groups/:group_id/members/:member_id.
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	groupID, memberID, ok := parseGroupMemberIDs(c)
	if !ok {
		return
	}
	if !h.requireAdmin(c, groupID) {
		return
	}

	userID := middleware.UserID(c)
	if err := h.groupRepo.RemoveMember(c.Request.Context(), groupID, memberID, userID); err != nil {
		h.emitAudit(c, "ERROR", "member removal failed")
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "member_removed", gin.H{"member_id": memberID})
	h.emitAudit(c, "INFO", "Member removed")
	c.Status(http.StatusNoContent)
}

// UpdateMemberRole handles PUT /api/groups/:group_id/members/:member_id/role.
func (h *GroupHandler) UpdateMemberRole(c *gin.Context) {
	groupID, memberID, ok := parseGroupMemberIDs(c)
	if !ok {
		return
	}
	if !h.requireAdmin(c, groupID) {
		return
	}

	var req struct {
		Role models.GroupRole `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}
	if !req.Role.Valid() {
		respondError(c, apperrors.Validation("invalid role %q", req.Role))
		return
	}

	member, err := h.groupRepo.UpdateMemberRole(c.Request.Context(), groupID, memberID, req.Role)
	if err != nil {
		h.emitAudit(c, "ERROR", "role update failed")
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "member_role_updated", member)
	h.emitAudit(c, "INFO", "Member role updated")
	c.JSON(http.StatusOK, member)
}

// LeaveGroup handles POST /api/groups/:group_id/leave.
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	deleted, err := h.groupRepo.LeaveGroup(c.Request.Context(), groupID, userID)
	if err != nil {
		h.emitAudit(c, "ERROR", "leave failed")
		respondError(c, err)
		return
	}

	if deleted {
		h.emitAudit(c, "INFO", "Group deleted on leave")
		c.JSON(http.StatusOK, gin.H{"left": true, "group_deleted": true})
		return
	}
	h.hub.BroadcastGroupEvent(groupID, "member_left", gin.H{"user_id": userID})
	h.emitAudit(c, "INFO", "Member left group")
	c.JSON(http.StatusOK, gin.H{"left": true, "group_deleted": false})
}

// LeaveStatus handles GET /api/groups/:group_id/leave/status.
func (h *GroupHandler) LeaveStatus(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	status, err := h.groupRepo.LeaveStatus(c.Request.Context(), groupID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ListAvailableUsers handles GET /api/groups/:group_id/available-users.
func (h *GroupHandler) ListAvailableUsers(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	users, err := h.userRepo.ListUsersNotInGroup(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *GroupHandler) requireMember(c *gin.Context, groupID int64) bool {
	userID := middleware.UserID(c)
	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !member {
		h.emitAudit(c, "ERROR", "not allowed")
		respondError(c, apperrors.MemberRequired())
		return false
	}
	return true
}

func (h *GroupHandler) requireAdmin(c *gin.Context, groupID int64) bool {
	userID := middleware.UserID(c)
	admin, err := h.groupRepo.IsAdmin(c.Request.Context(), groupID, userID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !admin {
		h.emitAudit(c, "ERROR", "not allowed")
		respondError(c, apperrors.AdminRequired())
		return false
	}
	return true
}

func (h *GroupHandler) requireCreator(c *gin.Context, groupID int64) bool {
	userID := middleware.UserID(c)
	creator, err := h.groupRepo.IsCreator(c.Request.Context(), groupID, userID)
	if err != nil {
		respondError(c, err)
		return false
	}
	if !creator {
		h.emitAudit(c, "ERROR", "not allowed")
		respondError(c, apperrors.CreatorRequired())
		return false
	}
	return true
}

func (h *GroupHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}

func parseGroupID(c *gin.Context) (int64, bool) {
	groupID, err := strconv.ParseInt(c.Param("group_id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.Validation("invalid group id"))
		return 0, false
	}
	return groupID, true
}

func parseGroupMemberIDs(c *gin.Context) (int64, int64, bool) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return 0, 0, false
	}
	memberID, err := strconv.ParseInt(c.Param("member_id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.Validation("invalid member id"))
		return 0, 0, false
	}
	return groupID, memberID, true
}
