package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"trip-service/internal/apperrors"
	"trip-service/internal/middleware"
	"trip-service/internal/models"
	"trip-service/internal/repositories"
	"trip-service/internal/telemetry"
	"trip-service/internal/ws"
)

// ActivityHandler manages the event/trip catalog and participant rosters.
type ActivityHandler struct {
	activityRepo repositories.ActivityRepository
	groupRepo    repositories.GroupRepository
	expenseRepo  repositories.ExpenseRepository
	hub          *ws.Hub
	audit        *telemetry.AuditEmitter
}

// NewActivityHandler constructs an ActivityHandler.
func NewActivityHandler(activityRepo repositories.ActivityRepository, groupRepo repositories.GroupRepository, expenseRepo repositories.ExpenseRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *ActivityHandler {
	return &ActivityHandler{activityRepo: activityRepo, groupRepo: groupRepo, expenseRepo: expenseRepo, hub: hub, audit: audit}
}

// activityBase is the shared portion of create and update payloads.
type activityBase struct {
	Name        string           `json:"name" binding:"required"`
	Description *string          `json:"description"`
	StartDate   models.Date      `json:"start_date" binding:"required"`
	EndDate     models.Date      `json:"end_date" binding:"required"`
	StartTime   models.TimeOfDay `json:"start_time" binding:"required"`
	EndTime     models.TimeOfDay `json:"end_time" binding:"required"`
	TotalCost   decimal.Decimal  `json:"total_cost"`
}

type eventPayload struct {
	activityBase
	Location         models.Location      `json:"location"`
	Category         models.EventCategory `json:"category" binding:"required"`
	BookingURL       *string              `json:"booking_url"`
	BookingReference *string              `json:"booking_reference"`
	ReservationTime  *models.TimeOfDay    `json:"reservation_time"`
}

type tripPayload struct {
	activityBase
	Origin           models.Location      `json:"origin"`
	Destination      models.Location      `json:"destination"`
	TransportMode    models.TransportMode `json:"transport_mode" binding:"required"`
	DepartureTime    *models.TimeOfDay    `json:"departure_time"`
	ArrivalTime      *models.TimeOfDay    `json:"arrival_time"`
	BookingReference *string              `json:"booking_reference"`
}

func (p activityBase) validate() error {
	if !models.EndAfterStart(p.StartDate, p.EndDate, p.StartTime, p.EndTime) {
		return apperrors.Validation("activity end must be after its start")
	}
	if p.TotalCost.IsNegative() {
		return apperrors.Validation("total_cost must not be negative")
	}
	return nil
}

func (p eventPayload) details() (*models.EventDetails, error) {
	if err := p.Location.Validate(); err != nil {
		return nil, apperrors.Validation("%s", err.Error())
	}
	return &models.EventDetails{
		Location:         p.Location,
		Category:         p.Category,
		BookingURL:       p.BookingURL,
		BookingReference: p.BookingReference,
		ReservationTime:  p.ReservationTime,
	}, nil
}

func (p tripPayload) details() (*models.TripDetails, error) {
	if err := p.Origin.Validate(); err != nil {
		return nil, apperrors.Validation("origin: %s", err.Error())
	}
	if err := p.Destination.Validate(); err != nil {
		return nil, apperrors.Validation("destination: %s", err.Error())
	}
	return &models.TripDetails{
		Origin:           p.Origin,
		Destination:      p.Destination,
		TransportMode:    p.TransportMode,
		DepartureTime:    p.DepartureTime,
		ArrivalTime:      p.ArrivalTime,
		BookingReference: p.BookingReference,
	}, nil
}

// CreateEvent handles POST /api/groups/:group_id/activities/events.
func (h *ActivityHandler) CreateEvent(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	var req struct {
		eventPayload
		ParticipantMemberIDs []int64 `json:"participant_member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}
	event, err := req.details()
	if err != nil {
		respondError(c, err)
		return
	}

	userID := middleware.UserID(c)
	activity, err := h.activityRepo.CreateActivity(c.Request.Context(), models.Activity{
		GroupID:     groupID,
		Type:        models.ActivityEvent,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		TotalCost:   req.TotalCost,
		CreatedBy:   &userID,
		Event:       event,
	}, req.ParticipantMemberIDs)
	if err != nil {
		h.emitAudit(c, "ERROR", "event creation failed")
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "activity_created", activity)
	h.emitAudit(c, "INFO", "Event created")
	c.JSON(http.StatusCreated, activity)
}

// CreateTrip handles POST /api/groups/:group_id/activities/trips.
func (h *ActivityHandler) CreateTrip(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	var req struct {
		tripPayload
		ParticipantMemberIDs []int64 `json:"participant_member_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}
	trip, err := req.details()
	if err != nil {
		respondError(c, err)
		return
	}

	userID := middleware.UserID(c)
	activity, err := h.activityRepo.CreateActivity(c.Request.Context(), models.Activity{
		GroupID:     groupID,
		Type:        models.ActivityTrip,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		TotalCost:   req.TotalCost,
		CreatedBy:   &userID,
		Trip:        trip,
	}, req.ParticipantMemberIDs)
	if err != nil {
		h.emitAudit(c, "ERROR", "trip creation failed")
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "activity_created", activity)
	h.emitAudit(c, "INFO", "Trip created")
	c.JSON(http.StatusCreated, activity)
}

// ListActivities handles GET /api/groups/:group_id/activities.
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	activities, err := h.activityRepo.ListActivities(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

// GetActivity handles GET /api/groups/:group_id/activities/:activity_id.
// Returns the activity with its roster and status counts.
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	groupID, activity, ok := h.loadActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	participants, err := h.activityRepo.ListParticipants(c.Request.Context(), activity.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	counts := models.CountParticipants(participants)
	c.JSON(http.StatusOK, gin.H{
		"activity":     activity,
		"participants": participants,
		"counts":       counts,
	})
}

// GetActivityDetails handles GET /api/groups/:group_id/activities/:activity_id/details.
// Returns the activity with its roster, status counts, and expense list.
func (h *ActivityHandler) GetActivityDetails(c *gin.Context) {
	groupID, activity, ok := h.loadActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	participants, err := h.activityRepo.ListParticipants(c.Request.Context(), activity.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	expenses, err := h.expenseRepo.ListExpensesByActivity(c.Request.Context(), activity.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"activity":     activity,
		"participants": participants,
		"counts":       models.CountParticipants(participants),
		"expenses":     expenses,
	})
}

// UpdateEvent handles PUT /api/groups/:group_id/activities/:activity_id/event.
// Updating a trip through this endpoint is rejected.
func (h *ActivityHandler) UpdateEvent(c *gin.Context) {
	groupID, existing, ok := h.loadActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}
	if existing.Type != models.ActivityEvent {
		respondError(c, apperrors.Validation("activity %d is not an event", existing.ID))
		return
	}

	var req eventPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}
	event, err := req.details()
	if err != nil {
		respondError(c, err)
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.StartDate = req.StartDate
	existing.EndDate = req.EndDate
	existing.StartTime = req.StartTime
	existing.EndTime = req.EndTime
	existing.TotalCost = req.TotalCost
	existing.Event = event

	updated, err := h.activityRepo.UpdateActivity(c.Request.Context(), existing)
	if err != nil {
		h.emitAudit(c, "ERROR", "event update failed")
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "activity_updated", updated)
	h.emitAudit(c, "INFO", "Event updated")
	c.JSON(http.StatusOK, updated)
}

// UpdateTrip handles PUT /api/groups/:group_id/activities/:activity_id/trip.
// Updating an event through this endpoint is rejected.
func (h *ActivityHandler) UpdateTrip(c *gin.Context) {
	groupID, existing, ok := h.loadActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}
	if existing.Type != models.ActivityTrip {
		respondError(c, apperrors.Validation("activity %d is not a trip", existing.ID))
		return
	}

	var req tripPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, err)
		return
	}
	trip, err := req.details()
	if err != nil {
		respondError(c, err)
		return
	}

	existing.Name = req.Name
	existing.Description = req.Description
	existing.StartDate = req.StartDate
	existing.EndDate = req.EndDate
	existing.StartTime = req.StartTime
	existing.EndTime = req.EndTime
	existing.TotalCost = req.TotalCost
	existing.Trip = trip

	updated, err := h.activityRepo.UpdateActivity(c.Request.Context(), existing)
	if err != nil {
		h.emitAudit(c, "ERROR", "trip update failed")
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "activity_updated", updated)
	h.emitAudit(c, "INFO", "Trip updated")
	c.JSON(http.StatusOK, updated)
}

// DeleteActivity handles DELETE /api/groups/:group_id/activities/:activity_id.
// Admin only.
func (h *ActivityHandler) DeleteActivity(c *gin.Context) {
	groupID, activity, ok := h.loadActivity(c)
	if !ok {
		return
	}
	if !h.requireAdmin(c, groupID) {
		return
	}

	if err := h.activityRepo.DeleteActivity(c.Request.Context(), activity.ID); err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "activity_deleted", gin.H{"activity_id": activity.ID})
	h.emitAudit(c, "INFO", "Activity deleted")
	c.Status(http.StatusNoContent)
}

// ToggleCompletion handles POST /api/groups/:group_id/activities/:activity_id/toggle-completion.
func (h *ActivityHandler) ToggleCompletion(c *gin.Context) {
	groupID, activity, ok := h.loadActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	updated, err := h.activityRepo.ToggleCompletion(c.Request.Context(), activity.ID)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "activity_updated", updated)
	h.emitAudit(c, "INFO", "Activity completion toggled")
	c.JSON(http.StatusOK, updated)
}

// ReorderActivities handles PUT /api/groups/:group_id/activities/reorder.
// Display order is assigned by position in the submitted id list.
func (h *ActivityHandler) ReorderActivities(c *gin.Context) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	var req struct {
		ActivityIDs []int64 `json:"activity_ids" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}

	if err := h.activityRepo.ReorderActivities(c.Request.Context(), groupID, req.ActivityIDs); err != nil {
		h.emitAudit(c, "ERROR", "reorder failed")
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "activities_reordered", gin.H{"activity_ids": req.ActivityIDs})
	h.emitAudit(c, "INFO", "Activities reordered")
	c.Status(http.StatusNoContent)
}

// ListParticipants handles GET /api/groups/:group_id/activities/:activity_id/participants.
func (h *ActivityHandler) ListParticipants(c *gin.Context) {
	groupID, activity, ok := h.loadActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	participants, err := h.activityRepo.ListParticipants(c.Request.Context(), activity.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"participants": participants,
		"counts":       models.CountParticipants(participants),
	})
}

// AddParticipant handles POST /api/groups/:group_id/activities/:activity_id/participants.
func (h *ActivityHandler) AddParticipant(c *gin.Context) {
	groupID, activity, ok := h.loadActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}

	var req struct {
		GroupMemberID int64                     `json:"group_member_id" binding:"required"`
		Status        models.ParticipantStatus `json:"status"`
		Notes         *string                   `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}
	status := req.Status
	if status == "" {
		status = models.StatusConfirmed
	}
	if !status.Valid() {
		respondError(c, apperrors.Validation("invalid participant status %q", req.Status))
		return
	}

	participant, err := h.activityRepo.AddParticipant(c.Request.Context(), activity.ID, req.GroupMemberID, status, req.Notes)
	if err != nil {
		h.emitAudit(c, "ERROR", "participant add failed")
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "participant_added", participant)
	h.emitAudit(c, "INFO", "Participant added")
	c.JSON(http.StatusCreated, participant)
}

// UpdateParticipant handles PUT /api/groups/:group_id/activities/:activity_id/participants/:participant_id.
func (h *ActivityHandler) UpdateParticipant(c *gin.Context) {
	groupID, activity, ok := h.loadActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}
	participantID, err := strconv.ParseInt(c.Param("participant_id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.Validation("invalid participant id"))
		return
	}

	var req struct {
		Status models.ParticipantStatus `json:"status" binding:"required"`
		Notes  *string                   `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, "invalid request payload", nil)
		return
	}
	if !req.Status.Valid() {
		respondError(c, apperrors.Validation("invalid participant status %q", req.Status))
		return
	}

	participant, err := h.activityRepo.UpdateParticipant(c.Request.Context(), activity.ID, participantID, req.Status, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "participant_updated", participant)
	h.emitAudit(c, "INFO", "Participant updated")
	c.JSON(http.StatusOK, participant)
}

// RemoveParticipant handles DELETE /api/groups/:group_id/activities/:activity_id/participants/:participant_id.
func (h *ActivityHandler) RemoveParticipant(c *gin.Context) {
	groupID, activity, ok := h.loadActivity(c)
	if !ok {
		return
	}
	if !h.requireMember(c, groupID) {
		return
	}
	participantID, err := strconv.ParseInt(c.Param("participant_id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.Validation("invalid participant id"))
		return
	}

	if err := h.activityRepo.RemoveParticipant(c.Request.Context(), activity.ID, participantID); err != nil {
		respondError(c, err)
		return
	}

	h.hub.BroadcastGroupEvent(groupID, "participant_removed", gin.H{"participant_id": participantID})
	h.emitAudit(c, "INFO", "Participant removed")
	c.Status(http.StatusNoContent)
}

// loadActivity parses the path ids and fetches the activity, verifying it
// belongs to the group in the path.
func (h *ActivityHandler) loadActivity(c *gin.Context) (int64, models.Activity, bool) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return 0, models.Activity{}, false
	}
	activityID, err := strconv.ParseInt(c.Param("activity_id"), 10, 64)
	if err != nil {
		respondError(c, apperrors.Validation("invalid activity id"))
		return 0, models.Activity{}, false
	}

	activity, err := h.activityRepo.GetActivity(c.Request.Context(), activityID)
	if err != nil {
		respondError(c, err)
		return 0, models.Activity{}, false
	}
	if activity.GroupID != groupID {
		respondError(c, apperrors.ActivityNotFound(activityID))
		return 0, models.Activity{}, false
	}
	return groupID, activity, true
}

func (h *ActivityHandler) requireMember(c *gin.Context, groupID int64) bool {
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

func (h *ActivityHandler) requireAdmin(c *gin.Context, groupID int64) bool {
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

func (h *ActivityHandler) emitAudit(c *gin.Context, level, text string) {
	if h.audit == nil {
		return
	}
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), userIDFromContext(c))
}
