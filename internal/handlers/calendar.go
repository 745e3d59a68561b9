package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"trip-service/internal/apperrors"
	"trip-service/internal/middleware"
	"trip-service/internal/models"
	"trip-service/internal/repositories"
)

// CalendarHandler serves the date-bucketed calendar projection.
type CalendarHandler struct {
	calendarRepo repositories.CalendarRepository
	groupRepo    repositories.GroupRepository
}

// NewCalendarHandler constructs a CalendarHandler.
func NewCalendarHandler(calendarRepo repositories.CalendarRepository, groupRepo repositories.GroupRepository) *CalendarHandler {
	return &CalendarHandler{calendarRepo: calendarRepo, groupRepo: groupRepo}
}

// GetCalendar handles GET /api/groups/:group_id/calendar.
func (h *CalendarHandler) GetCalendar(c *gin.Context) {
	h.respondRange(c, nil, nil)
}

// GetCalendarRange handles GET /api/groups/:group_id/calendar/range.
// Both start and end query params are required.
func (h *CalendarHandler) GetCalendarRange(c *gin.Context) {
	start, err := models.ParseDate(c.Query("start"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid start date"))
		return
	}
	end, err := models.ParseDate(c.Query("end"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid end date"))
		return
	}
	if start.After(end) {
		respondError(c, apperrors.Validation("end must not be before start"))
		return
	}
	h.respondRange(c, &start, &end)
}

// GetCalendarMonth handles GET /api/groups/:group_id/calendar/month.
func (h *CalendarHandler) GetCalendarMonth(c *gin.Context) {
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil || year < 1 {
		respondError(c, apperrors.Validation("invalid year"))
		return
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil || month < 1 || month > 12 {
		respondError(c, apperrors.Validation("invalid month"))
		return
	}

	start, end := models.MonthRange(year, time.Month(month))
	h.respondRange(c, &start, &end)
}

// GetCalendarWeek handles GET /api/groups/:group_id/calendar/week. The date
// param is normalized to its Monday; the window covers seven days.
func (h *CalendarHandler) GetCalendarWeek(c *gin.Context) {
	date, err := models.ParseDate(c.Query("date"))
	if err != nil {
		respondError(c, apperrors.Validation("invalid date"))
		return
	}

	start := models.MondayOf(date)
	end := start.AddDays(6)
	h.respondRange(c, &start, &end)
}

func (h *CalendarHandler) respondRange(c *gin.Context, start, end *models.Date) {
	groupID, ok := parseGroupID(c)
	if !ok {
		return
	}

	userID := middleware.UserID(c)
	member, err := h.groupRepo.IsMember(c.Request.Context(), groupID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !member {
		respondError(c, apperrors.MemberRequired())
		return
	}

	entries, err := h.calendarRepo.ListByGroupAndRange(c.Request.Context(), groupID, userID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	response := gin.H{"entries": entries}
	if start != nil {
		response["start"] = start
	}
	if end != nil {
		response["end"] = end
	}
	c.JSON(http.StatusOK, response)
}
