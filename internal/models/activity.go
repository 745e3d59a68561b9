package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ActivityType discriminates the two activity variants.
type ActivityType string

const (
	ActivityEvent ActivityType = "EVENT"
	ActivityTrip  ActivityType = "TRIP"
)

// EventCategory classifies single-location events.
type EventCategory string

const (
	CategoryRestaurant    EventCategory = "RESTAURANT"
	CategoryMuseum        EventCategory = "MUSEUM"
	CategoryBeach         EventCategory = "BEACH"
	CategoryPark          EventCategory = "PARK"
	CategoryAttraction    EventCategory = "ATTRACTION"
	CategoryAccommodation EventCategory = "ACCOMMODATION"
	CategoryShopping      EventCategory = "SHOPPING"
	CategoryEntertainment EventCategory = "ENTERTAINMENT"
	CategorySport         EventCategory = "SPORT"
	CategoryOther         EventCategory = "OTHER"
)

// TransportMode classifies origin-to-destination trips.
type TransportMode string

const (
	TransportFlight TransportMode = "FLIGHT"
	TransportTrain  TransportMode = "TRAIN"
	TransportBus    TransportMode = "BUS"
	TransportCar    TransportMode = "CAR"
	TransportFerry  TransportMode = "FERRY"
	TransportBike   TransportMode = "BIKE"
	TransportWalk   TransportMode = "WALK"
	TransportOther  TransportMode = "OTHER"
)

// ParticipantStatus is a member's attendance state for an activity.
type ParticipantStatus string

const (
	StatusConfirmed ParticipantStatus = "CONFIRMED"
	StatusMaybe     ParticipantStatus = "MAYBE"
	StatusDeclined  ParticipantStatus = "DECLINED"
)

// Valid reports whether the status is one of the known states.
func (s ParticipantStatus) Valid() bool {
	return s == StatusConfirmed || s == StatusMaybe || s == StatusDeclined
}

// Location is an embedded value object with no identity of its own.
type Location struct {
	Name      *string        `json:"name,omitempty"`
	Address   *string        `json:"address,omitempty"`
	Latitude  *float64       `json:"latitude,omitempty"`
	Longitude *float64       `json:"longitude,omitempty"`
	PlaceID   *string        `json:"place_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// HasCoordinates reports whether both latitude and longitude are set.
func (l Location) HasCoordinates() bool {
	return l.Latitude != nil && l.Longitude != nil
}

// Validate checks the coordinate ranges.
func (l Location) Validate() error {
	if l.Latitude != nil && (*l.Latitude < -90 || *l.Latitude > 90) {
		return fmt.Errorf("latitude %v out of range [-90, 90]", *l.Latitude)
	}
	if l.Longitude != nil && (*l.Longitude < -180 || *l.Longitude > 180) {
		return fmt.Errorf("longitude %v out of range [-180, 180]", *l.Longitude)
	}
	return nil
}

// DisplayName derives a printable name: name, else address, else formatted
// coordinates, else "Unknown location".
func (l Location) DisplayName() string {
	if l.Name != nil && strings.TrimSpace(*l.Name) != "" {
		return *l.Name
	}
	if l.Address != nil && strings.TrimSpace(*l.Address) != "" {
		return *l.Address
	}
	if l.HasCoordinates() {
		return fmt.Sprintf("%.4f, %.4f", *l.Latitude, *l.Longitude)
	}
	return "Unknown location"
}

// EventDetails is the EVENT variant payload.
type EventDetails struct {
	Location         Location      `json:"location"`
	Category         EventCategory `json:"category"`
	BookingURL       *string       `json:"booking_url,omitempty"`
	BookingReference *string       `json:"booking_reference,omitempty"`
	ReservationTime  *TimeOfDay    `json:"reservation_time,omitempty"`
}

// TripDetails is the TRIP variant payload.
type TripDetails struct {
	Origin           Location      `json:"origin"`
	Destination      Location      `json:"destination"`
	TransportMode    TransportMode `json:"transport_mode"`
	DepartureTime    *TimeOfDay    `json:"departure_time,omitempty"`
	ArrivalTime      *TimeOfDay    `json:"arrival_time,omitempty"`
	BookingReference *string       `json:"booking_reference,omitempty"`
}

// Activity is a scheduled Event or Trip owned by a group. Exactly one of
// Event and Trip is non-nil, matching Type.
type Activity struct {
	ID           int64           `db:"id" json:"id"`
	GroupID      int64           `db:"group_id" json:"group_id"`
	Type         ActivityType    `db:"activity_type" json:"activity_type"`
	Name         string          `db:"name" json:"name"`
	Description  *string         `db:"description" json:"description,omitempty"`
	StartDate    Date            `db:"start_date" json:"start_date"`
	EndDate      Date            `db:"end_date" json:"end_date"`
	StartTime    TimeOfDay       `db:"start_time" json:"start_time"`
	EndTime      TimeOfDay       `db:"end_time" json:"end_time"`
	IsCompleted  bool            `db:"is_completed" json:"is_completed"`
	DisplayOrder int             `db:"display_order" json:"display_order"`
	TotalCost    decimal.Decimal `db:"total_cost" json:"total_cost"`
	CreatedBy    *int64          `db:"created_by" json:"created_by,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`

	Event *EventDetails `json:"event,omitempty"`
	Trip  *TripDetails  `json:"trip,omitempty"`
}

// EndAfterStart reports whether the end (date, time) is strictly after the
// start (date, time). Every activity must satisfy this.
func EndAfterStart(startDate, endDate Date, startTime, endTime TimeOfDay) bool {
	if endDate.After(startDate) {
		return true
	}
	if startDate.After(endDate) {
		return false
	}
	return endTime.Minutes() > startTime.Minutes()
}

// IsMultiDay reports whether the activity spans more than one calendar day.
func (a *Activity) IsMultiDay() bool {
	return a.EndDate.After(a.StartDate)
}

// DurationDays returns the inclusive day count of the activity.
func (a *Activity) DurationDays() int {
	if !a.EndDate.After(a.StartDate) {
		return 1
	}
	return a.StartDate.DaysUntil(a.EndDate) + 1
}

// ActivityParticipant is a member's attendance record for an activity. The
// User* fields are populated from the joined rows on reads.
type ActivityParticipant struct {
	ID         int64             `db:"id" json:"id"`
	ActivityID int64             `db:"activity_id" json:"activity_id"`
	MemberID   int64             `db:"group_member_id" json:"group_member_id"`
	Status     ParticipantStatus `db:"status" json:"status"`
	Notes      *string           `db:"notes" json:"notes,omitempty"`
	CreatedAt  time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updated_at"`

	UserID   int64  `db:"user_id" json:"user_id,omitempty"`
	UserName string `db:"user_name" json:"user_name,omitempty"`
}

// ParticipantCounts is the live status breakdown of a roster.
type ParticipantCounts struct {
	Confirmed int64 `json:"confirmed_count"`
	Maybe     int64 `json:"maybe_count"`
	Declined  int64 `json:"declined_count"`
}

// CountParticipants tallies a roster by status.
func CountParticipants(participants []ActivityParticipant) ParticipantCounts {
	var counts ParticipantCounts
	for _, p := range participants {
		switch p.Status {
		case StatusConfirmed:
			counts.Confirmed++
		case StatusMaybe:
			counts.Maybe++
		case StatusDeclined:
			counts.Declined++
		}
	}
	return counts
}
