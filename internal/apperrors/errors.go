// Package apperrors defines the typed application errors surfaced to API
// clients. Every error carries a stable machine-readable code and the HTTP
// status it maps to.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"trip-service/internal/models"
)

// Error is a typed application error.
type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// As unwraps err into an *Error when possible.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsNotFound reports whether err maps to a 404.
func IsNotFound(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Status == http.StatusNotFound
}

// IsConflict reports whether err maps to a 409.
func IsConflict(err error) bool {
	appErr, ok := As(err)
	return ok && appErr.Status == http.StatusConflict
}

func notFound(code, format string, args ...any) *Error {
	return &Error{Code: code, Status: http.StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func forbidden(code, message string) *Error {
	return &Error{Code: code, Status: http.StatusForbidden, Message: message}
}

func conflict(code, format string, args ...any) *Error {
	return &Error{Code: code, Status: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

// Validation builds a 400 with the generic validation code.
func Validation(format string, args ...any) *Error {
	return &Error{Code: "VALIDATION_ERROR", Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Unauthorized builds a 401.
func Unauthorized(message string) *Error {
	return &Error{Code: "UNAUTHORIZED", Status: http.StatusUnauthorized, Message: message}
}

// Not-found errors.

func GroupNotFound(id int64) *Error {
	return notFound("GROUP_NOT_FOUND", "group %d not found", id)
}

func ActivityNotFound(id int64) *Error {
	return notFound("ACTIVITY_NOT_FOUND", "activity %d not found", id)
}

func MemberNotFound() *Error {
	return notFound("MEMBER_NOT_FOUND", "member not found in this group")
}

func ParticipantNotFound(id int64) *Error {
	return notFound("PARTICIPANT_NOT_FOUND", "participant %d not found", id)
}

func ExpenseNotFound(id int64) *Error {
	return notFound("EXPENSE_NOT_FOUND", "expense %d not found", id)
}

func UserNotFound(identifier string) *Error {
	return notFound("USER_NOT_FOUND", "user not found: %s", identifier)
}

func NotAMember() *Error {
	return notFound("MEMBER_NOT_FOUND", "you are not a member of this group")
}

// Permission errors.

func MemberRequired() *Error {
	return forbidden("MEMBER_REQUIRED", "you must be a member of this group")
}

func AdminRequired() *Error {
	return forbidden("ADMIN_REQUIRED", "this operation requires the ADMIN role")
}

func CreatorRequired() *Error {
	return forbidden("CREATOR_REQUIRED", "only the group creator may do this")
}

// Conflict errors.

func UserAlreadyMember(identifier string) *Error {
	return conflict("USER_ALREADY_MEMBER", "user %s is already a member of this group", identifier)
}

func MaxMembersReached() *Error {
	return conflict("MAX_MEMBERS_REACHED", "the group already has the maximum of %d members", models.MaxMembersPerGroup)
}

func LastAdmin() *Error {
	return conflict("LAST_ADMIN", "the group must keep at least one admin; promote another member to admin first")
}

func CannotRemoveSelf() *Error {
	return conflict("CANNOT_REMOVE_SELF", "you cannot remove yourself; leave the group instead")
}

func AlreadyParticipant() *Error {
	return conflict("ALREADY_PARTICIPANT", "this member is already a participant of the activity")
}

func InvalidExpenseSplit() *Error {
	return conflict("INVALID_EXPENSE_SPLIT", "splits must sum exactly to the expense amount")
}

func EmailTaken(email string) *Error {
	return conflict("EMAIL_TAKEN", "email %s is already registered", email)
}

func NameTaken(name string) *Error {
	return conflict("NAME_TAKEN", "name %s is already taken", name)
}
