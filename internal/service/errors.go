package service

import (
	"fmt"

	"github.com/sakif/robosaga/internal/apperror"
	"github.com/sakif/robosaga/internal/model"
)

// Domain failures. Messages are shown to the user as-is. Variants that only
// differ in wording share a code, so errors.Is matches either one.
var (
	ErrInvalidTeamName   = apperror.New(apperror.ErrValidation, "invalid_name", "Team name is required")
	ErrTeamNameTooLong   = apperror.New(apperror.ErrValidation, "invalid_name", fmt.Sprintf("Team name must be %d characters or less", MaxTeamNameLength))
	ErrTeamCodeRequired  = apperror.New(apperror.ErrValidation, "invalid_slug", "Team code is required")
	ErrRequestIDRequired = apperror.New(apperror.ErrValidation, "invalid_request_id", "Request ID is required")
	ErrMemberIDRequired  = apperror.New(apperror.ErrValidation, "invalid_member_id", "Member ID is required")

	ErrAlreadyInTeam         = apperror.New(apperror.ErrConflict, "already_in_team", "You are already in a team")
	errAlreadyInTeamOnCreate = apperror.New(apperror.ErrConflict, "already_in_team", "You are already in a team, cannot create a new one")
	ErrTeamFull              = apperror.New(apperror.ErrConflict, "team_full", fmt.Sprintf("Team is full (max %d members)", model.MaxTeamSize))
	ErrRequestAlreadyPending = apperror.New(apperror.ErrConflict, "request_already_pending", "You already have a pending request to join this team")
	ErrUserAlreadyInTeam     = apperror.New(apperror.ErrConflict, "user_already_in_team", "User is already in another team")
	ErrNotInTeam             = apperror.New(apperror.ErrConflict, "not_in_team", "You are not in a team")
	ErrLeaderCannotLeave     = apperror.New(apperror.ErrConflict, "leader_cannot_leave", "Team leader cannot leave. Transfer leadership first or delete the team.")
	ErrCannotRemoveSelf      = apperror.New(apperror.ErrValidation, "cannot_remove_self", "You cannot remove yourself. Transfer leadership first or delete the team.")
	ErrNotTeamMember         = apperror.New(apperror.ErrValidation, "not_team_member", "User is not a member of your team")

	ErrTeamNotFound    = apperror.New(apperror.ErrNotFound, "team_not_found", "Team not found with this code")
	errTeamIDNotFound  = apperror.New(apperror.ErrNotFound, "team_not_found", "Team not found")
	ErrRequestNotFound = apperror.New(apperror.ErrNotFound, "request_not_found", "Pending join request not found")

	ErrNotLeader         = apperror.New(apperror.ErrForbidden, "not_leader", "Only the team leader can do this")
	errNotLeaderAccept   = apperror.New(apperror.ErrForbidden, "not_leader", "Only the team leader can accept requests")
	errNotLeaderReject   = apperror.New(apperror.ErrForbidden, "not_leader", "Only the team leader can reject requests")
	errNotLeaderRemove   = apperror.New(apperror.ErrForbidden, "not_leader", "Only the team leader can remove members")
	errNotLeaderDelete   = apperror.New(apperror.ErrForbidden, "not_leader", "Only the team leader can delete the team")
	errNotLeaderRegister = apperror.New(apperror.ErrForbidden, "not_leader", "Only the team leader can register the team for events")
)

// Events and scoring.
var (
	ErrEventNotFound        = apperror.New(apperror.ErrNotFound, "event_not_found", "Event not found")
	ErrRegistrationNotFound = apperror.New(apperror.ErrNotFound, "registration_not_found", "Team is not registered for this event")
	ErrEventInactive        = apperror.New(apperror.ErrConflict, "event_inactive", "Event is not open for registration")
	ErrTeamTooSmall         = apperror.New(apperror.ErrConflict, "team_too_small", fmt.Sprintf("Team needs at least %d members to register", model.MinTeamSize))
	ErrTotalBelowZero       = apperror.New(apperror.ErrConflict, "score_below_zero", "Team total would drop below zero; correct the team score first")
	ErrAlreadyRegistered    = apperror.New(apperror.ErrConflict, "already_registered", "Team is already registered for this event")

	ErrInvalidMarks = apperror.New(apperror.ErrValidation, "invalid_marks", "Marks are out of range")
	ErrInvalidRank  = apperror.New(apperror.ErrValidation, "invalid_rank", "Rank must be a positive number")
	ErrInvalidScore = apperror.New(apperror.ErrValidation, "invalid_score", "Score must not be negative")
	ErrInvalidEvent = apperror.New(apperror.ErrValidation, "invalid_event", "Event name and a positive max score are required")
)

// Users.
var (
	ErrInvalidRole        = apperror.New(apperror.ErrValidation, "invalid_role", "Invalid role")
	ErrOnboardingRequired = apperror.New(apperror.ErrValidation, "invalid_profile", "Roll number, branch, and phone number are required")
	ErrInvalidPhone       = apperror.New(apperror.ErrValidation, "invalid_profile", "Phone number must be exactly 10 digits")
)

// invalidMarks reports marks outside [0, maxScore] for one event. It matches
// ErrInvalidMarks under errors.Is.
func invalidMarks(maxScore int) *apperror.AppError {
	return apperror.New(apperror.ErrValidation, "invalid_marks",
		fmt.Sprintf("Marks must be between 0 and %d", maxScore))
}
