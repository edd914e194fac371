package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

const defaultLeaderboardLimit = 100

var allowedTransitions = map[models.TournamentStatus][]models.TournamentStatus{
	models.StatusOpen:      {models.StatusOngoing, models.StatusCancelled},
	models.StatusOngoing:   {models.StatusFinished, models.StatusCancelled},
	models.StatusFinished:  {},
	models.StatusCancelled: {},
}

func isValidStatusTransition(current, next models.TournamentStatus) bool {
	for _, allowed := range allowedTransitions[current] {
		if next == allowed {
			return true
		}
	}
	return false
}

func checkTransition(t *models.Tournament, next models.TournamentStatus) error {
	if !isValidStatusTransition(t.Status, next) {
		return fmt.Errorf("%w: tournament %d cannot move from %s to %s", ErrInvalidState, t.ID, t.Status, next)
	}
	return nil
}

// handleRepositoryError wraps repository sentinels with the matching service sentinel so
// callers can match either one.
func handleRepositoryError(err error, action string) error {
	if err == nil {
		return nil
	}
	var sentinel error
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrParticipantNotFound),
		errors.Is(err, repositories.ErrMemberNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrBracketNodeNotFound):
		sentinel = ErrNotFound
	case errors.Is(err, repositories.ErrParticipantConflict):
		sentinel = ErrAlreadyJoined
	case errors.Is(err, repositories.ErrMatchAlreadyResolved):
		sentinel = ErrAlreadyResolved
	case errors.Is(err, repositories.ErrConcurrencyConflict):
		sentinel = ErrConcurrencyConflict
	case errors.Is(err, repositories.ErrInvalidReference):
		sentinel = ErrValidationFailed
	default:
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	return fmt.Errorf("%w: %s: %w", sentinel, action, err)
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidationFailed, fmt.Sprintf(format, args...))
}

func validateTournamentDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return validationError("start and end dates are required")
	}
	if !start.Before(end) {
		return validationError("start date (%s) must be before end date (%s)", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func intPtr(v int) *int {
	return &v
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLeaderboardLimit
	}
	return limit
}
