package services

import (
	"errors"

	"github.com/quangduy772005-oss/BKT2-FullStack/brackets"
)

var (
	ErrNotFound = errors.New("requested resource not found")

	ErrValidationFailed         = errors.New("validation failed")
	ErrInvalidResult            = errors.New("invalid match result")
	ErrInsufficientParticipants = brackets.ErrInsufficientParticipants
	ErrUnsupportedFormat        = brackets.ErrUnsupportedFormat

	ErrInvalidState        = errors.New("operation not allowed in the current tournament state")
	ErrAlreadyResolved     = errors.New("match result already recorded")
	ErrAlreadyBuilt        = errors.New("bracket already built")
	ErrRegistrationClosed  = errors.New("tournament registration is closed")
	ErrAlreadyJoined       = errors.New("member already joined this tournament")
	ErrFull                = errors.New("tournament is full")
	ErrMatchesPending      = errors.New("tournament still has unresolved matches")
	ErrConcurrencyConflict = errors.New("concurrent modification, retry the operation")

	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
)
