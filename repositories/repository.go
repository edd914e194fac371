package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

var (
	ErrTournamentNotFound   = errors.New("tournament not found")
	ErrParticipantNotFound  = errors.New("participant not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrMatchNotFound        = errors.New("match not found")
	ErrBracketNodeNotFound  = errors.New("bracket node not found")
	ErrParticipantConflict  = errors.New("member is already registered for this tournament")
	ErrMatchAlreadyResolved = errors.New("match result already recorded")
	ErrConcurrencyConflict  = errors.New("concurrent update detected")
	ErrInvalidReference     = errors.New("referenced entity does not exist")
)

type ListTournamentsFilter struct {
	Status          *models.TournamentStatus
	Format          *models.TournamentFormat
	IncludeInactive bool
	Limit           int
	Offset          int
}

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter ListTournamentsFilter) ([]models.Tournament, error)
	// UpdateStatus moves the tournament from one status to another and fails with
	// ErrConcurrencyConflict when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id int, from, to models.TournamentStatus) error
	SetChampion(ctx context.Context, id int, participantID *int) error
	Deactivate(ctx context.Context, id int) error
	ListOpenStartingBefore(ctx context.Context, t time.Time) ([]models.Tournament, error)
}

type ParticipantRepository interface {
	Create(ctx context.Context, participant *models.Participant) error
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	GetByTournamentAndMember(ctx context.Context, tournamentID, memberID int) (*models.Participant, error)
	// ListByTournament returns participants in registration order; no statuses means all.
	ListByTournament(ctx context.Context, tournamentID int, statuses ...models.ParticipantStatus) ([]models.Participant, error)
	CountActive(ctx context.Context, tournamentID int) (int, error)
	UpdateStatus(ctx context.Context, id int, status models.ParticipantStatus) error
	UpdateSeed(ctx context.Context, id int, seed *int) error
}

type MemberRepository interface {
	Create(ctx context.Context, member *models.Member) error
	GetByID(ctx context.Context, id int) (*models.Member, error)
	ListByIDs(ctx context.Context, ids []int) ([]models.Member, error)
	// UpdateRating is a compare-and-swap on the row version; a stale version
	// fails with ErrConcurrencyConflict.
	UpdateRating(ctx context.Context, id int, rating float64, expectedVersion int) error
	ListTopRated(ctx context.Context, limit int) ([]models.Member, error)
}

type MatchRepository interface {
	Create(ctx context.Context, match *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	GetByIDForUpdate(ctx context.Context, id int) (*models.Match, error)
	// Resolve stores the result of an unresolved match and fails with
	// ErrMatchAlreadyResolved otherwise.
	Resolve(ctx context.Context, match *models.Match) error
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error)
	ListByMember(ctx context.Context, memberID int) ([]models.Match, error)
	// DeleteByIDs removes the given matches; unknown ids are ignored.
	DeleteByIDs(ctx context.Context, ids []int) error
}

type BracketRepository interface {
	// CreateNodes inserts the nodes and fills in their ids.
	CreateNodes(ctx context.Context, nodes []*models.BracketNode) error
	UpdateNode(ctx context.Context, node *models.BracketNode) error
	GetByID(ctx context.Context, id int) (*models.BracketNode, error)
	GetByIDForUpdate(ctx context.Context, id int) (*models.BracketNode, error)
	GetByMatchID(ctx context.Context, matchID int) (*models.BracketNode, error)
	// ListByTournament orders nodes by bracket type, round and order in round.
	ListByTournament(ctx context.Context, tournamentID int) ([]models.BracketNode, error)
	CountByTournament(ctx context.Context, tournamentID int) (int, error)
	DeleteByTournament(ctx context.Context, tournamentID int) error
}

type RatingHistoryRepository interface {
	Create(ctx context.Context, change *models.RatingChange) error
	ListByMember(ctx context.Context, memberID int, limit int) ([]models.RatingChange, error)
	ListByMatch(ctx context.Context, matchID int) ([]models.RatingChange, error)
}

// Transactor scopes several repository calls into one atomic unit. Repositories called with
// the ctx handed to fn take part in the transaction; nested calls join the outer one.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// Store is the persistence port used by the services.
type Store struct {
	Transactor
	Tournaments   TournamentRepository
	Participants  ParticipantRepository
	Members       MemberRepository
	Matches       MatchRepository
	Brackets      BracketRepository
	RatingHistory RatingHistoryRepository
}
