package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quangduy772005-oss/BKT2-FullStack/brackets"
	"github.com/quangduy772005-oss/BKT2-FullStack/events"
	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

type TournamentService interface {
	CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	ListParticipants(ctx context.Context, tournamentID int) ([]models.Participant, error)

	JoinTournament(ctx context.Context, tournamentID, memberID int, teamName *string) (*models.Participant, error)
	WithdrawParticipant(ctx context.Context, tournamentID, memberID int) (*models.Participant, error)
	MarkParticipantPaid(ctx context.Context, tournamentID, participantID int) (*models.Participant, error)

	StartTournament(ctx context.Context, tournamentID int, useSeeding bool) (*models.Tournament, error)
	EndTournament(ctx context.Context, tournamentID int) (*models.Tournament, error)
	CancelTournament(ctx context.Context, tournamentID int, reason *string) (*models.Tournament, error)
	DeactivateTournament(ctx context.Context, tournamentID int) error

	ProcessDueTournaments(ctx context.Context, now time.Time) error
}

type CreateTournamentInput struct {
	Name            string
	Description     *string
	StartDate       time.Time
	EndDate         time.Time
	Type            models.TournamentType
	Format          models.TournamentFormat
	EntryFee        int64
	PrizePool       int64
	MaxParticipants int
}

type tournamentService struct {
	store   *repositories.Store
	refunds RefundRequester
	ops     *bracketOps
	settings
}

func NewTournamentService(store *repositories.Store, refunds RefundRequester, opts ...Option) TournamentService {
	s := newSettings(opts)
	if refunds == nil {
		refunds = NewEventRefundRequester(s.publisher)
	}
	return &tournamentService{
		store:    store,
		refunds:  refunds,
		ops:      &bracketOps{store: store, settings: s},
		settings: s,
	}
}

func (s *tournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, validationError("tournament name is required")
	}
	if !input.Type.Valid() {
		return nil, validationError("unknown tournament type %q", input.Type)
	}
	if !input.Format.Valid() {
		return nil, validationError("unknown tournament format %q", input.Format)
	}
	if !brackets.Supports(input.Format) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, input.Format)
	}
	if input.MaxParticipants < 2 {
		return nil, validationError("max participants must be at least 2, got %d", input.MaxParticipants)
	}
	if err := validateTournamentDates(input.StartDate, input.EndDate); err != nil {
		return nil, err
	}
	if input.EntryFee < 0 || input.PrizePool < 0 {
		return nil, validationError("entry fee and prize pool cannot be negative")
	}

	t := &models.Tournament{
		Name:            name,
		Description:     trimmedOrNil(input.Description),
		StartDate:       input.StartDate.UTC(),
		EndDate:         input.EndDate.UTC(),
		Type:            input.Type,
		Format:          input.Format,
		Status:          models.StatusOpen,
		EntryFee:        input.EntryFee,
		PrizePool:       input.PrizePool,
		MaxParticipants: input.MaxParticipants,
		IsActive:        true,
	}
	if err := s.store.Tournaments.Create(ctx, t); err != nil {
		return nil, handleRepositoryError(err, "create tournament")
	}
	s.logger.Info("tournament created", zap.Int("tournament_id", t.ID), zap.String("format", string(t.Format)))
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.store.Tournaments.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}
	return t, nil
}

func (s *tournamentService) ListTournaments(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	tournaments, err := s.store.Tournaments.List(ctx, filter)
	if err != nil {
		return nil, handleRepositoryError(err, "list tournaments")
	}
	return tournaments, nil
}

func (s *tournamentService) ListParticipants(ctx context.Context, tournamentID int) ([]models.Participant, error) {
	if _, err := s.store.Tournaments.GetByID(ctx, tournamentID); err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}
	participants, err := s.store.Participants.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "list participants")
	}
	return participants, nil
}

// JoinTournament registers a member under the tournament row lock, so concurrent joins at the
// capacity boundary admit exactly MaxParticipants.
func (s *tournamentService) JoinTournament(ctx context.Context, tournamentID, memberID int, teamName *string) (*models.Participant, error) {
	var participant *models.Participant
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.store.Tournaments.GetByIDForUpdate(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "load tournament")
		}
		if err := s.checkFieldOpen(ctx, t); err != nil {
			return err
		}

		member, err := s.store.Members.GetByID(ctx, memberID)
		if err != nil {
			return handleRepositoryError(err, "load member")
		}

		if existing, err := s.store.Participants.GetByTournamentAndMember(ctx, tournamentID, memberID); err == nil {
			return fmt.Errorf("%w: member %d is %s in tournament %d", ErrAlreadyJoined, memberID, existing.Status, tournamentID)
		} else if !errors.Is(err, repositories.ErrParticipantNotFound) {
			return handleRepositoryError(err, "check registration")
		}

		active, err := s.store.Participants.CountActive(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "count participants")
		}
		if active >= t.MaxParticipants {
			return fmt.Errorf("%w: %d of %d places taken", ErrFull, active, t.MaxParticipants)
		}

		participant = &models.Participant{
			TournamentID:   tournamentID,
			MemberID:       memberID,
			TeamName:       trimmedOrNil(teamName),
			Status:         models.ParticipantRegistered,
			InitialRanking: member.RankELO,
		}
		return handleRepositoryError(s.store.Participants.Create(ctx, participant), "register participant")
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("member joined tournament",
		zap.Int("tournament_id", tournamentID),
		zap.Int("member_id", memberID),
		zap.Int("participant_id", participant.ID),
	)
	return participant, nil
}

func (s *tournamentService) WithdrawParticipant(ctx context.Context, tournamentID, memberID int) (*models.Participant, error) {
	return s.updateRegistration(ctx, tournamentID, func(ctx context.Context) (*models.Participant, error) {
		t, err := s.store.Tournaments.GetByID(ctx, tournamentID)
		if err != nil {
			return nil, handleRepositoryError(err, "load tournament")
		}
		if err := s.checkFieldOpen(ctx, t); err != nil {
			return nil, err
		}
		p, err := s.store.Participants.GetByTournamentAndMember(ctx, tournamentID, memberID)
		if err != nil {
			return nil, handleRepositoryError(err, "load registration")
		}
		if p.Status == models.ParticipantWithdrawn {
			return nil, fmt.Errorf("%w: participant %d already withdrew", ErrInvalidState, p.ID)
		}
		p.Status = models.ParticipantWithdrawn
		return p, nil
	})
}

func (s *tournamentService) MarkParticipantPaid(ctx context.Context, tournamentID, participantID int) (*models.Participant, error) {
	return s.updateRegistration(ctx, tournamentID, func(ctx context.Context) (*models.Participant, error) {
		p, err := s.store.Participants.GetByID(ctx, participantID)
		if err != nil {
			return nil, handleRepositoryError(err, "load participant")
		}
		if p.TournamentID != tournamentID {
			return nil, fmt.Errorf("%w: participant %d is not registered for tournament %d", ErrNotFound, participantID, tournamentID)
		}
		if p.Status != models.ParticipantRegistered {
			return nil, fmt.Errorf("%w: participant %d is %s", ErrInvalidState, p.ID, p.Status)
		}
		p.Status = models.ParticipantPaid
		return p, nil
	})
}

// checkFieldOpen rejects changes to the participant set once registration has closed or a
// bracket has been built from it. Discarding the bracket reopens the field.
func (s *tournamentService) checkFieldOpen(ctx context.Context, t *models.Tournament) error {
	if t.Status != models.StatusOpen {
		return fmt.Errorf("%w: tournament %d is %s", ErrRegistrationClosed, t.ID, t.Status)
	}
	nodes, err := s.store.Brackets.CountByTournament(ctx, t.ID)
	if err != nil {
		return handleRepositoryError(err, "count bracket nodes")
	}
	if nodes > 0 {
		return fmt.Errorf("%w: bracket of tournament %d is already built", ErrRegistrationClosed, t.ID)
	}
	return nil
}

// updateRegistration applies a participant status change while registration is open.
func (s *tournamentService) updateRegistration(ctx context.Context, tournamentID int, change func(ctx context.Context) (*models.Participant, error)) (*models.Participant, error) {
	var participant *models.Participant
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.store.Tournaments.GetByIDForUpdate(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "load tournament")
		}
		if t.Status != models.StatusOpen {
			return fmt.Errorf("%w: tournament %d is %s", ErrRegistrationClosed, t.ID, t.Status)
		}
		participant, err = change(ctx)
		if err != nil {
			return err
		}
		return handleRepositoryError(
			s.store.Participants.UpdateStatus(ctx, participant.ID, participant.Status),
			"update participant status",
		)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("registration updated",
		zap.Int("tournament_id", tournamentID),
		zap.Int("participant_id", participant.ID),
		zap.String("status", string(participant.Status)),
	)
	return participant, nil
}

func (s *tournamentService) StartTournament(ctx context.Context, tournamentID int, useSeeding bool) (*models.Tournament, error) {
	var (
		t     *models.Tournament
		built int
	)
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.store.Tournaments.GetByIDForUpdate(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "load tournament")
		}
		if err := checkTransition(t, models.StatusOngoing); err != nil {
			return err
		}

		existing, err := s.store.Brackets.CountByTournament(ctx, t.ID)
		if err != nil {
			return handleRepositoryError(err, "count bracket nodes")
		}
		if existing == 0 {
			nodes, err := s.ops.build(ctx, t, useSeeding)
			if err != nil {
				return err
			}
			built = len(nodes)
		}
		return s.transition(ctx, t, models.StatusOngoing)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.TournamentStarted, &t.ID, tournamentPayload(t, nil))
	if built > 0 {
		s.metrics.BracketBuilt(string(t.Format))
		s.publisher.Publish(ctx, events.BracketBuilt, &t.ID, events.BracketPayload{
			TournamentID: t.ID,
			Format:       string(t.Format),
			Nodes:        built,
		})
	}
	s.logger.Info("tournament started", zap.Int("tournament_id", t.ID), zap.Int("bracket_nodes", built))
	return t, nil
}

func (s *tournamentService) EndTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	var t *models.Tournament
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.store.Tournaments.GetByIDForUpdate(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "load tournament")
		}
		if err := checkTransition(t, models.StatusFinished); err != nil {
			return err
		}

		nodes, err := s.store.Brackets.ListByTournament(ctx, t.ID)
		if err != nil {
			return handleRepositoryError(err, "list bracket nodes")
		}
		if !brackets.Completed(t.Format, nodes) {
			return fmt.Errorf("%w: tournament %d", ErrMatchesPending, t.ID)
		}

		champion, err := s.champion(ctx, t, nodes)
		if err != nil {
			return err
		}
		if champion != nil {
			if err := s.store.Tournaments.SetChampion(ctx, t.ID, champion); err != nil {
				return handleRepositoryError(err, "record champion")
			}
			t.ChampionParticipantID = champion
		}
		return s.transition(ctx, t, models.StatusFinished)
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.TournamentFinished, &t.ID, tournamentPayload(t, nil))
	s.logger.Info("tournament finished", zap.Int("tournament_id", t.ID))
	return t, nil
}

// champion is the final's winner for knockouts and the standings leader for round robins.
func (s *tournamentService) champion(ctx context.Context, t *models.Tournament, nodes []models.BracketNode) (*int, error) {
	if t.Format == models.FormatKnockout {
		final, ok := brackets.FinalNode(nodes)
		if !ok {
			return nil, fmt.Errorf("%w: tournament %d has no single final", ErrInvalidState, t.ID)
		}
		return copyInt(final.WinnerParticipantID), nil
	}

	participants, err := s.store.Participants.ListByTournament(ctx, t.ID)
	if err != nil {
		return nil, handleRepositoryError(err, "list participants")
	}
	matches, err := s.store.Matches.ListByTournament(ctx, t.ID)
	if err != nil {
		return nil, handleRepositoryError(err, "list matches")
	}
	byID := make(map[int]models.Match, len(matches))
	for _, m := range matches {
		byID[m.ID] = m
	}
	standings := brackets.ComputeStandings(participants, nodes, byID)
	if len(standings) == 0 {
		return nil, nil
	}
	return intPtr(standings[0].ParticipantID), nil
}

func (s *tournamentService) CancelTournament(ctx context.Context, tournamentID int, reason *string) (*models.Tournament, error) {
	var (
		t    *models.Tournament
		paid []models.Participant
	)
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		t, err = s.store.Tournaments.GetByIDForUpdate(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "load tournament")
		}
		paid, t, err = s.cancelLocked(ctx, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.afterCancel(ctx, t, paid, trimmedOrNil(reason))
	return t, nil
}

func (s *tournamentService) cancelLocked(ctx context.Context, t *models.Tournament) ([]models.Participant, *models.Tournament, error) {
	if err := checkTransition(t, models.StatusCancelled); err != nil {
		return nil, nil, err
	}
	paid, err := s.store.Participants.ListByTournament(ctx, t.ID, models.ParticipantPaid)
	if err != nil {
		return nil, nil, handleRepositoryError(err, "list paid participants")
	}
	if err := s.transition(ctx, t, models.StatusCancelled); err != nil {
		return nil, nil, err
	}
	return paid, t, nil
}

// afterCancel runs once the cancellation is committed. Refund failures are logged only.
func (s *tournamentService) afterCancel(ctx context.Context, t *models.Tournament, paid []models.Participant, reason *string) {
	for _, p := range paid {
		if err := s.refunds.RequestRefund(ctx, *t, p); err != nil {
			s.logger.Error("refund request failed",
				zap.Int("tournament_id", t.ID),
				zap.Int("participant_id", p.ID),
				zap.Error(err),
			)
		}
	}
	s.publisher.Publish(ctx, events.TournamentCancelled, &t.ID, tournamentPayload(t, reason))
	s.logger.Info("tournament cancelled", zap.Int("tournament_id", t.ID), zap.Int("refunds", len(paid)))
}

func (s *tournamentService) DeactivateTournament(ctx context.Context, tournamentID int) error {
	return s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		t, err := s.store.Tournaments.GetByIDForUpdate(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "load tournament")
		}
		if !t.Status.IsTerminal() {
			return fmt.Errorf("%w: only finished or cancelled tournaments can be deactivated, tournament %d is %s",
				ErrInvalidState, t.ID, t.Status)
		}
		return handleRepositoryError(s.store.Tournaments.Deactivate(ctx, t.ID), "deactivate tournament")
	})
}

// ProcessDueTournaments starts every open tournament whose start time has passed, or cancels
// it when fewer than two participants are active. One failure does not stop the others.
func (s *tournamentService) ProcessDueTournaments(ctx context.Context, now time.Time) error {
	due, err := s.store.Tournaments.ListOpenStartingBefore(ctx, now)
	if err != nil {
		return handleRepositoryError(err, "list due tournaments")
	}

	var errs []error
	for _, t := range due {
		active, err := s.store.Participants.CountActive(ctx, t.ID)
		if err != nil {
			errs = append(errs, handleRepositoryError(err, "count participants"))
			continue
		}
		if active >= 2 {
			_, err = s.StartTournament(ctx, t.ID, true)
		} else {
			reason := fmt.Sprintf("only %d active participants at start time", active)
			_, err = s.CancelTournament(ctx, t.ID, &reason)
		}
		if err != nil && !errors.Is(err, ErrInvalidState) {
			s.logger.Warn("failed to process due tournament", zap.Int("tournament_id", t.ID), zap.Error(err))
			errs = append(errs, fmt.Errorf("tournament %d: %w", t.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *tournamentService) transition(ctx context.Context, t *models.Tournament, next models.TournamentStatus) error {
	from := t.Status
	if err := s.store.Tournaments.UpdateStatus(ctx, t.ID, from, next); err != nil {
		return handleRepositoryError(err, fmt.Sprintf("move tournament from %s to %s", from, next))
	}
	t.Status = next
	s.metrics.Transition(string(from), string(next))
	return nil
}

func tournamentPayload(t *models.Tournament, reason *string) events.TournamentPayload {
	return events.TournamentPayload{
		TournamentID: t.ID,
		Name:         t.Name,
		Status:       string(t.Status),
		ChampionID:   t.ChampionParticipantID,
		Reason:       reason,
	}
}
