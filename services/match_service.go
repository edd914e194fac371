package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/quangduy772005-oss/BKT2-FullStack/brackets"
	"github.com/quangduy772005-oss/BKT2-FullStack/events"
	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/rating"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

type MatchService interface {
	CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	RecordResult(ctx context.Context, matchID int, result models.MatchResult, scores *models.MatchScores) (*RecordedResult, error)
}

type CreateMatchInput struct {
	TournamentID   *int
	Format         models.MatchFormat
	Team1Player1ID int
	Team1Player2ID *int
	Team2Player1ID int
	Team2Player2ID *int
	PlayedAt       *time.Time
}

// RecordedResult is the settled match with the rating movement it caused.
type RecordedResult struct {
	Match        models.Match         `json:"match"`
	RatingDeltas []models.RatingDelta `json:"rating_deltas"`
	Node         *models.BracketNode  `json:"node,omitempty"`
	NextNode     *models.BracketNode  `json:"next_node,omitempty"`
	Champion     *int                 `json:"champion_participant_id,omitempty"`
}

type matchService struct {
	store  *repositories.Store
	engine *rating.Engine
	ops    *bracketOps
	settings
}

func NewMatchService(store *repositories.Store, engine *rating.Engine, opts ...Option) MatchService {
	s := newSettings(opts)
	if engine == nil {
		engine = rating.NewEngine(rating.DefaultKFactor)
	}
	return &matchService{
		store:    store,
		engine:   engine,
		ops:      &bracketOps{store: store, settings: s},
		settings: s,
	}
}

func (s *matchService) CreateMatch(ctx context.Context, input CreateMatchInput) (*models.Match, error) {
	if input.Format == "" {
		input.Format = models.MatchSingles
	}
	if !input.Format.Valid() {
		return nil, validationError("unknown match format %q", input.Format)
	}

	match := &models.Match{
		TournamentID:   input.TournamentID,
		Format:         input.Format,
		Team1Player1ID: input.Team1Player1ID,
		Team2Player1ID: input.Team2Player1ID,
		Result:         models.MatchNone,
	}
	if input.Format == models.MatchDoubles {
		if input.Team1Player2ID == nil || input.Team2Player2ID == nil {
			return nil, validationError("doubles needs two players per team")
		}
		match.Team1Player2ID = input.Team1Player2ID
		match.Team2Player2ID = input.Team2Player2ID
	} else if input.Team1Player2ID != nil || input.Team2Player2ID != nil {
		return nil, validationError("singles takes one player per team")
	}

	players := match.Players()
	seen := make(map[int]bool, len(players))
	for _, id := range players {
		if id <= 0 {
			return nil, validationError("player ids must be positive")
		}
		if seen[id] {
			return nil, validationError("member %d appears more than once", id)
		}
		seen[id] = true
	}

	match.PlayedAt = s.clock()
	if input.PlayedAt != nil {
		match.PlayedAt = input.PlayedAt.UTC()
	}

	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if match.TournamentID != nil {
			t, err := s.store.Tournaments.GetByID(ctx, *match.TournamentID)
			if err != nil {
				return handleRepositoryError(err, "load tournament")
			}
			if t.Status != models.StatusOngoing {
				return fmt.Errorf("%w: tournament %d is %s", ErrInvalidState, t.ID, t.Status)
			}
		}
		members, err := s.store.Members.ListByIDs(ctx, players)
		if err != nil {
			return handleRepositoryError(err, "load players")
		}
		if len(members) != len(players) {
			return fmt.Errorf("%w: one or more players do not exist", ErrNotFound)
		}
		return handleRepositoryError(s.store.Matches.Create(ctx, match), "create match")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("match created", zap.Int("match_id", match.ID), zap.String("format", string(match.Format)))
	return match, nil
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	match, err := s.store.Matches.GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "get match")
	}
	return match, nil
}

// RecordResult settles a match in one transaction: the result, every player's rating and,
// for bracket matches, the node and the winner's advancement.
func (s *matchService) RecordResult(ctx context.Context, matchID int, result models.MatchResult, scores *models.MatchScores) (*RecordedResult, error) {
	if err := validateResult(result, scores); err != nil {
		return nil, err
	}

	var (
		recorded   *RecordedResult
		tournament *models.Tournament
	)
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		match, err := s.store.Matches.GetByID(ctx, matchID)
		if err != nil {
			return handleRepositoryError(err, "load match")
		}
		// tournament before match keeps the lock order of the lifecycle operations
		if match.TournamentID != nil {
			tournament, err = s.store.Tournaments.GetByIDForUpdate(ctx, *match.TournamentID)
			if err != nil {
				return handleRepositoryError(err, "load tournament")
			}
		}
		match, err = s.store.Matches.GetByIDForUpdate(ctx, matchID)
		if err != nil {
			return handleRepositoryError(err, "lock match")
		}
		if match.IsResolved() {
			return fmt.Errorf("%w: match %d is %s", ErrAlreadyResolved, match.ID, match.Result)
		}
		if tournament != nil && tournament.Status != models.StatusOngoing {
			return fmt.Errorf("%w: tournament %d is %s", ErrInvalidState, tournament.ID, tournament.Status)
		}

		node, err := s.store.Brackets.GetByMatchID(ctx, match.ID)
		if err != nil && !errors.Is(err, repositories.ErrBracketNodeNotFound) {
			return handleRepositoryError(err, "load bracket node")
		}
		if node != nil && tournament != nil && tournament.Format == models.FormatKnockout && !result.Decisive() {
			return fmt.Errorf("%w: knockout match %d needs a winner, got %s", ErrInvalidResult, match.ID, result)
		}

		now := s.clock()
		recorded = &RecordedResult{RatingDeltas: []models.RatingDelta{}}

		if result != models.MatchCancelled {
			deltas, teamDelta, err := s.applyRatings(ctx, match, result)
			if err != nil {
				return err
			}
			recorded.RatingDeltas = deltas
			match.EloDelta = &teamDelta
			if scores != nil {
				match.Team1Score = intPtr(scores.Team1)
				match.Team2Score = intPtr(scores.Team2)
			}
		}
		match.Result = result
		match.ResolvedAt = timePtr(now)
		if err := s.store.Matches.Resolve(ctx, match); err != nil {
			return handleRepositoryError(err, "store match result")
		}
		recorded.Match = *match

		if node == nil {
			return nil
		}
		return s.settleNode(ctx, tournament, node, result, now, recorded)
	})
	if err != nil {
		return nil, err
	}

	s.afterResult(ctx, tournament, recorded)
	return recorded, nil
}

func (s *matchService) applyRatings(ctx context.Context, match *models.Match, result models.MatchResult) ([]models.RatingDelta, float64, error) {
	members, err := s.store.Members.ListByIDs(ctx, match.Players())
	if err != nil {
		return nil, 0, handleRepositoryError(err, "load players")
	}
	byID := make(map[int]models.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	ratingsOf := func(ids []int) ([]float64, error) {
		out := make([]float64, len(ids))
		for i, id := range ids {
			m, ok := byID[id]
			if !ok {
				return nil, fmt.Errorf("%w: member %d of match %d", ErrNotFound, id, match.ID)
			}
			out[i] = m.RankELO
		}
		return out, nil
	}
	team1, team2 := match.Team1(), match.Team2()
	ratings1, err := ratingsOf(team1)
	if err != nil {
		return nil, 0, err
	}
	ratings2, err := ratingsOf(team2)
	if err != nil {
		return nil, 0, err
	}

	per1, per2, teamDelta := s.engine.TeamDeltas(ratings1, ratings2, outcomeForTeam1(result))

	deltas := make([]models.RatingDelta, 0, len(team1)+len(team2))
	apply := func(ids []int, per []float64) error {
		for i, id := range ids {
			m := byID[id]
			after := m.RankELO + per[i]
			if err := s.store.Members.UpdateRating(ctx, id, after, m.RowVersion); err != nil {
				return handleRepositoryError(err, fmt.Sprintf("update rating of member %d", id))
			}
			change := &models.RatingChange{
				MemberID:     id,
				MatchID:      match.ID,
				RatingBefore: m.RankELO,
				RatingAfter:  after,
				Delta:        per[i],
			}
			if err := s.store.RatingHistory.Create(ctx, change); err != nil {
				return handleRepositoryError(err, "record rating change")
			}
			deltas = append(deltas, models.RatingDelta{
				MemberID:     id,
				RatingBefore: m.RankELO,
				RatingAfter:  after,
				Delta:        per[i],
			})
		}
		return nil
	}
	if err := apply(team1, per1); err != nil {
		return nil, 0, err
	}
	if err := apply(team2, per2); err != nil {
		return nil, 0, err
	}
	return deltas, teamDelta, nil
}

func (s *matchService) settleNode(ctx context.Context, t *models.Tournament, node *models.BracketNode, result models.MatchResult, now time.Time, recorded *RecordedResult) error {
	node.ResolvedAt = timePtr(now)

	if !result.Decisive() {
		if err := s.store.Brackets.UpdateNode(ctx, node); err != nil {
			return handleRepositoryError(err, "resolve bracket node")
		}
		recorded.Node = node
		return nil
	}

	winnerID, loserID, err := brackets.DecideNode(node, result)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidState, err)
	}
	node.WinnerParticipantID = intPtr(winnerID)
	if err := s.store.Brackets.UpdateNode(ctx, node); err != nil {
		return handleRepositoryError(err, "resolve bracket node")
	}
	recorded.Node = node

	if t == nil || t.Format != models.FormatKnockout {
		return nil
	}

	if err := s.store.Participants.UpdateStatus(ctx, loserID, models.ParticipantEliminated); err != nil {
		return handleRepositoryError(err, "eliminate loser")
	}

	if node.IsFinal() {
		if err := s.store.Tournaments.SetChampion(ctx, t.ID, intPtr(winnerID)); err != nil {
			return handleRepositoryError(err, "record champion")
		}
		recorded.Champion = intPtr(winnerID)
		return nil
	}

	next, err := s.ops.advance(ctx, t, node, winnerID)
	if err != nil {
		return err
	}
	recorded.NextNode = next
	return nil
}

func (s *matchService) afterResult(ctx context.Context, t *models.Tournament, recorded *RecordedResult) {
	match := recorded.Match
	var delta float64
	if match.EloDelta != nil {
		delta = *match.EloDelta
	}
	s.metrics.MatchSettled(string(match.Result), delta)
	s.logger.Info("match result recorded",
		zap.Int("match_id", match.ID),
		zap.String("result", string(match.Result)),
		zap.Float64("elo_delta", delta),
	)

	payload := events.MatchResolvedPayload{
		MatchID:      match.ID,
		TournamentID: match.TournamentID,
		Result:       string(match.Result),
		RatingDeltas: make([]events.DeltaInfo, 0, len(recorded.RatingDeltas)),
	}
	for _, d := range recorded.RatingDeltas {
		payload.RatingDeltas = append(payload.RatingDeltas, events.DeltaInfo(d))
	}
	s.publisher.Publish(ctx, events.MatchResolved, match.TournamentID, payload)

	if recorded.Node == nil || t == nil {
		return
	}
	bracketPayload := events.BracketPayload{
		TournamentID: t.ID,
		Format:       string(t.Format),
		NodeID:       intPtr(recorded.Node.ID),
		WinnerID:     recorded.Node.WinnerParticipantID,
	}
	if recorded.NextNode != nil {
		bracketPayload.NextNodeID = intPtr(recorded.NextNode.ID)
	}
	s.publisher.Publish(ctx, events.BracketUpdated, &t.ID, bracketPayload)
}

// validateResult checks the reported result against its scoreline. Cancelled ignores scores.
func validateResult(result models.MatchResult, scores *models.MatchScores) error {
	switch result {
	case models.MatchTeam1Win, models.MatchTeam2Win, models.MatchDraw, models.MatchCancelled:
	case models.MatchNone:
		return fmt.Errorf("%w: a result is required", ErrInvalidResult)
	default:
		return fmt.Errorf("%w: unknown result %q", ErrInvalidResult, result)
	}
	if scores == nil || result == models.MatchCancelled {
		return nil
	}
	if scores.Team1 < 0 || scores.Team2 < 0 {
		return fmt.Errorf("%w: scores cannot be negative", ErrInvalidResult)
	}
	switch {
	case result == models.MatchTeam1Win && scores.Team1 <= scores.Team2,
		result == models.MatchTeam2Win && scores.Team2 <= scores.Team1,
		result == models.MatchDraw && scores.Team1 != scores.Team2:
		return fmt.Errorf("%w: score %d-%d contradicts %s", ErrInvalidResult, scores.Team1, scores.Team2, result)
	}
	return nil
}

func outcomeForTeam1(result models.MatchResult) rating.Outcome {
	switch result {
	case models.MatchTeam1Win:
		return rating.OutcomeWin
	case models.MatchTeam2Win:
		return rating.OutcomeLoss
	default:
		return rating.OutcomeDraw
	}
}
