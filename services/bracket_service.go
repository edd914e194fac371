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
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

type BracketService interface {
	BuildBracket(ctx context.Context, tournamentID int, useSeeding bool) ([]models.BracketNode, error)
	DiscardBracket(ctx context.Context, tournamentID int) error
}

type bracketService struct {
	store *repositories.Store
	ops   *bracketOps
	settings
}

func NewBracketService(store *repositories.Store, opts ...Option) BracketService {
	s := newSettings(opts)
	return &bracketService{
		store:    store,
		ops:      &bracketOps{store: store, settings: s},
		settings: s,
	}
}

func (s *bracketService) BuildBracket(ctx context.Context, tournamentID int, useSeeding bool) ([]models.BracketNode, error) {
	var (
		tournament *models.Tournament
		nodes      []models.BracketNode
	)
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		tournament, err = s.store.Tournaments.GetByIDForUpdate(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "load tournament")
		}
		if tournament.Status.IsTerminal() {
			return fmt.Errorf("%w: tournament %d is %s", ErrInvalidState, tournament.ID, tournament.Status)
		}
		nodes, err = s.ops.build(ctx, tournament, useSeeding)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("bracket built",
		zap.Int("tournament_id", tournament.ID),
		zap.String("format", string(tournament.Format)),
		zap.Int("nodes", len(nodes)),
		zap.Bool("use_seeding", useSeeding),
	)
	s.metrics.BracketBuilt(string(tournament.Format))
	s.publisher.Publish(ctx, events.BracketBuilt, &tournament.ID, events.BracketPayload{
		TournamentID: tournament.ID,
		Format:       string(tournament.Format),
		Nodes:        len(nodes),
	})
	return nodes, nil
}

// DiscardBracket removes the bracket and its matches while nothing has been played.
func (s *bracketService) DiscardBracket(ctx context.Context, tournamentID int) error {
	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		tournament, err := s.store.Tournaments.GetByIDForUpdate(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "load tournament")
		}
		if tournament.Status.IsTerminal() {
			return fmt.Errorf("%w: tournament %d is %s", ErrInvalidState, tournament.ID, tournament.Status)
		}

		// Ad-hoc matches tagged with the tournament are not part of the bracket.
		nodes, err := s.store.Brackets.ListByTournament(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "list bracket nodes")
		}
		matchIDs := make([]int, 0, len(nodes))
		for _, n := range nodes {
			if n.MatchID == nil {
				continue
			}
			m, err := s.store.Matches.GetByID(ctx, *n.MatchID)
			if err != nil {
				return handleRepositoryError(err, "load bracket match")
			}
			if m.IsResolved() {
				return fmt.Errorf("%w: match %d of tournament %d already has a result", ErrInvalidState, m.ID, tournamentID)
			}
			matchIDs = append(matchIDs, m.ID)
		}

		if err := s.store.Brackets.DeleteByTournament(ctx, tournamentID); err != nil {
			return handleRepositoryError(err, "delete bracket")
		}
		if err := s.store.Matches.DeleteByIDs(ctx, matchIDs); err != nil {
			return handleRepositoryError(err, "delete bracket matches")
		}

		participants, err := s.store.Participants.ListByTournament(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "list participants")
		}
		for _, p := range participants {
			if p.Seed == nil {
				continue
			}
			if err := s.store.Participants.UpdateSeed(ctx, p.ID, nil); err != nil {
				return handleRepositoryError(err, "clear participant seed")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("bracket discarded", zap.Int("tournament_id", tournamentID))
	return nil
}

// bracketOps holds the bracket steps shared by the services. Every method expects to run
// inside a transaction opened by its caller.
type bracketOps struct {
	store *repositories.Store
	settings
}

func (o *bracketOps) build(ctx context.Context, t *models.Tournament, useSeeding bool) ([]models.BracketNode, error) {
	existing, err := o.store.Brackets.CountByTournament(ctx, t.ID)
	if err != nil {
		return nil, handleRepositoryError(err, "count bracket nodes")
	}
	if existing > 0 {
		return nil, fmt.Errorf("%w: tournament %d", ErrAlreadyBuilt, t.ID)
	}

	participants, err := o.store.Participants.ListByTournament(ctx, t.ID, models.ActiveParticipantStatuses...)
	if err != nil {
		return nil, handleRepositoryError(err, "list active participants")
	}
	if len(participants) < 2 {
		return nil, fmt.Errorf("%w: tournament %d has %d active participants", ErrInsufficientParticipants, t.ID, len(participants))
	}

	generator, err := brackets.NewGenerator(t.Format)
	if err != nil {
		return nil, err
	}
	seeded := brackets.AssignSeeds(participants, useSeeding)
	plan, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{Tournament: t, Participants: seeded})
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s bracket for tournament %d: %w", generator.GetName(), t.ID, err)
	}
	if t.Format == models.FormatKnockout {
		if err := brackets.Validate(plan); err != nil {
			return nil, fmt.Errorf("generated bracket for tournament %d is inconsistent: %w", t.ID, err)
		}
	}

	memberOf := make(map[int]int, len(seeded))
	for _, p := range seeded {
		memberOf[p.ID] = p.MemberID
	}

	now := o.clock()
	nodes := make([]*models.BracketNode, len(plan))
	byUID := make(map[string]*models.BracketNode, len(plan))
	for i, bm := range plan {
		node := &models.BracketNode{
			TournamentID:   t.ID,
			Round:          bm.Round,
			OrderInRound:   bm.OrderInRound,
			BracketType:    models.BracketWinner,
			Participant1ID: copyInt(bm.Participant1ID),
			Participant2ID: copyInt(bm.Participant2ID),
			IsBye:          bm.IsBye,
		}
		if bm.IsBye {
			node.WinnerParticipantID = copyInt(bm.ByeParticipantID)
			node.ResolvedAt = &now
		}
		nodes[i] = node
		byUID[bm.UID] = node
	}

	if err := o.store.Brackets.CreateNodes(ctx, nodes); err != nil {
		return nil, handleRepositoryError(err, "create bracket nodes")
	}

	for i, bm := range plan {
		node := nodes[i]
		changed := false
		if bm.NextMatchUID != nil {
			node.NextNodeID = intPtr(byUID[*bm.NextMatchUID].ID)
			node.NextSlot = intPtr(bm.NextSlot)
			changed = true
		}
		if bm.SourceMatch1UID != nil {
			node.SourceNode1ID = intPtr(byUID[*bm.SourceMatch1UID].ID)
			changed = true
		}
		if bm.SourceMatch2UID != nil {
			node.SourceNode2ID = intPtr(byUID[*bm.SourceMatch2UID].ID)
			changed = true
		}
		if !node.IsBye && node.Ready() {
			match, err := o.createNodeMatch(ctx, t, node, memberOf)
			if err != nil {
				return nil, err
			}
			node.MatchID = intPtr(match.ID)
			changed = true
		}
		if changed {
			if err := o.store.Brackets.UpdateNode(ctx, node); err != nil {
				return nil, handleRepositoryError(err, "link bracket node")
			}
		}
	}

	for _, p := range seeded {
		if err := o.store.Participants.UpdateSeed(ctx, p.ID, p.Seed); err != nil {
			return nil, handleRepositoryError(err, "store participant seed")
		}
	}

	out := make([]models.BracketNode, len(nodes))
	for i, n := range nodes {
		out[i] = *n
	}
	return out, nil
}

// advance moves the winner of node into its next node and schedules the next match once
// both slots are filled. It returns nil for the final.
func (o *bracketOps) advance(ctx context.Context, t *models.Tournament, node *models.BracketNode, winnerID int) (*models.BracketNode, error) {
	if node.NextNodeID == nil {
		return nil, nil
	}
	next, err := o.store.Brackets.GetByIDForUpdate(ctx, *node.NextNodeID)
	if err != nil && !errors.Is(err, repositories.ErrBracketNodeNotFound) {
		return nil, handleRepositoryError(err, "lock next bracket node")
	}
	brackets.AdvanceWinner(node, next, winnerID)

	if next.Ready() && next.MatchID == nil {
		memberOf := make(map[int]int, 2)
		for _, pid := range []int{*next.Participant1ID, *next.Participant2ID} {
			p, err := o.store.Participants.GetByID(ctx, pid)
			if err != nil {
				return nil, handleRepositoryError(err, "load advancing participant")
			}
			memberOf[p.ID] = p.MemberID
		}
		match, err := o.createNodeMatch(ctx, t, next, memberOf)
		if err != nil {
			return nil, err
		}
		next.MatchID = intPtr(match.ID)
	}

	if err := o.store.Brackets.UpdateNode(ctx, next); err != nil {
		return nil, handleRepositoryError(err, "update next bracket node")
	}
	return next, nil
}

func (o *bracketOps) createNodeMatch(ctx context.Context, t *models.Tournament, node *models.BracketNode, memberOf map[int]int) (*models.Match, error) {
	playedAt := t.StartDate
	if now := o.clock(); now.After(playedAt) {
		playedAt = now
	}
	match := &models.Match{
		TournamentID:   intPtr(t.ID),
		PlayedAt:       playedAt,
		Format:         models.MatchSingles,
		Team1Player1ID: memberOf[*node.Participant1ID],
		Team2Player1ID: memberOf[*node.Participant2ID],
		Result:         models.MatchNone,
	}
	if err := o.store.Matches.Create(ctx, match); err != nil {
		return nil, handleRepositoryError(err, fmt.Sprintf("create match for bracket node R%d/%d", node.Round, node.OrderInRound))
	}
	return match, nil
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}
