package services

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/quangduy772005-oss/BKT2-FullStack/brackets"
	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

// LeaderboardService answers read-only queries. None of its methods open a transaction.
type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, tournamentID, limit int) ([]models.LeaderboardEntry, error)
	GetGlobalLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
	GetTournamentMatches(ctx context.Context, tournamentID int) ([]models.TournamentMatch, error)
	GetBracket(ctx context.Context, tournamentID int) (*models.BracketView, error)
	GetStandings(ctx context.Context, tournamentID int) ([]models.Standing, error)
	GetMemberStats(ctx context.Context, memberID int) (*models.MemberStats, error)
	GetRatingHistory(ctx context.Context, memberID, limit int) ([]models.RatingChange, error)
}

type leaderboardService struct {
	store *repositories.Store
	settings
}

func NewLeaderboardService(store *repositories.Store, opts ...Option) LeaderboardService {
	return &leaderboardService{store: store, settings: newSettings(opts)}
}

// GetLeaderboard ranks the tournament's non-withdrawn participants by current global rating.
// Ties go to the earlier registration.
func (s *leaderboardService) GetLeaderboard(ctx context.Context, tournamentID, limit int) ([]models.LeaderboardEntry, error) {
	if _, err := s.store.Tournaments.GetByID(ctx, tournamentID); err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}
	participants, err := s.store.Participants.ListByTournament(ctx, tournamentID,
		models.ParticipantRegistered, models.ParticipantPaid, models.ParticipantEliminated)
	if err != nil {
		return nil, handleRepositoryError(err, "list participants")
	}
	if len(participants) == 0 {
		return []models.LeaderboardEntry{}, nil
	}

	ids := make([]int, len(participants))
	for i, p := range participants {
		ids[i] = p.MemberID
	}
	members, err := s.store.Members.ListByIDs(ctx, ids)
	if err != nil {
		return nil, handleRepositoryError(err, "load members")
	}
	byID := make(map[int]models.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}

	sort.SliceStable(participants, func(i, j int) bool {
		ri, rj := byID[participants[i].MemberID].RankELO, byID[participants[j].MemberID].RankELO
		if ri != rj {
			return ri > rj
		}
		return participants[i].JoinedBefore(&participants[j])
	})

	limit = normalizeLimit(limit)
	if len(participants) > limit {
		participants = participants[:limit]
	}
	entries := make([]models.LeaderboardEntry, len(participants))
	for i, p := range participants {
		m := byID[p.MemberID]
		entries[i] = models.LeaderboardEntry{
			Rank:       i + 1,
			MemberID:   p.MemberID,
			MemberName: m.FullName,
			Elo:        m.RankELO,
		}
	}
	return entries, nil
}

func (s *leaderboardService) GetGlobalLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	members, err := s.store.Members.ListTopRated(ctx, normalizeLimit(limit))
	if err != nil {
		return nil, handleRepositoryError(err, "list top rated members")
	}
	entries := make([]models.LeaderboardEntry, len(members))
	for i, m := range members {
		entries[i] = models.LeaderboardEntry{Rank: i + 1, MemberID: m.ID, MemberName: m.FullName, Elo: m.RankELO}
	}
	return entries, nil
}

func (s *leaderboardService) GetTournamentMatches(ctx context.Context, tournamentID int) ([]models.TournamentMatch, error) {
	if _, err := s.store.Tournaments.GetByID(ctx, tournamentID); err != nil {
		return nil, handleRepositoryError(err, "get tournament")
	}
	var (
		nodes   []models.BracketNode
		matches []models.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		nodes, err = s.store.Brackets.ListByTournament(gctx, tournamentID)
		return handleRepositoryError(err, "list bracket nodes")
	})
	g.Go(func() error {
		var err error
		matches, err = s.store.Matches.ListByTournament(gctx, tournamentID)
		return handleRepositoryError(err, "list matches")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return joinNodes(nodes, matches), nil
}

// GetBracket loads the tournament, its participants, nodes and matches concurrently.
func (s *leaderboardService) GetBracket(ctx context.Context, tournamentID int) (*models.BracketView, error) {
	var (
		tournament   *models.Tournament
		participants []models.Participant
		nodes        []models.BracketNode
		matches      []models.Match
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tournament, err = s.store.Tournaments.GetByID(gctx, tournamentID)
		return handleRepositoryError(err, "get tournament")
	})
	g.Go(func() error {
		var err error
		participants, err = s.store.Participants.ListByTournament(gctx, tournamentID)
		return handleRepositoryError(err, "list participants")
	})
	g.Go(func() error {
		var err error
		nodes, err = s.store.Brackets.ListByTournament(gctx, tournamentID)
		return handleRepositoryError(err, "list bracket nodes")
	})
	g.Go(func() error {
		var err error
		matches, err = s.store.Matches.ListByTournament(gctx, tournamentID)
		return handleRepositoryError(err, "list matches")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &models.BracketView{
		Tournament:   *tournament,
		Participants: participants,
		Matches:      joinNodes(nodes, matches),
	}, nil
}

func (s *leaderboardService) GetStandings(ctx context.Context, tournamentID int) ([]models.Standing, error) {
	view, err := s.GetBracket(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	nodes := make([]models.BracketNode, len(view.Matches))
	byID := make(map[int]models.Match, len(view.Matches))
	for i, tm := range view.Matches {
		nodes[i] = tm.Node
		if tm.Match != nil {
			byID[tm.Match.ID] = *tm.Match
		}
	}
	return brackets.ComputeStandings(view.Participants, nodes, byID), nil
}

func (s *leaderboardService) GetMemberStats(ctx context.Context, memberID int) (*models.MemberStats, error) {
	member, err := s.store.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, handleRepositoryError(err, "get member")
	}
	matches, err := s.store.Matches.ListByMember(ctx, memberID)
	if err != nil {
		return nil, handleRepositoryError(err, "list member matches")
	}

	stats := &models.MemberStats{MemberID: member.ID, FullName: member.FullName, Rating: member.RankELO}
	for i := range matches {
		m := &matches[i]
		side := m.SideOf(memberID)
		switch {
		case side == 0, !m.IsResolved(), m.Result == models.MatchCancelled:
			continue
		case m.Result == models.MatchDraw:
			stats.Draws++
		case (m.Result == models.MatchTeam1Win) == (side == 1):
			stats.Wins++
		default:
			stats.Losses++
		}
		stats.Played++
	}
	return stats, nil
}

func (s *leaderboardService) GetRatingHistory(ctx context.Context, memberID, limit int) ([]models.RatingChange, error) {
	if _, err := s.store.Members.GetByID(ctx, memberID); err != nil {
		return nil, handleRepositoryError(err, "get member")
	}
	history, err := s.store.RatingHistory.ListByMember(ctx, memberID, normalizeLimit(limit))
	if err != nil {
		return nil, handleRepositoryError(err, "list rating history")
	}
	return history, nil
}

// joinNodes attaches each node's match, keeping the repository's node order.
func joinNodes(nodes []models.BracketNode, matches []models.Match) []models.TournamentMatch {
	byID := make(map[int]*models.Match, len(matches))
	for i := range matches {
		byID[matches[i].ID] = &matches[i]
	}
	out := make([]models.TournamentMatch, len(nodes))
	for i, n := range nodes {
		out[i] = models.TournamentMatch{Node: n}
		if n.MatchID != nil {
			out[i].Match = byID[*n.MatchID]
		}
	}
	return out
}
