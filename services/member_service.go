package services

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/quangduy772005-oss/BKT2-FullStack/models"
	"github.com/quangduy772005-oss/BKT2-FullStack/rating"
	"github.com/quangduy772005-oss/BKT2-FullStack/repositories"
)

type MemberService interface {
	CreateMember(ctx context.Context, input CreateMemberInput) (*models.Member, error)
	GetMember(ctx context.Context, id int) (*models.Member, error)
}

type CreateMemberInput struct {
	FullName string
	// InitialRating defaults to the standard starting rating when nil.
	InitialRating *float64
}

type memberService struct {
	store *repositories.Store
	settings
}

func NewMemberService(store *repositories.Store, opts ...Option) MemberService {
	return &memberService{store: store, settings: newSettings(opts)}
}

func (s *memberService) CreateMember(ctx context.Context, input CreateMemberInput) (*models.Member, error) {
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return nil, validationError("member name is required")
	}
	elo := rating.DefaultRating
	if input.InitialRating != nil {
		if *input.InitialRating <= 0 {
			return nil, validationError("initial rating must be positive, got %.2f", *input.InitialRating)
		}
		elo = *input.InitialRating
	}

	member := &models.Member{FullName: name, RankELO: elo}
	if err := s.store.Members.Create(ctx, member); err != nil {
		return nil, handleRepositoryError(err, "create member")
	}
	s.logger.Info("member created", zap.Int("member_id", member.ID), zap.Float64("rating", member.RankELO))
	return member, nil
}

func (s *memberService) GetMember(ctx context.Context, id int) (*models.Member, error) {
	member, err := s.store.Members.GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "get member")
	}
	return member, nil
}
