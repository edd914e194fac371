package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"github.com/quangduy772005-oss/BKT2-FullStack/events"
	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

// BracketLoader reads the full bracket of a tournament.
type BracketLoader interface {
	GetBracket(ctx context.Context, tournamentID int) (*models.BracketView, error)
}

// BracketArchiver stores the final bracket of every finished tournament as a JSON object.
// It is registered as an event sink, so a failed upload is retried by the event bus.
type BracketArchiver struct {
	uploader FileUploader
	loader   BracketLoader
	logger   *zap.Logger
}

func NewBracketArchiver(uploader FileUploader, loader BracketLoader, logger *zap.Logger) *BracketArchiver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BracketArchiver{uploader: uploader, loader: loader, logger: logger}
}

func (a *BracketArchiver) Name() string { return "bracket-archive" }

func (a *BracketArchiver) Handle(ctx context.Context, event events.Event) error {
	if event.Kind != events.TournamentFinished || event.TournamentID == nil {
		return nil
	}

	view, err := a.loader.GetBracket(ctx, *event.TournamentID)
	if err != nil {
		return fmt.Errorf("failed to load bracket of tournament %d: %w", *event.TournamentID, err)
	}
	body, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to encode bracket of tournament %d: %w", *event.TournamentID, err)
	}

	key := ArchiveKey(&view.Tournament)
	result, err := a.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	a.logger.Info("bracket archived",
		zap.Int("tournament_id", view.Tournament.ID),
		zap.String("key", result.Key),
		zap.String("location", result.Location),
	)
	return nil
}

// ArchiveKey is the object key of a tournament's archived bracket.
func ArchiveKey(t *models.Tournament) string {
	name := slug.Make(t.Name)
	if name == "" {
		return fmt.Sprintf("brackets/%d.json", t.ID)
	}
	return fmt.Sprintf("brackets/%d-%s.json", t.ID, name)
}
