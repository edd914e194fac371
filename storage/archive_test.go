package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quangduy772005-oss/BKT2-FullStack/events"
	"github.com/quangduy772005-oss/BKT2-FullStack/models"
)

type fakeUploader struct {
	err     error
	objects map[string][]byte
	types   map[string]string
}

func (u *fakeUploader) Upload(_ context.Context, key, contentType string, r io.Reader) (*UploadResult, error) {
	if u.err != nil {
		return nil, u.err
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if u.objects == nil {
		u.objects = map[string][]byte{}
		u.types = map[string]string{}
	}
	u.objects[key] = body
	u.types[key] = contentType
	return &UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return PublicURL("https://cdn.example.com/archive", key)
}

type staticLoader map[int]*models.BracketView

func (l staticLoader) GetBracket(_ context.Context, id int) (*models.BracketView, error) {
	view, ok := l[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return view, nil
}

func TestBracketArchiverUploadsFinishedTournament(t *testing.T) {
	id := 7
	loader := staticLoader{id: {
		Tournament:   models.Tournament{ID: id, Name: "Giải Cầu Lông Mùa Xuân", Status: models.StatusFinished},
		Participants: []models.Participant{{ID: 1, TournamentID: id, MemberID: 3}},
	}}
	uploader := &fakeUploader{}
	archiver := NewBracketArchiver(uploader, loader, nil)

	err := archiver.Handle(context.Background(), events.Event{Kind: events.TournamentFinished, TournamentID: &id})
	require.NoError(t, err)

	key := "brackets/7-giai-cau-long-mua-xuan.json"
	require.Contains(t, uploader.objects, key)
	assert.Equal(t, "application/json", uploader.types[key])

	var stored models.BracketView
	require.NoError(t, json.Unmarshal(uploader.objects[key], &stored))
	assert.Equal(t, id, stored.Tournament.ID)
	assert.Len(t, stored.Participants, 1)
}

func TestBracketArchiverIgnoresOtherEvents(t *testing.T) {
	id := 1
	uploader := &fakeUploader{}
	archiver := NewBracketArchiver(uploader, staticLoader{}, nil)

	for _, kind := range []events.Kind{events.TournamentStarted, events.MatchResolved, events.TournamentCancelled} {
		require.NoError(t, archiver.Handle(context.Background(), events.Event{Kind: kind, TournamentID: &id}))
	}
	require.NoError(t, archiver.Handle(context.Background(), events.Event{Kind: events.TournamentFinished}))
	assert.Empty(t, uploader.objects)
}

func TestBracketArchiverReturnsFailuresForRetry(t *testing.T) {
	id := 2
	loader := staticLoader{id: {Tournament: models.Tournament{ID: id, Name: "Cup"}}}
	archiver := NewBracketArchiver(&fakeUploader{err: errors.New("bucket offline")}, loader, nil)

	err := archiver.Handle(context.Background(), events.Event{Kind: events.TournamentFinished, TournamentID: &id})
	assert.EqualError(t, err, "bucket offline")

	missing := 3
	err = archiver.Handle(context.Background(), events.Event{Kind: events.TournamentFinished, TournamentID: &missing})
	assert.Error(t, err)
}

func TestArchiveKeyAndPublicURL(t *testing.T) {
	assert.Equal(t, "brackets/4.json", ArchiveKey(&models.Tournament{ID: 4, Name: "!!!"}))
	assert.Equal(t, "brackets/5-city-open-2026.json", ArchiveKey(&models.Tournament{ID: 5, Name: "City Open 2026"}))

	assert.Equal(t, "https://cdn.example.com/archive/brackets/5.json", PublicURL("https://cdn.example.com/archive", "/brackets/5.json"))
	assert.Equal(t, "https://cdn.example.com/brackets/5.json", PublicURL("https://cdn.example.com", "brackets/5.json"))
	assert.Empty(t, PublicURL("", "brackets/5.json"))
}

func TestR2ConfigEnabled(t *testing.T) {
	assert.False(t, CloudflareR2UploaderConfig{}.Enabled())
	_, err := NewCloudflareR2Uploader(context.Background(), CloudflareR2UploaderConfig{AccountID: "acc"})
	assert.ErrorIs(t, err, ErrR2NotConfigured)
	assert.True(t, CloudflareR2UploaderConfig{
		AccountID: "a", AccessKeyID: "k", SecretAccessKey: "s", BucketName: "b",
	}.Enabled())
}
