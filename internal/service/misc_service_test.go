package service

import (
	"context"
	"strings"
	"testing"

	"time-capsule/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceService(t *testing.T) {
	posts := &fakeVoice{}
	objects := &fakeObjects{}
	svc := NewVoiceService(posts, objects, "voice")
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, "t", -1, upload("a.mp3", "x"))
	assert.True(t, IsValidation(err))
	_, err = svc.Create(ctx, 1, "t", 3, Upload{})
	assert.True(t, IsValidation(err))

	p, err := svc.Create(ctx, 1, " morning ", 12, upload("a.MP3", "x"))
	require.NoError(t, err)
	assert.Equal(t, "morning", p.Title)
	assert.Equal(t, 12, p.DurationSec)
	assert.True(t, strings.HasPrefix(objects.uploads[0].key, "post-1-"))
	assert.True(t, strings.HasSuffix(objects.uploads[0].key, ".mp3"))

	_, err = svc.Feed(ctx, 0, -5)
	require.NoError(t, err)
	assert.Equal(t, DefaultFeedLimit, posts.lastLimit)
	assert.Zero(t, posts.lastOffset)
	_, err = svc.Feed(ctx, 1000, 3)
	require.NoError(t, err)
	assert.Equal(t, MaxFeedLimit, posts.lastLimit)
	assert.Equal(t, 3, posts.lastOffset)

	mine, err := svc.Mine(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	assert.ErrorIs(t, svc.Delete(ctx, 2, p.ID), ErrNotFound)
	require.NoError(t, svc.Delete(ctx, 1, p.ID))
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 0, ProgressPercent(0))
	assert.Equal(t, 30, ProgressPercent(3))
	assert.Equal(t, 100, ProgressPercent(10))
	assert.Equal(t, 100, ProgressPercent(25))
	assert.Equal(t, 0, ProgressPercent(-2))
}

func TestGamificationService(t *testing.T) {
	profiles := newFakeProfiles(
		&model.Profile{ID: 1, Email: "a@x.io"},
		&model.Profile{ID: 9, Email: "root@x.io", Role: model.RoleAdmin},
	)
	store := &fakeGamification{profiles: profiles}
	svc := NewGamificationService(store, profiles, nil)
	ctx := context.Background()

	_, err := svc.RecordParticipation(ctx, 1, "", 2)
	assert.True(t, IsValidation(err))

	_, err = svc.RecordParticipation(ctx, 1, "Math", 3)
	require.NoError(t, err)
	assert.Equal(t, 3*RatingPerStage, store.lastDelta)

	prog, err := svc.Progress(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, Progress{CompletedStages: 3, TotalOlympiads: 1, Percent: 30}, *prog)
	assert.Equal(t, 30, profiles.rows[1].Rating)

	_, err = svc.GrantAward(ctx, 1, 1, model.AwardMedal, "gold")
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.GrantAward(ctx, 9, 1, "trophy", "gold")
	assert.True(t, IsValidation(err))
	_, err = svc.GrantAward(ctx, 9, 1, model.AwardMedal, "gold")
	require.NoError(t, err)
	_, err = svc.GrantAward(ctx, 9, 1, model.AwardCertificate, "finished")
	require.NoError(t, err)

	groups, err := svc.Awards(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, groups.Achievements)
	assert.Len(t, groups.Medals, 1)
	assert.Len(t, groups.Certificates, 1)
}

func TestSettingsService(t *testing.T) {
	profiles := newFakeProfiles(
		&model.Profile{ID: 1, Email: "a@x.io"},
		&model.Profile{ID: 9, Email: "root@x.io", Role: model.RoleAdmin},
	)
	store := &fakeSettings{}
	svc := NewSettingsService(store, profiles)
	ctx := context.Background()

	s, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0.0, s.MinOrderAmount)
	assert.Equal(t, 1.0, s.PriceMultiplier)

	_, err = svc.Update(ctx, 1, 10, 2)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Update(ctx, 9, -1, 2)
	assert.True(t, IsValidation(err))
	_, err = svc.Update(ctx, 9, 10, 0)
	assert.True(t, IsValidation(err))
	assert.Zero(t, store.saves)

	s, err = svc.Update(ctx, 9, 10, 1.5)
	require.NoError(t, err)
	assert.Equal(t, 1.5, s.PriceMultiplier)

	s, err = svc.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, s.MinOrderAmount)
}
