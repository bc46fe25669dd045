package service

import (
	"context"
	"testing"
	"time"

	"time-capsule/internal/model"
	"time-capsule/pkg/realtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var capsuleToday = time.Date(2026, 5, 10, 15, 30, 0, 0, time.UTC)

func newCapsuleFixture() (*CapsuleService, *fakeCapsules, *fakeObjects, *fakePublisher, *countingRecorder) {
	store := newFakeCapsules()
	objects := &fakeObjects{}
	pub := &fakePublisher{}
	rec := &countingRecorder{}
	svc := NewCapsuleService(store, objects, "capsule-images", pub, rec, func() time.Time { return capsuleToday })
	return svc, store, objects, pub, rec
}

func day(offset int) *time.Time {
	d := time.Date(2026, 5, 10+offset, 0, 0, 0, 0, time.UTC)
	return &d
}

func TestSeal_RequiresFieldsAndFutureDate(t *testing.T) {
	svc, store, _, _, _ := newCapsuleFixture()
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, 1, CapsuleInput{})
	require.NoError(t, err)

	cases := []struct {
		name  string
		in    CapsuleInput
		field string
	}{
		{"no title", CapsuleInput{Message: "m", OpenDate: day(1)}, "title"},
		{"no message", CapsuleInput{Title: "t", OpenDate: day(1)}, "message"},
		{"no date", CapsuleInput{Title: "t", Message: "m"}, "open_date"},
		{"past date", CapsuleInput{Title: "t", Message: "m", OpenDate: day(-1)}, "open_date"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Seal(ctx, 1, draft.ID, tc.in)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	stored := store.rows[draft.ID]
	assert.False(t, stored.IsSealed)
	assert.Empty(t, stored.Title)
	assert.Nil(t, stored.OpenDate)
}

func TestSeal_FillsMissingFieldsFromDraft(t *testing.T) {
	svc, store, _, _, rec := newCapsuleFixture()
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, 1, CapsuleInput{Title: "draft", Message: "hello", OpenDate: day(4)})
	require.NoError(t, err)

	c, err := svc.Seal(ctx, 1, draft.ID, CapsuleInput{})
	require.NoError(t, err)
	assert.True(t, c.IsSealed)
	assert.Equal(t, "draft", c.Title)
	assert.Equal(t, "hello", c.Message)
	assert.Equal(t, *day(4), *c.OpenDate)
	assert.Equal(t, []string{"sealed"}, rec.capsules)

	// 请求中的非空字段覆盖草稿
	other, err := svc.CreateDraft(ctx, 1, CapsuleInput{Title: "old", Message: "m"})
	require.NoError(t, err)
	c, err = svc.Seal(ctx, 1, other.ID, CapsuleInput{Title: "new", OpenDate: day(1)})
	require.NoError(t, err)
	assert.Equal(t, "new", store.rows[other.ID].Title)
	assert.Equal(t, "m", store.rows[other.ID].Message)
}

func TestSeal_DraftMissingFieldStillInvalid(t *testing.T) {
	svc, store, _, _, _ := newCapsuleFixture()
	ctx := context.Background()

	draft, err := svc.CreateDraft(ctx, 1, CapsuleInput{Title: "draft", Message: "hello"})
	require.NoError(t, err)

	_, err = svc.Seal(ctx, 1, draft.ID, CapsuleInput{})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "open_date", ve.Field)
	assert.False(t, store.rows[draft.ID].IsSealed)
}

func TestSeal_TodayAllowedAndInsertWhenNoID(t *testing.T) {
	svc, _, _, pub, rec := newCapsuleFixture()

	c, err := svc.Seal(context.Background(), 1, 0, CapsuleInput{Title: " t ", Message: "m", OpenDate: day(0)})
	require.NoError(t, err)
	assert.True(t, c.IsSealed)
	assert.Equal(t, "t", c.Title)
	assert.Equal(t, *day(0), *c.OpenDate)
	assert.Equal(t, []string{"sealed"}, rec.capsules)

	evs := pub.ofType(realtime.TableTimeCapsule, realtime.EventInsert)
	require.Len(t, evs, 1)
	assert.Equal(t, []uint{1}, evs[0].Participants)
}

func TestSeal_TruncatesOpenDateTime(t *testing.T) {
	svc, _, _, _, _ := newCapsuleFixture()
	late := time.Date(2026, 5, 10, 23, 59, 0, 0, time.UTC)

	c, err := svc.Seal(context.Background(), 1, 0, CapsuleInput{Title: "t", Message: "m", OpenDate: &late})
	require.NoError(t, err)
	assert.Equal(t, *day(0), *c.OpenDate)
}

func TestSealedCapsuleRefusesEdits(t *testing.T) {
	svc, _, objects, _, _ := newCapsuleFixture()
	ctx := context.Background()
	in := CapsuleInput{Title: "t", Message: "m", OpenDate: day(3)}

	c, err := svc.Seal(ctx, 1, 0, in)
	require.NoError(t, err)

	_, err = svc.Seal(ctx, 1, c.ID, in)
	assert.ErrorIs(t, err, ErrCapsuleSealed)
	_, err = svc.Update(ctx, 1, c.ID, CapsuleInput{Title: "changed"})
	assert.ErrorIs(t, err, ErrCapsuleSealed)
	_, err = svc.UploadImage(ctx, 1, c.ID, upload("a.jpg", "img"))
	assert.ErrorIs(t, err, ErrCapsuleSealed)
	assert.Empty(t, objects.uploads)

	fav, err := svc.ToggleFavorite(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.True(t, fav.IsFavorite)
	assert.True(t, fav.IsSealed)
}

func TestUnseal_PreservesFields(t *testing.T) {
	svc, _, _, _, rec := newCapsuleFixture()
	ctx := context.Background()

	c, err := svc.Seal(ctx, 1, 0, CapsuleInput{Title: "t", Message: "m", OpenDate: day(2)})
	require.NoError(t, err)
	_, err = svc.ToggleFavorite(ctx, 1, c.ID)
	require.NoError(t, err)

	got, err := svc.Unseal(ctx, 1, c.ID)
	require.NoError(t, err)
	assert.False(t, got.IsSealed)
	assert.Equal(t, "t", got.Title)
	assert.Equal(t, "m", got.Message)
	assert.Equal(t, *day(2), *got.OpenDate)
	assert.True(t, got.IsFavorite)
	assert.Equal(t, []string{"sealed", "unsealed"}, rec.capsules)

	// 解封后可以再编辑
	upd, err := svc.Update(ctx, 1, c.ID, CapsuleInput{Title: "t2", Message: "m2", OpenDate: day(4)})
	require.NoError(t, err)
	assert.Equal(t, "t2", upd.Title)
}

func TestCapsule_OwnershipIsolation(t *testing.T) {
	svc, _, _, _, _ := newCapsuleFixture()
	ctx := context.Background()
	c, err := svc.CreateDraft(ctx, 1, CapsuleInput{Title: "mine"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, 2, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.ToggleFavorite(ctx, 2, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, 2, c.ID), ErrNotFound)

	require.NoError(t, svc.Delete(ctx, 1, c.ID))
	_, err = svc.Get(ctx, 1, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUploadImage_Draft(t *testing.T) {
	svc, _, objects, _, _ := newCapsuleFixture()
	ctx := context.Background()
	c, err := svc.CreateDraft(ctx, 1, CapsuleInput{Title: "pic"})
	require.NoError(t, err)

	got, err := svc.UploadImage(ctx, 1, c.ID, upload("photo.JPG", "img"))
	require.NoError(t, err)
	require.Len(t, objects.uploads, 1)
	assert.Equal(t, "capsule-images", objects.uploads[0].bucket)
	assert.Equal(t, "http://objects/capsule-images/"+objects.uploads[0].key, got.ImageURL)
}

func TestList_FilterAndSort(t *testing.T) {
	svc, _, _, _, _ := newCapsuleFixture()
	ctx := context.Background()

	mk := func(title string, open *time.Time) *model.TimeCapsule {
		c, err := svc.CreateDraft(ctx, 1, CapsuleInput{Title: title, OpenDate: open})
		require.NoError(t, err)
		return c
	}
	mk("Zebra", day(5))
	mk("apple", nil)
	fav := mk("Banana", day(1))
	_, err := svc.ToggleFavorite(ctx, 1, fav.ID)
	require.NoError(t, err)

	byDate, err := svc.List(ctx, 1, ListOptions{Sort: SortByDate})
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana", "Zebra", "apple"}, titles(byDate))

	byTitle, err := svc.List(ctx, 1, ListOptions{Sort: SortByTitle})
	require.NoError(t, err)
	assert.Equal(t, []string{"apple", "Banana", "Zebra"}, titles(byTitle))

	search, err := svc.List(ctx, 1, ListOptions{Search: "AN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana"}, titles(search))

	favs, err := svc.List(ctx, 1, ListOptions{FavoritesOnly: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"Banana"}, titles(favs))

	_, err = svc.List(ctx, 1, ListOptions{Sort: "size"})
	assert.True(t, IsValidation(err))

	other, err := svc.List(ctx, 2, ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, other)
}

func titles(cs []*model.TimeCapsule) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Title)
	}
	return out
}
