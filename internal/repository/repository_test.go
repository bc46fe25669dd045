package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"time-capsule/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	gdb, err := gorm.Open(gormmysql.New(gormmysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Discard,
	})
	require.NoError(t, err)
	return gdb, mock
}

var ctx = context.Background()

func TestProfileRepository_CreateDuplicate(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProfileRepository(gdb)

	mock.ExpectExec("INSERT INTO `profile`").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	err := repo.Create(ctx, &model.Profile{Email: "a@b.c", PasswordHash: "h", Role: model.RoleUser})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_CreateAssignsID(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProfileRepository(gdb)

	mock.ExpectExec("INSERT INTO `profile`").WillReturnResult(sqlmock.NewResult(11, 1))

	p := &model.Profile{Email: "a@b.c", PasswordHash: "h", Role: model.RoleUser}
	require.NoError(t, repo.Create(ctx, p))
	assert.Equal(t, uint(11), p.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_GetByIDNotFound(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProfileRepository(gdb)

	mock.ExpectQuery("SELECT \\* FROM `profile` WHERE `profile`.`id` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(ctx, 5)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_UsernameTaken(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProfileRepository(gdb)

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `profile` WHERE username = \\? AND id <> \\?").
		WithArgs("neo", 3).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(1))

	taken, err := repo.UsernameTaken(ctx, "neo", 3)
	require.NoError(t, err)
	assert.True(t, taken)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProfileRepository_SearchByHandleEscapesPattern(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProfileRepository(gdb)

	mock.ExpectQuery("LOWER\\(custom_id\\) LIKE \\?").
		WithArgs(`%50\%\_x%`, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "custom_id"}).AddRow(1, "a@b.c", "50%_X"))

	out, err := repo.SearchByHandle(ctx, "50%_X", 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "50%_X", *out[0].CustomID)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
}

func TestFriendshipRepository_CreateFillsOrderedPair(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewFriendshipRepository(gdb)

	mock.ExpectExec("INSERT INTO `friendship`").
		WithArgs(5, 2, 2, 5, model.FriendshipPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	f := &model.Friendship{UserID: 5, FriendID: 2, Status: model.FriendshipPending}
	require.NoError(t, repo.Create(ctx, f))
	assert.Equal(t, uint(2), f.PairLow)
	assert.Equal(t, uint(5), f.PairHigh)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendshipRepository_CreateDuplicatePair(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewFriendshipRepository(gdb)

	mock.ExpectExec("INSERT INTO `friendship`").
		WillReturnError(&mysql.MySQLError{Number: 1062})

	err := repo.Create(ctx, &model.Friendship{UserID: 1, FriendID: 2, Status: model.FriendshipPending})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestFriendshipRepository_FindBetweenUsesPair(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewFriendshipRepository(gdb)

	mock.ExpectQuery("WHERE pair_low = \\? AND pair_high = \\?").
		WithArgs(2, 9, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "friend_id", "pair_low", "pair_high", "status"}).
			AddRow(4, 9, 2, 2, 9, model.FriendshipAccepted))

	f, err := repo.FindBetween(ctx, 9, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(4), f.ID)
	assert.Equal(t, model.FriendshipAccepted, f.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFriendshipRepository_AcceptedPropagatesErrors(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewFriendshipRepository(gdb)
	boom := errors.New("connection reset")

	mock.ExpectQuery("SELECT count\\(\\*\\) FROM `friendship`").WillReturnError(boom)

	ok, err := repo.Accepted(ctx, 1, 2)
	assert.False(t, ok)
	assert.ErrorIs(t, err, boom)
}

func TestFriendshipRepository_TransitionStatus(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewFriendshipRepository(gdb)

	mock.ExpectExec("UPDATE `friendship` SET `status`=\\?,`updated_at`=\\? WHERE id = \\? AND status = \\?").
		WithArgs(model.FriendshipAccepted, sqlmock.AnyArg(), 3, model.FriendshipPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.TransitionStatus(ctx, 3, model.FriendshipPending, model.FriendshipAccepted)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_MarkReadOnlyUnreadForReceiver(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewMessageRepository(gdb)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectExec("UPDATE `direct_message` SET `read_at`=\\? WHERE id IN \\(\\?,\\?\\) AND receiver_id = \\? AND read_at IS NULL").
		WithArgs(at, 1, 2, 7).
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.MarkRead(ctx, 7, []uint{1, 2}, at)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_MarkReadEmpty(t *testing.T) {
	gdb, mock := newMockDB(t)
	n, err := NewMessageRepository(gdb).MarkRead(ctx, 7, nil, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMessageRepository_UnreadBySender(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewMessageRepository(gdb)

	mock.ExpectQuery("SELECT sender_id, COUNT\\(\\*\\) AS total FROM `direct_message`.*GROUP BY `sender_id`").
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"sender_id", "total"}).AddRow(1, 3).AddRow(4, 1))

	got, err := repo.UnreadBySender(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, map[uint]int64{1: 3, 4: 1}, got)
}

func TestMessageRepository_ThreadOrder(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewMessageRepository(gdb)

	mock.ExpectQuery("ORDER BY created_at ASC,id ASC").
		WithArgs(1, 2, 2, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "sender_id", "receiver_id", "content"}).
			AddRow(1, 1, 2, "hi").AddRow(2, 2, 1, "yo"))

	out, err := repo.Thread(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "yo", out[1].Content)
}

func TestCapsuleRepository_UpdateUnsealedRefusesSealed(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewCapsuleRepository(gdb)

	mock.ExpectExec("UPDATE `time_capsule` SET .* WHERE id = \\? AND user_id = \\? AND is_sealed = \\?").
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.UpdateUnsealed(ctx, 1, 2, map[string]interface{}{"title": "x"})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCapsuleRepository_ToggleFavoriteAndDelete(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewCapsuleRepository(gdb)

	mock.ExpectExec("UPDATE `time_capsule` SET `is_favorite`=NOT is_favorite").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM `time_capsule` WHERE id = \\? AND user_id = \\?").
		WithArgs(9, 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.ToggleFavorite(ctx, 1, 9))
	assert.ErrorIs(t, repo.Delete(ctx, 1, 9), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGamificationRepository_RecordParticipationTransaction(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewGamificationRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `olympiad_participation`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `profile` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	p := &model.OlympiadParticipation{ProfileID: 3, Title: "math", StagesCompleted: 2}
	require.NoError(t, repo.RecordParticipation(ctx, p, 20))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGamificationRepository_RecordParticipationRollsBack(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewGamificationRepository(gdb)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `olympiad_participation`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE `profile` SET").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.RecordParticipation(ctx, &model.OlympiadParticipation{ProfileID: 3, Title: "x"}, 0)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSettingsRepository_GetMissing(t *testing.T) {
	gdb, mock := newMockDB(t)
	mock.ExpectQuery("SELECT \\* FROM `admin_settings`").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := NewSettingsRepository(gdb).Get(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
