package memstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsers_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.Users().Create(ctx, &models.User{Email: "A@B.com", Name: "Ann", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", u.Email)
	assert.True(t, u.IsActive)

	_, err = s.Users().Create(ctx, &models.User{Email: "a@b.com", Name: "Bob"})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)

	byEmail, err := s.Users().FindByEmail(ctx, "a@B.COM")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)

	// returned records are copies
	byEmail.Name = "changed"
	byID, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", byID.Name)
}

func TestUsers_LastLoginAndDeactivate(t *testing.T) {
	ctx := context.Background()
	s := New()

	u, err := s.Users().Create(ctx, &models.User{Email: "a@b.com", Name: "Ann"})
	require.NoError(t, err)

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.Users().UpdateLastLogin(ctx, u.ID, at))
	got, err := s.Users().FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	assert.Equal(t, at, *got.LastLoginAt)

	require.NoError(t, s.Users().Deactivate(ctx, u.ID))
	_, err = s.Users().FindByID(ctx, u.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, err = s.Users().FindByEmail(ctx, "a@b.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.ErrorIs(t, s.Users().UpdateLastLogin(ctx, u.ID, at), common.ErrorNotFound)
}

func TestChats_OrderingAndSoftDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	a, err := s.Chats().Create(ctx, &models.Chat{UserID: "u1", Title: "a"})
	require.NoError(t, err)
	b, err := s.Chats().Create(ctx, &models.Chat{UserID: "u1", Title: "b"})
	require.NoError(t, err)
	_, err = s.Chats().Create(ctx, &models.Chat{UserID: "u2", Title: "other"})
	require.NoError(t, err)

	list, err := s.Chats().FindByUserID(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)

	// touching a moves it to the front
	updated, err := s.Chats().Update(ctx, a.ID, models.ChatPatch{})
	require.NoError(t, err)
	assert.True(t, updated.UpdatedAt.After(a.UpdatedAt))
	list, _ = s.Chats().FindByUserID(ctx, "u1")
	assert.Equal(t, a.ID, list[0].ID)

	require.NoError(t, s.Chats().Delete(ctx, a.ID))
	_, err = s.Chats().FindByID(ctx, a.ID)
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.ErrorIs(t, s.Chats().Delete(ctx, a.ID), common.ErrorNotFound)
	list, _ = s.Chats().FindByUserID(ctx, "u1")
	assert.Len(t, list, 1)
}

func TestMessages_HistoryAndOrder(t *testing.T) {
	ctx := context.Background()
	s := New()

	first, err := s.Messages().Create(ctx, &models.Message{ChatID: "c1", Role: models.RoleUser, Content: "v1"})
	require.NoError(t, err)
	_, err = s.Messages().Create(ctx, &models.Message{ChatID: "c1", Role: models.RoleAssistant, Content: "reply"})
	require.NoError(t, err)

	v2 := "v2"
	m, err := s.Messages().Update(ctx, first.ID, models.MessagePatch{Content: &v2})
	require.NoError(t, err)
	assert.Equal(t, []string{"v1"}, m.EditHistory)

	list, err := s.Messages().FindByChatID(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, "v2", list[0].Content)

	require.NoError(t, s.Messages().Delete(ctx, first.ID))
	list, _ = s.Messages().FindByChatID(ctx, "c1")
	assert.Len(t, list, 1)
	_, err = s.Messages().Update(ctx, first.ID, models.MessagePatch{Content: &v2})
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestAtomic_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()

	chat, err := s.Chats().Create(ctx, &models.Chat{UserID: "u1", Title: "t"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.Atomic(ctx, func(ctx context.Context, tx *Tx) error {
		if _, err := tx.Messages().Create(ctx, &models.Message{ChatID: chat.ID, Role: models.RoleAssistant, Content: "x"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	list, _ := s.Messages().FindByChatID(ctx, chat.ID)
	assert.Empty(t, list)
}

func TestAtomic_Commits(t *testing.T) {
	ctx := context.Background()
	s := New()

	chat, err := s.Chats().Create(ctx, &models.Chat{UserID: "u1", Title: "t"})
	require.NoError(t, err)

	err = s.Atomic(ctx, func(ctx context.Context, tx *Tx) error {
		if _, err := tx.Messages().Create(ctx, &models.Message{ChatID: chat.ID, Role: models.RoleAssistant, Content: "x"}); err != nil {
			return err
		}
		_, err := tx.Chats().Update(ctx, chat.ID, models.ChatPatch{})
		return err
	})
	require.NoError(t, err)

	list, _ := s.Messages().FindByChatID(ctx, chat.ID)
	assert.Len(t, list, 1)
	got, _ := s.Chats().FindByID(ctx, chat.ID)
	assert.True(t, got.UpdatedAt.After(chat.UpdatedAt))
}

func TestConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Messages().Create(ctx, &models.Message{ChatID: "c1", Role: models.RoleUser, Content: "x"})
			_, _ = s.Messages().FindByChatID(ctx, "c1")
		}()
	}
	wg.Wait()

	list, _ := s.Messages().FindByChatID(ctx, "c1")
	assert.Len(t, list, 50)
}

func TestOpen_PersistsAndReloads(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "db.json")

	s, err := Open(path)
	require.NoError(t, err)

	u, err := s.Users().Create(ctx, &models.User{Email: "a@b.com", Name: "Ann", PasswordHash: "h"})
	require.NoError(t, err)
	chat, err := s.Chats().Create(ctx, &models.Chat{UserID: u.ID, Title: "t"})
	require.NoError(t, err)
	msg, err := s.Messages().Create(ctx, &models.Message{ChatID: chat.ID, Role: models.RoleUser, Content: "v1"})
	require.NoError(t, err)
	v2 := "v2"
	_, err = s.Messages().Update(ctx, msg.ID, models.MessagePatch{Content: &v2})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	gotUser, err := reopened.Users().FindByEmail(ctx, "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, gotUser.ID)
	assert.True(t, u.CreatedAt.Equal(gotUser.CreatedAt))

	gotChat, err := reopened.Chats().FindByID(ctx, chat.ID)
	require.NoError(t, err)
	assert.True(t, chat.UpdatedAt.Equal(gotChat.UpdatedAt))

	gotMsg, err := reopened.Messages().FindByID(ctx, msg.ID)
	require.NoError(t, err)
	assert.Equal(t, "v2", gotMsg.Content)
	assert.Equal(t, []string{"v1"}, gotMsg.EditHistory)
}

func TestOpen_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(path)
	require.Error(t, err)
}

func TestOpen_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	list, _ := s.Chats().FindByUserID(context.Background(), "u1")
	assert.Empty(t, list)
}

func TestOpen_SecondOwnerRefused(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db.json")

	owner, err := Open(path)
	require.NoError(t, err)
	u, err := owner.Users().Create(ctx, &models.User{Email: "a@b.com", Name: "Ann", PasswordHash: "h"})
	require.NoError(t, err)

	_, err = Open(path)
	require.ErrorIs(t, err, ErrStoreInUse)

	// once the owner is gone the file can be changed and the change sticks
	require.NoError(t, owner.Close())
	other, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, other.Users().Deactivate(ctx, u.ID))
	require.NoError(t, other.Close())

	restarted, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = restarted.Close() })
	_, err = restarted.Users().FindByEmail(ctx, "a@b.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestOpen_CorruptFileReleasesLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := Open(path)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrStoreInUse)

	_, err = Open(path)
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrStoreInUse)
}
