package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/dmitrijs2005/messenger/internal/server/auth"
	"github.com/dmitrijs2005/messenger/internal/server/config"
	"github.com/dmitrijs2005/messenger/internal/server/models"
	"github.com/stretchr/testify/require"
)

func newUserService(users *fakeUsersRepo, sessions *fakeSessionsRepo) (*UserService, *auth.MemoryWhitelist) {
	wl := auth.NewMemoryWhitelist()
	cfg := &config.Config{SecretKey: "k", AccessTokenFreshness: 15 * time.Minute}
	rm := &fakeRepoManager{users: users, sessions: sessions}
	sessionService := NewSessionService(nil, rm, wl, cfg)
	return NewUserService(nil, rm, sessionService), wl
}

func TestSignUp_Success(t *testing.T) {
	users := &fakeUsersRepo{
		create: func(ctx context.Context, u *models.User) (*models.User, error) {
			require.Equal(t, "alice", u.Login)
			require.NotEqual(t, "pw", u.SaltedPassword, "password must be stored salted")
			u.ID = "u1"
			return u, nil
		},
	}
	sessions, _ := statefulSessionsRepo()
	s, _ := newUserService(users, sessions)

	tokens, err := s.SignUp(context.Background(), "alice", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, tokens.RefreshToken)
	require.NotEmpty(t, tokens.AccessToken)
}

func TestSignUp_LoginTaken(t *testing.T) {
	users := &fakeUsersRepo{
		create: func(ctx context.Context, u *models.User) (*models.User, error) {
			return nil, common.ErrConflict
		},
	}
	s, _ := newUserService(users, &fakeSessionsRepo{})

	_, err := s.SignUp(context.Background(), "alice", "pw")
	require.ErrorIs(t, err, common.ErrConflict)
}

func TestSignUp_EmptyCredentials(t *testing.T) {
	s, _ := newUserService(&fakeUsersRepo{}, &fakeSessionsRepo{})

	_, err := s.SignUp(context.Background(), "", "pw")
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	_, err = s.SignUp(context.Background(), "alice", "")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestLogIn_UnknownLogin(t *testing.T) {
	users := &fakeUsersRepo{
		getByLogin: func(ctx context.Context, login string) (*models.User, error) {
			return nil, common.ErrNotFound
		},
	}
	s, _ := newUserService(users, &fakeSessionsRepo{})

	_, err := s.LogIn(context.Background(), "nobody", "pw")
	require.ErrorIs(t, err, common.ErrUnauthorized, "unknown login must be indistinguishable from a wrong password")
}

func TestLogIn_WrongPassword(t *testing.T) {
	hash, err := auth.SaltPassword("right")
	require.NoError(t, err)

	users := &fakeUsersRepo{
		getByLogin: func(ctx context.Context, login string) (*models.User, error) {
			return &models.User{ID: "u1", Login: login, SaltedPassword: hash}, nil
		},
	}
	s, _ := newUserService(users, &fakeSessionsRepo{})

	_, err = s.LogIn(context.Background(), "alice", "wrong")
	require.ErrorIs(t, err, common.ErrUnauthorized)
}

func TestLogIn_EvictsAtSessionCap(t *testing.T) {
	hash, err := auth.SaltPassword("pw")
	require.NoError(t, err)

	users := &fakeUsersRepo{
		getByLogin: func(ctx context.Context, login string) (*models.User, error) {
			return &models.User{ID: "u1", Login: login, SaltedPassword: hash}, nil
		},
	}

	base := time.Now()
	existing := []*models.Session{
		{ID: "s1", LastUsed: base.Add(-1 * time.Hour)},
		{ID: "s2", LastUsed: base.Add(-4 * time.Hour)},
		{ID: "s3", LastUsed: base.Add(-2 * time.Hour)},
		{ID: "s4", LastUsed: base.Add(-3 * time.Hour)},
		{ID: "s5", LastUsed: base},
	}
	sessions, deleted := statefulSessionsRepo()
	sessions.listByUser = func(ctx context.Context, userID string) ([]*models.Session, error) {
		return existing, nil
	}

	s, _ := newUserService(users, sessions)

	tokens, err := s.LogIn(context.Background(), "alice", "pw")
	require.NoError(t, err)
	require.NotEmpty(t, tokens.AccessToken)
	require.Equal(t, []string{"s2"}, *deleted, "the least-recently-used session is evicted before the new one opens")
}

func TestChangePassword(t *testing.T) {
	hash, err := auth.SaltPassword("old")
	require.NoError(t, err)

	var updatedHash string
	users := &fakeUsersRepo{
		getByID: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, SaltedPassword: hash}, nil
		},
		updatePassword: func(ctx context.Context, id, saltedPassword string) error {
			updatedHash = saltedPassword
			return nil
		},
	}
	s, _ := newUserService(users, &fakeSessionsRepo{})

	require.NoError(t, s.ChangePassword(context.Background(), "u1", "old", "new"))
	require.NoError(t, auth.VerifyPassword(updatedHash, "new"))

	err = s.ChangePassword(context.Background(), "u1", "wrong", "new")
	require.ErrorIs(t, err, common.ErrUnauthorized)

	err = s.ChangePassword(context.Background(), "u1", "old", "")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestDeleteAccount_RevokesAllSessions(t *testing.T) {
	hash, err := auth.SaltPassword("pw")
	require.NoError(t, err)

	var deletedUser string
	users := &fakeUsersRepo{
		getByID: func(ctx context.Context, id string) (*models.User, error) {
			return &models.User{ID: id, SaltedPassword: hash}, nil
		},
		deleteUser: func(ctx context.Context, id string) error {
			deletedUser = id
			return nil
		},
	}
	sessions := &fakeSessionsRepo{
		listByUser: func(ctx context.Context, userID string) ([]*models.Session, error) {
			return []*models.Session{{ID: "s1"}, {ID: "s2"}}, nil
		},
	}
	s, wl := newUserService(users, sessions)
	wl.Accept("s1")
	wl.Accept("s2")

	require.NoError(t, s.DeleteAccount(context.Background(), "u1", "pw"))
	require.Equal(t, "u1", deletedUser)
	require.False(t, wl.Check("s1"))
	require.False(t, wl.Check("s2"))
}
