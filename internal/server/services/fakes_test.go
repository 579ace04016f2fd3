package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/messenger/internal/dbx"
	"github.com/dmitrijs2005/messenger/internal/logging"
	"github.com/dmitrijs2005/messenger/internal/server/models"
	messagesrepo "github.com/dmitrijs2005/messenger/internal/server/repositories/messages"
	messengersrepo "github.com/dmitrijs2005/messenger/internal/server/repositories/messengers"
	readrecordsrepo "github.com/dmitrijs2005/messenger/internal/server/repositories/readrecords"
	sessionsrepo "github.com/dmitrijs2005/messenger/internal/server/repositories/sessions"
	usersrepo "github.com/dmitrijs2005/messenger/internal/server/repositories/users"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

type noopLogger struct{}

func (noopLogger) Debug(context.Context, string, ...any) {}
func (noopLogger) Info(context.Context, string, ...any)  {}
func (noopLogger) Warn(context.Context, string, ...any)  {}
func (noopLogger) Error(context.Context, string, ...any) {}
func (l noopLogger) With(...any) logging.Logger          { return l }

// --- fake repositories (function fields; tests set what they need) ---

type fakeUsersRepo struct {
	create         func(ctx context.Context, u *models.User) (*models.User, error)
	getByLogin     func(ctx context.Context, login string) (*models.User, error)
	getByID        func(ctx context.Context, id string) (*models.User, error)
	updatePassword func(ctx context.Context, id, saltedPassword string) error
	deleteUser     func(ctx context.Context, id string) error
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return f.create(ctx, u)
}
func (f *fakeUsersRepo) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return f.getByLogin(ctx, login)
}
func (f *fakeUsersRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return f.getByID(ctx, id)
}
func (f *fakeUsersRepo) UpdatePassword(ctx context.Context, id, saltedPassword string) error {
	return f.updatePassword(ctx, id, saltedPassword)
}
func (f *fakeUsersRepo) Delete(ctx context.Context, id string) error {
	return f.deleteUser(ctx, id)
}

type fakeSessionsRepo struct {
	create             func(ctx context.Context, s *models.Session) (*models.Session, error)
	listByUser         func(ctx context.Context, userID string) ([]*models.Session, error)
	findByRefreshToken func(ctx context.Context, token string) (*models.Session, error)
	touch              func(ctx context.Context, id string) error
	deleteSession      func(ctx context.Context, id string) error
	deleteAllExcept    func(ctx context.Context, userID, keepID string) error
}

func (f *fakeSessionsRepo) Create(ctx context.Context, s *models.Session) (*models.Session, error) {
	return f.create(ctx, s)
}
func (f *fakeSessionsRepo) ListByUser(ctx context.Context, userID string) ([]*models.Session, error) {
	return f.listByUser(ctx, userID)
}
func (f *fakeSessionsRepo) FindByRefreshToken(ctx context.Context, token string) (*models.Session, error) {
	return f.findByRefreshToken(ctx, token)
}
func (f *fakeSessionsRepo) Touch(ctx context.Context, id string) error {
	return f.touch(ctx, id)
}
func (f *fakeSessionsRepo) Delete(ctx context.Context, id string) error {
	return f.deleteSession(ctx, id)
}
func (f *fakeSessionsRepo) DeleteAllExcept(ctx context.Context, userID, keepID string) error {
	return f.deleteAllExcept(ctx, userID, keepID)
}

type fakeMessengersRepo struct {
	create           func(ctx context.Context, m *models.Messenger) (*models.Messenger, error)
	getForMember     func(ctx context.Context, messengerID, userID string) (*models.Messenger, error)
	listByMember     func(ctx context.Context, userID string) ([]*models.Messenger, error)
	isMember         func(ctx context.Context, messengerID, userID string) (bool, error)
	addMember        func(ctx context.Context, messengerID, userID string) error
	removeMember     func(ctx context.Context, messengerID, userID string) error
	memberIDs        func(ctx context.Context, messengerID string) ([]string, error)
	setPinnedMessage func(ctx context.Context, messengerID string, messageID *string) error
	deleteMessenger  func(ctx context.Context, messengerID string) error
}

func (f *fakeMessengersRepo) Create(ctx context.Context, m *models.Messenger) (*models.Messenger, error) {
	return f.create(ctx, m)
}
func (f *fakeMessengersRepo) GetForMember(ctx context.Context, messengerID, userID string) (*models.Messenger, error) {
	return f.getForMember(ctx, messengerID, userID)
}
func (f *fakeMessengersRepo) ListByMember(ctx context.Context, userID string) ([]*models.Messenger, error) {
	return f.listByMember(ctx, userID)
}
func (f *fakeMessengersRepo) IsMember(ctx context.Context, messengerID, userID string) (bool, error) {
	return f.isMember(ctx, messengerID, userID)
}
func (f *fakeMessengersRepo) AddMember(ctx context.Context, messengerID, userID string) error {
	return f.addMember(ctx, messengerID, userID)
}
func (f *fakeMessengersRepo) RemoveMember(ctx context.Context, messengerID, userID string) error {
	return f.removeMember(ctx, messengerID, userID)
}
func (f *fakeMessengersRepo) MemberIDs(ctx context.Context, messengerID string) ([]string, error) {
	return f.memberIDs(ctx, messengerID)
}
func (f *fakeMessengersRepo) SetPinnedMessage(ctx context.Context, messengerID string, messageID *string) error {
	return f.setPinnedMessage(ctx, messengerID, messageID)
}
func (f *fakeMessengersRepo) Delete(ctx context.Context, messengerID string) error {
	return f.deleteMessenger(ctx, messengerID)
}

type fakeMessagesRepo struct {
	create             func(ctx context.Context, m *models.Message) (*models.Message, error)
	getInMessenger     func(ctx context.Context, id, messengerID string) (*models.Message, error)
	updateTextBySender func(ctx context.Context, id, senderID, text string) (*models.Message, error)
	deleteBySender     func(ctx context.Context, id, senderID string) (string, error)
	listBefore         func(ctx context.Context, messengerID string, ts time.Time, limit int) ([]*models.Message, error)
	listAfter          func(ctx context.Context, messengerID string, ts time.Time, limit int) ([]*models.Message, error)
	countAfter         func(ctx context.Context, messengerID string, ts *time.Time) (int64, error)
}

func (f *fakeMessagesRepo) Create(ctx context.Context, m *models.Message) (*models.Message, error) {
	return f.create(ctx, m)
}
func (f *fakeMessagesRepo) GetInMessenger(ctx context.Context, id, messengerID string) (*models.Message, error) {
	return f.getInMessenger(ctx, id, messengerID)
}
func (f *fakeMessagesRepo) UpdateTextBySender(ctx context.Context, id, senderID, text string) (*models.Message, error) {
	return f.updateTextBySender(ctx, id, senderID, text)
}
func (f *fakeMessagesRepo) DeleteBySender(ctx context.Context, id, senderID string) (string, error) {
	return f.deleteBySender(ctx, id, senderID)
}
func (f *fakeMessagesRepo) ListBefore(ctx context.Context, messengerID string, ts time.Time, limit int) ([]*models.Message, error) {
	return f.listBefore(ctx, messengerID, ts, limit)
}
func (f *fakeMessagesRepo) ListAfter(ctx context.Context, messengerID string, ts time.Time, limit int) ([]*models.Message, error) {
	return f.listAfter(ctx, messengerID, ts, limit)
}
func (f *fakeMessagesRepo) CountAfter(ctx context.Context, messengerID string, ts *time.Time) (int64, error) {
	return f.countAfter(ctx, messengerID, ts)
}

type fakeReadRecordsRepo struct {
	upsert func(ctx context.Context, userID, messengerID string, readAt time.Time) error
	get    func(ctx context.Context, userID, messengerID string) (*models.ReadRecord, error)
}

func (f *fakeReadRecordsRepo) Upsert(ctx context.Context, userID, messengerID string, readAt time.Time) error {
	return f.upsert(ctx, userID, messengerID, readAt)
}
func (f *fakeReadRecordsRepo) Get(ctx context.Context, userID, messengerID string) (*models.ReadRecord, error) {
	return f.get(ctx, userID, messengerID)
}

type fakeRepoManager struct {
	users       *fakeUsersRepo
	sessions    *fakeSessionsRepo
	messengers  *fakeMessengersRepo
	messages    *fakeMessagesRepo
	readRecords *fakeReadRecordsRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository      { return m.users }
func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository {
	return m.sessions
}
func (m *fakeRepoManager) Messengers(db dbx.DBTX) messengersrepo.Repository {
	return m.messengers
}
func (m *fakeRepoManager) Messages(db dbx.DBTX) messagesrepo.Repository {
	return m.messages
}
func (m *fakeRepoManager) ReadRecords(db dbx.DBTX) readrecordsrepo.Repository {
	return m.readRecords
}
