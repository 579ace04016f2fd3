package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/messenger/internal/common"
	"github.com/dmitrijs2005/messenger/internal/server/repositories/repomanager"
)

// ReadRecordService maintains per-(user, messenger) last-read marks and
// derives unread counts from them.
type ReadRecordService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	access      *AccessService
}

// NewReadRecordService constructs a ReadRecordService.
func NewReadRecordService(db *sql.DB, m repomanager.RepositoryManager, access *AccessService) *ReadRecordService {
	return &ReadRecordService{db: db, repomanager: m, access: access}
}

// MarkRead upserts the caller's last-read mark for the messenger to now.
func (s *ReadRecordService) MarkRead(ctx context.Context, callerID, messengerID string) error {
	if _, err := s.access.RequireMember(ctx, messengerID, callerID); err != nil {
		return err
	}
	repo := s.repomanager.ReadRecords(s.db)
	return repo.Upsert(ctx, callerID, messengerID, time.Now())
}

// LastRead returns the caller's last-read timestamp for the messenger, or
// nil when the caller has never marked it as read.
func (s *ReadRecordService) LastRead(ctx context.Context, callerID, messengerID string) (*time.Time, error) {
	if _, err := s.access.RequireMember(ctx, messengerID, callerID); err != nil {
		return nil, err
	}
	repo := s.repomanager.ReadRecords(s.db)
	rec, err := repo.Get(ctx, callerID, messengerID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec.ReadAt, nil
}

// UnreadCount counts messages created after the caller's last-read mark,
// or every message of the messenger when no mark exists.
func (s *ReadRecordService) UnreadCount(ctx context.Context, callerID, messengerID string) (int64, error) {
	lastRead, err := s.LastRead(ctx, callerID, messengerID)
	if err != nil {
		return 0, err
	}
	repo := s.repomanager.Messages(s.db)
	return repo.CountAfter(ctx, messengerID, lastRead)
}
