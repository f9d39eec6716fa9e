package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ecostore/apiserver/types"
)

// ObjectWriter stores JSON documents. *storage.Storage satisfies it.
type ObjectWriter interface {
	PutJSON(ctx context.Context, key string, value any) error
}

// UserExport is the document written by ExportService. Password hashes are
// never part of it since types.User does not serialize them.
type UserExport struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	Count       int          `json:"count"`
	Users       []types.User `json:"users"`
}

// ExportService snapshots the user table into object storage.
type ExportService struct {
	users  UserRepository
	writer ObjectWriter
	now    func() time.Time
}

// NewExportService returns nil when writer is nil, meaning exports are not
// available.
func NewExportService(users UserRepository, writer ObjectWriter) *ExportService {
	if writer == nil {
		return nil
	}
	return &ExportService{users: users, writer: writer, now: time.Now}
}

// ExportUsers writes every user to exports/users-<timestamp>.json and returns
// the object key.
func (s *ExportService) ExportUsers(ctx context.Context) (string, error) {
	if s == nil {
		return "", ErrExportUnavailable
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return "", fmt.Errorf("list users: %w", err)
	}
	if users == nil {
		users = []types.User{}
	}

	now := s.now().UTC()
	key := fmt.Sprintf("exports/users-%s.json", now.Format("20060102T150405Z"))
	doc := UserExport{GeneratedAt: now, Count: len(users), Users: users}
	if err := s.writer.PutJSON(ctx, key, doc); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	return key, nil
}
