package transcript

import (
	"context"
	"database/sql"
	"time"
)

// SQLiteService persists transcript records. The messages table is created by
// the migration runner in pkg/migration; Put relies on the primary key over
// (thread_id, id) for idempotent replace.
type SQLiteService struct {
	db *sql.DB
}

func NewSQLiteService(db *sql.DB) *SQLiteService {
	return &SQLiteService{db: db}
}

func (s *SQLiteService) Put(ctx context.Context, msg RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages(id, thread_id, kind, content, metadata, created_at, sequence)
		 VALUES(?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(thread_id, id) DO UPDATE SET
		   kind=excluded.kind,
		   content=excluded.content,
		   metadata=excluded.metadata,
		   created_at=excluded.created_at,
		   sequence=excluded.sequence`,
		msg.ID, msg.ThreadID, string(msg.Kind), msg.ContentText, msg.MetadataText,
		msg.CreatedAt.UnixMilli(), msg.Sequence)
	return err
}

func (s *SQLiteService) List(ctx context.Context, threadID string) ([]RawMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, content, metadata, created_at, sequence
		 FROM messages WHERE thread_id = ?
		 ORDER BY created_at, sequence`,
		threadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []RawMessage
	for rows.Next() {
		var (
			id, kind, content, metadata string
			createdAt, sequence         int64
		)
		if err := rows.Scan(&id, &kind, &content, &metadata, &createdAt, &sequence); err != nil {
			return nil, err
		}
		msgs = append(msgs, RawMessage{
			ID:           id,
			ThreadID:     threadID,
			Kind:         Kind(kind),
			ContentText:  content,
			MetadataText: metadata,
			CreatedAt:    time.UnixMilli(createdAt).UTC(),
			Sequence:     sequence,
		})
	}
	return msgs, rows.Err()
}

func (s *SQLiteService) DeleteThread(ctx context.Context, threadID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE thread_id = ?`, threadID)
	return err
}
