// Package chatdb reads Messages history from the local chat.db SQLite file.
// Reading it requires Full Disk Access for the host process.
package chatdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/starford/applebridge/internal/apperr"
	"github.com/starford/applebridge/internal/models"
)

// cocoaEpochOffset is the number of seconds between 1970-01-01 and 2001-01-01.
const cocoaEpochOffset = 978307200

// DefaultPath returns ~/Library/Messages/chat.db.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, "Library", "Messages", "chat.db")
}

// Store is a read-only view of chat.db.
type Store struct {
	conn *sql.DB
}

// Open opens path read-only and verifies it can be queried.
func Open(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		if isFDAError(err) {
			return nil, fmt.Errorf("%w: chat.db requires Full Disk Access", apperr.ErrAccessDenied)
		}
		return nil, fmt.Errorf("chatdb: stat %s: %w", path, err)
	}
	conn, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("chatdb: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		if isFDAError(err) {
			return nil, fmt.Errorf("%w: chat.db requires Full Disk Access", apperr.ErrAccessDenied)
		}
		return nil, fmt.Errorf("chatdb: ping: %w", err)
	}
	return &Store{conn: conn}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Conversations returns chats ordered by their most recent message.
func (s *Store) Conversations(ctx context.Context, limit int) ([]models.Conversation, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT
			c.chat_identifier,
			COALESCE(c.display_name, ''),
			COALESCE(MAX(m.date), 0) AS last_date,
			COUNT(m.ROWID)
		FROM chat c
		LEFT JOIN chat_message_join cmj ON cmj.chat_id = c.ROWID
		LEFT JOIN message m ON m.ROWID = cmj.message_id
		GROUP BY c.ROWID
		ORDER BY last_date DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, wrapQueryErr("list conversations", err)
	}
	defer rows.Close()

	var out []models.Conversation
	for rows.Next() {
		var (
			c        models.Conversation
			lastDate int64
		)
		if err := rows.Scan(&c.ChatID, &c.DisplayName, &lastDate, &c.MessageCount); err != nil {
			return nil, fmt.Errorf("chatdb: scan conversation: %w", err)
		}
		if lastDate > 0 {
			c.LastMessage = cocoaToTime(lastDate)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Search returns messages whose text contains query, newest first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]models.Message, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT
			m.is_from_me,
			COALESCE(m.text, ''),
			m.date,
			COALESCE(h.id, ''),
			c.chat_identifier
		FROM message m
		JOIN chat_message_join cmj ON cmj.message_id = m.ROWID
		JOIN chat c ON c.ROWID = cmj.chat_id
		LEFT JOIN handle h ON h.ROWID = m.handle_id
		WHERE m.text LIKE ? ESCAPE '\'
		ORDER BY m.date DESC
		LIMIT ?
	`, "%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, wrapQueryErr("search messages", err)
	}
	defer rows.Close()

	var out []models.Message
	for rows.Next() {
		var (
			m      models.Message
			fromMe int
			date   int64
		)
		if err := rows.Scan(&fromMe, &m.Content, &date, &m.Sender, &m.ChatID); err != nil {
			return nil, fmt.Errorf("chatdb: scan message: %w", err)
		}
		m.FromMe = fromMe == 1
		if m.FromMe {
			m.Sender = "Me"
		}
		m.Sent = cocoaToTime(date)
		m.Time = m.Sent.Format("Jan 2, 2006 3:04 PM")
		out = append(out, m)
	}
	return out, rows.Err()
}

// cocoaToTime converts a Core Data timestamp in nanoseconds since 2001-01-01.
func cocoaToTime(nanos int64) time.Time {
	return time.Unix(nanos/1e9+cocoaEpochOffset, 0)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func wrapQueryErr(op string, err error) error {
	if isFDAError(err) {
		return fmt.Errorf("%w: chat.db requires Full Disk Access", apperr.ErrAccessDenied)
	}
	return fmt.Errorf("chatdb: %s: %w", op, err)
}

// isFDAError reports whether err looks like a Full Disk Access denial.
func isFDAError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrPermission) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"operation not permitted", "authorization denied", "unable to open database file", "cantopen"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
