package memory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shophub/supportflow/internal/db"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// Store persists conversation threads and their messages. Isolation is
// per-threadId; independent conversations never share mutable state.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// NewThreadID generates a fresh thread identifier.
func NewThreadID() string {
	return uuid.New().String()
}

// GetOrCreateThread returns the thread with the given ID, creating it
// with empty history if it does not exist. Idempotent: an existing
// thread is returned unchanged.
func (s *Store) GetOrCreateThread(ctx context.Context, threadID, userID, sessionID string) (*Thread, error) {
	thread, err := s.GetThread(ctx, threadID)
	if err == nil {
		return thread, nil
	}
	if !errors.Is(err, ErrThreadNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_threads (thread_id, user_id, session_id, last_activity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		threadID, nullable(userID), nullable(sessionID),
		now.Format(sqliteTimeLayout), now.Format(sqliteTimeLayout), now.Format(sqliteTimeLayout))
	if err != nil {
		return nil, fmt.Errorf("inserting thread: %w", err)
	}

	return s.GetThread(ctx, threadID)
}

// GetThread fetches a thread with all of its messages. Returns
// ErrThreadNotFound if the thread does not exist.
func (s *Store) GetThread(ctx context.Context, threadID string) (*Thread, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT thread_id, user_id, session_id, first_message, last_activity,
		       message_count, sentiment, escalated, escalation_reason, created_at, updated_at
		FROM chat_threads WHERE thread_id = ?`, threadID)

	thread, err := scanThread(row)
	if err != nil {
		return nil, err
	}

	messages, err := s.threadMessages(ctx, threadID)
	if err != nil {
		return nil, err
	}
	thread.Messages = messages
	return thread, nil
}

// AddMessage appends a message to an existing thread and updates the
// thread's summary metadata. firstMessage is set exactly once, on the
// first user-role message; lastActivity and messageCount advance on
// every append.
func (s *Store) AddMessage(ctx context.Context, threadID string, role Role, content string, toolsUsed []ToolInvocation, sources []SourceRef) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var firstMessage sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT first_message FROM chat_threads WHERE thread_id = ?`, threadID).Scan(&firstMessage)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("thread %s: %w", threadID, ErrThreadNotFound)
	}
	if err != nil {
		return fmt.Errorf("checking thread: %w", err)
	}

	toolsJSON, err := json.Marshal(orEmptyTools(toolsUsed))
	if err != nil {
		return fmt.Errorf("marshalling tools: %w", err)
	}
	sourcesJSON, err := json.Marshal(orEmptySources(sources))
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_messages (id, thread_id, role, content, tools_used, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), threadID, string(role), content,
		string(toolsJSON), string(sourcesJSON), now.Format(sqliteTimeLayout)); err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	update := `UPDATE chat_threads SET
		message_count = message_count + 1,
		last_activity = ?,
		updated_at = ?`
	args := []any{now.Format(sqliteTimeLayout), now.Format(sqliteTimeLayout)}

	if !firstMessage.Valid && role == RoleUser {
		update += `, first_message = ?`
		args = append(args, content)
	}
	update += ` WHERE thread_id = ?`
	args = append(args, threadID)

	if _, err := tx.ExecContext(ctx, update, args...); err != nil {
		return fmt.Errorf("updating thread metadata: %w", err)
	}

	return tx.Commit()
}

// GetHistory returns the most recent limit messages in model-consumable
// form. Unknown threads yield an empty history, not an error: absence of
// history is normal for new threads.
func (s *Store) GetHistory(ctx context.Context, threadID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT role, content FROM (
			SELECT role, content, created_at, rowid FROM chat_messages
			WHERE thread_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		) ORDER BY created_at ASC, rowid ASC`, threadID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var history []HistoryEntry
	for rows.Next() {
		var role, content string
		if err := rows.Scan(&role, &content); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		// The model interface only distinguishes assistant turns from
		// everything else.
		if role != string(RoleAssistant) {
			role = string(RoleUser)
		}
		history = append(history, HistoryEntry{Role: role, Content: content})
	}
	return history, rows.Err()
}

// UserThreads returns a user's threads ordered by most recent activity.
func (s *Store) UserThreads(ctx context.Context, userID string, limit int) ([]Thread, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT thread_id, user_id, session_id, first_message, last_activity,
		       message_count, sentiment, escalated, escalation_reason, created_at, updated_at
		FROM chat_threads
		WHERE user_id = ?
		ORDER BY last_activity DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying user threads: %w", err)
	}
	defer rows.Close()

	var threads []Thread
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, err
		}
		threads = append(threads, *t)
	}
	return threads, rows.Err()
}

// UpdateSentiment sets the thread's summary sentiment.
func (s *Store) UpdateSentiment(ctx context.Context, threadID string, sentiment Sentiment) error {
	return s.updateThread(ctx, threadID,
		`UPDATE chat_threads SET sentiment = ?, updated_at = ? WHERE thread_id = ?`,
		string(sentiment))
}

// EscalateThread marks the thread as escalated with the given reason.
// Idempotent: re-escalating overwrites the reason.
func (s *Store) EscalateThread(ctx context.Context, threadID, reason string) error {
	return s.updateThread(ctx, threadID,
		`UPDATE chat_threads SET escalated = 1, escalation_reason = ?, updated_at = ? WHERE thread_id = ?`,
		reason)
}

func (s *Store) updateThread(ctx context.Context, threadID, query string, value string) error {
	now := time.Now().UTC().Format(sqliteTimeLayout)
	res, err := s.db.ExecContext(ctx, query, value, now, threadID)
	if err != nil {
		return fmt.Errorf("updating thread: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("thread %s: %w", threadID, ErrThreadNotFound)
	}
	return nil
}

// GenerateBriefing derives the human-handoff summary for a thread.
func (s *Store) GenerateBriefing(ctx context.Context, threadID string) (*Briefing, error) {
	thread, err := s.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}

	var recentUser []string
	toolSet := map[string]bool{}
	var toolNames []string
	for _, msg := range thread.Messages {
		if msg.Role == RoleUser {
			recentUser = append(recentUser, msg.Content)
		}
		for _, inv := range msg.ToolsUsed {
			if !toolSet[inv.Tool] {
				toolSet[inv.Tool] = true
				toolNames = append(toolNames, inv.Tool)
			}
		}
	}
	if len(recentUser) > 3 {
		recentUser = recentUser[len(recentUser)-3:]
	}

	summary := fmt.Sprintf("Customer initiated conversation %d messages ago. Current sentiment: %s.",
		thread.Metadata.MessageCount, thread.Metadata.Sentiment)
	if len(toolNames) > 0 {
		summary += " AI attempted actions: " + strings.Join(toolNames, ", ")
	} else {
		summary += " No automated actions taken."
	}

	return &Briefing{
		ThreadID:         thread.ThreadID,
		UserID:           thread.UserID,
		Duration:         fmt.Sprintf("%d minutes", int(time.Since(thread.CreatedAt).Minutes())),
		MessageCount:     thread.Metadata.MessageCount,
		Sentiment:        string(thread.Metadata.Sentiment),
		FirstMessage:     thread.Metadata.FirstMessage,
		RecentMessages:   recentUser,
		ToolsUsed:        toolNames,
		EscalationReason: thread.Metadata.EscalationReason,
		Summary:          summary,
	}, nil
}

// CleanupOlderThan deletes threads whose last activity is older than the
// given age. Intended for a periodic maintenance sweep outside the live
// request path.
func (s *Store) CleanupOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM chat_threads WHERE last_activity < ?`, cutoff.Format(sqliteTimeLayout))
	if err != nil {
		return 0, fmt.Errorf("cleaning up threads: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) threadMessages(ctx context.Context, threadID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, tools_used, sources, created_at
		FROM chat_messages
		WHERE thread_id = ?
		ORDER BY created_at ASC, rowid ASC`, threadID)
	if err != nil {
		return nil, fmt.Errorf("querying messages: %w", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var (
			m           Message
			role        string
			toolsJSON   string
			sourcesJSON string
			createdAt   string
		)
		if err := rows.Scan(&m.ID, &role, &m.Content, &toolsJSON, &sourcesJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning message: %w", err)
		}
		m.Role = Role(role)
		if err := json.Unmarshal([]byte(toolsJSON), &m.ToolsUsed); err != nil {
			return nil, fmt.Errorf("unmarshalling tools for message %s: %w", m.ID, err)
		}
		if err := json.Unmarshal([]byte(sourcesJSON), &m.Sources); err != nil {
			return nil, fmt.Errorf("unmarshalling sources for message %s: %w", m.ID, err)
		}
		if t, err := time.Parse(sqliteTimeLayout, createdAt); err == nil {
			m.Timestamp = t
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanThread(row rowScanner) (*Thread, error) {
	var (
		t                Thread
		userID           sql.NullString
		sessionID        sql.NullString
		firstMessage     sql.NullString
		escalationReason sql.NullString
		sentiment        string
		escalated        int
		lastActivity     string
		createdAt        string
		updatedAt        string
	)
	err := row.Scan(&t.ThreadID, &userID, &sessionID, &firstMessage, &lastActivity,
		&t.Metadata.MessageCount, &sentiment, &escalated, &escalationReason, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("thread: %w", ErrThreadNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning thread: %w", err)
	}

	t.UserID = userID.String
	t.SessionID = sessionID.String
	t.Metadata.FirstMessage = firstMessage.String
	t.Metadata.Sentiment = Sentiment(sentiment)
	t.Metadata.Escalated = escalated != 0
	t.Metadata.EscalationReason = escalationReason.String
	if ts, err := time.Parse(sqliteTimeLayout, lastActivity); err == nil {
		t.Metadata.LastActivity = ts
	}
	if ts, err := time.Parse(sqliteTimeLayout, createdAt); err == nil {
		t.CreatedAt = ts
	}
	if ts, err := time.Parse(sqliteTimeLayout, updatedAt); err == nil {
		t.UpdatedAt = ts
	}
	return &t, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func orEmptyTools(t []ToolInvocation) []ToolInvocation {
	if t == nil {
		return []ToolInvocation{}
	}
	return t
}

func orEmptySources(s []SourceRef) []SourceRef {
	if s == nil {
		return []SourceRef{}
	}
	return s
}
