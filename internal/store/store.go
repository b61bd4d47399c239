package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/myta-ai/myta/config"
	"github.com/myta-ai/myta/internal/agent/core"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Store wraps the Postgres connection used for users, user context,
// chat history and channel summaries.
type Store struct {
	db *sql.DB
}

// New opens and pings the database.
func New(ctx context.Context, cfg config.PostgresConfig) (*Store, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// User is an account row.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// CreateUser inserts a new account and returns its id.
func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash) VALUES ($1, $2, $3)`,
		id, email, passwordHash)
	if err != nil {
		return "", fmt.Errorf("inserting user: %w", err)
	}
	return id, nil
}

// GetUserByEmail fetches an account by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("querying user: %w", err)
	}
	return u, nil
}

// GetUserContext loads the user's channel_info and performance blobs as
// the map shape the orchestration core consumes. Implements
// core.UserContextStore.
func (s *Store) GetUserContext(ctx context.Context, userID string) (map[string]interface{}, error) {
	var channelInfo, performance []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT channel_info, performance FROM user_contexts WHERE user_id = $1`,
		userID).Scan(&channelInfo, &performance)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user context: %w", err)
	}

	out := make(map[string]interface{}, 2)
	if len(channelInfo) > 0 {
		var m map[string]interface{}
		if err := json.Unmarshal(channelInfo, &m); err != nil {
			return nil, fmt.Errorf("decoding channel_info: %w", err)
		}
		out["channel_info"] = m
	}
	if len(performance) > 0 {
		var m map[string]interface{}
		if err := json.Unmarshal(performance, &m); err != nil {
			return nil, fmt.Errorf("decoding performance: %w", err)
		}
		out["performance"] = m
	}
	return out, nil
}

// UpsertUserContext replaces the stored context blobs for a user.
func (s *Store) UpsertUserContext(ctx context.Context, userID string, channelInfo, performance map[string]interface{}) error {
	ci, err := json.Marshal(channelInfo)
	if err != nil {
		return fmt.Errorf("encoding channel_info: %w", err)
	}
	perf, err := json.Marshal(performance)
	if err != nil {
		return fmt.Errorf("encoding performance: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO user_contexts (user_id, channel_info, performance, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET channel_info = EXCLUDED.channel_info,
		    performance = EXCLUDED.performance,
		    updated_at = NOW()`,
		userID, ci, perf)
	if err != nil {
		return fmt.Errorf("upserting user context: %w", err)
	}
	return nil
}

// ChatRecord is one persisted chat turn.
type ChatRecord struct {
	ID         string
	UserID     string
	Message    string
	Response   string
	Intent     string
	AgentsUsed []string
	Cached     bool
	CreatedAt  time.Time
}

// SaveChatTurn persists a completed turn for the dashboard history.
func (s *Store) SaveChatTurn(ctx context.Context, userID, message string, result core.ChatTurnResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_turns (id, user_id, message, response, intent, agents_used, cached)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.RequestID, userID, message, result.Response,
		string(result.Intent), pq.Array(result.AgentsUsed), result.Cached)
	if err != nil {
		return fmt.Errorf("inserting chat turn: %w", err)
	}
	return nil
}

// GetChatHistory returns the user's most recent turns, newest first.
func (s *Store) GetChatHistory(ctx context.Context, userID string, limit int) ([]ChatRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, response, intent, agents_used, cached, created_at
		FROM chat_turns WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chat history: %w", err)
	}
	defer rows.Close()

	var records []ChatRecord
	for rows.Next() {
		var r ChatRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.Message, &r.Response, &r.Intent,
			pq.Array(&r.AgentsUsed), &r.Cached, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat turn: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// UpsertChannelSummary caches a fetched channel summary.
func (s *Store) UpsertChannelSummary(ctx context.Context, summary core.ChannelSummary) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO channel_summaries (channel_id, title, niche, subscriber_count, video_count, total_views, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (channel_id) DO UPDATE
		SET title = EXCLUDED.title,
		    niche = EXCLUDED.niche,
		    subscriber_count = EXCLUDED.subscriber_count,
		    video_count = EXCLUDED.video_count,
		    total_views = EXCLUDED.total_views,
		    fetched_at = EXCLUDED.fetched_at`,
		summary.ChannelID, summary.Title, summary.Niche,
		summary.SubscriberCount, summary.VideoCount, summary.TotalViews, summary.FetchedAt)
	if err != nil {
		return fmt.Errorf("upserting channel summary: %w", err)
	}
	return nil
}

// StaleChannels lists channel ids whose summaries are older than maxAge.
func (s *Store) StaleChannels(ctx context.Context, maxAge time.Duration) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT channel_id FROM channel_summaries WHERE fetched_at < $1`,
		time.Now().Add(-maxAge))
	if err != nil {
		return nil, fmt.Errorf("querying stale channels: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning channel id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
