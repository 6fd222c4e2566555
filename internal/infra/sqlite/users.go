package sqlite

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"github.com/google/uuid"
)

// --- Settings ---

const settingsColumns = "user_id, currency, language, timezone, telegram_chat_id, notify_enabled"

func scanSettings(r rowScanner) (domain.UserSettings, error) {
	var (
		st     domain.UserSettings
		chatID sql.NullInt64
	)
	err := r.Scan(&st.UserID, &st.Currency, &st.Language, &st.Timezone, &chatID, &st.NotifyEnabled)
	st.TelegramChatID = chatID.Int64
	return st, err
}

func (s *Store) GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	return queryOne(ctx, s, "get settings", "settings", userID, scanSettings,
		"SELECT "+settingsColumns+" FROM user_settings WHERE user_id = ?", userID)
}

func (s *Store) GetSettingsByChatID(ctx context.Context, chatID int64) (*domain.UserSettings, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetSettingsByChatID")
	defer span.End()

	return queryOne(ctx, s, "get settings by chat", "settings", strconv.FormatInt(chatID, 10), scanSettings,
		"SELECT "+settingsColumns+" FROM user_settings WHERE telegram_chat_id = ?", chatID)
}

// UpsertSettings inserts or replaces the row for s.UserID. Linking a chat
// already linked to another user is *domain.ErrConflict.
func (s *Store) UpsertSettings(ctx context.Context, st *domain.UserSettings) (*domain.UserSettings, error) {
	ctx, span := tracer.Start(ctx, "SQLite.UpsertSettings")
	defer span.End()

	chatID := sql.NullInt64{Int64: st.TelegramChatID, Valid: st.TelegramChatID != 0}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO user_settings (`+settingsColumns+`) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			currency = excluded.currency,
			language = excluded.language,
			timezone = excluded.timezone,
			telegram_chat_id = excluded.telegram_chat_id,
			notify_enabled = excluded.notify_enabled`,
		st.UserID, st.Currency, st.Language, st.Timezone, chatID, st.NotifyEnabled)
	if err != nil {
		return nil, mapErr(err, "upsert settings", "telegram link", st.UserID)
	}
	return s.GetSettings(ctx, st.UserID)
}

func (s *Store) ListNotifiable(ctx context.Context) ([]domain.UserSettings, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListNotifiable")
	defer span.End()

	return queryAll(ctx, s, "list notifiable", "settings", scanSettings,
		`SELECT `+settingsColumns+` FROM user_settings
		WHERE telegram_chat_id IS NOT NULL AND notify_enabled = 1
		ORDER BY user_id`)
}

// --- Users ---

const userColumns = "id, email, name, password_hash, created_at"

func scanUser(r rowScanner) (domain.User, error) {
	var (
		u       domain.User
		created string
	)
	if err := r.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &created); err != nil {
		return u, err
	}
	var err error
	u.CreatedAt, err = parseTime(created)
	return u, err
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CreateUser")
	defer span.End()

	row := *u
	row.ID = uuid.NewString()
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, "INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?)",
		row.ID, row.Email, row.Name, row.PasswordHash, formatTime(row.CreatedAt))
	if err != nil {
		return nil, mapErr(err, "create user", "user", row.Email)
	}
	return &row, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return queryOne(ctx, s, "get user", "user", email, scanUser,
		"SELECT "+userColumns+" FROM users WHERE email = ?", email)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return queryOne(ctx, s, "get user", "user", id, scanUser,
		"SELECT "+userColumns+" FROM users WHERE id = ?", id)
}

// --- Refresh tokens ---

func (s *Store) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, revoked) VALUES (?, ?, ?, ?, 0)",
		uuid.NewString(), userID, tokenHash, formatTime(expiresAt))
	return mapErr(err, "store refresh token", "refresh_token", "")
}

func (s *Store) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	return queryOne(ctx, s, "get refresh token", "refresh_token", "", func(r rowScanner) (domain.RefreshToken, error) {
		var (
			t       domain.RefreshToken
			expires string
		)
		if err := r.Scan(&t.ID, &t.UserID, &t.TokenHash, &expires, &t.Revoked); err != nil {
			return t, err
		}
		var err error
		t.ExpiresAt, err = parseTime(expires)
		return t, err
	}, "SELECT id, user_id, token_hash, expires_at, revoked FROM refresh_tokens WHERE token_hash = ?", tokenHash)
}

func (s *Store) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	return s.execOwned(ctx, "revoke refresh token", "refresh_token", "",
		"UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?", tokenHash)
}
