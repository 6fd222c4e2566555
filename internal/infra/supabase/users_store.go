package supabase

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"github.com/google/uuid"
)

// ============================================================
// SettingsStore and UserStore
// ============================================================

const (
	tableSettings      = "user_settings"
	tableUsers         = "users"
	tableRefreshTokens = "refresh_tokens"
)

// --- Settings ---

func (c *Client) GetSettings(ctx context.Context, userID string) (*domain.UserSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSettings")
	defer span.End()

	return selectOne[domain.UserSettings](ctx, c, tableSettings, "settings", userID, owned(userID, ""))
}

func (c *Client) GetSettingsByChatID(ctx context.Context, chatID int64) (*domain.UserSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSettingsByChatID")
	defer span.End()

	id := strconv.FormatInt(chatID, 10)
	q := url.Values{}
	q.Set("telegram_chat_id", "eq."+id)
	return selectOne[domain.UserSettings](ctx, c, tableSettings, "settings", id, q)
}

// UpsertSettings inserts or merges on the user_id primary key.
func (c *Client) UpsertSettings(ctx context.Context, s *domain.UserSettings) (*domain.UserSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertSettings")
	defer span.End()

	row := map[string]any{
		"user_id":          s.UserID,
		"currency":         s.Currency,
		"language":         s.Language,
		"timezone":         s.Timezone,
		"telegram_chat_id": nil,
		"notify_enabled":   s.NotifyEnabled,
	}
	if s.TelegramChatID != 0 {
		row["telegram_chat_id"] = s.TelegramChatID
	}

	var out *domain.UserSettings
	err := c.call(ctx, "upsert_"+tableSettings, func(ctx context.Context) error {
		body, err := c.do(ctx, http.MethodPost, tableSettings+"?on_conflict=user_id", row,
			"resolution=merge-duplicates,"+returnRepresentation)
		if err != nil {
			return err
		}
		rows, err := decodeRows[domain.UserSettings](body, tableSettings)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			out = s
			return nil
		}
		out = &rows[0]
		return nil
	})
	return out, err
}

func (c *Client) ListNotifiable(ctx context.Context) ([]domain.UserSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListNotifiable")
	defer span.End()

	q := url.Values{}
	q.Set("telegram_chat_id", "not.is.null")
	q.Set("notify_enabled", "is.true")
	q.Set("order", "user_id.asc")
	return selectRows[domain.UserSettings](ctx, c, tableSettings, q)
}

// --- Users ---

// userRow carries the password hash, which domain.User never serializes.
type userRow struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{ID: r.ID, Email: r.Email, Name: r.Name, PasswordHash: r.PasswordHash, CreatedAt: r.CreatedAt}
}

func (c *Client) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUser")
	defer span.End()

	row := userRow{ID: uuid.NewString(), Email: u.Email, Name: u.Name, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	out, err := insertRow[userRow](ctx, c, tableUsers, row)
	if err != nil {
		return nil, err
	}
	return out.toDomain(), nil
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByEmail")
	defer span.End()

	q := url.Values{}
	q.Set("email", "eq."+email)
	row, err := selectOne[userRow](ctx, c, tableUsers, "user", email, q)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

func (c *Client) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByID")
	defer span.End()

	q := url.Values{}
	q.Set("id", "eq."+id)
	row, err := selectOne[userRow](ctx, c, tableUsers, "user", id, q)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// --- Refresh tokens ---

func (c *Client) StoreRefreshToken(ctx context.Context, userID, tokenHash string, expiresAt time.Time) error {
	ctx, span := tracer.Start(ctx, "Supabase.StoreRefreshToken")
	defer span.End()

	_, err := insertRow[domain.RefreshToken](ctx, c, tableRefreshTokens, domain.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt.UTC(),
	})
	return err
}

func (c *Client) GetRefreshToken(ctx context.Context, tokenHash string) (*domain.RefreshToken, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetRefreshToken")
	defer span.End()

	q := url.Values{}
	q.Set("token_hash", "eq."+tokenHash)
	return selectOne[domain.RefreshToken](ctx, c, tableRefreshTokens, "refresh_token", "", q)
}

func (c *Client) RevokeRefreshToken(ctx context.Context, tokenHash string) error {
	ctx, span := tracer.Start(ctx, "Supabase.RevokeRefreshToken")
	defer span.End()

	q := url.Values{}
	q.Set("token_hash", "eq."+tokenHash)
	_, err := updateRows[domain.RefreshToken](ctx, c, tableRefreshTokens, "refresh_token", "", q, map[string]any{"revoked": true})
	return err
}

