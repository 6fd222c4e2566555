package service

import (
	"context"
	"strings"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"go.uber.org/zap"
)

// SettingsService manages per-user preferences and the Telegram link.
type SettingsService struct {
	store       port.SettingsStore
	defaultZone string
	logger      *zap.Logger
}

// NewSettingsService creates a new settings service. defaultZone is the
// IANA timezone used until a user picks one.
func NewSettingsService(store port.SettingsStore, defaultZone string, logger *zap.Logger) *SettingsService {
	return &SettingsService{store: store, defaultZone: defaultZone, logger: logger}
}

// Get returns the user's settings, or defaults when none are stored.
func (s *SettingsService) Get(ctx context.Context, userID string) (*domain.UserSettings, error) {
	ctx, span := tracer.Start(ctx, "SettingsService.Get")
	defer span.End()

	st, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return s.defaults(userID), nil
		}
		return nil, err
	}
	return st, nil
}

// Update replaces currency, language, timezone and notification choice.
// The Telegram link is kept; use LinkTelegram to change it.
func (s *SettingsService) Update(ctx context.Context, userID string, in *domain.UserSettings) (*domain.UserSettings, error) {
	ctx, span := tracer.Start(ctx, "SettingsService.Update")
	defer span.End()

	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.Currency != "" {
		current.Currency = strings.ToUpper(strings.TrimSpace(in.Currency))
	}
	if in.Language != "" {
		current.Language = domain.NormalizeLang(in.Language)
	}
	if in.Timezone != "" {
		if _, err := time.LoadLocation(in.Timezone); err != nil {
			return nil, &domain.ErrValidation{Field: "timezone", Message: "unknown timezone"}
		}
		current.Timezone = in.Timezone
	}
	current.NotifyEnabled = in.NotifyEnabled
	return s.store.UpsertSettings(ctx, current)
}

// LinkTelegram attaches a chat to the user and turns notifications on.
// A chat already linked to another user is a conflict.
func (s *SettingsService) LinkTelegram(ctx context.Context, userID string, chatID int64) (*domain.UserSettings, error) {
	ctx, span := tracer.Start(ctx, "SettingsService.LinkTelegram")
	defer span.End()

	if chatID == 0 {
		return nil, &domain.ErrValidation{Field: "telegram_chat_id", Message: "required"}
	}
	owner, err := s.store.GetSettingsByChatID(ctx, chatID)
	switch {
	case err == nil && owner.UserID != userID:
		return nil, &domain.ErrConflict{Message: "chat already linked to another account"}
	case err != nil && !isNotFound(err):
		return nil, err
	}

	current, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	current.TelegramChatID = chatID
	current.NotifyEnabled = true

	updated, err := s.store.UpsertSettings(ctx, current)
	if err != nil {
		return nil, err
	}
	s.logger.Info("telegram chat linked", zap.String("user_id", userID), zap.Int64("chat_id", chatID))
	return updated, nil
}

// ResolveChat maps a Telegram chat to its user.
func (s *SettingsService) ResolveChat(ctx context.Context, chatID int64) (*domain.UserSettings, error) {
	ctx, span := tracer.Start(ctx, "SettingsService.ResolveChat")
	defer span.End()

	return s.store.GetSettingsByChatID(ctx, chatID)
}

// Location returns the user's timezone, falling back to the default.
func (s *SettingsService) Location(ctx context.Context, userID string) *time.Location {
	def := s.defaultLocation()
	st, err := s.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("settings lookup failed, using default timezone", zap.String("user_id", userID), zap.Error(err))
		return def
	}
	return st.Location(def)
}

func (s *SettingsService) defaults(userID string) *domain.UserSettings {
	return &domain.UserSettings{
		UserID:   userID,
		Currency: "IDR",
		Language: domain.LangIndonesian,
		Timezone: s.defaultZone,
	}
}

func (s *SettingsService) defaultLocation() *time.Location {
	if loc, err := time.LoadLocation(s.defaultZone); err == nil && s.defaultZone != "" {
		return loc
	}
	return time.UTC
}
