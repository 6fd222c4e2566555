package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/analytics"
	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"go.uber.org/zap"
)

// ChatResolver maps a chat to the linked account.
type ChatResolver interface {
	ResolveChat(ctx context.Context, chatID int64) (*domain.UserSettings, error)
}

// Ingestor creates and settles drafts.
type Ingestor interface {
	ExtractFromText(ctx context.Context, userID, text, source string) (*domain.Draft, error)
	ExtractFromImage(ctx context.Context, userID string, media domain.Media) (*domain.Draft, error)
	ExtractFromAudio(ctx context.Context, userID string, media domain.Media) (*domain.Draft, error)
	ConfirmDraft(ctx context.Context, userID, id string, req *domain.ConfirmDraftRequest) (*domain.Transaction, error)
	DiscardDraft(ctx context.Context, userID, id string) error
}

// Reporter produces the summaries sent on request.
type Reporter interface {
	Insights(ctx context.Context, userID string, year, month int) (*domain.InsightsResponse, error)
	Recurring(ctx context.Context, userID string, months int) (*domain.RecurringReport, error)
}

// Reply is what the bot answers. A non-empty DraftID gets confirm and
// discard buttons.
type Reply struct {
	Text    string
	DraftID string
	Lang    string
}

// Flows holds the chat conversations independent of the bot transport.
type Flows struct {
	resolver ChatResolver
	ingest   Ingestor
	reports  Reporter
	loc      *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewFlows creates the chat flows. loc decides which month /summary
// reports on.
func NewFlows(resolver ChatResolver, ingest Ingestor, reports Reporter, loc *time.Location, logger *zap.Logger) *Flows {
	if loc == nil {
		loc = time.UTC
	}
	return &Flows{resolver: resolver, ingest: ingest, reports: reports, loc: loc, now: time.Now, logger: logger}
}

type botPhrases struct {
	welcome       string
	notLinked     string
	draftTitle    string
	amount        string
	merchant      string
	category      string
	date          string
	noAmount      string
	saved         string
	discarded     string
	expired       string
	failed        string
	unreadable    string
	aiUnavailable string
	confirm       string
	discard       string
}

var botDictionary = map[string]botPhrases{
	domain.LangIndonesian: {
		welcome:       "Halo! Chat ID kamu: <code>%d</code>\nMasukkan ID ini di pengaturan Monev untuk menghubungkan akun.\nContoh catatan cepat: <code>kopi 25rb</code>",
		notLinked:     "Chat ini belum terhubung ke akun Monev. Kirim /link untuk melihat Chat ID kamu.",
		draftTitle:    "Cek dulu sebelum disimpan",
		amount:        "Jumlah",
		merchant:      "Merchant",
		category:      "Kategori",
		date:          "Tanggal",
		noAmount:      "Jumlahnya belum terbaca. Coba tulis misalnya <code>makan siang 35rb</code>.",
		saved:         "✅ Tersimpan: %s",
		discarded:     "Dibatalkan.",
		expired:       "Draft sudah kedaluwarsa. Kirim ulang transaksinya.",
		failed:        "Maaf, terjadi kesalahan. Coba lagi sebentar lagi.",
		unreadable:    "Maaf, transaksinya tidak terbaca: %s",
		aiUnavailable: "Pembacaan struk dan pesan suara sedang tidak tersedia.",
		confirm:       "✅ Simpan",
		discard:       "✖ Batal",
	},
	domain.LangEnglish: {
		welcome:       "Hi! Your chat ID is <code>%d</code>\nEnter it in your Monev settings to link this chat.\nQuick entry example: <code>coffee 25k</code>",
		notLinked:     "This chat is not linked to a Monev account yet. Send /link to see your chat ID.",
		draftTitle:    "Check before saving",
		amount:        "Amount",
		merchant:      "Merchant",
		category:      "Category",
		date:          "Date",
		noAmount:      "I could not read an amount. Try something like <code>lunch 35k</code>.",
		saved:         "✅ Saved: %s",
		discarded:     "Discarded.",
		expired:       "This draft has expired. Please send the transaction again.",
		failed:        "Sorry, something went wrong. Please try again shortly.",
		unreadable:    "Sorry, I could not read that: %s",
		aiUnavailable: "Receipt and voice reading is unavailable right now.",
		confirm:       "✅ Save",
		discard:       "✖ Discard",
	},
}

func phrasesFor(lang string) botPhrases {
	return botDictionary[domain.NormalizeLang(lang)]
}

// Start answers /start and /link with the chat id to enter in the app.
func (f *Flows) Start(ctx context.Context, chatID int64) Reply {
	lang := domain.LangIndonesian
	if st, err := f.resolver.ResolveChat(ctx, chatID); err == nil {
		lang = st.Language
	}
	return Reply{Text: fmt.Sprintf(phrasesFor(lang).welcome, chatID)}
}

// QuickEntry turns a chat message into a draft.
func (f *Flows) QuickEntry(ctx context.Context, chatID int64, text string) Reply {
	return f.withUser(ctx, chatID, func(st *domain.UserSettings, p botPhrases) Reply {
		d, err := f.ingest.ExtractFromText(ctx, st.UserID, text, domain.SourceTelegram)
		if err != nil {
			return f.failure(p, "quick entry", chatID, err)
		}
		return draftReply(d, p, st.Language)
	})
}

// Media turns a photo or voice note into a draft.
func (f *Flows) Media(ctx context.Context, chatID int64, media domain.Media) Reply {
	return f.withUser(ctx, chatID, func(st *domain.UserSettings, p botPhrases) Reply {
		var (
			d   *domain.Draft
			err error
		)
		if media.Kind == domain.MediaAudio {
			d, err = f.ingest.ExtractFromAudio(ctx, st.UserID, media)
		} else {
			d, err = f.ingest.ExtractFromImage(ctx, st.UserID, media)
		}
		if err != nil {
			return f.failure(p, "media entry", chatID, err)
		}
		return draftReply(d, p, st.Language)
	})
}

// Confirm saves a draft.
func (f *Flows) Confirm(ctx context.Context, chatID int64, draftID string) Reply {
	return f.withUser(ctx, chatID, func(st *domain.UserSettings, p botPhrases) Reply {
		tx, err := f.ingest.ConfirmDraft(ctx, st.UserID, draftID, nil)
		if err != nil {
			return f.failure(p, "confirm draft", chatID, err)
		}
		label := tx.MerchantName
		if label == "" {
			label = tx.Description
		}
		return Reply{Text: fmt.Sprintf(p.saved, html.EscapeString(label)+" "+domain.FormatRupiah(tx.AbsAmount(), st.Language))}
	})
}

// Discard drops a draft.
func (f *Flows) Discard(ctx context.Context, chatID int64, draftID string) Reply {
	return f.withUser(ctx, chatID, func(st *domain.UserSettings, p botPhrases) Reply {
		if err := f.ingest.DiscardDraft(ctx, st.UserID, draftID); err != nil {
			return f.failure(p, "discard draft", chatID, err)
		}
		return Reply{Text: p.discarded}
	})
}

// Summary reports the current month.
func (f *Flows) Summary(ctx context.Context, chatID int64) Reply {
	return f.withUser(ctx, chatID, func(st *domain.UserSettings, p botPhrases) Reply {
		now := f.now().In(st.Location(f.loc))
		resp, err := f.reports.Insights(ctx, st.UserID, now.Year(), int(now.Month()))
		if err != nil {
			return f.failure(p, "summary", chatID, err)
		}
		return Reply{Text: analytics.RenderText(resp.Blocks)}
	})
}

// Subscriptions lists detected recurring charges.
func (f *Flows) Subscriptions(ctx context.Context, chatID int64) Reply {
	return f.withUser(ctx, chatID, func(st *domain.UserSettings, p botPhrases) Reply {
		rr, err := f.reports.Recurring(ctx, st.UserID, 0)
		if err != nil {
			return f.failure(p, "subscriptions", chatID, err)
		}
		return Reply{Text: analytics.RenderText([]domain.InsightBlock{analytics.RecurringBlock(rr.Charges, st.Language)})}
	})
}

func (f *Flows) withUser(ctx context.Context, chatID int64, fn func(*domain.UserSettings, botPhrases) Reply) Reply {
	st, err := f.resolver.ResolveChat(ctx, chatID)
	if err != nil {
		var nf *domain.ErrNotFound
		if errors.As(err, &nf) {
			return Reply{Text: phrasesFor("").notLinked}
		}
		return f.failure(phrasesFor(""), "resolve chat", chatID, err)
	}
	return fn(st, phrasesFor(st.Language))
}

func (f *Flows) failure(p botPhrases, op string, chatID int64, err error) Reply {
	var (
		nf  *domain.ErrNotFound
		val *domain.ErrValidation
		ext *domain.ErrExternalService
	)
	switch {
	case errors.As(err, &nf):
		return Reply{Text: p.expired}
	case errors.As(err, &val):
		return Reply{Text: fmt.Sprintf(p.unreadable, html.EscapeString(val.Message))}
	case errors.As(err, &ext):
		f.logger.Warn("telegram: collaborator failed", zap.String("op", op), zap.Int64("chat_id", chatID), zap.Error(err))
		return Reply{Text: p.aiUnavailable}
	}
	f.logger.Error("telegram: flow failed", zap.String("op", op), zap.Int64("chat_id", chatID), zap.Error(err))
	return Reply{Text: p.failed}
}

func draftReply(d *domain.Draft, p botPhrases, lang string) Reply {
	ext := d.Extraction
	if ext.Amount == 0 {
		return Reply{Text: p.noAmount}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🧾 <b>%s</b>\n", p.draftTitle)
	fmt.Fprintf(&sb, "%s: %s\n", p.amount, domain.FormatRupiah(ext.Amount, lang))
	if name := strings.TrimSpace(ext.MerchantName + " " + ext.Description); name != "" {
		fmt.Fprintf(&sb, "%s: %s\n", p.merchant, html.EscapeString(name))
	}
	if d.Suggestion.Category != "" {
		fmt.Fprintf(&sb, "%s: %s\n", p.category, html.EscapeString(d.Suggestion.Category))
	}
	if ext.Date != nil {
		fmt.Fprintf(&sb, "%s: %s\n", p.date, ext.Date.Format("2006-01-02"))
	}
	if ext.Transcript != "" {
		fmt.Fprintf(&sb, "<i>%s</i>\n", html.EscapeString(ext.Transcript))
	}
	return Reply{Text: strings.TrimRight(sb.String(), "\n"), DraftID: d.ID, Lang: lang}
}
