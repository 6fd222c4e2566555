package telegram

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// maxMediaBytes caps downloaded photos and voice notes.
const maxMediaBytes = 10 << 20

// Callback button identifiers.
const (
	uniqueConfirm = "draft_confirm"
	uniqueDiscard = "draft_discard"
)

// Bot connects the chat flows to Telegram via long polling.
type Bot struct {
	bot     *tele.Bot
	flows   *Flows
	timeout time.Duration
	logger  *zap.Logger
}

// NewTeleBot creates the underlying telebot client. It is shared with
// the Notifier so both use one token and HTTP client.
func NewTeleBot(token string, pollTimeout time.Duration) (*tele.Bot, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return b, nil
}

// NewBot registers the handlers. timeout bounds each handled update.
func NewBot(b *tele.Bot, flows *Flows, timeout time.Duration, logger *zap.Logger) *Bot {
	bot := &Bot{bot: b, flows: flows, timeout: timeout, logger: logger}
	bot.register()
	return bot
}

// Start polls until Stop is called. It blocks.
func (b *Bot) Start() {
	b.logger.Info("telegram bot polling", zap.String("username", b.bot.Me.Username))
	b.bot.Start()
}

// Stop ends polling.
func (b *Bot) Stop() {
	b.bot.Stop()
}

func (b *Bot) register() {
	b.bot.Handle("/start", b.wrap(func(ctx context.Context, c tele.Context) Reply {
		return b.flows.Start(ctx, c.Chat().ID)
	}))
	b.bot.Handle("/link", b.wrap(func(ctx context.Context, c tele.Context) Reply {
		return b.flows.Start(ctx, c.Chat().ID)
	}))
	b.bot.Handle("/summary", b.wrap(func(ctx context.Context, c tele.Context) Reply {
		return b.flows.Summary(ctx, c.Chat().ID)
	}))
	b.bot.Handle("/subscriptions", b.wrap(func(ctx context.Context, c tele.Context) Reply {
		return b.flows.Subscriptions(ctx, c.Chat().ID)
	}))
	b.bot.Handle(tele.OnText, b.wrap(func(ctx context.Context, c tele.Context) Reply {
		return b.flows.QuickEntry(ctx, c.Chat().ID, c.Text())
	}))
	b.bot.Handle(tele.OnPhoto, b.wrap(func(ctx context.Context, c tele.Context) Reply {
		photo := c.Message().Photo
		data, err := b.download(&photo.File)
		if err != nil {
			return b.downloadFailed(c, err)
		}
		return b.flows.Media(ctx, c.Chat().ID, domain.Media{Kind: domain.MediaImage, MimeType: "image/jpeg", Data: data})
	}))
	b.bot.Handle(tele.OnVoice, b.wrap(func(ctx context.Context, c tele.Context) Reply {
		voice := c.Message().Voice
		data, err := b.download(&voice.File)
		if err != nil {
			return b.downloadFailed(c, err)
		}
		return b.flows.Media(ctx, c.Chat().ID, domain.Media{Kind: domain.MediaAudio, MimeType: voice.MIME, Filename: "voice.ogg", Data: data})
	}))

	b.bot.Handle(&tele.Btn{Unique: uniqueConfirm}, b.callback(func(ctx context.Context, c tele.Context) Reply {
		return b.flows.Confirm(ctx, c.Chat().ID, c.Data())
	}))
	b.bot.Handle(&tele.Btn{Unique: uniqueDiscard}, b.callback(func(ctx context.Context, c tele.Context) Reply {
		return b.flows.Discard(ctx, c.Chat().ID, c.Data())
	}))
}

// wrap runs a flow under a deadline and sends its reply.
func (b *Bot) wrap(fn func(ctx context.Context, c tele.Context) Reply) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		r := fn(ctx, c)
		if r.DraftID == "" {
			return c.Send(r.Text, tele.ModeHTML)
		}
		return c.Send(r.Text, tele.ModeHTML, draftMarkup(r))
	}
}

// callback answers a button press by editing the draft message in place.
func (b *Bot) callback(fn func(ctx context.Context, c tele.Context) Reply) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()

		r := fn(ctx, c)
		if err := c.Respond(); err != nil {
			b.logger.Debug("telegram: callback ack failed", zap.Error(err))
		}
		return c.Edit(r.Text, tele.ModeHTML)
	}
}

func (b *Bot) download(f *tele.File) ([]byte, error) {
	if f.FileSize > maxMediaBytes {
		return nil, &domain.ErrValidation{Field: "file", Message: "file too large"}
	}
	rc, err := b.bot.File(f)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxMediaBytes))
}

func (b *Bot) downloadFailed(c tele.Context, err error) Reply {
	b.logger.Warn("telegram: media download failed", zap.Int64("chat_id", c.Chat().ID), zap.Error(err))
	return b.flows.failure(phrasesFor(""), "download", c.Chat().ID, err)
}

func draftMarkup(r Reply) *tele.ReplyMarkup {
	p := phrasesFor(r.Lang)
	m := &tele.ReplyMarkup{}
	m.Inline(m.Row(
		m.Data(p.confirm, uniqueConfirm, r.DraftID),
		m.Data(p.discard, uniqueDiscard, r.DraftID),
	))
	return m
}
