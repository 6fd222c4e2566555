package service

import (
	"context"
	"strings"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/infra/observability"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const draftKeyPrefix = "draft:"

// DraftCache holds drafts until they are confirmed or expire. Take must
// remove and return an entry atomically.
type DraftCache interface {
	port.Cache[domain.Draft]
	Take(key string) (domain.Draft, bool)
}

// IngestService turns receipts, voice notes and chat text into drafts
// and saves a draft as a transaction once the user confirms it.
type IngestService struct {
	extractor   port.Extractor
	categorizer *CategorizationService
	txns        *TransactionService
	drafts      DraftCache
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewIngestService creates the ingest service. extractor may be nil, in
// which case only text entries can be read.
func NewIngestService(
	extractor port.Extractor,
	categorizer *CategorizationService,
	txns *TransactionService,
	drafts DraftCache,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		extractor:   extractor,
		categorizer: categorizer,
		txns:        txns,
		drafts:      drafts,
		metrics:     metrics,
		logger:      logger,
	}
}

// ExtractFromImage reads a receipt photo.
func (s *IngestService) ExtractFromImage(ctx context.Context, userID string, media domain.Media) (*domain.Draft, error) {
	ctx, span := tracer.Start(ctx, "IngestService.ExtractFromImage")
	defer span.End()

	media.Kind = domain.MediaImage
	if len(media.Data) == 0 {
		return nil, &domain.ErrValidation{Field: "file", Message: "empty image"}
	}
	ext, err := s.extract(ctx, media)
	if err != nil {
		return nil, err
	}
	return s.newDraft(ctx, userID, domain.SourceOCR, ext)
}

// ExtractFromAudio transcribes a voice note and reads the transcript.
func (s *IngestService) ExtractFromAudio(ctx context.Context, userID string, media domain.Media) (*domain.Draft, error) {
	ctx, span := tracer.Start(ctx, "IngestService.ExtractFromAudio")
	defer span.End()

	media.Kind = domain.MediaAudio
	if len(media.Data) == 0 {
		return nil, &domain.ErrValidation{Field: "file", Message: "empty audio"}
	}
	ext, err := s.extract(ctx, media)
	if err != nil {
		return nil, err
	}
	return s.newDraft(ctx, userID, domain.SourceVoice, ext)
}

// ExtractFromText reads free text such as "kopi 25rb". The extractor is
// tried first; when it is missing or fails the local quick-entry parser
// takes over.
func (s *IngestService) ExtractFromText(ctx context.Context, userID, text, source string) (*domain.Draft, error) {
	ctx, span := tracer.Start(ctx, "IngestService.ExtractFromText")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &domain.ErrValidation{Field: "text", Message: "required"}
	}
	if source == "" {
		source = domain.SourceManual
	}

	var ext *domain.Extraction
	if s.extractor != nil {
		got, err := s.extractor.Extract(ctx, domain.Media{Kind: domain.MediaText, Text: text})
		if err != nil {
			s.logger.Warn("text extraction failed, using quick-entry parser", zap.String("user_id", userID), zap.Error(err))
			s.metrics.IncrExternalError("ai")
		} else if got != nil && got.Amount != 0 {
			ext = got
		}
	}
	if ext == nil {
		parsed, err := ParseQuickEntry(text)
		if err != nil {
			return nil, err
		}
		ext = parsed
	}
	return s.newDraft(ctx, userID, source, ext)
}

// GetDraft returns a pending draft owned by userID.
func (s *IngestService) GetDraft(ctx context.Context, userID, id string) (*domain.Draft, error) {
	_, span := tracer.Start(ctx, "IngestService.GetDraft")
	defer span.End()

	d, ok := s.drafts.Get(draftKeyPrefix + id)
	if !ok || d.UserID != userID {
		s.metrics.IncrCacheMiss("drafts")
		return nil, &domain.ErrNotFound{Resource: "draft", ID: id}
	}
	s.metrics.IncrCacheHit("drafts")
	return &d, nil
}

// DiscardDraft drops a pending draft.
func (s *IngestService) DiscardDraft(ctx context.Context, userID, id string) error {
	if _, err := s.GetDraft(ctx, userID, id); err != nil {
		return err
	}
	s.drafts.Delete(draftKeyPrefix + id)
	return nil
}

// ConfirmDraft applies the user's corrections and saves the draft as a
// verified transaction. A draft can be confirmed once; if saving fails
// it is put back so the user can retry.
func (s *IngestService) ConfirmDraft(ctx context.Context, userID, id string, req *domain.ConfirmDraftRequest) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "IngestService.ConfirmDraft")
	defer span.End()
	span.SetAttributes(attribute.String("draft.id", id))

	d, err := s.GetDraft(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		req = &domain.ConfirmDraftRequest{}
	}
	in := draftInput(d, req)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	taken, ok := s.drafts.Take(draftKeyPrefix + id)
	if !ok || taken.UserID != userID {
		return nil, &domain.ErrNotFound{Resource: "draft", ID: id}
	}

	tx, err := s.txns.Create(ctx, userID, in)
	if err != nil {
		s.drafts.Set(draftKeyPrefix+id, taken)
		return nil, err
	}
	s.logger.Info("draft confirmed",
		zap.String("user_id", userID),
		zap.String("draft_id", id),
		zap.String("transaction_id", tx.ID),
	)
	return tx, nil
}

func (s *IngestService) extract(ctx context.Context, media domain.Media) (*domain.Extraction, error) {
	if s.extractor == nil {
		return nil, &domain.ErrExternalService{Service: "ai", Err: errExtractorDisabled}
	}
	ext, err := s.extractor.Extract(ctx, media)
	if err != nil {
		s.logger.Warn("media extraction failed", zap.String("kind", string(media.Kind)), zap.Error(err))
		s.metrics.IncrExternalError("ai")
		if isTyped(err) {
			return nil, err
		}
		return nil, &domain.ErrExternalService{Service: "ai", Err: err}
	}
	if ext == nil {
		ext = &domain.Extraction{}
	}
	return ext, nil
}

func (s *IngestService) newDraft(ctx context.Context, userID, source string, ext *domain.Extraction) (*domain.Draft, error) {
	if ext.Type == "" {
		ext.Type = domain.TxExpense
	}
	if ext.Amount < 0 {
		ext.Amount = -ext.Amount
	}

	d := domain.Draft{
		ID:         uuid.NewString(),
		UserID:     userID,
		Source:     source,
		Extraction: *ext,
		CreatedAt:  time.Now().UTC(),
	}
	if s.categorizer != nil && (ext.MerchantName != "" || ext.Description != "") {
		id, sug, err := s.categorizer.Resolve(ctx, userID, ext.Type, ext.MerchantName, ext.Description)
		if err != nil {
			s.logger.Warn("draft categorization failed", zap.String("user_id", userID), zap.Error(err))
		} else {
			d.CategoryID, d.Suggestion = id, sug
		}
	}

	s.drafts.Set(draftKeyPrefix+d.ID, d)
	return &d, nil
}

func draftInput(d *domain.Draft, req *domain.ConfirmDraftRequest) *domain.TransactionInput {
	verified := true
	in := &domain.TransactionInput{
		Amount:        d.Extraction.Amount,
		Description:   d.Extraction.Description,
		MerchantName:  d.Extraction.MerchantName,
		CategoryID:    d.CategoryID,
		Type:          d.Extraction.Type,
		PaymentMethod: req.PaymentMethod,
		OccurredAt:    d.Extraction.Date,
		Verified:      &verified,
		Source:        d.Source,
	}
	if req.Amount != nil {
		in.Amount = *req.Amount
	}
	if req.MerchantName != nil {
		in.MerchantName = *req.MerchantName
	}
	if req.Description != nil {
		in.Description = *req.Description
	}
	if req.CategoryID != nil {
		in.CategoryID = *req.CategoryID
	}
	if req.Type != "" {
		in.Type = req.Type
	}
	if req.OccurredAt != nil {
		in.OccurredAt = req.OccurredAt
	}
	return in
}
