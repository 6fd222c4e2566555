package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/port"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"go.uber.org/zap"
)

func newIngest(svc *services, ex *mockExtractor) *service.IngestService {
	var extractor port.Extractor
	if ex != nil {
		extractor = ex
	}
	return service.NewIngestService(extractor, svc.categorize, svc.txns, svc.drafts, svc.metrics, zap.NewNop())
}

func TestExtractFromText_FallsBackToQuickEntry(t *testing.T) {
	svc := newServices(nil, nil)
	ingest := newIngest(svc, &mockExtractor{err: errors.New("rate limited")})

	d, err := ingest.ExtractFromText(context.Background(), "u1", "kopi 25rb", domain.SourceTelegram)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Extraction.Amount != 25000 || d.Extraction.Type != domain.TxExpense {
		t.Errorf("unexpected extraction: %+v", d.Extraction)
	}
	if d.Source != domain.SourceTelegram || d.CategoryID == "" {
		t.Errorf("expected telegram draft with a category, got %+v", d)
	}
	if svc.drafts.Len() != 1 {
		t.Errorf("expected draft cached, got %d entries", svc.drafts.Len())
	}
}

func TestExtractFromText_NoAmount(t *testing.T) {
	svc := newServices(nil, nil)
	ingest := newIngest(svc, nil)

	_, err := ingest.ExtractFromText(context.Background(), "u1", "beli kopi", "")
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestExtractFromImage(t *testing.T) {
	svc := newServices(nil, nil)
	ex := &mockExtractor{extraction: &domain.Extraction{Amount: 87500, MerchantName: "Indomaret"}}
	ingest := newIngest(svc, ex)

	d, err := ingest.ExtractFromImage(context.Background(), "u1", domain.Media{MimeType: "image/jpeg", Data: []byte{0xff, 0xd8}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ex.lastKind != domain.MediaImage {
		t.Errorf("expected image media, got %s", ex.lastKind)
	}
	if d.Source != domain.SourceOCR || d.Extraction.MerchantName != "Indomaret" {
		t.Errorf("unexpected draft: %+v", d)
	}
}

func TestExtractFromImage_ExtractorFailure(t *testing.T) {
	svc := newServices(nil, nil)
	ingest := newIngest(svc, &mockExtractor{err: errors.New("bad gateway")})

	_, err := ingest.ExtractFromImage(context.Background(), "u1", domain.Media{Data: []byte{1}})
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Errorf("expected external service error, got %v", err)
	}

	noAI := newIngest(svc, nil)
	_, err = noAI.ExtractFromAudio(context.Background(), "u1", domain.Media{Data: []byte{1}})
	if !errors.As(err, &ext) {
		t.Errorf("expected external service error without extractor, got %v", err)
	}
}

func TestConfirmDraft_OnceOnly(t *testing.T) {
	svc := newServices(nil, nil)
	ingest := newIngest(svc, nil)
	ctx := context.Background()

	d, err := ingest.ExtractFromText(ctx, "u1", "parkir 5rb", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	amount := int64(7000)
	tx, err := ingest.ConfirmDraft(ctx, "u1", d.ID, &domain.ConfirmDraftRequest{Amount: &amount})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Amount != -7000 || !tx.Verified {
		t.Errorf("expected corrected verified expense, got %+v", tx)
	}

	_, err = ingest.ConfirmDraft(ctx, "u1", d.ID, nil)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("a draft can be confirmed once, got %v", err)
	}
}

func TestConfirmDraft_OtherUser(t *testing.T) {
	svc := newServices(nil, nil)
	ingest := newIngest(svc, nil)
	ctx := context.Background()

	d, err := ingest.ExtractFromText(ctx, "u1", "bensin 50rb", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = ingest.ConfirmDraft(ctx, "u2", d.ID, nil)
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Errorf("expected not found for another user, got %v", err)
	}
	if _, err := ingest.GetDraft(ctx, "u1", d.ID); err != nil {
		t.Errorf("owner's draft must survive, got %v", err)
	}
}

func TestConfirmDraft_InvalidCorrectionKeepsDraft(t *testing.T) {
	svc := newServices(nil, nil)
	ingest := newIngest(svc, nil)
	ctx := context.Background()

	d, err := ingest.ExtractFromText(ctx, "u1", "makan 30rb", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	zero := int64(0)
	_, err = ingest.ConfirmDraft(ctx, "u1", d.ID, &domain.ConfirmDraftRequest{Amount: &zero})
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := ingest.ConfirmDraft(ctx, "u1", d.ID, nil); err != nil {
		t.Errorf("draft must still be confirmable, got %v", err)
	}
}

func TestDraftCacheHitRate(t *testing.T) {
	svc := newServices(nil, nil)
	ingest := newIngest(svc, nil)
	ctx := context.Background()

	d, _ := ingest.ExtractFromText(ctx, "u1", "kopi 20rb", "")
	ingest.GetDraft(ctx, "u1", d.ID)
	ingest.GetDraft(ctx, "u1", "missing")

	if got := svc.metrics.UsageSnapshot().DraftCacheHitRate; got != 0.5 {
		t.Errorf("expected hit rate 0.5, got %f", got)
	}
}
