package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Ingest: receipts, voice notes and free text
// ============================================================

type ingestTextRequest struct {
	Text string `json:"text"`
}

func ingestUploadHandler(svc *service.IngestService, kind domain.MediaKind, maxBytes int64, logger *zap.Logger) http.HandlerFunc {
	op := "POST /v1/ingest/receipt"
	if kind == domain.MediaAudio {
		op = "POST /v1/ingest/voice"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), op)
		defer span.End()

		media, err := readUpload(w, r, kind, maxBytes)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		userID := UserIDFromContext(ctx)
		var draft *domain.Draft
		if kind == domain.MediaAudio {
			draft, err = svc.ExtractFromAudio(ctx, userID, media)
		} else {
			draft, err = svc.ExtractFromImage(ctx, userID, media)
		}
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, draft)
	}
}

// readUpload takes the "file" part of a multipart body.
func readUpload(w http.ResponseWriter, r *http.Request, kind domain.MediaKind, maxBytes int64) (domain.Media, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+1<<20)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Media{}, &domain.ErrValidation{Field: "file", Message: "file too large"}
		}
		return domain.Media{}, &domain.ErrValidation{Field: "file", Message: "expected multipart/form-data"}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return domain.Media{}, &domain.ErrValidation{Field: "file", Message: "required"}
	}
	defer file.Close()

	if header.Size > maxBytes {
		return domain.Media{}, &domain.ErrValidation{Field: "file", Message: "file too large"}
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return domain.Media{}, &domain.ErrValidation{Field: "file", Message: "unreadable upload"}
	}
	if len(data) == 0 {
		return domain.Media{}, &domain.ErrValidation{Field: "file", Message: "empty upload"}
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return domain.Media{Kind: kind, MimeType: mime, Filename: header.Filename, Data: data}, nil
}

func ingestTextHandler(svc *service.IngestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ingest/text")
		defer span.End()

		var req ingestTextRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		draft, err := svc.ExtractFromText(ctx, UserIDFromContext(ctx), req.Text, domain.SourceManual)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, draft)
	}
}

func getDraftHandler(svc *service.IngestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/ingest/drafts/{id}")
		defer span.End()

		d, err := svc.GetDraft(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func confirmDraftHandler(svc *service.IngestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/ingest/drafts/{id}/confirm")
		defer span.End()

		var req domain.ConfirmDraftRequest
		if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
			return
		}
		tx, err := svc.ConfirmDraft(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func discardDraftHandler(svc *service.IngestService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/ingest/drafts/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DiscardDraft(ctx, UserIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "draft discarded", ID: id})
	}
}
