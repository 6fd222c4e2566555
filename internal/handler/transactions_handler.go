package handler

import (
	"net/http"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
	"github.com/creativealip-rgb/Monev-sub001/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Transactions
// ============================================================

func listTransactionsHandler(svc *service.TransactionService, settings *service.SettingsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()
		userID := UserIDFromContext(ctx)

		loc := time.UTC
		if settings != nil {
			loc = settings.Location(ctx, userID)
		}

		f, err := transactionFilter(r, loc)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		txns, err := svc.List(ctx, userID, f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, txns)
	}
}

func transactionFilter(r *http.Request, loc *time.Location) (domain.TransactionFilter, error) {
	var f domain.TransactionFilter
	var err error
	if f.From, err = queryTime(r, "from", loc); err != nil {
		return f, err
	}
	if f.To, err = queryTime(r, "to", loc); err != nil {
		return f, err
	}
	if f.Limit, err = queryInt(r, "limit", 50); err != nil {
		return f, err
	}
	if f.Offset, err = queryInt(r, "offset", 0); err != nil {
		return f, err
	}
	if f.Limit < 1 || f.Limit > 500 {
		return f, &domain.ErrValidation{Field: "limit", Message: "must be between 1 and 500"}
	}
	if f.Offset < 0 {
		return f, &domain.ErrValidation{Field: "offset", Message: "must not be negative"}
	}
	if t := domain.TxType(r.URL.Query().Get("type")); t != "" {
		if !t.Valid() {
			return f, &domain.ErrValidation{Field: "type", Message: "must be expense, income or transfer"}
		}
		f.Type = t
	}
	f.CategoryID = r.URL.Query().Get("category_id")
	return f, nil
}

func getTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/{id}")
		defer span.End()

		tx, err := svc.Get(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func createTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()

		var in domain.TransactionInput
		if !decodeJSON(w, r, &in) {
			return
		}
		if in.Source == "" {
			in.Source = domain.SourceManual
		}

		tx, err := svc.Create(ctx, UserIDFromContext(ctx), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, tx)
	}
}

func updateTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/transactions/{id}")
		defer span.End()

		var in domain.TransactionInput
		if !decodeJSON(w, r, &in) {
			return
		}

		tx, err := svc.Update(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"), &in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func deleteTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.Delete(ctx, UserIDFromContext(ctx), id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "transaction deleted", ID: id})
	}
}

func verifyTransactionHandler(svc *service.TransactionService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions/{id}/verify")
		defer span.End()

		tx, err := svc.Verify(ctx, UserIDFromContext(ctx), chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}
