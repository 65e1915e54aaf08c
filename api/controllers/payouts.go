package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/omarkhaled/stayhub-backend/api/middleware"
	"github.com/omarkhaled/stayhub-backend/api/responses"
	"github.com/omarkhaled/stayhub-backend/api/validators"
	"github.com/omarkhaled/stayhub-backend/internal/payouts"
	"github.com/omarkhaled/stayhub-backend/pkg/enums"
	pkgerrors "github.com/omarkhaled/stayhub-backend/pkg/errors"
	"github.com/omarkhaled/stayhub-backend/pkg/logger"
	"github.com/omarkhaled/stayhub-backend/pkg/pagination"
)

const idempotencyKeyHeader = "Idempotency-Key"

// PayoutService is the slice of the payout service the HTTP layer needs.
type PayoutService interface {
	CreatePayout(ctx context.Context, input payouts.CreatePayoutInput) (*payouts.PayoutDTO, bool, error)
	GetPayout(ctx context.Context, hostID, payoutID uuid.UUID) (*payouts.PayoutDTO, error)
	ListPayouts(ctx context.Context, hostID uuid.UUID, status *enums.PayoutStatus, p pagination.Params) ([]payouts.PayoutDTO, pagination.Meta, error)
}

type createPayoutRequest struct {
	AmountCents int64 `json:"amount_cents" validate:"required,gt=0"`
}

// CreatePayout starts a withdrawal. Replays of the same Idempotency-Key
// return the original payout with 200 instead of 201.
func CreatePayout(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		hostID, err := authenticatedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
		if key == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header is required"))
			return
		}

		var req createPayoutRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, created, err := svc.CreatePayout(ctx, payouts.CreatePayoutInput{
			HostID:         hostID,
			AmountCents:    req.AmountCents,
			IdempotencyKey: key,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusOK
		if created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, dto)
	}
}

// GetPayout returns one payout with its event log.
func GetPayout(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		hostID, err := authenticatedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		payoutID, err := validators.ParseUUIDParam(r, "payoutID")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.GetPayout(ctx, hostID, payoutID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ListPayouts pages through the host's payouts, newest first.
func ListPayouts(svc PayoutService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		hostID, err := authenticatedUserID(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var status *enums.PayoutStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParsePayoutStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown payout status").WithDetails(map[string]any{"status": raw}))
				return
			}
			status = &parsed
		}

		dtos, meta, err := svc.ListPayouts(ctx, hostID, status, params)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"payouts":    dtos,
			"pagination": meta,
		})
	}
}

func authenticatedUserID(ctx context.Context) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid subject")
	}
	return id, nil
}
