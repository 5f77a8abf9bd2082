package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"
	"connectrpc.com/connect"
	"github.com/google/uuid"

	"github.com/mmynk/fintrack/internal/allocation"
	"github.com/mmynk/fintrack/internal/auth"
	"github.com/mmynk/fintrack/internal/middleware"
	"github.com/mmynk/fintrack/internal/models"
)

// toConnectError maps domain errors onto connect codes.
// It is the only place that decides which code a failure gets.
func toConnectError(err error) error {
	var (
		connectErr *connect.Error
		partial    *allocation.PartialAllocationError
		invalid    *models.ValidationError
		notFound   *models.NotFoundError
		storeErr   *models.StoreError
	)

	switch {
	case errors.As(err, &connectErr):
		return connectErr
	case errors.As(err, &partial):
		if partial.Compensated() {
			return connect.NewError(connect.CodeAborted, err)
		}
		return connect.NewError(connect.CodeDataLoss, err)
	case errors.As(err, &invalid):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.As(err, &notFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, auth.ErrEmailExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, auth.ErrWeakPassword):
		return connect.NewError(connect.CodeInvalidArgument, err)
	case errors.Is(err, auth.ErrInvalidCredentials):
		return connect.NewError(connect.CodeUnauthenticated, err)
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.As(err, &storeErr):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}

// fail logs err and returns its connect form.
func fail(ctx context.Context, msg string, err error, attrs ...any) error {
	cerr := toConnectError(err)
	attrs = append(attrs, "error", err)
	switch connect.CodeOf(cerr) {
	case connect.CodeInternal, connect.CodeDataLoss, connect.CodeUnavailable:
		slog.ErrorContext(ctx, msg, attrs...)
	default:
		slog.WarnContext(ctx, msg, attrs...)
	}
	return cerr
}

// requireUser returns the caller's id set by the auth interceptor.
func requireUser(ctx context.Context) (uuid.UUID, error) {
	userID := middleware.GetUserID(ctx)
	if userID == uuid.Nil {
		return uuid.Nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

func parseID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, models.Invalid(field, fmt.Errorf("malformed id %q", s))
	}
	return id, nil
}

// parseOptionalPeriod returns nil for an empty string.
func parseOptionalPeriod(s string) (*models.Period, error) {
	if s == "" {
		return nil, nil
	}
	p, err := models.ParsePeriod(s)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func parseDate(field, s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, models.Invalid(field, fmt.Errorf("%w: %q", models.ErrInvalidDate, s))
	}
	return d, nil
}

// parseOptionalDate returns nil for an empty string.
func parseOptionalDate(field, s string) (*civil.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := parseDate(field, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
