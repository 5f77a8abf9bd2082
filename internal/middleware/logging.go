package middleware

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"connectrpc.com/connect"
	"github.com/google/uuid"
)

// LoggingInterceptor returns a Connect interceptor that logs every RPC call.
// It logs the procedure name, duration and error code, plus the user ID once
// the auth interceptor has run.
func LoggingInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			procedure := req.Spec().Procedure

			resp, err := next(ctx, req)

			attrs := []any{"procedure", procedure, "duration_ms", time.Since(start).Milliseconds()}
			if userID := GetUserID(ctx); userID != uuid.Nil {
				attrs = append(attrs, "user_id", userID)
			}

			if err != nil {
				var connectErr *connect.Error
				if errors.As(err, &connectErr) && connectErr.Code() != connect.CodeInternal && connectErr.Code() != connect.CodeDataLoss {
					slog.WarnContext(ctx, "RPC error", append(attrs, "code", connectErr.Code(), "error", connectErr.Message())...)
				} else {
					slog.ErrorContext(ctx, "RPC error", append(attrs, "error", err)...)
				}
			} else {
				slog.InfoContext(ctx, "RPC ok", attrs...)
			}

			return resp, err
		}
	}
}
