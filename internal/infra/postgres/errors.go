package postgres

import (
	"errors"
	"strings"

	"futur-genie-quiz/internal/domain"
	"github.com/jackc/pgconn"
)

// classify wraps retryable database failures in domain.TransientError.
func classify(err error) error {
	if err == nil || !isTransient(err) {
		return err
	}
	return domain.NewTransientError(err)
}

func isTransient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 08 connection exception, 40 transaction rollback, 53 insufficient resources
		for _, class := range []string{"08", "40", "53"} {
			if strings.HasPrefix(pgErr.Code, class) {
				return true
			}
		}
		return pgErr.Code == "57P03" // cannot_connect_now
	}
	return pgconn.SafeToRetry(err) || pgconn.Timeout(err)
}
