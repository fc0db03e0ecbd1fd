package service

import (
	"context"
	"errors"
	"strings"

	"tradelens/internal/analyzer"
	"tradelens/internal/provider"
)

// Error kinds beyond the analysis kinds reported by analyzer.KindOf
const (
	KindNotFound = "not_found"
	KindProvider = "provider"
	KindCanceled = "canceled"
	KindInternal = "internal"
)

// ErrorKind classifies err for logs, metrics and HTTP status mapping.
// Provider failures are checked first: a series rejected by validation is a
// provider error even though it wraps an analysis kind.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	if provider.IsNotFound(err) {
		return KindNotFound
	}
	var pe *provider.ProviderError
	if errors.As(err, &pe) {
		return KindProvider
	}
	if kind := analyzer.KindOf(err); kind != "" {
		return kind
	}
	return KindInternal
}

var (
	errBenchmarkUnavailable = errors.New("benchmark data unavailable")
	errNoIndicators         = errors.New("indicators unavailable")
)

func normalizeSymbol(symbol string) (string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if s == "" {
		return "", analyzer.NewError("normalize_symbol", analyzer.ErrInvalidParameter, "symbol is required")
	}
	return s, nil
}
