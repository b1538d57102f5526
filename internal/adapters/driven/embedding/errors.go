package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"github.com/custodia-labs/recall-cli/internal/core/domain"
)

// CheckInput rejects blank text before any request is made.
func CheckInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return domain.ErrEmptyInput
	}
	return nil
}

// CheckBatch rejects a batch containing blank text.
func CheckBatch(texts []string) error {
	for i, t := range texts {
		if err := CheckInput(t); err != nil {
			return fmt.Errorf("text %d: %w", i, err)
		}
	}
	return nil
}

// Unavailable wraps err with domain.ErrProviderUnavailable when it means the
// model cannot serve requests: connection refused, DNS failure, or a status
// of 404 (model not pulled) or 503 (model loading).
func Unavailable(provider string, status int, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if status == http.StatusNotFound || status == http.StatusServiceUnavailable || isDialError(err) {
		return fmt.Errorf("%s: %w: %v", provider, domain.ErrProviderUnavailable, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}

func isDialError(err error) bool {
	if errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// ToFloat32 converts a provider float64 vector.
func ToFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}
