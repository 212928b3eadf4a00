package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGenerationFailed matches every *ServiceError.
	ErrGenerationFailed = errors.New("generation service failure")
	// ErrQuotaExceeded matches service errors caused by rate or quota limits.
	ErrQuotaExceeded = errors.New("generation quota exceeded")
)

type ServiceError struct {
	Op    string
	Quota bool
	Err   error
}

func (e *ServiceError) Error() string {
	if e.Quota {
		return fmt.Sprintf("%s: quota exceeded: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return target == ErrGenerationFailed || (e.Quota && target == ErrQuotaExceeded)
}

// wrap turns an upstream error into a ServiceError. Context errors pass
// through untouched so callers can tell cancellation from failure.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &ServiceError{Op: op, Quota: isQuotaError(err), Err: err}
}

func isQuotaError(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "resource_exhausted") ||
		strings.Contains(msg, "quota") ||
		strings.Contains(msg, "429")
}
