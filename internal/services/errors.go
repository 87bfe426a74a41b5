package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"stockpos/internal/models"
	"stockpos/internal/repositories"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("admin role required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrDuplicateCode      = errors.New("product code already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// ValidationError reports malformed input. Nothing was written.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(parts, "; "))
}

// ProductNotFoundError names the product id that does not exist.
type ProductNotFoundError struct {
	ProductID uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product with ID %d not found", e.ProductID)
}

// InsufficientStockError reports a basket demand above the available quantity.
type InsufficientStockError struct {
	ProductID uint
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (requested: %d, available: %d)", e.Name, e.Requested, e.Available)
}

// BackendError wraps a failed call to the data store.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend unavailable: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// PartialApplicationError is returned when a basket line failed after earlier
// lines were already committed. Committed lines are not rolled back.
type PartialApplicationError struct {
	FailedLine int // 1-based index in the basket
	ProductID  uint
	Committed  int
	Sales      []models.Sale
	Err        error
}

func (e *PartialApplicationError) Error() string {
	return fmt.Sprintf("sale partially applied: line %d (product %d) failed after %d committed line(s): %v",
		e.FailedLine, e.ProductID, e.Committed, e.Err)
}

func (e *PartialApplicationError) Unwrap() error { return e.Err }

// RequireAdmin is the single authorization check for admin-only operations.
func RequireAdmin(auth models.AuthContext) error {
	if !auth.Authenticated() {
		return ErrUnauthenticated
	}
	if !auth.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

func requireUser(auth models.AuthContext) error {
	if !auth.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// validationFailed turns validator errors into a ValidationError.
// prefix is prepended to field names, e.g. "[2]." for basket lines.
func validationFailed(err error, prefix string) *ValidationError {
	out := &ValidationError{Message: "Validation failed", Fields: map[string]string{}}
	mergeValidation(out, err, prefix)
	return out
}

func mergeValidation(dst *ValidationError, err error, prefix string) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		dst.Fields[prefix+"_"] = err.Error()
		return
	}
	for _, e := range validationErrors {
		dst.Fields[prefix+e.Field()] = fmt.Sprintf("Field '%s%s' failed on the '%s' tag", prefix, e.Field(), e.Tag())
	}
}

func productLookupError(op string, id uint, err error) error {
	if errors.Is(err, repositories.ErrProductNotFound) {
		return &ProductNotFoundError{ProductID: id}
	}
	return &BackendError{Op: op, Err: err}
}
