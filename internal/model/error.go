package model

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeImmutableOrder  = "IMMUTABLE_ORDER"
	ErrCodeUnauthorised    = "UNAUTHORIZED"
	ErrCodeProductNotFound = "PRODUCT_NOT_FOUND"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// DomainError carries a stable error code alongside a human-readable
// message. Handlers map codes to HTTP statuses at the boundary.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrEmptyAddress    = NewDomainError(ErrCodeValidation, "Delivery address must not be empty")
	ErrNoItems         = NewDomainError(ErrCodeValidation, "Order must contain at least one item")
	ErrInvalidQuantity = NewDomainError(ErrCodeValidation, "Quantity must be greater than zero")
	ErrInvalidPrice    = NewDomainError(ErrCodeValidation, "Price must be greater than zero")
	ErrPriceScale      = NewDomainError(ErrCodeValidation, "Price must have at most two decimal places")
	ErrInvalidStatus   = NewDomainError(ErrCodeValidation, "Invalid order status")
	ErrProductNotFound = NewDomainError(ErrCodeProductNotFound, "One or more products not found")
	ErrOrderNotFound   = NewDomainError(ErrCodeNotFound, "Order not found")
	ErrForbidden       = NewDomainError(ErrCodeForbidden, "Actor is not allowed to perform this operation")
	ErrOrderImmutable  = NewDomainError(ErrCodeImmutableOrder, "Order can no longer be modified")
)
