package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Ledger and reconciliation error codes
const (
	ErrCodeNoActiveLocation     = "ERR_NO_ACTIVE_LOCATION"
	ErrCodeLocationInactive     = "ERR_LOCATION_INACTIVE"
	ErrCodeInvalidAmount        = "ERR_INVALID_AMOUNT"
	ErrCodeInvalidMovement      = "ERR_INVALID_MOVEMENT"
	ErrCodeInvalidStatus        = "ERR_INVALID_STATUS"
	ErrCodeAmbiguousMatch       = "ERR_AMBIGUOUS_MATCH"
	ErrCodeDanglingReference    = "ERR_DANGLING_REFERENCE"
	ErrCodeReconciliationLocked = "ERR_RECONCILIATION_LOCKED"
	ErrCodeInvoiceNotFound      = "ERR_INVOICE_NOT_FOUND"
	ErrCodeReportNotFound       = "ERR_REPORT_NOT_FOUND"
	ErrCodeLocationNotFound     = "ERR_LOCATION_NOT_FOUND"
	ErrCodeOutboxEntryNotFound  = "ERR_ENTRY_NOT_FOUND"
	ErrCodeInvalidPaymentStatus = "ERR_INVALID_PAYMENT_STATUS"
	ErrCodeInvalidLocationType  = "ERR_INVALID_LOCATION_TYPE"
	ErrCodeInvalidName          = "ERR_INVALID_NAME"
	ErrCodeInvalidClient        = "ERR_INVALID_CLIENT"
	ErrCodeInvalidInvoiceNumber = "ERR_INVALID_INVOICE_NUMBER"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// ErrCodeUnavailable is used when a dependency such as the database is down
const ErrCodeUnavailable = "ERR_UNAVAILABLE"

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:     http.StatusInternalServerError,
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound:             http.StatusNotFound,
	ErrCodeInvoiceNotFound:      http.StatusNotFound,
	ErrCodeReportNotFound:       http.StatusNotFound,
	ErrCodeLocationNotFound:     http.StatusNotFound,
	ErrCodeOutboxEntryNotFound:  http.StatusNotFound,
	ErrCodeAlreadyExists:        http.StatusConflict,
	ErrCodeConflict:             http.StatusConflict,
	ErrCodeConcurrencyConflict:  http.StatusConflict,
	ErrCodeAmbiguousMatch:       http.StatusConflict,
	ErrCodeReconciliationLocked: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeBusinessRule:         http.StatusUnprocessableEntity,
	ErrCodeNoActiveLocation:     http.StatusUnprocessableEntity,
	ErrCodeLocationInactive:     http.StatusUnprocessableEntity,
	ErrCodeInvalidStatus:        http.StatusUnprocessableEntity,
	ErrCodeInvalidPaymentStatus: http.StatusUnprocessableEntity,
	ErrCodeDanglingReference:    http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:           http.StatusBadRequest,
	ErrCodeInvalidInput:         http.StatusBadRequest,
	ErrCodeInvalidJSON:          http.StatusBadRequest,
	ErrCodeInvalidAmount:        http.StatusBadRequest,
	ErrCodeInvalidMovement:      http.StatusBadRequest,
	ErrCodeInvalidLocationType:  http.StatusBadRequest,
	ErrCodeInvalidName:          http.StatusBadRequest,
	ErrCodeInvalidClient:        http.StatusBadRequest,
	ErrCodeInvalidInvoiceNumber: http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the API codes
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"ALREADY_EXISTS":         ErrCodeAlreadyExists,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"INVALID_STATE":          ErrCodeInvalidState,
	"CONCURRENCY_CONFLICT":   ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":       ErrCodeValidation,
	"BAD_REQUEST":            ErrCodeBadRequest,
	"INTERNAL_ERROR":         ErrCodeInternal,
	"NO_ACTIVE_LOCATION":     ErrCodeNoActiveLocation,
	"LOCATION_INACTIVE":      ErrCodeLocationInactive,
	"INVALID_AMOUNT":         ErrCodeInvalidAmount,
	"INVALID_MOVEMENT":       ErrCodeInvalidMovement,
	"INVALID_STATUS":         ErrCodeInvalidStatus,
	"AMBIGUOUS_MATCH":        ErrCodeAmbiguousMatch,
	"DANGLING_REFERENCE":     ErrCodeDanglingReference,
	"RECONCILIATION_LOCKED":  ErrCodeReconciliationLocked,
	"INVOICE_NOT_FOUND":      ErrCodeInvoiceNotFound,
	"REPORT_NOT_FOUND":       ErrCodeReportNotFound,
	"LOCATION_NOT_FOUND":     ErrCodeLocationNotFound,
	"ENTRY_NOT_FOUND":        ErrCodeOutboxEntryNotFound,
	"INVALID_PAYMENT_STATUS": ErrCodeInvalidPaymentStatus,
	"INVALID_LOCATION_TYPE":  ErrCodeInvalidLocationType,
	"INVALID_NAME":           ErrCodeInvalidName,
	"INVALID_CLIENT":         ErrCodeInvalidClient,
	"INVALID_INVOICE_NUMBER": ErrCodeInvalidInvoiceNumber,
}

// NormalizeErrorCode converts a domain error code to the API format
// If the code is already in the API format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
