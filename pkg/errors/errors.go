package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness. Every error the
// engine surfaces carries both an English and an Arabic message; callers render
// whichever matches the user locale.
type Error struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	MessageAr string `json:"message_ar"`
	Status    int    `json:"status"`
	Retryable bool   `json:"retryable,omitempty"`
	Err       error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error with a bilingual message pair.
func New(code string, status int, message, messageAr string) *Error {
	return &Error{Code: code, Status: status, Message: message, MessageAr: messageAr}
}

// Wrap attaches context to an existing error, inheriting the code, status and
// Arabic text of the template it derives from.
func Wrap(err error, template *Error, message string) *Error {
	clone := *template
	clone.Err = err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// Predefined errors for the scheduling and freeze contracts.
var (
	ErrNotFound = New("NOT_FOUND", http.StatusNotFound,
		"resource not found", "المورد غير موجود")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest,
		"validation failed", "فشل التحقق من صحة البيانات")
	ErrConflict = New("CONFLICT", http.StatusConflict,
		"scheduling conflict detected", "تم اكتشاف تعارض في الجدولة")
	ErrInsufficientAllowance = New("INSUFFICIENT_FREEZE_ALLOWANCE", http.StatusUnprocessableEntity,
		"freeze days exceed the remaining allowance", "أيام التجميد تتجاوز الرصيد المتبقي")
	ErrOperationInProgress = New("OPERATION_IN_PROGRESS", http.StatusConflict,
		"another operation is in progress for this subscription", "عملية أخرى قيد التنفيذ لهذا الاشتراك")
	ErrProcessing = &Error{Code: "PROCESSING_ERROR", Status: http.StatusBadGateway,
		Message: "downstream processing failed", MessageAr: "فشلت المعالجة في النظام الخلفي", Retryable: true}
	ErrInternal = New("INTERNAL_ERROR", http.StatusInternalServerError,
		"internal server error", "خطأ داخلي في الخادم")
)

// ErrCacheMiss signals a cache lookup found nothing. It is a plain sentinel so
// cache callers can treat it as a non-event rather than a bilingual failure.
var ErrCacheMiss = errors.New("cache miss")

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal, "")
}

// Clone returns a copy of the error allowing for message overrides. An empty
// string keeps the template text for that language.
func Clone(err *Error, message, messageAr string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	if messageAr != "" {
		clone.MessageAr = messageAr
	}
	return &clone
}
