package usecase

const (
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeConflict         = "CONFLICT"
	CodeProviderError    = "PROVIDER_ERROR"
	CodePersistenceError = "PERSISTENCE_ERROR"
)

type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

func IsDomainError(err error) bool {
	_, ok := err.(*DomainError)
	return ok
}

// ErrorCode extracts the stable classification, or "" for plain errors.
func ErrorCode(err error) string {
	if de, ok := err.(*DomainError); ok {
		return de.Code
	}
	return ""
}
