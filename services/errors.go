package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrMatchNotFound      = errors.New("match not found")
	ErrGroupNotFound      = errors.New("group not found")
	ErrPhaseNotFound      = errors.New("phase not found")
	ErrTeamNotFound       = errors.New("team not found")
	ErrTournamentNotFound = errors.New("tournament not found")

	// ErrInvalidTransition: the status precondition of a mutation does not
	// hold. A stale admin view, not a retryable fault; the caller refetches
	// the match before deciding anything.
	ErrInvalidTransition = errors.New("match status does not allow this operation")

	// Ошибки валидации входных данных
	ErrValidationFailed = errors.New("validation failed")

	// ErrStoreUnavailable: transient store fault. Safe to retry, every
	// mutation is an idempotent "set state to X" write.
	ErrStoreUnavailable = errors.New("match store temporarily unavailable")

	// Ошибки аутентификации и авторизации
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrForbiddenOperation = errors.New("operation requires an admin capability")
	ErrInvalidToken       = errors.New("invalid or expired token")

	ErrCrestStorageDisabled = errors.New("crest storage is not configured")
	ErrCrestInvalidType     = errors.New("crest content type must be an image")
)
