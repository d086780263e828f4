package sync

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownOperation = errors.New("unknown operation kind")
	ErrMissingSnapshot  = errors.New("operation has no entity snapshot")
	ErrUnknownEvent     = errors.New("unknown change event type")
)

// StorageError сбой локального хранилища
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("local storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageError(op string, err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

// RemoteKind причина ошибки удаленного хранилища
type RemoteKind string

const (
	KindAuth       RemoteKind = "auth"
	KindNetwork    RemoteKind = "network"
	KindValidation RemoteKind = "validation"
)

// RemoteError ошибка удаленного хранилища
type RemoteError struct {
	Kind RemoteKind
	Op   string
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s error: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Retryable повторять имеет смысл только сетевые сбои
func (e *RemoteError) Retryable() bool {
	return e.Kind == KindNetwork
}

func NewAuthError(op string, err error) *RemoteError {
	return &RemoteError{Kind: KindAuth, Op: op, Err: err}
}

func NewNetworkError(op string, err error) *RemoteError {
	return &RemoteError{Kind: KindNetwork, Op: op, Err: err}
}

func NewValidationError(op string, err error) *RemoteError {
	return &RemoteError{Kind: KindValidation, Op: op, Err: err}
}

// rejected операция уже отклонена проверкой; повторная отправка даст тот же результат
func rejected(op *Operation) bool {
	return strings.HasPrefix(op.LastError, "remote "+string(KindValidation)+" error")
}

func isKind(err error, kind RemoteKind) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == kind
}

func IsAuth(err error) bool       { return isKind(err, KindAuth) }
func IsNetwork(err error) bool    { return isKind(err, KindNetwork) }
func IsValidation(err error) bool { return isKind(err, KindValidation) }

// PartialSyncFailure часть отложенных операций не отправлена; они остаются в очереди
type PartialSyncFailure struct {
	Total    int
	Failures []OperationFailure
}

func (e *PartialSyncFailure) Error() string {
	return fmt.Sprintf("partial sync failure: %d of %d pending operations failed", len(e.Failures), e.Total)
}

func (e *PartialSyncFailure) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		if f.Cause != nil {
			errs = append(errs, f.Cause)
		}
	}
	return errs
}
