package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind identifies a class of failure the pipeline knows how to handle.
type Kind string

const (
	KindSourceNotFound    Kind = "SOURCE_NOT_FOUND"
	KindNoDocuments       Kind = "NO_DOCUMENTS"
	KindUnreadable        Kind = "UNREADABLE"
	KindNoText            Kind = "NO_TEXT"
	KindMissingCredential Kind = "MISSING_CREDENTIAL"
	KindInvalidConfig     Kind = "INVALID_CONFIG"
	KindPermission        Kind = "PERMISSION"
	KindLocked            Kind = "LOCKED"
	KindPersist           Kind = "PERSIST"
	KindQuota             Kind = "QUOTA"
	KindService           Kind = "SERVICE"
)

// Error is a structured error carrying a Kind and the path or destination it concerns.
type Error struct {
	Kind    Kind
	Message string
	Path    string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.Path != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Path)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewSourceNotFound reports a document root that does not exist.
func NewSourceNotFound(root string) *Error {
	return &Error{Kind: KindSourceNotFound, Message: "source directory not found", Path: root}
}

// NewNoDocuments reports a root that exists but holds no matching documents.
func NewNoDocuments(root, ext string) *Error {
	return &Error{Kind: KindNoDocuments, Message: fmt.Sprintf("no %s documents found", ext), Path: root}
}

// NewUnreadable reports a document that could not be opened or has no pages.
func NewUnreadable(path string, err error) *Error {
	return &Error{Kind: KindUnreadable, Message: "document is empty or unreadable", Path: path, Err: err}
}

// NewNoText reports a document whose first page carries no text.
func NewNoText(path string) *Error {
	return &Error{Kind: KindNoText, Message: "document has no readable text", Path: path}
}

func NewMissingCredential(msg string) *Error {
	return &Error{Kind: KindMissingCredential, Message: msg}
}

func NewInvalidConfig(msg string) *Error {
	return &Error{Kind: KindInvalidConfig, Message: msg}
}

// NewPermission reports a destination the process is not allowed to write.
func NewPermission(path string, err error) *Error {
	return &Error{Kind: KindPermission, Message: "cannot write destination", Path: path, Err: err}
}

// NewLocked reports a destination held by another writer.
func NewLocked(path string) *Error {
	return &Error{Kind: KindLocked, Message: "destination is locked by another writer", Path: path}
}

func NewPersist(path string, err error) *Error {
	return &Error{Kind: KindPersist, Message: "failed to persist rows", Path: path, Err: err}
}

func NewQuota(err error) *Error {
	return &Error{Kind: KindQuota, Message: "service quota exhausted", Err: err}
}

func NewService(err error) *Error {
	return &Error{Kind: KindService, Message: "classification service failed", Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Is checks if err is an *Error with the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
