// Package apperr defines the error kinds shared by storages, use cases and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrVersionConflict is returned by a storage when a document was modified
	// after it was loaded. Callers retry the whole load-modify-save unit.
	ErrVersionConflict = errors.New("version conflict")
	ErrAlreadyExists   = errors.New("already exists")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
)

// ResourceNotFoundError reports a post, thread or user that does not exist.
type ResourceNotFoundError struct {
	Resource string
	ID       string
}

func (e *ResourceNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ParentNotFoundError reports a reply whose parent is absent, either from the
// post storage or from the thread tree it should be attached to.
type ParentNotFoundError struct {
	ParentID string
	ThreadID string
}

func (e *ParentNotFoundError) Error() string {
	if e.ThreadID == "" {
		return fmt.Sprintf("parent post %s not found", e.ParentID)
	}
	return fmt.Sprintf("parent post %s not found in thread %s", e.ParentID, e.ThreadID)
}

type AlreadyRootedError struct {
	ThreadID string
	RootID   string
	PostID   string
}

func (e *AlreadyRootedError) Error() string {
	return fmt.Sprintf("thread %s already rooted at %s, cannot attach %s", e.ThreadID, e.RootID, e.PostID)
}

// ThreadNotFoundError means a post that should belong to a thread has no
// thread id, which only happens after an interrupted root creation.
type ThreadNotFoundError struct {
	PostID string
}

func (e *ThreadNotFoundError) Error() string {
	return fmt.Sprintf("post %s is not attached to a thread", e.PostID)
}

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func NotFound(resource, id string) error {
	return &ResourceNotFoundError{Resource: resource, ID: id}
}

func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsNotFound(err error) bool {
	var target *ResourceNotFoundError
	return errors.As(err, &target)
}

func IsParentNotFound(err error) bool {
	var target *ParentNotFoundError
	return errors.As(err, &target)
}

func IsAlreadyRooted(err error) bool {
	var target *AlreadyRootedError
	return errors.As(err, &target)
}

func IsThreadNotFound(err error) bool {
	var target *ThreadNotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
