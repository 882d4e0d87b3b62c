package entity

import "errors"

var (
	ErrNotAuthorized = errors.New("not authorized")
	ErrNotFound      = errors.New("not found")
	ErrPersistence   = errors.New("persistence failure")
	ErrTransport     = errors.New("transport failure")
	ErrValidation    = errors.New("validation failure")
)
