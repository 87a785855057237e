// Package services implements the application layer: the conversation-turn
// engine and tenant configuration management. This file centralizes common
// service-level error values so they can be consistently returned by service
// methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import "errors"

var (
	// ErrEmptyInstanceID is returned when an operation is attempted without
	// a tenant instance identifier.
	ErrEmptyInstanceID = errors.New("instance id is empty")

	// ErrInvalidMode is returned when a tenant configuration names a business
	// mode outside the supported set (sales, reservations).
	ErrInvalidMode = errors.New("mode must be one of: sales, reservations")
)
