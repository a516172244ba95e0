package domain

import "errors"

var (
	ErrProfileNotFound      = errors.New("profile not found")
	ErrUnknownPresenceEvent = errors.New("unknown presence event")
	ErrUnknownEvent         = errors.New("unknown event")
	ErrInvalidDisplayName   = errors.New("invalid display name")
	ErrMissingPublishKey    = errors.New("publish key is not configured")
	ErrMissingSubscribeKey  = errors.New("subscribe key is not configured")
	ErrSessionClosed        = errors.New("session closed")
)
