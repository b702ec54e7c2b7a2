package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSelfConnection     = errors.New("you can't connect with yourself")
	ErrAlreadyConnected   = errors.New("already connected with this user")
	ErrDuplicateRequest   = errors.New("connection request already sent")
	ErrRequestNotFound    = errors.New("request not found")
	ErrRequestHandled     = errors.New("request already handled")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrPairBusy           = errors.New("another operation on this pair is in progress")
	ErrConversationGone   = errors.New("conversation not found")
)
