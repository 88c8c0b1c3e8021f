package service

import "errors"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrRoomNotFound         = errors.New("room not found")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRegistrationFailed   = errors.New("registration failed: username or email already exists")
	ErrInvalidInviteCode    = errors.New("invalid invite code")
	ErrRoomNotShared        = errors.New("room does not allow self-join")
	ErrAlreadyMember        = errors.New("user is already a member of this room")
	ErrNotMember            = errors.New("user is not a member of this room")
	ErrInvalidContent       = errors.New("invalid content payload")
	ErrInternalServer       = errors.New("internal server error")
)
