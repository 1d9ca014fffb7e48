package service

import "errors"

var (
	ErrUserNotFound   = errors.New("user not found")
	ErrEmailTaken     = errors.New("email already exists")
	ErrValidation     = errors.New("name and email are required")
	ErrInternalServer = errors.New("internal server error")
)
