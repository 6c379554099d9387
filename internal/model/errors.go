package model

import (
	"errors"
)

var (
	ErrStoreNotFound     = errors.New("store file does not exist")
	ErrStoreInvalid      = errors.New("store file is invalid")
	ErrMalformedEnv      = errors.New("malformed environment entry")
	ErrInvalidStreamMode = errors.New("invalid stream mode")
	ErrNoTarget          = errors.New("no store file given")
	ErrBinaryOutput      = errors.New("output is not valid UTF-8")
)
