package storage

import "errors"

var (
	ErrNotFound     = errors.New("blob not found")
	ErrInvalidPath  = errors.New("blob path escapes storage root")
	ErrStorageFault = errors.New("blob storage fault")
)
