package images

import (
	"errors"
	"fmt"
)

var (
	ErrImageNotFound       = errors.New("image not found")
	ErrBlobMissing         = fmt.Errorf("%w: file missing on disk", ErrImageNotFound)
	ErrEmptyFile           = errors.New("file required")
	ErrReferenceRequired   = errors.New("referenceId and referenceType are required")
	ErrInvalidContentType  = errors.New("only image/* allowed")
	ErrDuplicateStoredName = errors.New("stored filename already exists")
)
