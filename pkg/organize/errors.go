package organize

import (
	"errors"
	"fmt"
)

// ErrLocked is returned when another run holds the lock on the organized tree.
var ErrLocked = errors.New("organized tree is locked by another run")

// OrganizeFolderError is returned when <root>/Organized does not exist.
type OrganizeFolderError struct {
	Path string
}

func (e *OrganizeFolderError) Error() string {
	return fmt.Sprintf("organized directory not found at %s", e.Path)
}
