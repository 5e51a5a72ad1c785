package ledger

import (
	"errors"
	"fmt"
)

// ErrDeclined is returned when the policy declined an out-of-order placement.
var ErrDeclined = errors.New("placement declined")

// DuplicateContainerError reports an attempt to create a container that is
// already in the ledger. It indicates a logic error and is raised with panic.
type DuplicateContainerError struct {
	Kind string
	Key  string
}

func (e *DuplicateContainerError) Error() string {
	return fmt.Sprintf("%s container %s already exists in ledger", e.Kind, e.Key)
}
