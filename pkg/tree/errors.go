package tree

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrValidation  = errors.New("validation error")
	ErrCorruptTree = errors.New("corrupt tree")
)

// ValidationError reports invalid input to a tree operation. The operation
// rejecting it guarantees no state was mutated.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e == nil {
		return ErrValidation.Error()
	}
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%s (%s): %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// SelectionError reports a selection whose offsets fall outside the owning
// message text or describe an empty span.
type SelectionError struct {
	StartOffset int
	EndOffset   int
	TextLength  int
}

func (e *SelectionError) Error() string {
	if e == nil {
		return ErrValidation.Error()
	}
	return fmt.Sprintf("%s: invalid selection [%d, %d) over %d bytes", ErrValidation, e.StartOffset, e.EndOffset, e.TextLength)
}

func (e *SelectionError) Is(target error) bool { return target == ErrValidation }

// CorruptTreeError reports a cycle or dangling parent reference detected
// while walking the tree. Walks never repair the structure themselves; only
// the load-time repair pass does.
type CorruptTreeError struct {
	NodeID NodeID
	Reason string
}

func (e *CorruptTreeError) Error() string {
	if e == nil {
		return ErrCorruptTree.Error()
	}
	return fmt.Sprintf("%s at node %q: %s", ErrCorruptTree, e.NodeID, e.Reason)
}

func (e *CorruptTreeError) Is(target error) bool { return target == ErrCorruptTree }
