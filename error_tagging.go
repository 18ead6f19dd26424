package mainthread

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ItemMetaError exposes correlation metadata for a work item failure.
type ItemMetaError interface {
	error
	Unwrap() error
	SessionID() uuid.UUID
	ItemIndex() uint64
}

type itemTaggedError struct {
	err     error
	session uuid.UUID
	index   uint64
}

func newItemTaggedError(err error, session uuid.UUID, index uint64) error {
	if err == nil {
		return nil
	}
	return &itemTaggedError{err: err, session: session, index: index}
}

func (e *itemTaggedError) Error() string { return e.err.Error() }
func (e *itemTaggedError) Unwrap() error { return e.err }

func (e *itemTaggedError) SessionID() uuid.UUID { return e.session }

// ItemIndex is the zero-based execution position of the item within its session.
func (e *itemTaggedError) ItemIndex() uint64 { return e.index }

func (e *itemTaggedError) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "item(index=%d,session=%s): %+v", e.index, e.session, e.err)
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

// ExtractItemIndex returns the execution index of the failed item if err carries one.
func ExtractItemIndex(err error) (uint64, bool) {
	var ime ItemMetaError
	if errors.As(err, &ime) {
		return ime.ItemIndex(), true
	}
	return 0, false
}

// ExtractSessionID returns the dispatcher session the failed item ran in.
func ExtractSessionID(err error) (uuid.UUID, bool) {
	var ime ItemMetaError
	if errors.As(err, &ime) {
		return ime.SessionID(), true
	}
	return uuid.Nil, false
}
