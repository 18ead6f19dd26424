package mainthread

import "errors"

const Namespace = "mainthread"

var (
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
	ErrInvalidState  = errors.New(Namespace + ": dispatcher has already been run")
	ErrClosed        = errors.New(Namespace + ": conduit closed")
	ErrChannelClosed = errors.New(
		Namespace + ": items channel closed without a completion signal",
	)
	ErrCancelled        = errors.New(Namespace + ": dispatch cancelled")
	ErrItemPanicked     = errors.New(Namespace + ": work item panicked")
	ErrProducerPanicked = errors.New(Namespace + ": producer panicked")
	ErrNilItem          = errors.New(Namespace + ": nil work item")
)
