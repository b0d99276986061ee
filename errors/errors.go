package errors

import "fmt"

var (
	ErrNameTaken     = fmt.Errorf("participant name already taken")
	ErrNotFound      = fmt.Errorf("record not found")
	ErrForbidden     = fmt.Errorf("caller is not the author")
	ErrNotRegistered = fmt.Errorf("caller is not a registered participant")
	ErrUnknownKind   = fmt.Errorf("unknown message kind")
	ErrWorkerPanic   = fmt.Errorf("worker panic")
	ErrEmptyWords    = fmt.Errorf("no words have been found")
)
