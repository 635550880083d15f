package storage

import (
	"fmt"
	"time"
)

// ExistsError reports a script file already present at a destination
// about to be written.
type ExistsError struct {
	Path string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("script file already exists: %s", e.Path)
}

// NotFoundError reports a script name with no record behind it.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no script named %q", e.Name)
}

// LockTimeoutError reports a repository lock that stayed busy for the
// whole wait.
type LockTimeoutError struct {
	Path string
	Wait time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf("repository lock %s still held after %s", e.Path, e.Wait)
}
