//go:build windows

package watch

import (
	"errors"

	"github.com/fsnotify/fsnotify"
)

// isFatal reports a dropped event buffer, after which changes may be lost.
func isFatal(err error) bool {
	return errors.Is(err, fsnotify.ErrEventOverflow)
}
