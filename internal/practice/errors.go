package practice

import (
	"errors"

	"github.com/example/translatebot/internal/content"
)

var (
	// ErrNoContent is returned by every operation when no content set is loaded.
	ErrNoContent = content.ErrNoContent
	// ErrUnknownContentSet is returned when switching to a set that does not exist.
	ErrUnknownContentSet = errors.New("unknown content set")
)
