package types

import (
	ierr "github.com/chantier/avancement/internal/errors"
)

func newFilterError(msg string) error {
	return ierr.NewError(msg).
		WithHint(msg).
		Mark(ierr.ErrValidation)
}
