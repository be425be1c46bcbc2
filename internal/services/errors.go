package services

import (
	"fmt"

	"github.com/juju/errors"
	"gorm.io/gorm"
)

// invalidf builds a NotValid error whose message reads as written.
func invalidf(format string, args ...any) error {
	return errors.NewNotValid(nil, fmt.Sprintf(format, args...))
}

// notFound maps gorm's missing-row error to a typed NotFound.
func notFound(err error, format string, args ...any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFoundf(format, args...)
	}
	return errors.Trace(err)
}
