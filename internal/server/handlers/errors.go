// Maps domain errors to API errors.

package handlers

import (
	"errors"

	"github.com/stagehand/stagehand/internal/catalog"
	"github.com/stagehand/stagehand/internal/server/dto"
	"github.com/stagehand/stagehand/internal/tableview"
)

// apiError converts catalog and tableview errors to *dto.APIError. Other
// errors are returned unchanged and become 500s.
func apiError(err error) error {
	if err == nil {
		return nil
	}
	var ce *catalog.Error
	if errors.As(err, &ce) {
		switch ce.Kind {
		case catalog.KindValidation:
			return dto.ValidationFailed(ce.Fields)
		case catalog.KindInvalid:
			return dto.InvalidFormat(ce.Message)
		case catalog.KindNotFound:
			return dto.NotFound(ce.Message)
		case catalog.KindStore:
			return dto.StorageError(ce.Message).Wrap(ce.Unwrap())
		}
		return dto.Internal(ce.Message).Wrap(err)
	}
	switch {
	case errors.Is(err, tableview.ErrInvalidPageSize):
		return dto.InvalidFormat("size must be one of 5, 10, 20, 50 or 100.").WithDetail("allowed", tableview.PageSizes)
	case errors.Is(err, tableview.ErrUnknownColumn):
		return dto.InvalidFormat("Unknown sort column.")
	}
	return err
}
