package softdelete

import (
	"errors"

	"account-service/internal/models"
)

// ErrNotFound is returned when an id does not resolve under the applicable
// mode. A message whose owner is missing or hidden fails with it as well:
// callers cannot tell a deleted account from one that never existed.
var ErrNotFound = errors.New("not found")

// ErrValidation matches malformed creation input.
var ErrValidation = models.ErrValidation
