package services

import (
	"errors"

	"github.com/yungbote/appversion-backend/internal/versioning"
)

var (
	ErrInvalidTimestamp     = versioning.ErrInvalidTimestamp
	ErrInvalidVersionFormat = versioning.ErrInvalidVersionFormat
	ErrStoreUnavailable     = errors.New("version store unavailable")
	ErrPublishConflict      = errors.New("concurrent version publish")
)
