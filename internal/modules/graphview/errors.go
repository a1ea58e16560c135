package graphview

import (
	"errors"
	"fmt"

	"github.com/yungbote/sciencemap-backend/internal/platform/apierr"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrNoPath          = errors.New("no path found")
)

func invalid(format string, args ...any) error {
	return apierr.BadRequest("invalid_request", fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...)))
}

func notFound(code, format string, args ...any) error {
	return apierr.NotFound(code, fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...)))
}

func noPath(startID, endID string) error {
	return apierr.NotFound("path_not_found", fmt.Errorf("%w between %q and %q", ErrNoPath, startID, endID))
}
