package timeline

import "errors"

var (
	ErrInvalidRange     = errors.New("invalid element range")
	ErrDuplicateID      = errors.New("duplicate element id")
	ErrNotFound         = errors.New("not found")
	ErrStaleReference   = errors.New("stale track reference")
	ErrOverlap          = errors.New("element overlaps another element on the track")
	ErrKindMismatch     = errors.New("element kind mismatch")
	ErrInvalidTrackType = errors.New("invalid track type")
	ErrInvalidKind      = errors.New("invalid element kind")
	ErrMissingID        = errors.New("element id is required")
)

// Code returns a stable machine-readable code for the timeline error wrapped
// in err, or "" if err is not a timeline error.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRange):
		return "INVALID_RANGE"
	case errors.Is(err, ErrDuplicateID):
		return "DUPLICATE_ID"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrStaleReference):
		return "STALE_REFERENCE"
	case errors.Is(err, ErrOverlap):
		return "OVERLAP"
	case errors.Is(err, ErrKindMismatch):
		return "KIND_MISMATCH"
	case errors.Is(err, ErrInvalidTrackType):
		return "INVALID_TRACK_TYPE"
	case errors.Is(err, ErrInvalidKind):
		return "INVALID_KIND"
	case errors.Is(err, ErrMissingID):
		return "MISSING_ID"
	}
	return ""
}
