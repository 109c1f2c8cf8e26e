package content

import "errors"

var (
	ErrContentNotFound = errors.New("educational content not found")
	ErrSlugTaken       = errors.New("slug is already in use")
	ErrInvalidSlug     = errors.New("slug must contain lowercase letters, digits and single hyphens")
)
