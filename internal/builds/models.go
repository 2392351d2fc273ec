package builds

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("build not found")

// Build is the stored metadata of one assembled package. The configuration
// record itself is not kept; only what is needed to list and serve archives.
type Build struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ScormVersion string    `json:"scorm_version"`
	PackageType  string    `json:"package_type"`
	FileName     string    `json:"file_name"`
	BlobKey      string    `json:"-"`
	Digest       string    `json:"digest"`
	SizeBytes    int64     `json:"size_bytes"`
	BuiltBy      string    `json:"built_by,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ListOpts struct {
	Version string // filter: "1.2" | "2004"
	Limit   int
	Offset  int
}
