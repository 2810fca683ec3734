package domain

import (
	"fmt"
	"path/filepath"
)

// Target is a single image build unit: a Dockerfile and the image name it produces.
type Target struct {
	Name string `json:"name"` // namespace/dir, used as the image repository
	Path string `json:"path"` // path to the Dockerfile; its directory is the build context
}

// ContextDir returns the root of the target's build context.
func (t Target) ContextDir() string {
	return filepath.Dir(t.Path)
}

// Dockerfile returns the Dockerfile name relative to the build context.
func (t Target) Dockerfile() string {
	return filepath.Base(t.Path)
}

// Ref returns the image reference for this target at the given revision.
func (t Target) Ref(rev Revision) string {
	return fmt.Sprintf("%s:%s", t.Name, rev)
}

// Revision is the tag applied to every image built in one run.
type Revision string

// Outcome pairs a target with the image id its build produced.
// ImageID is empty when no success marker was observed.
type Outcome struct {
	Target  Target `json:"container"`
	ImageID string `json:"image_id,omitempty"`
}

// Built reports whether the build produced an image.
func (o Outcome) Built() bool {
	return o.ImageID != ""
}
