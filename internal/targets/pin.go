package targets

import (
	"bytes"

	"github.com/melih/lighthouse-build/internal/core/domain"
)

// PinParents rewrites FROM lines naming one of images, untagged, so that they
// use the image built at rev. Other lines are unchanged.
func PinParents(dockerfile []byte, images map[string]bool, rev domain.Revision) []byte {
	lines := bytes.Split(dockerfile, []byte("\n"))
	for i, line := range lines {
		if m := fromRe.FindSubmatch(line); m != nil && images[string(m[2])] {
			lines[i] = bytes.Join([][]byte{m[1], m[2], []byte(":" + string(rev)), m[3]}, nil)
		}
	}
	return bytes.Join(lines, []byte("\n"))
}
