package targets

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/melih/lighthouse-build/internal/core/domain"
)

const dockerfileName = "Dockerfile"

var (
	ErrCycle         = errors.New("dependency cycle between targets")
	ErrUnknownTarget = errors.New("unknown target")
)

// fromRe matches a FROM instruction and captures the image and the remainder.
// Flags such as --platform stay with the instruction.
var fromRe = regexp.MustCompile(`(?i)^(\s*FROM\s+(?:--\S+\s+)*)(\S+)(.*)$`)

// Node is a discovered target and the image it is built from.
type Node struct {
	domain.Target
	Parent string // image named by the Dockerfile's FROM line
}

// Discover walks root for Dockerfiles and returns their targets in build order.
// Directories named in skip (and hidden directories) are not descended into.
func Discover(root, namespace string, skip ...string) (*Graph, error) {
	skipped := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipped[s] = true
	}

	var nodes []Node
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p != root && (strings.HasPrefix(d.Name(), ".") || skipped[d.Name()]) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Name() != dockerfileName {
			return nil
		}
		parent, err := parentImage(p)
		if err != nil {
			return err
		}
		dir := filepath.Base(filepath.Dir(p))
		if dir == "." || dir == string(filepath.Separator) {
			abs, err := filepath.Abs(filepath.Dir(p))
			if err != nil {
				return err
			}
			dir = filepath.Base(abs)
		}
		nodes = append(nodes, Node{
			Target: domain.Target{Name: path.Join(namespace, dir), Path: p},
			Parent: parent,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to discover targets in %s: %w", root, err)
	}
	return NewGraph(nodes)
}

// parentImage returns the image named by the first FROM line of a Dockerfile.
func parentImage(dockerfile string) (string, error) {
	data, err := os.ReadFile(dockerfile)
	if err != nil {
		return "", err
	}
	for _, line := range bytes.Split(data, []byte("\n")) {
		if m := fromRe.FindSubmatch(line); m != nil {
			return string(m[2]), nil
		}
	}
	return "", nil
}
