package ports

import (
	"context"

	"github.com/melih/lighthouse-build/internal/core/domain"
)

// Checkout is a source tree ready to build.
type Checkout struct {
	Dir      string
	Revision domain.Revision
	// Cleanup removes any temporary files backing the checkout.
	Cleanup func() error
}

// SourceService locates source trees and resolves their revision.
type SourceService interface {
	// Open resolves a local working tree.
	Open(ctx context.Context, dir string) (*Checkout, error)
	// Clone fetches a remote repository into a temporary directory.
	Clone(ctx context.Context, repoURL string) (*Checkout, error)
}
