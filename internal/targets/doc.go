// Package targets finds the images to build in a source tree and orders
// them so that every image is built after the in-tree images it is based on.
//
// Each directory holding a Dockerfile is one target named
// "<namespace>/<directory name>". A target depends on another target when its
// Dockerfile's FROM line names that target's image without a tag. Selection
// helpers narrow a discovered set the way the command line flags do.
package targets
