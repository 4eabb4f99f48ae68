package collect

import (
	"fmt"
	"strings"

	"github.com/matzehuels/stackresolve/pkg/artifact"
)

// CollectionError records why one node of the graph could not be
// collected. The rest of the graph is unaffected.
type CollectionError struct {
	NodeID   int
	Artifact artifact.Artifact
	Path     []string // Artifact strings from the root down to the node
	Cause    error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collect %s (via %s): %v", e.Artifact, strings.Join(e.Path, " -> "), e.Cause)
}

func (e *CollectionError) Unwrap() error { return e.Cause }
