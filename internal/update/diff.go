package update

import (
	"fmt"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// unifiedDiff renders a unified diff between the local file and the
// release version, shown to the user before a smart-update overwrite.
func unifiedDiff(relPath string, local, release []byte) string {
	edits := myers.ComputeEdits(span.URIFromPath(relPath), string(local), string(release))
	return fmt.Sprint(gotextdiff.ToUnified(
		relPath+" (local)",
		relPath+" (release)",
		string(local),
		edits,
	))
}
