// Package state persists schema snapshots and field edit overlays in SQLite.
//
// Every captured or imported schema becomes a numbered version of its
// dataset. The editable overlay for a dataset is stored as a whole and
// replaced on every persist.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// Compile-time check that SQLiteStore satisfies core.Store.
var _ core.Store = (*SQLiteStore)(nil)

// SnapshotHash returns a content hash over the fields and raw form of a
// snapshot. Version numbers and timestamps do not contribute.
func SnapshotHash(snap *core.Snapshot) (string, error) {
	fields := snap.Fields
	if fields == nil {
		fields = []core.SchemaField{}
	}
	body, err := json.Marshal(struct {
		Fields  []core.SchemaField `json:"fields"`
		RawForm string             `json:"raw_form"`
	}{fields, snap.RawForm})
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:]), nil
}
