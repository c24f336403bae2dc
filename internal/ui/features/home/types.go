package home

import (
	"context"

	"github.com/leapstack-labs/leapschema/pkg/core"
)

// DatasetLister lists the datasets known to the store.
type DatasetLister interface {
	ListDatasets(ctx context.Context) ([]core.DatasetInfo, error)
}
