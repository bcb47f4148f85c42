package ports

import (
	"planrec/domain/dataset"
)

// SheetLoader reads one named sheet of a workbook into ordered records.
// Implementations open and close the source on every call.
type SheetLoader interface {
	LoadSheet(path, sheetName string) (*dataset.Sheet, error)
}

// SnapshotReader provides read-only access to the published dataset snapshot
type SnapshotReader interface {
	Current() *dataset.Snapshot
}
