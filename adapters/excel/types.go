package excel

import (
	"io"

	"github.com/xuri/excelize/v2"
)

// Source is a workbook the reader can open. Each Open returns a fresh handle
// that the caller must close.
type Source interface {
	Open() (*excelize.File, error)
	Name() string
}

// FileSource opens a workbook from disk.
type FileSource string

// Open opens the workbook file.
func (s FileSource) Open() (*excelize.File, error) {
	return excelize.OpenFile(string(s))
}

// Name returns the file path.
func (s FileSource) Name() string { return string(s) }

// StreamSource reads a workbook from a stream. A stream can only be opened once.
type StreamSource struct {
	Label  string
	Reader io.Reader
}

// Open reads the whole stream into a workbook.
func (s StreamSource) Open() (*excelize.File, error) {
	return excelize.OpenReader(s.Reader)
}

// Name returns the label given to the stream.
func (s StreamSource) Name() string {
	if s.Label == "" {
		return "<stream>"
	}
	return s.Label
}
