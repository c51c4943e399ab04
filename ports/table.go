package ports

import (
	"fraudscore/domain/dataset"
)

// TableReader loads a tabular file into a dataset
type TableReader interface {
	Read(path string) (*dataset.Dataset, error)
}

// TableWriter writes a dataset to a tabular file
type TableWriter interface {
	Write(path string, ds *dataset.Dataset) error
}
