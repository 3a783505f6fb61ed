package index

import (
	"github.com/spf13/afero"

	"github.com/yurifrl/bankrec/pkg/models"
)

// FileSource reads entries from an index file on every call, so a rebuilt
// index is picked up without a restart.
type FileSource struct {
	fs   afero.Fs
	path string
}

func NewFileSource(fs afero.Fs, path string) *FileSource {
	return &FileSource{fs: fs, path: path}
}

func (s *FileSource) ListOperations(filter Filter) ([]models.IndexEntry, error) {
	idx, err := Load(s.fs, s.path)
	if err != nil {
		return nil, err
	}
	return filter.Apply(idx.Operations), nil
}
