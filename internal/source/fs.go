package source

import (
	"context"
	"errors"
	"io/fs"
	"path"

	"github.com/rotisserie/eris"
	"github.com/spf13/afero"
)

// FSLocator reads yearly files from a directory on an afero filesystem.
type FSLocator struct {
	Fs      afero.Fs
	Dir     string
	Pattern string
}

// NewFSLocator returns a locator over the OS filesystem.
func NewFSLocator(dir, pattern string) *FSLocator {
	return &FSLocator{Fs: afero.NewOsFs(), Dir: dir, Pattern: pattern}
}

func (l *FSLocator) Locate(_ context.Context, year int) (*Resolved, error) {
	name := FileName(l.Pattern, year)
	p := path.Join(l.Dir, name)
	if l.Dir == "" {
		p = name
	}
	b, err := afero.ReadFile(l.Fs, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, eris.Wrapf(ErrNotExist, "%s", p)
		}
		return nil, eris.Wrapf(err, "read %s", p)
	}
	return &Resolved{Year: year, Name: name, Data: b}, nil
}
