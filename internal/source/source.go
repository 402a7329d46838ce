package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultPattern names the yearly defendants file.
const DefaultPattern = "defendants_%d.xlsx"

// Resolved is the spreadsheet found for one year.
type Resolved struct {
	Year int
	Name string
	Data []byte
}

// Locator fetches the file for exactly one year.
// It returns ErrNotExist (possibly wrapped) when that year has no file.
type Locator interface {
	Locate(ctx context.Context, year int) (*Resolved, error)
}

// ErrNotExist marks a year without a file.
var ErrNotExist = eris.New("source file does not exist")

// SourceNotFoundError reports that none of the probed years had a file.
type SourceNotFoundError struct {
	Years []int
}

func (e *SourceNotFoundError) Error() string {
	if e == nil || len(e.Years) == 0 {
		return "no defendants file found"
	}
	ys := make([]string, len(e.Years))
	for i, y := range e.Years {
		ys[i] = fmt.Sprint(y)
	}
	return fmt.Sprintf("no defendants file found for year(s) %s", strings.Join(ys, ", "))
}

// Probe tries year, year-1, ... year-lookback and returns the first file found.
// Errors other than a missing file stop the probe immediately.
func Probe(ctx context.Context, loc Locator, year, lookback int) (*Resolved, error) {
	if lookback < 0 {
		lookback = 0
	}
	var probed []int
	for y := year; y >= year-lookback; y-- {
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "probe cancelled")
		}
		probed = append(probed, y)
		res, err := loc.Locate(ctx, y)
		if err == nil {
			return res, nil
		}
		if eris.Is(err, ErrNotExist) {
			continue
		}
		return nil, eris.Wrapf(err, "locate year %d", y)
	}
	return nil, &SourceNotFoundError{Years: probed}
}

// FileName formats pattern with year, falling back to DefaultPattern.
func FileName(pattern string, year int) string {
	if pattern == "" || !strings.Contains(pattern, "%d") {
		pattern = DefaultPattern
	}
	return fmt.Sprintf(pattern, year)
}
