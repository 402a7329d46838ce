// Package session holds everything derived from one load of a defendants
// file: which file was read, how its rows classified, and the aggregated
// comparison the charts are bound to.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KaramelBytes/defstat/internal/analysis"
	"github.com/KaramelBytes/defstat/internal/census"
	"github.com/KaramelBytes/defstat/internal/classify"
	"github.com/KaramelBytes/defstat/internal/compare"
	"github.com/KaramelBytes/defstat/internal/parser"
	"github.com/KaramelBytes/defstat/internal/source"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Options configures a load.
type Options struct {
	Year       int
	Lookback   int
	Locator    source.Locator
	Normalizer *classify.Normalizer
	Reference  census.Population
	Palette    census.Palette
}

// Session is the immutable outcome of a successful load.
type Session struct {
	ID        string
	Requested int
	Source    *source.Resolved
	Rows      int
	Column    string
	Result    *analysis.Result
	Palette   census.Palette
	LoadedAt  time.Time
}

// Load locates the file for opt.Year (falling back up to opt.Lookback years),
// decodes it, classifies every row and aggregates the result.
func Load(ctx context.Context, opt Options) (*Session, error) {
	if opt.Locator == nil {
		return nil, eris.New("session: no source locator configured")
	}
	if opt.Normalizer == nil {
		opt.Normalizer = classify.NewNormalizer(nil, nil)
	}
	if opt.Reference == (census.Population{}) {
		opt.Reference = census.CountyPopulation
	}
	if opt.Palette == (census.Palette{}) {
		opt.Palette = census.DefaultPalette
	}

	id := uuid.NewString()
	log := zap.L().With(zap.String("load_id", id))

	res, err := source.Probe(ctx, opt.Locator, opt.Year, opt.Lookback)
	if err != nil {
		return nil, err
	}
	if res.Year != opt.Year {
		log.Info("using earlier year", zap.Int("requested", opt.Year), zap.Int("year", res.Year))
	}
	log.Debug("source resolved", zap.String("name", res.Name), zap.Int("bytes", len(res.Data)))

	rows, err := parser.Decode(res.Name, res.Data)
	if err != nil {
		return nil, err
	}

	var column string
	if len(rows) > 0 {
		column = opt.Normalizer.Column(rows[0])
		if column == "" {
			log.Warn("no ethnicity column found", zap.String("file", res.Name), zap.Strings("looked_for", opt.Normalizer.Columns))
		}
	}

	records := opt.Normalizer.NormalizeAll(rows)
	result, err := analysis.Aggregate(records, opt.Reference)
	if err != nil {
		return nil, err
	}
	log.Info("defendants aggregated",
		zap.String("file", res.Name),
		zap.Int("rows", len(rows)),
		zap.Int("classified", result.Total),
		zap.Int("unclassified", result.Unclassified))

	return &Session{
		ID:        id,
		Requested: opt.Year,
		Source:    res,
		Rows:      len(rows),
		Column:    column,
		Result:    result,
		Palette:   opt.Palette,
		LoadedAt:  time.Now(),
	}, nil
}

// Inputs converts the result into what the comparator binds.
func (s *Session) Inputs() compare.Inputs {
	in := compare.Inputs{
		Categories: census.Labels(),
		Sample:     make([]float64, census.NumCategories),
		Reference:  make([]float64, census.NumCategories),
		Colors:     s.Palette.Colors(),
	}
	for i := 0; i < census.NumCategories; i++ {
		in.Sample[i] = s.Result.Sample[i]
		in.Reference[i] = s.Result.Reference[i]
	}
	return in
}

// Describe turns a load or bind failure into a single line for the user.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var nf *source.SourceNotFoundError
	var de *parser.DecodeError
	var rt *compare.RenderTargetMissingError
	switch {
	case errors.As(err, &nf):
		return fmt.Sprintf("Could not find a defendants spreadsheet (%s).", nf.Error())
	case errors.As(err, &de):
		return fmt.Sprintf("Could not read %s as a spreadsheet.", de.Name)
	case eris.Is(err, analysis.ErrEmptyClassifiableSet):
		return "No defendant rows had a recognisable ethnicity, so no percentages can be shown."
	case errors.As(err, &rt):
		return fmt.Sprintf("Cannot draw the comparison: missing %s.", rt.Target)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "Loading was cancelled before the spreadsheet arrived."
	}
	return err.Error()
}
