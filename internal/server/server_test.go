package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/KaramelBytes/defstat/internal/analysis"
	"github.com/KaramelBytes/defstat/internal/census"
	"github.com/KaramelBytes/defstat/internal/chart"
	"github.com/KaramelBytes/defstat/internal/classify"
	"github.com/KaramelBytes/defstat/internal/compare"
	"github.com/KaramelBytes/defstat/internal/session"
	"github.com/KaramelBytes/defstat/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(t *testing.T) *session.Session {
	t.Helper()
	records := []classify.NormalizedRecord{
		{Ethnicity: census.Hispanic, OK: true},
		{Ethnicity: census.Hispanic, OK: true},
		{Ethnicity: census.White, OK: true},
		{Ethnicity: census.Black, OK: true},
		{},
	}
	res, err := analysis.Aggregate(records, census.CountyPopulation)
	require.NoError(t, err)
	return &session.Session{
		ID:        "test-load",
		Requested: 2025,
		Source:    &source.Resolved{Year: 2024, Name: "defendants_2024.xlsx"},
		Rows:      len(records),
		Result:    res,
		Palette:   census.DefaultPalette,
	}
}

func newServer(t *testing.T, layout compare.Layout) *Server {
	t.Helper()
	s, err := New(testSession(t), layout, chart.DefaultOptions())
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestNewRequiresSession(t *testing.T) {
	_, err := New(nil, compare.LayoutSplit, chart.DefaultOptions())
	assert.Error(t, err)
}

func TestHealthAndIndex(t *testing.T) {
	s := newServer(t, compare.LayoutSplit)

	rec := do(t, s.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = do(t, s.Handler(), http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/api/hover")
}

func TestComparison(t *testing.T) {
	s := newServer(t, compare.LayoutSplit)
	rec := do(t, s.Handler(), http.MethodGet, "/api/comparison", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	c := decode[Comparison](t, rec)
	assert.Equal(t, "test-load", c.LoadID)
	assert.Equal(t, 2025, c.Requested)
	assert.Equal(t, 2024, c.Year)
	assert.Equal(t, 4, c.Classified)
	assert.Equal(t, 1, c.Unclassified)
	assert.Equal(t, "split", c.Layout)
	assert.Equal(t, []string{chart.DefendantsSurface, chart.PopulationSurface}, c.Surfaces)
	require.Len(t, c.Categories, census.NumCategories)
	assert.Equal(t, census.Hispanic.String(), c.Categories[census.Hispanic].Label)
	assert.Equal(t, 50.0, c.Categories[census.Hispanic].Sample)
	assert.Equal(t, census.DefaultPalette.Of(census.Hispanic), c.Categories[census.Hispanic].Color)
}

func TestChartImages(t *testing.T) {
	s := newServer(t, compare.LayoutSplit)

	rec := do(t, s.Handler(), http.MethodGet, "/charts/defendants.svg", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.Contains(rec.Body.String(), "<svg"))

	rec = do(t, s.Handler(), http.MethodGet, "/charts/nope.svg", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHoverByIndexSynchronizesSurfaces(t *testing.T) {
	s := newServer(t, compare.LayoutSplit)

	rec := do(t, s.Handler(), http.MethodPost, "/api/hover", map[string]any{"surface": chart.PopulationSurface, "index": int(census.Asian)})
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[Snapshot](t, rec)
	assert.Equal(t, int(census.Asian), snap.Index)
	assert.Equal(t, census.Asian.String(), snap.Category)
	assert.Equal(t, census.DefaultPalette.Of(census.Asian), snap.Color)
	assert.True(t, strings.HasPrefix(snap.Text, census.Asian.String()+": 0.00% of defendants vs "))
	assert.Equal(t, map[string]int{chart.DefendantsSurface: 2, chart.PopulationSurface: 2}, snap.Emphasized)

	rec = do(t, s.Handler(), http.MethodGet, "/api/summary", nil)
	assert.Equal(t, snap, decode[Snapshot](t, rec))
}

func TestHoverByPointerAndLeave(t *testing.T) {
	s := newServer(t, compare.LayoutCombined)
	opt := chart.DefaultOptions()

	// Left edge of the plot area sits in the first category band.
	x, y := float64(opt.Padding)+1, float64(opt.Height)/2
	rec := do(t, s.Handler(), http.MethodPost, "/api/hover", map[string]any{"surface": chart.CombinedSurface, "x": x, "y": y})
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[Snapshot](t, rec)
	assert.Equal(t, int(census.White), snap.Index)
	assert.Equal(t, int(census.White), snap.Emphasized[chart.CombinedSurface])
	assert.NotEmpty(t, snap.Text)

	rec = do(t, s.Handler(), http.MethodPost, "/api/leave", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap = decode[Snapshot](t, rec)
	assert.Equal(t, compare.NoCategory, snap.Index)
	assert.Empty(t, snap.Text)
	assert.Equal(t, compare.NoCategory, snap.Emphasized[chart.CombinedSurface])
}

func TestHoverRejectsBadRequests(t *testing.T) {
	s := newServer(t, compare.LayoutSplit)

	req := httptest.NewRequest(http.MethodPost, "/api/hover", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s.Handler(), http.MethodPost, "/api/hover", map[string]any{"surface": chart.DefendantsSurface})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s.Handler(), http.MethodPost, "/api/hover", map[string]any{"surface": "combined", "index": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestConcurrentHoversStayConsistent(t *testing.T) {
	s := newServer(t, compare.LayoutSplit)
	h := s.Handler()

	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			idx := i % census.NumCategories
			surface := chart.DefendantsSurface
			if i%2 == 1 {
				surface = chart.PopulationSurface
			}
			do(t, h, http.MethodPost, "/api/hover", map[string]any{"surface": surface, "index": idx})
		}(i)
	}
	wg.Wait()

	snap := decode[Snapshot](t, do(t, h, http.MethodGet, "/api/summary", nil))
	assert.Equal(t, snap.Index, snap.Emphasized[chart.DefendantsSurface])
	assert.Equal(t, snap.Index, snap.Emphasized[chart.PopulationSurface])
	assert.True(t, strings.HasPrefix(snap.Text, census.Category(snap.Index).String()+":"))
}

func TestOlderEventsDoNotOverrideNewer(t *testing.T) {
	s := newServer(t, compare.LayoutSplit)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/hover", map[string]any{"surface": chart.DefendantsSurface, "index": int(census.Hispanic), "seq": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decode[Snapshot](t, rec).Seq)

	// A leave sent before the hover but answered after it.
	rec = do(t, h, http.MethodPost, "/api/leave", map[string]any{"seq": 1})
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[Snapshot](t, rec)
	assert.True(t, snap.Stale)
	assert.Equal(t, int(census.Hispanic), snap.Index)

	// A pointer move with an old sequence number is ignored too.
	rec = do(t, h, http.MethodPost, "/api/hover", map[string]any{"surface": chart.PopulationSurface, "index": int(census.White), "seq": 2})
	assert.True(t, decode[Snapshot](t, rec).Stale)

	snap = decode[Snapshot](t, do(t, h, http.MethodGet, "/api/summary", nil))
	assert.Equal(t, int(census.Hispanic), snap.Index)
	assert.Equal(t, int(census.Hispanic), snap.Emphasized[chart.DefendantsSurface])
	assert.Equal(t, int(census.Hispanic), snap.Emphasized[chart.PopulationSurface])

	rec = do(t, h, http.MethodPost, "/api/leave", map[string]any{"seq": 3})
	snap = decode[Snapshot](t, rec)
	assert.False(t, snap.Stale)
	assert.Equal(t, compare.NoCategory, snap.Index)
	assert.Empty(t, snap.Text)
}

func TestPageSendsLatestPointerPosition(t *testing.T) {
	s := newServer(t, compare.LayoutSplit)
	body := do(t, s.Handler(), http.MethodGet, "/", nil).Body.String()

	// Events arriving during a request are queued, not dropped, and tagged.
	assert.NotContains(t, body, "if (pending) return")
	assert.Contains(t, body, "if (queued) send(queued)")
	assert.Contains(t, body, "{seq: id}")
	assert.Contains(t, body, "if (id < applied || snap.stale) return")
}
