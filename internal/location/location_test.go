package location

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavenow/internal/model"
)

type mockSource struct {
	pos   model.Position
	err   error
	calls int
}

func (m *mockSource) CurrentPosition(_ context.Context, _ int) (model.Position, error) {
	m.calls++
	return m.pos, m.err
}

type mockCache struct {
	pos    model.Position
	getErr error
	sets   []model.Position
}

func (m *mockCache) Get() (model.Position, error) {
	if m.getErr != nil {
		return model.Position{}, m.getErr
	}
	return m.pos, nil
}

func (m *mockCache) Set(pos model.Position) error {
	m.sets = append(m.sets, pos)
	m.pos = pos
	return nil
}

func TestCurrent_LiveFixOverwritesCache(t *testing.T) {
	source := &mockSource{pos: model.Position{Lat: 52.5, Lon: 13.4}}
	cache := &mockCache{pos: model.Position{Lat: 1, Lon: 1}}
	p := NewProvider(source, cache)

	pos, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Position{Lat: 52.5, Lon: 13.4}, pos)
	require.Len(t, cache.sets, 1)
	assert.Equal(t, pos, cache.sets[0])
}

func TestCurrent_FallsBackToCache(t *testing.T) {
	source := &mockSource{err: errors.New("gps offline")}
	cache := &mockCache{pos: model.Position{Lat: 48.1, Lon: 11.6}}
	p := NewProvider(source, cache)

	pos, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Position{Lat: 48.1, Lon: 11.6}, pos)
	assert.Empty(t, cache.sets)
}

func TestCurrent_IncompleteFixFallsBackToCache(t *testing.T) {
	source := &mockSource{} // zero coordinates
	cache := &mockCache{pos: model.Position{Lat: 48.1, Lon: 11.6}}
	p := NewProvider(source, cache)

	pos, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.Position{Lat: 48.1, Lon: 11.6}, pos)
}

func TestCurrent_NothingAvailableIsFatal(t *testing.T) {
	source := &mockSource{err: errors.New("gps offline")}
	cache := &mockCache{getErr: errors.New("no cache file")}
	p := NewProvider(source, cache)

	_, err := p.Current(context.Background())
	require.ErrorIs(t, err, ErrPositionUnavailable)
}

func TestHTTPSource_PassesAccuracyHintAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("acc"))
		assert.Equal(t, "Bearer sekrit", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"lat": 52.5, "lon": 13.4}`))
	}))
	t.Cleanup(srv.Close)

	source := NewHTTPSource(srv.URL, "sekrit")
	pos, err := source.CurrentPosition(context.Background(), DefaultAccuracyMeters)
	require.NoError(t, err)
	assert.Equal(t, model.Position{Lat: 52.5, Lon: 13.4}, pos)
}

func TestHTTPSource_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	source := NewHTTPSource(srv.URL, "")
	_, err := source.CurrentPosition(context.Background(), DefaultAccuracyMeters)
	assert.Error(t, err)
}

func TestFileCache_RoundTrip(t *testing.T) {
	cache := NewFileCache(t.TempDir() + "/position.json")

	want := model.Position{Lat: 52.5, Lon: 13.4}
	require.NoError(t, cache.Set(want))

	got, err := cache.Get()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestFileCache_GetOnMissingFile(t *testing.T) {
	cache := NewFileCache(t.TempDir() + "/missing.json")
	_, err := cache.Get()
	assert.Error(t, err)
}
