package mirror

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adii83/steam-metadata-archive/internal/fetcher"
)

type stubFetcher struct {
	lastURL string
	body    string
	err     error
}

func (s *stubFetcher) Fetch(_ context.Context, rawURL string) (*fetcher.Response, error) {
	s.lastURL = rawURL
	if s.err != nil {
		return nil, s.err
	}
	return &fetcher.Response{StatusCode: 200, Body: []byte(s.body)}, nil
}

func TestList_SortedAndDeduplicated(t *testing.T) {
	f := &stubFetcher{body: `[
		{"appid": 730, "name": "Counter-Strike 2"},
		{"appid": 10, "name": "Counter-Strike"},
		{"appid": 730, "name": "Counter-Strike 2 again"},
		{"appid": 271590, "name": "Grand Theft Auto V"},
		{"appid": 0, "name": "bogus"}
	]`}

	ids, err := NewSource(f, "").List(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{10, 730, 271590}, ids)
	assert.Equal(t, DefaultURL, f.lastURL)
}

func TestList_EmptyMirror(t *testing.T) {
	ids, err := NewSource(&stubFetcher{body: `[]`}, "http://mirror.test/ids.json").List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestList_FetchFailure(t *testing.T) {
	f := &stubFetcher{err: &fetcher.UnavailableError{URL: "x", Attempts: 3}}

	_, err := NewSource(f, "").List(context.Background())
	assert.Error(t, err)
}

func TestList_NotAnArray(t *testing.T) {
	_, err := NewSource(&stubFetcher{body: `{"appid": 10}`}, "").List(context.Background())
	assert.Error(t, err)
}

func TestList_MalformedEntry(t *testing.T) {
	_, err := NewSource(&stubFetcher{body: `[{"appid": "ten"}]`}, "").List(context.Background())
	assert.Error(t, err)
}
