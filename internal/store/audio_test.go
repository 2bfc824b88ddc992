package store

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateURLs(t *testing.T) {
	f := NewAudioFetcher("https://proj.supabase.co/rest/v1", time.Second)
	assert.Equal(t, []string{
		"https://proj.supabase.co/storage/v1/object/public/audio/albums/a1/song.mp3",
		"https://proj.supabase.co/storage/v1/object/public/albums/a1/song.mp3",
		"https://proj.supabase.co/storage/v1/object/public/audio/a1/song.mp3",
	}, f.CandidateURLs("albums/a1/song.mp3"))
}

func TestFetch_FallsThroughPatterns(t *testing.T) {
	var hits []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits = append(hits, r.URL.Path)
		if r.URL.Path == "/storage/v1/object/public/audio/a1/song.mp3" {
			_, _ = w.Write([]byte("ID3"))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "temp", "song_1.mp3")
	f := NewAudioFetcher(srv.URL+"/rest/v1/", time.Second)
	require.NoError(t, f.Fetch(context.Background(), "albums/a1/song.mp3", dest))

	assert.Len(t, hits, 3)
	b, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "ID3", string(b))
	assert.NoFileExists(t, dest+".part")
}

func TestFetch_AllPatternsFail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "song.mp3")
	err := NewAudioFetcher(srv.URL, time.Second).Fetch(context.Background(), "x.mp3", dest)
	assert.ErrorIs(t, err, ErrAudioUnavailable)
	assert.Contains(t, err.Error(), "status 403")
	assert.NoFileExists(t, dest)
}

func TestLyricsQuery(t *testing.T) {
	q, args := lyricsQuery("s1", nil, nil)
	assert.Contains(t, q, "WHERE song_id = $1 ORDER BY line_number")
	assert.Equal(t, []any{"s1"}, args)

	start, end := 3, 8
	q, args = lyricsQuery("s1", &start, &end)
	assert.Contains(t, q, "line_number >= $2 AND line_number <= $3 ORDER BY line_number")
	assert.Equal(t, []any{"s1", 3, 8}, args)

	q, args = lyricsQuery("s1", nil, &end)
	assert.Contains(t, q, "line_number <= $2")
	assert.Equal(t, []any{"s1", 8}, args)
}
