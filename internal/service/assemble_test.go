package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lyricvideo/internal/model"
)

func (h *harness) writeFrames(t *testing.T, songID string, lines ...int) {
	dir := filepath.Join(h.dir, "frames", songID)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	for _, n := range lines {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("line_%03d.jpg", n)), []byte("jpg"), 0o644))
	}
}

func TestAssemble_FromExistingFrames(t *testing.T) {
	h := newHarness(t)
	h.writeFrames(t, "s1", 1, 2, 3, 4, 5)

	res, err := h.service(nil).Assemble(context.Background(), model.VideoGenerationRequest{SongID: "s1", StartLine: 2})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(h.dir, "videos", "song_s1_lines_2-5.mp4"), res.VideoPath)
	assert.Equal(t, 4, res.TotalImages)
	assert.Equal(t, 5, res.EndLine)
	assert.Empty(t, res.LogPath)
	assert.Equal(t, res.VideoPath, h.compositor.out)
	assert.Nil(t, h.style.target)
	assert.Nil(t, h.director.lines)

	b, err := os.ReadFile(res.MetadataPath)
	require.NoError(t, err)
	var meta model.VideoMetadata
	require.NoError(t, json.Unmarshal(b, &meta))
	assert.True(t, meta.AssembledFromExisting)
	assert.Nil(t, meta.StyleGuide)
	require.Len(t, meta.Images, 4)
	assert.Equal(t, 2, meta.Images[0].LineNumber)
	assert.Equal(t, filepath.Join(h.dir, "frames", "s1", "line_002.jpg"), meta.Images[0].ImagePath)
	assert.Equal(t, "N/A - using existing image", meta.Images[0].PromptUsed)
	assert.Equal(t, 3.0, meta.Images[0].StartTime)
	assert.Equal(t, 15.0, meta.Images[3].EndTime)
	assert.NotContains(t, string(b), "style_guide")
}

func TestAssemble_MissingFrameNamesLines(t *testing.T) {
	h := newHarness(t)
	h.writeFrames(t, "s1", 1, 2, 4, 5)

	_, err := h.service(nil).Assemble(context.Background(), model.VideoGenerationRequest{SongID: "s1"})
	require.ErrorIs(t, err, ErrMissingFrames)
	assert.Contains(t, err.Error(), "lines [3]")
	assert.Empty(t, h.compositor.out)
	assert.Empty(t, h.audio.calls)
}

func TestAssemble_NoFramesDir(t *testing.T) {
	h := newHarness(t)
	end := 2
	_, err := h.service(nil).Assemble(context.Background(), model.VideoGenerationRequest{SongID: "s2", EndLine: &end})
	require.ErrorIs(t, err, ErrMissingFrames)
	assert.Contains(t, err.Error(), "lines [1 2]")
}
