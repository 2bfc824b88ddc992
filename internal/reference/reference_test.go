package reference_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lyricvideo/internal/llm"
	"lyricvideo/internal/mocks"
	"lyricvideo/internal/model"
	"lyricvideo/internal/reference"
)

func characters() []model.CharacterReference {
	return []model.CharacterReference{
		{Role: model.RoleMale, ImagePath: "frames/s/character_male.jpg", Prompt: "male portrait"},
		{Role: model.RoleFemale, ImagePath: "frames/s/character_female.jpg", Prompt: "female portrait"},
		{Role: "extra", ImagePath: "frames/s/character_extra.jpg"},
	}
}

func history(n int) ([]string, []string) {
	prompts := make([]string, n)
	paths := make([]string, n)
	for i := 0; i < n; i++ {
		prompts[i] = "prompt"
		paths[i] = filepath.Join("frames", "s", fmt.Sprintf("line_%03d.jpg", i+1))
	}
	return prompts, paths
}

func TestFixedAnchors_BoundedAndIgnoresHistory(t *testing.T) {
	prompts, paths := history(4)
	sel, err := reference.NewFixedAnchors().Select(context.Background(), reference.Request{
		HistoryPrompts: prompts,
		HistoryPaths:   paths,
		Characters:     characters(),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"frames/s/character_male.jpg", "frames/s/character_female.jpg"}, sel.Paths)
	assert.Empty(t, sel.Indices)
	assert.LessOrEqual(t, len(sel.Paths), reference.MaxAnchors)
}

func TestFixedAnchors_FirstLine(t *testing.T) {
	sel, err := reference.NewFixedAnchors().Select(context.Background(), reference.Request{Characters: characters()[:2]})
	require.NoError(t, err)
	assert.Len(t, sel.Paths, 2)
}

func TestAdaptive_EmptyHistoryNoCall(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	sel, err := reference.NewAdaptive(gen).Select(context.Background(), reference.Request{})
	require.NoError(t, err)
	assert.Empty(t, sel.Paths)
	assert.Empty(t, sel.Indices)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestAdaptive_FiltersAndBounds(t *testing.T) {
	prompts, paths := history(5)
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return assert.Contains(t, p, "Image 4: prompt")
	}), 500).Return(`Sure: {"selected_indices": [7, -1, 1, 1, 0, 3, 4], "reasoning": "neutral views"}`, nil).Once()

	sel, err := reference.NewAdaptive(gen).Select(context.Background(), reference.Request{
		HistoryPrompts: prompts,
		HistoryPaths:   paths,
		Line:           model.LyricLine{LineNumber: 6},
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 3}, sel.Indices)
	assert.Equal(t, []string{paths[1], paths[0], paths[3]}, sel.Paths)
	assert.Equal(t, "neutral views", sel.Rationale)
	for _, idx := range sel.Indices {
		assert.True(t, idx >= 0 && idx < len(prompts))
	}
}

func TestAdaptive_ParseFailure(t *testing.T) {
	prompts, paths := history(2)
	gen := mocks.NewMockGenerator(t)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("use the first one", nil).Once()

	_, err := reference.NewAdaptive(gen).Select(context.Background(), reference.Request{HistoryPrompts: prompts, HistoryPaths: paths})
	var perr *llm.ParseError
	assert.ErrorAs(t, err, &perr)
}

func TestNewPolicy(t *testing.T) {
	p, err := reference.NewPolicy("fixed", nil)
	require.NoError(t, err)
	assert.False(t, p.HistoryBased())

	p, err = reference.NewPolicy("adaptive", mocks.NewMockGenerator(t))
	require.NoError(t, err)
	assert.True(t, p.HistoryBased())

	_, err = reference.NewPolicy("previous-image", nil)
	assert.Error(t, err)
}

func TestLoader_SkipsMissingAndEncodes(t *testing.T) {
	dir := t.TempDir()
	jpg := filepath.Join(dir, "character_male.jpg")
	png := filepath.Join(dir, "line_001.png")
	require.NoError(t, os.WriteFile(jpg, []byte("jpeg"), 0o644))
	require.NoError(t, os.WriteFile(png, []byte("png"), 0o644))

	out, loaded := reference.NewLoader().Load([]string{jpg, filepath.Join(dir, "missing.jpg"), dir, png})
	require.Len(t, out, 2)
	assert.Equal(t, []string{jpg, png}, loaded)
	assert.Equal(t, "data:image/jpeg;base64,"+base64.StdEncoding.EncodeToString([]byte("jpeg")), out[0])
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("png")), out[1])
}

func TestLoader_AllMissing(t *testing.T) {
	out, loaded := reference.NewLoader().Load([]string{"/nonexistent/a.jpg"})
	assert.Empty(t, out)
	assert.Empty(t, loaded)
}
