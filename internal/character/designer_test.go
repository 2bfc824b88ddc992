package character_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"lyricvideo/internal/character"
	"lyricvideo/internal/mocks"
	"lyricvideo/internal/model"
	"lyricvideo/internal/volc"
)

var guide = model.StyleGuide{VisualStyle: "ink wash", SegmentStory: "a rainy goodbye", IsConversation: true}

func promptIs(p string) interface{} {
	return mock.MatchedBy(func(req volc.ImageRequest) bool {
		return req.Prompt == p && len(req.References) == 0
	})
}

func TestDesign_OrderAndFiles(t *testing.T) {
	dir := t.TempDir()
	gen := mocks.NewMockGenerator(t)
	images := mocks.NewMockImageService(t)

	var order []string
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool {
		return assert.Contains(t, p, "for the female lead")
	}), 500).Return("  Portrait of a young woman with a red scarf  ", nil).Once()
	images.On("GenerateImage", mock.Anything, promptIs("custom man in a grey coat")).
		Run(func(mock.Arguments) { order = append(order, "male") }).Return("https://img/male", nil).Once()
	images.On("GenerateImage", mock.Anything, promptIs("Portrait of a young woman with a red scarf")).
		Run(func(mock.Arguments) { order = append(order, "female") }).Return("https://img/female", nil).Once()
	images.On("DownloadImage", mock.Anything, "https://img/male", filepath.Join(dir, "character_male.jpg")).Return(nil).Once()
	images.On("DownloadImage", mock.Anything, "https://img/female", filepath.Join(dir, "character_female.jpg")).Return(nil).Once()

	d := character.NewDesigner(gen, images, character.Options{Size: "1080x1080"})
	refs, err := d.Design(context.Background(), guide, dir, &model.CustomCreativeInput{CharacterMaleDescription: "custom man in a grey coat"})
	require.NoError(t, err)

	assert.Equal(t, []string{"male", "female"}, order)
	require.Len(t, refs, 2)
	assert.Equal(t, model.CharacterReference{Role: model.RoleMale, ImagePath: filepath.Join(dir, "character_male.jpg"), Prompt: "custom man in a grey coat"}, refs[0])
	assert.Equal(t, model.CharacterReference{Role: model.RoleFemale, ImagePath: filepath.Join(dir, "character_female.jpg"), Prompt: "Portrait of a young woman with a red scarf"}, refs[1])
}

func TestDesign_FailureAbortsWholeSet(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	images := mocks.NewMockImageService(t)
	boom := errors.New("seedream 500")

	images.On("GenerateImage", mock.Anything, promptIs("man")).Return("https://img/male", nil).Once()
	images.On("DownloadImage", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	images.On("GenerateImage", mock.Anything, promptIs("woman")).Return("", boom).Once()

	d := character.NewDesigner(gen, images, character.Options{})
	refs, err := d.Design(context.Background(), guide, t.TempDir(), &model.CustomCreativeInput{
		CharacterMaleDescription:   "man",
		CharacterFemaleDescription: "woman",
	})
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "female")
	assert.Nil(t, refs)
}

func TestDesign_CustomDescriptionVerbatim(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	images := mocks.NewMockImageService(t)
	male := "  tall man, navy raincoat\n"
	images.On("GenerateImage", mock.Anything, promptIs(male)).Return("https://img/male", nil).Once()
	images.On("DownloadImage", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	d := character.NewDesigner(gen, images, character.Options{Roles: []model.Role{model.RoleMale}})
	refs, err := d.Design(context.Background(), guide, t.TempDir(), &model.CustomCreativeInput{CharacterMaleDescription: male})
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, male, refs[0].Prompt)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestDesign_DelaySpacesImageRequests(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	images := mocks.NewMockImageService(t)

	var calls []time.Time
	images.On("GenerateImage", mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { calls = append(calls, time.Now()) }).Return("https://img/x", nil).Twice()
	images.On("DownloadImage", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	d := character.NewDesigner(gen, images, character.Options{Delay: 60 * time.Millisecond})
	_, err := d.Design(context.Background(), guide, t.TempDir(), &model.CustomCreativeInput{
		CharacterMaleDescription:   "man",
		CharacterFemaleDescription: "woman",
	})
	require.NoError(t, err)
	require.Len(t, calls, 2)
	assert.GreaterOrEqual(t, calls[1].Sub(calls[0]), 50*time.Millisecond)
}

func TestDesign_EmptyDraftFails(t *testing.T) {
	gen := mocks.NewMockGenerator(t)
	images := mocks.NewMockImageService(t)
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("   ", nil).Once()

	_, err := character.NewDesigner(gen, images, character.Options{}).Design(context.Background(), guide, t.TempDir(), nil)
	assert.Error(t, err)
	images.AssertNotCalled(t, "GenerateImage", mock.Anything, mock.Anything)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "character_male.jpg", character.FileName(model.RoleMale))
	assert.Equal(t, "character_female.jpg", character.FileName(model.RoleFemale))
}
