package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() *SongForm {
	return &SongForm{
		Title:           "Sunrise",
		GenreID:         1,
		DurationMinutes: 3,
		DurationSeconds: 30,
		Audio: &FileMeta{
			Filename:    "sunrise.mp3",
			Size:        10 << 20,
			ContentType: "audio/mpeg",
		},
	}
}

func fieldMessages(errs []FieldError, field string) []string {
	var messages []string
	for _, e := range errs {
		if e.Field == field {
			messages = append(messages, e.Message)
		}
	}
	return messages
}

func TestValidateAccepts(t *testing.T) {
	draft, errs := validForm().Validate()
	require.Nil(t, errs)
	require.NotNil(t, draft)
	assert.Equal(t, "Sunrise", draft.Title)
	assert.Equal(t, int64(1), draft.GenreID)
	assert.Equal(t, 210, draft.Duration)
}

func TestValidateZeroDurationRejected(t *testing.T) {
	form := validForm()
	form.DurationMinutes = 0
	form.DurationSeconds = 0

	draft, errs := form.Validate()
	assert.Nil(t, draft)
	assert.Contains(t, fieldMessages(errs, "duration"), "Duration must be greater than 0 seconds.")
}

func TestValidateDurationBounds(t *testing.T) {
	form := validForm()
	form.DurationMinutes = 60
	form.DurationSeconds = -1

	_, errs := form.Validate()
	assert.NotEmpty(t, fieldMessages(errs, "duration_minutes"))
	assert.NotEmpty(t, fieldMessages(errs, "duration_seconds"))
	// The total-duration rule only applies once both parts are in range.
	assert.Empty(t, fieldMessages(errs, "duration"))
}

func TestValidateOversizedAudioRejected(t *testing.T) {
	form := validForm()
	form.Audio.Size = MaxAudioSize + 1

	draft, errs := form.Validate()
	assert.Nil(t, draft)
	assert.NotEmpty(t, fieldMessages(errs, "audio_file"))
}

func TestValidateAudioTypeRejected(t *testing.T) {
	form := validForm()
	form.Audio.ContentType = "video/mp4"

	draft, errs := form.Validate()
	assert.Nil(t, draft)
	assert.NotEmpty(t, fieldMessages(errs, "audio_file"))
}

func TestValidateM4AAccepted(t *testing.T) {
	form := validForm()
	form.Audio.Filename = "sunrise.m4a"
	form.Audio.ContentType = "audio/mp4"

	_, errs := form.Validate()
	assert.Nil(t, errs)
	assert.True(t, AllowedAudioExt("m4a"))
}

func TestValidateCoverOptional(t *testing.T) {
	form := validForm()
	_, errs := form.Validate()
	assert.Nil(t, errs)

	form.Cover = &FileMeta{Filename: "cover.png", Size: 1 << 20, ContentType: "image/png"}
	_, errs = form.Validate()
	assert.Nil(t, errs)

	form.Cover.ContentType = "image/gif"
	form.Cover.Size = MaxCoverSize + 1
	_, errs = form.Validate()
	assert.Len(t, fieldMessages(errs, "cover_image"), 2)
}

func TestValidateCollectsAllErrors(t *testing.T) {
	form := &SongForm{}

	draft, errs := form.Validate()
	assert.Nil(t, draft)
	assert.NotEmpty(t, fieldMessages(errs, "title"))
	assert.NotEmpty(t, fieldMessages(errs, "genre"))
	assert.NotEmpty(t, fieldMessages(errs, "duration"))
	assert.NotEmpty(t, fieldMessages(errs, "audio_file"))
}
