// Package upload validates song upload form input before anything is
// persisted. It mirrors the field-level error reporting of an HTML form:
// every violated rule is collected, nothing fails fast.
package upload

const (
	// MaxAudioSize is the audio file size limit (50 MiB).
	MaxAudioSize = 50 << 20
	// MaxCoverSize is the cover image size limit (10 MiB).
	MaxCoverSize = 10 << 20
)

// Audio MIME types accepted on upload. The extension allow-list below
// matches: every accepted MIME type maps to an allowed extension, so a
// valid upload can never be rejected later at the persistence layer.
var allowedAudioTypes = map[string]bool{
	"audio/mpeg": true,
	"audio/mp3":  true,
	"audio/wav":  true,
	"audio/mp4":  true, // M4A
	"audio/ogg":  true,
}

var allowedAudioExts = map[string]bool{
	"mp3": true,
	"wav": true,
	"ogg": true,
	"m4a": true,
}

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// FileMeta describes an uploaded file as seen by the validator.
type FileMeta struct {
	Filename    string
	Size        int64
	ContentType string
}

// FieldError is a single validation failure attached to a form field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// SongForm is the raw song upload input.
type SongForm struct {
	Title           string
	GenreID         int64
	DurationMinutes int
	DurationSeconds int
	Audio           *FileMeta
	Cover           *FileMeta
}

// Draft is a validated song draft. The owning artist, zeroed counters and
// the approval flag are set by the upload handler, not here.
type Draft struct {
	Title    string
	GenreID  int64
	Duration int // Total seconds, minutes and seconds are not kept apart.
}

// AllowedAudioExt reports whether ext (without dot) is a supported audio
// file extension.
func AllowedAudioExt(ext string) bool {
	return allowedAudioExts[ext]
}

// Validate checks the form and returns a draft, or the full list of
// field-level errors when any rule is violated.
func (f *SongForm) Validate() (*Draft, []FieldError) {
	var errs []FieldError

	if f.Title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "Title is required."})
	}
	if f.GenreID <= 0 {
		errs = append(errs, FieldError{Field: "genre", Message: "Genre is required."})
	}

	if f.DurationMinutes < 0 || f.DurationMinutes > 59 {
		errs = append(errs, FieldError{Field: "duration_minutes", Message: "Minutes must be between 0 and 59."})
	}
	if f.DurationSeconds < 0 || f.DurationSeconds > 59 {
		errs = append(errs, FieldError{Field: "duration_seconds", Message: "Seconds must be between 0 and 59."})
	}
	if f.DurationMinutes >= 0 && f.DurationMinutes <= 59 && f.DurationSeconds >= 0 && f.DurationSeconds <= 59 {
		if f.DurationMinutes*60+f.DurationSeconds <= 0 {
			errs = append(errs, FieldError{Field: "duration", Message: "Duration must be greater than 0 seconds."})
		}
	}

	if f.Audio == nil {
		errs = append(errs, FieldError{Field: "audio_file", Message: "Audio file is required."})
	} else {
		if f.Audio.Size > MaxAudioSize {
			errs = append(errs, FieldError{Field: "audio_file", Message: "Audio file size must be less than 50MB."})
		}
		if !allowedAudioTypes[f.Audio.ContentType] {
			errs = append(errs, FieldError{Field: "audio_file", Message: "Please upload a valid audio file (MP3, WAV, M4A, or OGG)."})
		}
	}

	if f.Cover != nil {
		if f.Cover.Size > MaxCoverSize {
			errs = append(errs, FieldError{Field: "cover_image", Message: "Cover image size must be less than 10MB."})
		}
		if !allowedImageTypes[f.Cover.ContentType] {
			errs = append(errs, FieldError{Field: "cover_image", Message: "Please upload a valid image file (JPG, PNG, or WebP)."})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return &Draft{
		Title:    f.Title,
		GenreID:  f.GenreID,
		Duration: f.DurationMinutes*60 + f.DurationSeconds,
	}, nil
}
