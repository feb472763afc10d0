package model

// Genre is a music genre with a display color.
type Genre struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"` // Hex color, e.g. #6c5ce7
}

// GenreWithCount pairs a genre with the number of songs in it.
type GenreWithCount struct {
	Genre
	SongCount int64 `json:"songCount"`
}
