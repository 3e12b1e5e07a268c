package domain

// A track returned by the music catalog search, used when a musician
// picks the original song for an uploaded cover.
type Track struct {
	ID          string
	Name        string
	Artists     []string
	Album       string
	ImageURL    string
	PreviewURL  string
	ExternalURL string
}
