package dto

type TrackResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Artists     []string `json:"artists"`
	Album       string   `json:"album"`
	ImageURL    string   `json:"image_url,omitempty"`
	PreviewURL  string   `json:"preview_url,omitempty"`
	ExternalURL string   `json:"external_url,omitempty"`
}

type SearchTracksResponse struct {
	Query  string          `json:"query"`
	Tracks []TrackResponse `json:"tracks"`
}
