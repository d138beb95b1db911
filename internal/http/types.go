package http

// ExtractionResponse is the payload of GET /extract. Year and
// MediaType are reserved for future extraction logic and serialize as
// null until then.
type ExtractionResponse struct {
	OriginalInput string  `json:"original_input"`
	ExtractedName string  `json:"extracted_name"`
	Year          *string `json:"year"`
	MediaType     *string `json:"media_type"`
}

// ErrorResponse is the error envelope for the extraction endpoints.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// AddTorrentRequest is the body of POST /api/torrent. Type is optional;
// when empty the category is detected from the magnet link. A nil
// AddToLibrary means true.
type AddTorrentRequest struct {
	MagnetLink   string `json:"magnet_link"`
	Type         string `json:"type,omitempty"`
	AddToLibrary *bool  `json:"add_to_library,omitempty"`
}

type AddTorrentResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	Category       string `json:"category,omitempty"`
	MediaTitle     string `json:"media_title,omitempty"`
	AddedToLibrary bool   `json:"added_to_library"`
}

// AddMediaRequest is the body of POST /api/media: add a movie or
// series to the library by name, no torrent involved.
type AddMediaRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Year string `json:"year,omitempty"`
}

type AddMediaResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	MediaTitle string `json:"media_title,omitempty"`
	MediaType  string `json:"media_type,omitempty"`
	MediaID    int    `json:"media_id,omitempty"`
}
