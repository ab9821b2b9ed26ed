package backend

// MediaItem is one captured-and-processed artifact produced by the backend.
type MediaItem struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	StorageURL string  `json:"storage_url"`
	ThumbURL   *string `json:"thumb_url"`
	Summary    string  `json:"summary"`
	Mood       string  `json:"mood"`
	Song       string  `json:"song"`
	SongArtist string  `json:"song_artist"`
	Embed      string  `json:"embed"`
	UserMood   string  `json:"user_mood"`
	CreatedAt  string  `json:"created_at"`
	TS         string  `json:"ts"`
}

// QAPair is a single questionnaire answer.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// questionnaireRequest is the body of the questionnaire submission.
type questionnaireRequest struct {
	QAPairs []QAPair `json:"qa_pairs"`
}

// videoRequest is the body of the video generation call.
type videoRequest struct {
	MediaIDs []string `json:"media_ids"`
}

// VideoResult is the backend's answer to a video generation request.
type VideoResult struct {
	VideoURL string `json:"video_url"`
}
