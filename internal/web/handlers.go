package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/justestif/go-soundtrack/internal/backend"
	"github.com/justestif/go-soundtrack/internal/biometrics"
	"github.com/justestif/go-soundtrack/internal/checkin"
	"github.com/justestif/go-soundtrack/internal/db"
	"github.com/justestif/go-soundtrack/internal/mood"
	"github.com/justestif/go-soundtrack/internal/realtime"
	"github.com/justestif/go-soundtrack/internal/soundtrack"
	"github.com/justestif/go-soundtrack/internal/spotify"
	"github.com/justestif/go-soundtrack/internal/store"
	"github.com/justestif/go-soundtrack/internal/video"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	maxBodyBytes        = 1 << 20
)

// Catalog searches and recommends music. spotify.Client satisfies it.
type Catalog interface {
	Search(ctx context.Context, q string, limit int) ([]spotify.Song, error)
	Recommendations(ctx context.Context, moodLabel string, genres []string) ([]spotify.Song, error)
	Song(ctx context.Context, id string) (spotify.Song, error)
}

// VideoService runs video generations. video.Service satisfies it.
type VideoService interface {
	Start(ctx context.Context, mediaIDs []string) (uuid.UUID, error)
	Reset() error
	History(ctx context.Context, limit int) ([]db.Video, error)
}

// CheckInService submits questionnaires. checkin.Service satisfies it.
type CheckInService interface {
	Submit(ctx context.Context, answers []backend.QAPair) (*db.CheckIn, error)
}

// Feed exposes surfaced live media. realtime.Notifier satisfies it.
type Feed interface {
	Latest() (realtime.MediaDocument, bool)
	Subscribe() (<-chan realtime.MediaDocument, func())
}

// Deps are the services behind the API. Store is required; a nil Catalog,
// Feed, Videos or CheckIns disables the routes that need it.
type Deps struct {
	Store      *store.Store
	Soundtrack *soundtrack.Service
	Catalog    Catalog
	Videos     VideoService
	CheckIns   CheckInService
	Feed       Feed
	Location   *time.Location // zone for series time labels (default: time.Local)
}

// Handlers contains HTTP handlers for the API.
type Handlers struct {
	deps Deps

	shutdown  chan struct{}
	closeOnce sync.Once
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps) *Handlers {
	if deps.Location == nil {
		deps.Location = time.Local
	}
	if deps.Soundtrack == nil {
		deps.Soundtrack = soundtrack.New(deps.Catalog, soundtrack.WithLocation(deps.Location))
	}
	return &Handlers{
		deps:     deps,
		shutdown: make(chan struct{}),
	}
}

func (h *Handlers) closeSockets() {
	h.closeOnce.Do(func() { close(h.shutdown) })
}

// statusResponse is the loading/error view of the data layer.
type statusResponse struct {
	Loading   bool       `json:"loading"`
	Error     string     `json:"error,omitempty"`
	FetchedAt *time.Time `json:"fetchedAt,omitempty"`
}

func newStatusResponse(st store.Status) statusResponse {
	resp := statusResponse{Loading: st.Loading}
	if st.Err != nil {
		resp.Error = st.Err.Error()
	}
	if !st.FetchedAt.IsZero() {
		resp.FetchedAt = &st.FetchedAt
	}
	return resp
}

// Status reports the data layer state (GET /api/status).
func (h *Handlers) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStatusResponse(h.deps.Store.Status()))
}

// Refresh re-fetches both collections (POST /api/refresh).
func (h *Handlers) Refresh(w http.ResponseWriter, r *http.Request) {
	err := h.deps.Store.Refresh(r.Context())
	switch {
	case errors.Is(err, store.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, err)
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
	default:
		writeJSON(w, http.StatusOK, newStatusResponse(h.deps.Store.Status()))
	}
}

type mediaResponse struct {
	statusResponse
	Media []backend.MediaItem `json:"media"`
}

// Media returns the media collection with the data layer state (GET /api/media).
func (h *Handlers) Media(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, mediaResponse{
		statusResponse: newStatusResponse(h.deps.Store.Status()),
		Media:          h.deps.Store.Snapshot().Media,
	})
}

// Biometric returns the raw biometric records (GET /api/biometric).
func (h *Handlers) Biometric(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Store.Snapshot().Biometrics)
}

// BiometricSeries returns the chart series (GET /api/biometric/series).
func (h *Handlers) BiometricSeries(w http.ResponseWriter, r *http.Request) {
	records := h.deps.Store.Snapshot().Biometrics
	writeJSON(w, http.StatusOK, biometrics.Aggregate(records, biometrics.WithLocation(h.deps.Location)))
}

// BiometricStates returns detected mental states (GET /api/biometric/states).
func (h *Handlers) BiometricStates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Soundtrack.DetectStates(h.deps.Store.Snapshot().Biometrics))
}

type moodColorsResponse struct {
	Mood   string        `json:"mood"`
	Known  bool          `json:"known"`
	Colors mood.ColorSet `json:"colors"`
}

// MoodColors returns the badge style for a mood (GET /api/moods/{mood}/colors).
func (h *Handlers) MoodColors(w http.ResponseWriter, r *http.Request) {
	label := chi.URLParam(r, "mood")
	writeJSON(w, http.StatusOK, moodColorsResponse{
		Mood:   mood.Normalize(label),
		Known:  mood.Known(label),
		Colors: mood.Colors(label),
	})
}

// Search searches the catalog (GET /api/search?q=&limit=).
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	if h.deps.Catalog == nil {
		writeError(w, http.StatusServiceUnavailable, soundtrack.ErrNoCatalog)
		return
	}

	limit, err := intParam(r, "limit", spotify.DefaultSearchLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	songs, err := h.deps.Catalog.Search(r.Context(), r.URL.Query().Get("q"), limit)
	switch {
	case errors.Is(err, spotify.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
	default:
		writeJSON(w, http.StatusOK, songs)
	}
}

// Recommendations recommends songs for a mood (GET /api/recommendations?mood=&genres=).
func (h *Handlers) Recommendations(w http.ResponseWriter, r *http.Request) {
	if h.deps.Catalog == nil {
		writeError(w, http.StatusServiceUnavailable, soundtrack.ErrNoCatalog)
		return
	}

	q := r.URL.Query()
	label := q.Get("mood")
	if label == "" {
		label = spotify.DefaultMood
	}

	songs, err := h.deps.Catalog.Recommendations(r.Context(), label, splitList(q.Get("genres")))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, songs)
}

// Song looks up one track, e.g. the song matched to a media item
// (GET /api/songs/{id}).
func (h *Handlers) Song(w http.ResponseWriter, r *http.Request) {
	if h.deps.Catalog == nil {
		writeError(w, http.StatusServiceUnavailable, soundtrack.ErrNoCatalog)
		return
	}

	song, err := h.deps.Catalog.Song(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, spotify.ErrTrackNotFound):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
	default:
		writeJSON(w, http.StatusOK, song)
	}
}

// Soundtrack recommends songs for the current biometric state
// (GET /api/soundtrack?genres=).
func (h *Handlers) Soundtrack(w http.ResponseWriter, r *http.Request) {
	records := h.deps.Store.Snapshot().Biometrics
	result, err := h.deps.Soundtrack.Build(r.Context(), records, splitList(r.URL.Query().Get("genres")))
	switch {
	case errors.Is(err, soundtrack.ErrNoCatalog):
		writeError(w, http.StatusServiceUnavailable, err)
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

type questionnaireRequest struct {
	QAPairs []backend.QAPair `json:"qa_pairs"`
}

// Questionnaire submits a check-in (POST /api/questionnaire).
func (h *Handlers) Questionnaire(w http.ResponseWriter, r *http.Request) {
	if h.deps.CheckIns == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("questionnaire not configured"))
		return
	}

	var req questionnaireRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	c, err := h.deps.CheckIns.Submit(r.Context(), req.QAPairs)
	switch {
	case errors.Is(err, checkin.ErrEmptyAnswers):
		writeError(w, http.StatusBadRequest, err)
	case err != nil:
		writeError(w, http.StatusBadGateway, err)
	default:
		writeJSON(w, http.StatusCreated, c)
	}
}

type videoRequest struct {
	MediaIDs []string `json:"media_ids"`
}

type videoStartedResponse struct {
	ID uuid.UUID `json:"id"`
}

// StartVideo starts a video generation (POST /api/videos). Without explicit
// media_ids every media item in the store is used.
func (h *Handlers) StartVideo(w http.ResponseWriter, r *http.Request) {
	if h.deps.Videos == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("video generation not configured"))
		return
	}

	var req videoRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	ids := req.MediaIDs
	if len(ids) == 0 {
		for _, m := range h.deps.Store.Snapshot().Media {
			ids = append(ids, m.ID)
		}
	}

	id, err := h.deps.Videos.Start(r.Context(), ids)
	switch {
	case errors.Is(err, video.ErrNoMedia):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, video.ErrGenerationInProgress):
		writeError(w, http.StatusConflict, err)
	case err != nil:
		writeError(w, http.StatusInternalServerError, err)
	default:
		writeJSON(w, http.StatusAccepted, videoStartedResponse{ID: id})
	}
}

// VideoProgress reports the current generation (GET /api/videos/progress).
func (h *Handlers) VideoProgress(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.deps.Store.VideoGeneration())
}

// ResetVideo clears a finished generation (POST /api/videos/reset).
func (h *Handlers) ResetVideo(w http.ResponseWriter, r *http.Request) {
	if h.deps.Videos == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("video generation not configured"))
		return
	}
	if err := h.deps.Videos.Reset(); err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, h.deps.Store.VideoGeneration())
}

// VideoHistory lists finished generations (GET /api/videos?limit=).
func (h *Handlers) VideoHistory(w http.ResponseWriter, r *http.Request) {
	if h.deps.Videos == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("video generation not configured"))
		return
	}

	limit, err := intParam(r, "limit", defaultHistoryLimit)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	videos, err := h.deps.Videos.History(r.Context(), min(limit, maxHistoryLimit))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

// Latest returns the most recently surfaced live media (GET /api/latest).
// It answers 204 until something has been surfaced.
func (h *Handlers) Latest(w http.ResponseWriter, r *http.Request) {
	if h.deps.Feed == nil {
		writeError(w, http.StatusServiceUnavailable, errors.New("live feed not configured"))
		return
	}
	doc, ok := h.deps.Feed.Latest()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// intParam parses a positive integer query parameter.
func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.New("invalid " + name + " parameter")
	}
	return n, nil
}

// splitList splits a comma-separated parameter, dropping blanks.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
