package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestFetchMedia(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCount int
		wantErr   error
	}{
		{
			name:      "decodes items",
			status:    http.StatusOK,
			body:      `[{"id":"m1","type":"image","storage_url":"https://x/1.jpg","mood":"happy","song":"Song","song_artist":"Artist"},{"id":"m2","type":"video","storage_url":"https://x/2.mp4","thumb_url":"https://x/2.jpg"}]`,
			wantCount: 2,
		},
		{
			name:      "null body becomes empty",
			status:    http.StatusOK,
			body:      `null`,
			wantCount: 0,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `boom`,
			wantErr: ErrUnexpectedStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != mediaPath {
					t.Errorf("path = %q, want %q", r.URL.Path, mediaPath)
				}
				if r.Method != http.MethodGet {
					t.Errorf("method = %q, want GET", r.Method)
				}
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client := NewClient(Config{BaseURL: server.URL})
			items, err := client.FetchMedia(context.Background())

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("FetchMedia() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("FetchMedia() unexpected error: %v", err)
			}
			if items == nil {
				t.Fatal("FetchMedia() returned nil slice")
			}
			if len(items) != tt.wantCount {
				t.Errorf("len(items) = %d, want %d", len(items), tt.wantCount)
			}
		})
	}
}

func TestFetchMedia_Fields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":"m2","type":"video","storage_url":"https://x/2.mp4","thumb_url":"https://x/2.jpg","summary":"a walk","mood":"calm","user_mood":"tired","created_at":"2025-10-04T10:00:00Z"}]`))
	}))
	defer server.Close()

	items, err := NewClient(Config{BaseURL: server.URL}).FetchMedia(context.Background())
	if err != nil {
		t.Fatalf("FetchMedia() unexpected error: %v", err)
	}

	got := items[0]
	if got.ThumbURL == nil || *got.ThumbURL != "https://x/2.jpg" {
		t.Errorf("ThumbURL = %v, want https://x/2.jpg", got.ThumbURL)
	}
	if got.Mood != "calm" || got.UserMood != "tired" || got.Summary != "a walk" {
		t.Errorf("unexpected item: %+v", got)
	}
}

func TestFetchBiometrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != biometricPath {
			t.Errorf("path = %q, want %q", r.URL.Path, biometricPath)
		}
		w.Write([]byte(`[{"id":"b1","timestamp":"2025-10-04T10:00:00Z","eegData":{"channels":{"channel_0":{"voltageValue":1.5}}},"frequencyAnalysis":{"hasAnalysis":false}}]`))
	}))
	defer server.Close()

	records, err := NewClient(Config{BaseURL: server.URL}).FetchBiometrics(context.Background())
	if err != nil {
		t.Fatalf("FetchBiometrics() unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	if got := records[0].EEG.Channels["channel_0"].VoltageValue; got != 1.5 {
		t.Errorf("channel_0 voltage = %v, want 1.5", got)
	}
}

func TestFetchBiometrics_MixedTimestampsAndBadRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"id":"zoned","timestamp":"2025-10-18T09:00:00Z","eegData":{"channels":{}}},
			{"id":"naive","timestamp":"2025-10-18T09:00:05.123456","eegData":{"channels":{}}},
			{"id":"empty","timestamp":"","eegData":{"channels":{}}},
			{"id":"broken","timestamp":"2025-10-18T09:00:10Z","eegData":"not an object"}
		]`))
	}))
	defer server.Close()

	records, err := NewClient(Config{BaseURL: server.URL}).FetchBiometrics(context.Background())
	if err != nil {
		t.Fatalf("FetchBiometrics() unexpected error: %v", err)
	}

	var ids []string
	for _, r := range records {
		ids = append(ids, r.ID)
	}
	if strings.Join(ids, ",") != "zoned,naive,empty" {
		t.Fatalf("record ids = %v, want [zoned naive empty]", ids)
	}

	if want := time.Date(2025, 10, 18, 9, 0, 0, 0, time.UTC); !records[0].Timestamp.Equal(want) {
		t.Errorf("zoned timestamp = %v, want %v", records[0].Timestamp, want)
	}
	if want := time.Date(2025, 10, 18, 9, 0, 5, 123456000, time.Local); !records[1].Timestamp.Equal(want) {
		t.Errorf("naive timestamp = %v, want %v", records[1].Timestamp, want)
	}
	if !records[2].Timestamp.IsZero() {
		t.Errorf("empty timestamp = %v, want zero", records[2].Timestamp)
	}
}

func TestSubmitQuestionnaire(t *testing.T) {
	var got questionnaireRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != questionnairePath {
			t.Errorf("request = %s %s, want POST %s", r.Method, r.URL.Path, questionnairePath)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decoding body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	pairs := []QAPair{{Question: "How did you sleep?", Answer: "Badly"}}
	if err := NewClient(Config{BaseURL: server.URL}).SubmitQuestionnaire(context.Background(), pairs); err != nil {
		t.Fatalf("SubmitQuestionnaire() unexpected error: %v", err)
	}
	if len(got.QAPairs) != 1 || got.QAPairs[0] != pairs[0] {
		t.Errorf("server received %+v, want %+v", got.QAPairs, pairs)
	}
}

func TestGenerateVideo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req videoRequest
		json.NewDecoder(r.Body).Decode(&req)
		if len(req.MediaIDs) != 2 {
			t.Errorf("media_ids = %v, want 2 ids", req.MediaIDs)
		}
		json.NewEncoder(w).Encode(VideoResult{VideoURL: "https://x/video.mp4"})
	}))
	defer server.Close()

	result, err := NewClient(Config{BaseURL: server.URL}).GenerateVideo(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("GenerateVideo() unexpected error: %v", err)
	}
	if result.VideoURL != "https://x/video.mp4" {
		t.Errorf("VideoURL = %q, want https://x/video.mp4", result.VideoURL)
	}
}

func TestClient_NoRetry(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewClient(Config{BaseURL: server.URL}).FetchBiometrics(context.Background())
	if !errors.Is(err, ErrUnexpectedStatus) {
		t.Fatalf("error = %v, want ErrUnexpectedStatus", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func TestNewClient_TrimsTrailingSlash(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://example.com/"})
	if c.baseURL != "http://example.com" {
		t.Errorf("baseURL = %q, want http://example.com", c.baseURL)
	}
	if NewClient(Config{}).baseURL != DefaultBaseURL {
		t.Error("empty BaseURL should fall back to DefaultBaseURL")
	}
}
