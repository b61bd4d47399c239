package youtube

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/myta-ai/myta/config"
	"github.com/myta-ai/myta/internal/agent/core"
)

func testClient(ts *httptest.Server) *Client {
	return NewClient(config.YouTubeConfig{
		APIKey:  "test-key",
		BaseURL: ts.URL,
		Timeout: 5 * time.Second,
	})
}

func TestGetChannelSummary(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels" {
			t.Errorf("path %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("api key not forwarded")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":"UC123","snippet":{"title":"My Channel"},
			"statistics":{"viewCount":"9876543","subscriberCount":"1234567","videoCount":"321"}}]}`))
	}))
	defer ts.Close()

	got, err := testClient(ts).GetChannelSummary(context.Background(), "UC123")
	if err != nil {
		t.Fatalf("err %v", err)
	}
	if got.Title != "My Channel" || got.SubscriberCount != 1234567 || got.TotalViews != 9876543 || got.VideoCount != 321 {
		t.Fatalf("got %+v", got)
	}
}

func TestGetChannelSummaryNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer ts.Close()

	_, err := testClient(ts).GetChannelSummary(context.Background(), "UCmissing")
	if !errors.Is(err, core.ErrChannelNotFound) {
		t.Fatalf("err %v, want ErrChannelNotFound", err)
	}
}

func TestQuotaExceededMapsToSentinel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"errors":[{"reason":"quotaExceeded"}]}}`))
	}))
	defer ts.Close()

	_, err := testClient(ts).GetChannelSummary(context.Background(), "UC123")
	if !errors.Is(err, core.ErrQuotaExceeded) {
		t.Fatalf("err %v, want ErrQuotaExceeded", err)
	}
}

func TestGetRecentVideos(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/search":
			if r.URL.Query().Get("order") != "date" {
				t.Error("search not ordered by date")
			}
			w.Write([]byte(`{"items":[{"id":{"videoId":"v1"}},{"id":{"videoId":"v2"}}]}`))
		case "/videos":
			if r.URL.Query().Get("id") != "v1,v2" {
				t.Errorf("video ids %q", r.URL.Query().Get("id"))
			}
			w.Write([]byte(`{"items":[
				{"id":"v1","snippet":{"title":"First","publishedAt":"2026-08-20T10:00:00Z"},
				 "contentDetails":{"duration":"PT12M"},
				 "statistics":{"viewCount":"1000","likeCount":"80","commentCount":"20"}},
				{"id":"v2","snippet":{"title":"Second","publishedAt":"2026-08-27T10:00:00Z"},
				 "contentDetails":{"duration":"PT8M"},
				 "statistics":{"viewCount":"2000","likeCount":"90","commentCount":"10"}}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer ts.Close()

	videos, err := testClient(ts).GetRecentVideos(context.Background(), "UC123", 2)
	if err != nil {
		t.Fatalf("err %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("got %d videos", len(videos))
	}
	if videos[0].VideoID != "v1" || videos[0].Views != 1000 || videos[0].Likes != 80 {
		t.Fatalf("first video %+v", videos[0])
	}
	if videos[1].Duration != "PT8M" {
		t.Fatalf("second video %+v", videos[1])
	}
}

func TestGetRecentVideosEmptyChannel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[]}`))
	}))
	defer ts.Close()

	videos, err := testClient(ts).GetRecentVideos(context.Background(), "UCempty", 10)
	if err != nil {
		t.Fatalf("err %v", err)
	}
	if len(videos) != 0 {
		t.Fatalf("got %d videos, want 0", len(videos))
	}
}
