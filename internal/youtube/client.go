package youtube

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/myta-ai/myta/config"
	"github.com/myta-ai/myta/internal/agent/core"
)

// Client implements core.ChannelMetricsProvider over the YouTube Data
// API v3. Quota exhaustion and missing channels map to the core sentinel
// errors so callers can branch without parsing API bodies.
type Client struct {
	http    *core.HTTPClient
	apiKey  string
	baseURL string
	logger  *log.Logger
}

func NewClient(cfg config.YouTubeConfig) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://www.googleapis.com/youtube/v3"
	}
	return &Client{
		http:    core.NewHTTPClient(cfg.Timeout, 2, 500*time.Millisecond),
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(base, "/"),
		logger:  log.New(log.Writer(), "[YOUTUBE] ", log.LstdFlags),
	}
}

type channelListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount       string `json:"viewCount"`
			SubscriberCount string `json:"subscriberCount"`
			VideoCount      string `json:"videoCount"`
		} `json:"statistics"`
	} `json:"items"`
}

type searchListResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
	} `json:"items"`
}

type videoListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// GetChannelSummary fetches headline statistics for a channel.
func (c *Client) GetChannelSummary(ctx context.Context, channelID string) (core.ChannelSummary, error) {
	var resp channelListResponse
	err := c.get(ctx, "/channels", url.Values{
		"part": {"snippet,statistics"},
		"id":   {channelID},
	}, &resp)
	if err != nil {
		return core.ChannelSummary{}, err
	}
	if len(resp.Items) == 0 {
		return core.ChannelSummary{}, fmt.Errorf("channel %s: %w", channelID, core.ErrChannelNotFound)
	}
	item := resp.Items[0]
	return core.ChannelSummary{
		ChannelID:       item.ID,
		Title:           item.Snippet.Title,
		SubscriberCount: parseCount(item.Statistics.SubscriberCount),
		VideoCount:      parseCount(item.Statistics.VideoCount),
		TotalViews:      parseCount(item.Statistics.ViewCount),
		FetchedAt:       time.Now(),
	}, nil
}

// GetRecentVideos returns the channel's latest uploads with statistics,
// newest first.
func (c *Client) GetRecentVideos(ctx context.Context, channelID string, count int) ([]core.Video, error) {
	if count <= 0 || count > 50 {
		count = 10
	}
	var search searchListResponse
	err := c.get(ctx, "/search", url.Values{
		"part":       {"snippet"},
		"channelId":  {channelID},
		"order":      {"date"},
		"type":       {"video"},
		"maxResults": {strconv.Itoa(count)},
	}, &search)
	if err != nil {
		return nil, err
	}
	if len(search.Items) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(search.Items))
	for _, item := range search.Items {
		ids = append(ids, item.ID.VideoID)
	}
	var videos videoListResponse
	err = c.get(ctx, "/videos", url.Values{
		"part": {"snippet,contentDetails,statistics"},
		"id":   {strings.Join(ids, ",")},
	}, &videos)
	if err != nil {
		return nil, err
	}

	out := make([]core.Video, 0, len(videos.Items))
	for _, item := range videos.Items {
		published, _ := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
		out = append(out, core.Video{
			VideoID:     item.ID,
			Title:       item.Snippet.Title,
			Views:       parseCount(item.Statistics.ViewCount),
			Likes:       parseCount(item.Statistics.LikeCount),
			Comments:    parseCount(item.Statistics.CommentCount),
			Duration:    item.ContentDetails.Duration,
			PublishedAt: published,
		})
	}
	return out, nil
}

// GetCompetitorSummary is GetChannelSummary for another creator's channel.
func (c *Client) GetCompetitorSummary(ctx context.Context, channelID string) (core.ChannelSummary, error) {
	return c.GetChannelSummary(ctx, channelID)
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) error {
	params.Set("key", c.apiKey)
	err := c.http.DoJSON(ctx, "GET", c.baseURL+path+"?"+params.Encode(), nil, nil, out)
	if err != nil {
		var statusErr *core.HTTPStatusError
		if errors.As(err, &statusErr) {
			if statusErr.StatusCode == 403 && strings.Contains(statusErr.Body, "quota") {
				return fmt.Errorf("youtube api: %w", core.ErrQuotaExceeded)
			}
			if statusErr.StatusCode == 404 {
				return fmt.Errorf("youtube api: %w", core.ErrChannelNotFound)
			}
		}
		return fmt.Errorf("youtube api: %w", err)
	}
	return nil
}

// parseCount parses the API's stringly-typed counters, zero on absence.
func parseCount(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
