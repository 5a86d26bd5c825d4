package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"rakeback-manager/internal/config"
	"rakeback-manager/internal/domain"
)

// FeedClient pulls weekly member statistics from the club reporting platform.
type FeedClient struct {
	baseURL     string
	apiKey      string
	client      *fasthttp.Client
	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Limit     int `json:"limit"`
	Remaining int `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewFeedClient(cfg *config.Config) *FeedClient {
	return &FeedClient{
		baseURL: cfg.FeedBaseURL,
		apiKey:  cfg.FeedAPIKey,
		client: &fasthttp.Client{
			MaxConnsPerHost:     16,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		rateLimit: RateLimitInfo{
			Limit:     60,
			Remaining: 60,
			Reset:     60,
			UpdatedAt: time.Now(),
		},
	}
}

func (c *FeedClient) Enabled() bool {
	return c.baseURL != ""
}

func (c *FeedClient) GetRateLimitInfo() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *FeedClient) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

// GetMemberStatistics fetches one week's member rows and club overview.
func (c *FeedClient) GetMemberStatistics(ctx context.Context, clubID string, weekNumber int) (*MemberStatisticsResponse, error) {
	if !c.Enabled() {
		return nil, domain.ErrFeedDisabled
	}
	u := fmt.Sprintf("%s/clubs/%s/weeks/%d/member-statistics", c.baseURL, url.PathEscape(clubID), weekNumber)
	return doRequest[MemberStatisticsResponse](ctx, c, u)
}

func doRequest[T any](ctx context.Context, client *FeedClient, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", client.apiKey)
	req.Header.Set("Accept", "application/json")

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	client.updateRateLimit(resp)

	switch resp.StatusCode() {
	case fasthttp.StatusOK:
	case fasthttp.StatusNotFound:
		return nil, fmt.Errorf("feed: %w", domain.ErrNotFound)
	default:
		return nil, fmt.Errorf("feed API error: %d", resp.StatusCode())
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to decode feed response: %w", err)
	}
	return &result, nil
}

type MemberStatisticsResponse struct {
	Status int                  `json:"status"`
	Data   MemberStatisticsData `json:"data"`
}

type MemberStatisticsData struct {
	Members  []MemberRow   `json:"members"`
	Overview *OverviewData `json:"overview"`
}

type MemberRow struct {
	Nickname   string  `json:"nickname"`
	Agent      string  `json:"agent"`
	SuperAgent string  `json:"super_agent"`
	Rake       float64 `json:"rake"`
	PL         float64 `json:"pl"`
}

type OverviewData struct {
	ClubName      string  `json:"club_name"`
	TotalFee      float64 `json:"total_fee"`
	ProfitLoss    float64 `json:"profit_loss"`
	ActivePlayers int     `json:"active_players"`
	TotalHands    int     `json:"total_hands"`
}

// Upload converts the feed payload into the ingestion shape.
func (r *MemberStatisticsResponse) Upload() domain.WeekUpload {
	upload := domain.WeekUpload{Rows: make([]domain.RakeRow, len(r.Data.Members))}
	for i, m := range r.Data.Members {
		upload.Rows[i] = domain.RakeRow{
			Nickname:   m.Nickname,
			Agent:      m.Agent,
			SuperAgent: m.SuperAgent,
			Rake:       m.Rake,
			PL:         m.PL,
		}
	}
	if o := r.Data.Overview; o != nil {
		upload.Overview = &domain.ClubOverview{
			ClubName:      o.ClubName,
			TotalFee:      o.TotalFee,
			ProfitLoss:    o.ProfitLoss,
			ActivePlayers: o.ActivePlayers,
			TotalHands:    o.TotalHands,
		}
	}
	return upload
}
