package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"scraper-admin/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	healthPath         = "/health/google"
	statusFetchFailed  = "Fetch Failed"
	statusUnknown      = "unknown"
	notAvailable       = "N/A"
	maxHealthBodyBytes = 1 << 20
)

// HealthChecker probes proxy endpoints. Every probe is independent: a failure
// only marks its own endpoint unhealthy.
type HealthChecker struct {
	httpClient  *http.Client
	timeout     time.Duration
	concurrency int
	logger      *logrus.Logger
	now         func() time.Time
}

func NewHealthChecker(timeout time.Duration, concurrency int, logger *logrus.Logger) *HealthChecker {
	if concurrency < 1 {
		concurrency = 1
	}
	return &HealthChecker{
		httpClient:  &http.Client{},
		timeout:     timeout,
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

// CheckAll probes every endpoint concurrently and returns one status per
// endpoint, in the input order.
func (h *HealthChecker) CheckAll(ctx context.Context, endpoints []models.ProxyEndpoint) models.ProxySnapshot {
	start := h.now()
	statuses := make([]models.ProxyStatus, len(endpoints))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.concurrency)
	for i, endpoint := range endpoints {
		i, endpoint := i, endpoint
		g.Go(func() error {
			statuses[i] = h.Check(gctx, endpoint)
			return nil
		})
	}
	_ = g.Wait()

	snapshot := models.ProxySnapshot{
		Statuses:   statuses,
		CheckedAt:  h.now(),
		DurationMs: h.now().Sub(start).Milliseconds(),
	}
	for _, st := range statuses {
		if st.Healthy {
			snapshot.Healthy++
		} else {
			snapshot.Unhealthy++
		}
	}
	return snapshot
}

// Check runs one timeout-bounded probe. Timeouts, network errors, non-2xx
// answers and unreadable bodies all count as unhealthy. A failed probe keeps
// the configured region's batch; a healthy one reports the batch of the
// region it answered from, or N/A.
func (h *HealthChecker) Check(ctx context.Context, endpoint models.ProxyEndpoint) models.ProxyStatus {
	status := models.ProxyStatus{
		ProxyEndpoint: endpoint,
		Status:        statusFetchFailed,
		PublicIP:      notAvailable,
		Batch:         regionBatch(endpoint.Region),
	}

	start := h.now()
	body, err := h.fetch(ctx, endpoint.URL)
	status.LastChecked = h.now()
	status.LatencyMs = status.LastChecked.Sub(start).Milliseconds()

	if err != nil {
		status.Error = err.Error()
		h.logger.WithFields(logrus.Fields{
			"provider": endpoint.Provider,
			"region":   endpoint.Region,
		}).WithError(err).Debug("Health check failed")
		return status
	}

	status.Healthy = true
	status.Status = statusUnknown
	if body.Status != "" {
		status.Status = body.Status
	}
	if body.PublicIP != "" {
		status.PublicIP = body.PublicIP
	}
	status.Batch = notAvailable
	if batch := secondSegment(body.Region); batch != "" {
		status.Batch = batch
	}
	return status
}

func (h *HealthChecker) fetch(ctx context.Context, baseURL string) (*models.ProxyHealthBody, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(baseURL, "/")+healthPath, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("HTTP error! status: %d", resp.StatusCode)
	}

	var body models.ProxyHealthBody
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxHealthBodyBytes)).Decode(&body); err != nil {
		return nil, fmt.Errorf("invalid health response: %w", err)
	}
	return &body, nil
}

// regionBatch is the second dash-separated segment of a region, or the region itself.
func regionBatch(region string) string {
	if batch := secondSegment(region); batch != "" {
		return batch
	}
	return region
}

func secondSegment(region string) string {
	parts := strings.Split(region, "-")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}

// FilterProxyStatuses applies the dashboard search box and dropdown filters.
func FilterProxyStatuses(statuses []models.ProxyStatus, filter models.ProxyFilter) []models.ProxyStatus {
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	out := make([]models.ProxyStatus, 0, len(statuses))
	for _, st := range statuses {
		if filter.Provider != "" && filter.Provider != "all" && st.Provider != filter.Provider {
			continue
		}
		if filter.Region != "" && filter.Region != "all" && st.Region != filter.Region {
			continue
		}
		switch filter.Health {
		case "healthy":
			if !st.Healthy {
				continue
			}
		case "unhealthy":
			if st.Healthy {
				continue
			}
		}
		if search != "" && !matchesSearch(st, search) {
			continue
		}
		out = append(out, st)
	}
	return out
}

func matchesSearch(st models.ProxyStatus, search string) bool {
	for _, value := range []string{st.Provider, st.Region, st.URL, st.Status, st.PublicIP, st.Batch} {
		if strings.Contains(strings.ToLower(value), search) {
			return true
		}
	}
	return false
}
