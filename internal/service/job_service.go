package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"scraper-admin/internal/models"

	"github.com/sirupsen/logrus"
)

type jobActionRoute struct {
	method  string
	path    string
	bodyKey string
	asText  bool
	message string
}

var jobActionRoutes = map[models.JobAction]jobActionRoute{
	models.JobActionMatchAISort:        {method: http.MethodGet, path: "/match_ai_sort", message: "AI match sort started"},
	models.JobActionInitialSort:        {method: http.MethodGet, path: "/initial_sort", message: "Initial sort started"},
	models.JobActionSearchSort:         {method: http.MethodGet, path: "/search_sort", message: "Search sort started"},
	models.JobActionRestartFailedBatch: {method: http.MethodPost, path: "/restart-failed-batch/", bodyKey: "file_id_db", asText: true, message: "Failed batch restarted"},
	models.JobActionGenerateDownload:   {method: http.MethodPost, path: "/generate-download-file/", bodyKey: "file_id", message: "Download file generation started"},
	models.JobActionProcessAI:          {method: http.MethodPost, path: "/process-ai-analysis/", bodyKey: "file_id", asText: true, message: "AI analysis started"},
}

func ParseJobAction(raw string) (models.JobAction, error) {
	action := models.JobAction(strings.TrimSpace(raw))
	if _, ok := jobActionRoutes[action]; !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownJobAction, raw)
	}
	return action, nil
}

// JobClient reads scraping jobs from the backend and triggers image
// distribution actions on them.
type JobClient struct {
	backendURL string
	distroURL  string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewJobClient(backendURL, distroURL string, timeout time.Duration, logger *logrus.Logger) *JobClient {
	return &JobClient{
		backendURL: strings.TrimRight(backendURL, "/"),
		distroURL:  strings.TrimRight(distroURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *JobClient) GetJob(ctx context.Context, id int) (*models.JobDetails, error) {
	raw, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/api/scraping-jobs/%d", c.backendURL, id), nil)
	if err != nil {
		return nil, err
	}

	var job models.JobDetails
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %d: %w", id, err)
	}
	return &job, nil
}

// GetLog fetches the plain text log a job points at.
func (c *JobClient) GetLog(ctx context.Context, logURL string) (string, error) {
	if strings.TrimSpace(logURL) == "" {
		return "", newValidationError("job has no log file")
	}
	raw, err := c.do(ctx, http.MethodGet, logURL, nil)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (c *JobClient) RunAction(ctx context.Context, id int, action models.JobAction) (*models.JobActionResult, error) {
	route, ok := jobActionRoutes[action]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJobAction, action)
	}

	url := c.distroURL + route.path
	var body io.Reader
	if route.method == http.MethodGet {
		url = fmt.Sprintf("%s/%d", url, id)
	} else {
		var value interface{} = id
		if route.asText {
			value = strconv.Itoa(id)
		}
		payload, err := json.Marshal(map[string]interface{}{route.bodyKey: value})
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}

	if _, err := c.do(ctx, route.method, url, body); err != nil {
		return nil, err
	}

	c.logger.WithFields(logrus.Fields{"job_id": id, "action": action}).Info("Job action triggered")
	return &models.JobActionResult{JobID: id, Action: action, Message: route.message}, nil
}

func (c *JobClient) do(ctx context.Context, method, url string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUpstreamDown, req.URL.Host, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	return raw, nil
}

// FilterResults keeps results whose description, source or url contain search.
func FilterResults(results []models.ResultItem, search string) []models.ResultItem {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return results
	}
	out := make([]models.ResultItem, 0, len(results))
	for _, r := range results {
		if containsFold(search, r.ImageDesc, r.ImageSource, r.ImageURL, strconv.Itoa(r.EntryID)) {
			out = append(out, r)
		}
	}
	return out
}

// FilterRecords keeps records whose model, brand, color or category contain search.
func FilterRecords(records []models.RecordItem, search string) []models.RecordItem {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return records
	}
	out := make([]models.RecordItem, 0, len(records))
	for _, r := range records {
		if containsFold(search, r.ProductModel, r.ProductBrand, r.ProductColor, r.ProductCategory, strconv.Itoa(r.EntryID)) {
			out = append(out, r)
		}
	}
	return out
}

func containsFold(search string, values ...string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), search) {
			return true
		}
	}
	return false
}
