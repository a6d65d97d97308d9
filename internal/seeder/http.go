package seeder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/caliberhq/caliper/pkg/logger"
)

// httpClient wraps http.Client with a request timeout.
type httpClient struct {
	client *http.Client
}

func newHTTPClient(timeout time.Duration) *httpClient {
	return &httpClient{client: &http.Client{Timeout: timeout}}
}

// get performs a GET request.
func (c *httpClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// post performs a POST request with a JSON body.
func (c *httpClient) post(ctx context.Context, url string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// fetchScorecards pulls the loaded scorecard definitions off the service.
func fetchScorecards(ctx context.Context, client *httpClient, baseURL string) ([]scorecardInfo, error) {
	resp, err := client.get(ctx, baseURL+"/scorecards")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch scorecards: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read scorecards response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scorecard listing failed with status %d", resp.StatusCode)
	}

	var cards []scorecardInfo
	if err := json.Unmarshal(body, &cards); err != nil {
		return nil, fmt.Errorf("failed to decode scorecards: %w", err)
	}
	return cards, nil
}

// submitAudits submits audits concurrently using a bounded worker pool.
func submitAudits(ctx context.Context, config *Config, audits []auditSubmission, stats *Stats) error {
	logger.Get().Info(ctx, "submitting audits",
		logger.Int("count", len(audits)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/audits"

	var (
		submitted int64
		stored    int64
		duplicate int64
		failed    int64
	)

	auditChan := make(chan auditSubmission, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for audit := range auditChan {
				select {
				case <-ctx.Done():
					return
				default:
				}
				atomic.AddInt64(&submitted, 1)
				switch submitSingleAudit(ctx, client, url, audit) {
				case outcomeStored:
					atomic.AddInt64(&stored, 1)
				case outcomeDuplicate:
					atomic.AddInt64(&duplicate, 1)
				default:
					atomic.AddInt64(&failed, 1)
				}
			}
		}()
	}

	go func() {
		defer close(auditChan)
		for _, audit := range audits {
			select {
			case <-ctx.Done():
				return
			case auditChan <- audit:
			}
		}
	}()

	wg.Wait()

	stats.AuditsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.AuditsStored = int(atomic.LoadInt64(&stored))
	stats.AuditsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.AuditsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "audit submission completed",
		logger.Int("stored", stats.AuditsStored),
		logger.Int("duplicate", stats.AuditsDuplicate),
		logger.Int("failed", stats.AuditsFailed))

	return nil
}

// Submission outcomes.
const (
	outcomeStored    = "stored"
	outcomeDuplicate = "duplicate"
	outcomeFailed    = "failed"
)

// submitSingleAudit submits one audit and classifies the outcome.
func submitSingleAudit(ctx context.Context, client *httpClient, url string, audit auditSubmission) string {
	resp, err := client.post(ctx, url, audit)
	if err != nil {
		return outcomeFailed
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return outcomeFailed
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		return outcomeStored
	case http.StatusOK:
		var receipt receiptResponse
		if err := json.Unmarshal(body, &receipt); err == nil && receipt.Duplicate {
			return outcomeDuplicate
		}
		return outcomeDuplicate
	default:
		return outcomeFailed
	}
}

// fetchReport pulls the performance report covering the seeded window so the
// read path gets exercised end to end.
func fetchReport(ctx context.Context, client *httpClient, config *Config) (reportSummary, error) {
	start := time.Now().UTC().AddDate(0, 0, -config.WindowDays-1).Format("2006-01-02")
	url := fmt.Sprintf("%s/reports/performance?start=%s", config.BaseURL, start)

	resp, err := client.get(ctx, url)
	if err != nil {
		return reportSummary{}, fmt.Errorf("failed to fetch report: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return reportSummary{}, fmt.Errorf("failed to read report response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return reportSummary{}, fmt.Errorf("report request failed with status %d", resp.StatusCode)
	}

	var report reportSummary
	if err := json.Unmarshal(body, &report); err != nil {
		return reportSummary{}, fmt.Errorf("failed to decode report: %w", err)
	}
	return report, nil
}
