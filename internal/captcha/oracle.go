package captcha

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TwoCaptchaClient submits images to the 2Captcha recognition service
// and polls for the answer.
type TwoCaptchaClient struct {
	APIKey       string
	SubmitURL    string
	ResultURL    string
	PollBudget   int
	PollInterval time.Duration
	HTTPClient   *http.Client
}

type twoCaptchaResponse struct {
	Status  int    `json:"status"`
	Request string `json:"request"`
}

func NewTwoCaptchaClient(apiKey string, pollBudget int) *TwoCaptchaClient {
	return &TwoCaptchaClient{
		APIKey:       apiKey,
		SubmitURL:    "http://2captcha.com/in.php",
		ResultURL:    "http://2captcha.com/res.php",
		PollBudget:   pollBudget,
		PollInterval: 3 * time.Second,
		HTTPClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *TwoCaptchaClient) Solve(ctx context.Context, image []byte) (string, error) {
	form := url.Values{
		"key":    {c.APIKey},
		"method": {"base64"},
		"body":   {base64.StdEncoding.EncodeToString(image)},
		"json":   {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.SubmitURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: submit failed: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	var submitResp twoCaptchaResponse
	if err := json.NewDecoder(resp.Body).Decode(&submitResp); err != nil {
		return "", fmt.Errorf("%w: decode submit response: %v", ErrOracleUnavailable, err)
	}
	if submitResp.Status != 1 {
		return "", fmt.Errorf("%w: submission rejected: %s", ErrOracleUnavailable, submitResp.Request)
	}

	captchaID := submitResp.Request
	resultURL := fmt.Sprintf("%s?key=%s&action=get&id=%s&json=1", c.ResultURL, c.APIKey, captchaID)

	for i := 0; i < c.PollBudget; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.PollInterval):
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, resultURL, nil)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
		}
		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			continue
		}

		var result twoCaptchaResponse
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil {
			continue
		}

		if result.Status == 1 {
			return result.Request, nil
		}
		if result.Request != "CAPCHA_NOT_READY" {
			return "", fmt.Errorf("%w: %s", ErrOracleUnavailable, result.Request)
		}
	}

	return "", fmt.Errorf("%w: result poll budget exhausted", ErrOracleUnavailable)
}

// AntiCaptchaClient is the Anti-Captcha ImageToTextTask flow.
type AntiCaptchaClient struct {
	APIKey       string
	BaseURL      string
	PollBudget   int
	PollInterval time.Duration
	HTTPClient   *http.Client
}

func NewAntiCaptchaClient(apiKey string, pollBudget int) *AntiCaptchaClient {
	return &AntiCaptchaClient{
		APIKey:       apiKey,
		BaseURL:      "https://api.anti-captcha.com",
		PollBudget:   pollBudget,
		PollInterval: 3 * time.Second,
		HTTPClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *AntiCaptchaClient) Solve(ctx context.Context, image []byte) (string, error) {
	createReq := map[string]interface{}{
		"clientKey": c.APIKey,
		"task": map[string]string{
			"type": "ImageToTextTask",
			"body": base64.StdEncoding.EncodeToString(image),
		},
	}

	var createResp struct {
		ErrorID int `json:"errorId"`
		TaskID  int `json:"taskId"`
	}
	if err := c.post(ctx, "/createTask", createReq, &createResp); err != nil {
		return "", err
	}
	if createResp.ErrorID != 0 {
		return "", fmt.Errorf("%w: createTask error %d", ErrOracleUnavailable, createResp.ErrorID)
	}

	resultReq := map[string]interface{}{
		"clientKey": c.APIKey,
		"taskId":    createResp.TaskID,
	}

	for i := 0; i < c.PollBudget; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.PollInterval):
		}

		var result struct {
			ErrorID  int    `json:"errorId"`
			Status   string `json:"status"`
			Solution struct {
				Text string `json:"text"`
			} `json:"solution"`
		}
		if err := c.post(ctx, "/getTaskResult", resultReq, &result); err != nil {
			continue
		}
		if result.ErrorID != 0 {
			return "", fmt.Errorf("%w: getTaskResult error %d", ErrOracleUnavailable, result.ErrorID)
		}
		if result.Status == "ready" {
			return result.Solution.Text, nil
		}
	}

	return "", fmt.Errorf("%w: result poll budget exhausted", ErrOracleUnavailable)
}

func (c *AntiCaptchaClient) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path,
		bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}
	return nil
}

// FallbackOracle tries each configured oracle in order and returns
// the first answer. All-failed surfaces the last error.
type FallbackOracle struct {
	oracles []Oracle
}

func NewFallbackOracle(oracles ...Oracle) *FallbackOracle {
	return &FallbackOracle{oracles: oracles}
}

func (f *FallbackOracle) Solve(ctx context.Context, image []byte) (string, error) {
	var lastErr error
	for _, o := range f.oracles {
		answer, err := o.Solve(ctx, image)
		if err == nil && answer != "" {
			return answer, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%w: no oracle configured", ErrOracleUnavailable)
	}
	return "", lastErr
}
