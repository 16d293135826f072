package driver

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/rahul-omni/court-scraper/internal/captcha"
	"github.com/rahul-omni/court-scraper/internal/config"
	"github.com/rahul-omni/court-scraper/pkg/logger"
)

// RodBrowser drives a real Chromium session through go-rod.
type RodBrowser struct {
	browser   *rod.Browser
	page      *rod.Page
	selectors Selectors
	userAgent string
	logger    *logger.Logger
}

// Launch starts a browser and opens a blank page configured for the
// given site selectors.
func Launch(cfg *config.Config, selectors Selectors, log *logger.Logger) (*RodBrowser, error) {
	l := launcher.New().
		Headless(cfg.HeadlessMode).
		Set("user-agent", cfg.UserAgent).
		Set("disable-blink-features", "AutomationControlled").
		Delete("enable-automation")

	if cfg.BrowserPath != "" {
		l = l.Bin(cfg.BrowserPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	page.MustSetViewport(1920, 1080, 1, false)
	page.MustSetExtraHeaders("Accept-Language", "en-US,en;q=0.9")

	return &RodBrowser{
		browser:   browser,
		page:      page,
		selectors: selectors,
		userAgent: cfg.UserAgent,
		logger:    log,
	}, nil
}

func (b *RodBrowser) Close() error {
	if b.page != nil {
		b.page.MustClose()
	}
	return b.browser.Close()
}

func (b *RodBrowser) Navigate(ctx context.Context, url string) error {
	page := b.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		// The portals frequently never fire load; a partially loaded
		// form is still usable.
		b.logger.Debug("page load wait failed", "url", url, "error", err)
	}
	return nil
}

func (b *RodBrowser) Fill(ctx context.Context, selector, value string) error {
	el, err := b.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", selector, err)
	}
	return el.Input(value)
}

func (b *RodBrowser) SelectOption(ctx context.Context, selector, value string) error {
	el, err := b.page.Context(ctx).Element(selector)
	if err != nil {
		return fmt.Errorf("element %q not found: %w", selector, err)
	}
	return el.Select([]string{value}, true, rod.SelectorTypeText)
}

// CaptureImage grabs the current challenge image: data-URI decode
// first, then a cookie-carrying fetch of the image URL, then an
// element screenshot as the last resort.
func (b *RodBrowser) CaptureImage(ctx context.Context) ([]byte, error) {
	page := b.page.Context(ctx)
	img, err := page.Element(b.selectors.CaptchaImage)
	if err != nil {
		return nil, fmt.Errorf("captcha image %q not found: %w", b.selectors.CaptchaImage, err)
	}

	if src, err := img.Attribute("src"); err == nil && src != nil && *src != "" {
		if strings.HasPrefix(*src, "data:image") {
			parts := strings.SplitN(*src, ",", 2)
			if len(parts) == 2 {
				if data, err := base64.StdEncoding.DecodeString(parts[1]); err == nil {
					return data, nil
				}
			}
		}
		if strings.HasPrefix(*src, "http") || strings.HasPrefix(*src, "/") {
			if data, err := b.fetchImage(ctx, *src); err == nil {
				return data, nil
			}
		}
	}

	data, err := img.Screenshot(proto.PageCaptureScreenshotFormatPng, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to screenshot captcha: %w", err)
	}
	return data, nil
}

func (b *RodBrowser) fetchImage(ctx context.Context, imgURL string) ([]byte, error) {
	if strings.HasPrefix(imgURL, "/") {
		info, err := b.page.Info()
		if err != nil {
			return nil, err
		}
		parts := strings.Split(info.URL, "/")
		if len(parts) >= 3 {
			imgURL = strings.Join(parts[:3], "/") + imgURL
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgURL, nil)
	if err != nil {
		return nil, err
	}
	cookies, err := b.page.Cookies(nil)
	if err == nil {
		for _, c := range cookies {
			req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
		}
	}
	req.Header.Set("User-Agent", b.userAgent)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// SubmitAnswer fills the captcha input, submits the form and reads
// the resulting page state through the error-indicator selectors plus
// a body-text sniff. The portals have no structured error surface.
func (b *RodBrowser) SubmitAnswer(ctx context.Context, answer string) (captcha.PageState, error) {
	page := b.page.Context(ctx)

	input, err := page.Element(b.selectors.CaptchaInput)
	if err != nil {
		return nil, fmt.Errorf("captcha input %q not found: %w", b.selectors.CaptchaInput, err)
	}
	if err := input.SelectAllText(); err == nil {
		input.MustInput("")
	}
	if err := input.Input(answer); err != nil {
		return nil, fmt.Errorf("failed to enter captcha answer: %w", err)
	}

	submit, err := page.Element(b.selectors.SubmitButton)
	if err != nil {
		return nil, fmt.Errorf("submit button %q not found: %w", b.selectors.SubmitButton, err)
	}
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("failed to click submit: %w", err)
	}

	// Result rendering on these portals is ajax-driven with no
	// navigation event to wait on.
	time.Sleep(2 * time.Second)

	return &pageState{errText: b.readErrorText(ctx)}, nil
}

// Refresh clicks the challenge refresh control when the site has one.
func (b *RodBrowser) Refresh(ctx context.Context) error {
	if b.selectors.CaptchaRefresh == "" {
		return nil
	}
	el, err := b.page.Context(ctx).Element(b.selectors.CaptchaRefresh)
	if err != nil {
		return nil
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	time.Sleep(1 * time.Second)
	return nil
}

func (b *RodBrowser) ResultHTML(ctx context.Context) (string, error) {
	html, err := b.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to read page html: %w", err)
	}
	return html, nil
}

func (b *RodBrowser) readErrorText(ctx context.Context) string {
	page := b.page.Context(ctx)

	for _, selector := range b.selectors.ErrorIndicators {
		el, err := page.Timeout(500 * time.Millisecond).Element(selector)
		if err != nil {
			continue
		}
		if text, err := el.Text(); err == nil {
			if trimmed := strings.TrimSpace(text); trimmed != "" {
				return trimmed
			}
		}
	}

	body, err := page.Element("body")
	if err != nil {
		return ""
	}
	text, err := body.Text()
	if err != nil {
		return ""
	}
	lower := strings.ToLower(text)
	for _, phrase := range []string{
		"no records found",
		"no record found",
		"invalid captcha",
		"wrong captcha",
		"incorrect captcha",
	} {
		if strings.Contains(lower, phrase) {
			return phrase
		}
	}
	return ""
}
