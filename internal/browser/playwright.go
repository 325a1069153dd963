package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// PlaywrightOptions tunes launched Chromium instances.
type PlaywrightOptions struct {
	Headless      bool
	ActionTimeout time.Duration
}

// PlaywrightLauncher starts one Chromium process per session through a single
// long-lived Playwright driver.
type PlaywrightLauncher struct {
	pw     *playwright.Playwright
	opts   PlaywrightOptions
	logger *zap.Logger
}

// NewPlaywrightLauncher starts the Playwright driver. Call Stop on shutdown.
func NewPlaywrightLauncher(opts PlaywrightOptions, logger *zap.Logger) (*PlaywrightLauncher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	return &PlaywrightLauncher{pw: pw, opts: opts, logger: logger}, nil
}

// Launch opens a browser with an isolated context carrying empty HTTP credentials.
func (l *PlaywrightLauncher) Launch(ctx context.Context) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	browser, err := l.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
	})
	if err != nil {
		return nil, err
	}
	bctx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		HttpCredentials: &playwright.HttpCredentials{Username: "", Password: ""},
	})
	if err != nil {
		return nil, errors.Join(err, browser.Close())
	}
	if l.opts.ActionTimeout > 0 {
		bctx.SetDefaultTimeout(float64(l.opts.ActionTimeout.Milliseconds()))
	}
	page, err := bctx.NewPage()
	if err != nil {
		return nil, errors.Join(err, browser.Close())
	}
	l.logger.Debug("chromium launched", zap.Bool("headless", l.opts.Headless), zap.String("version", browser.Version()))
	return &playwrightSession{browser: browser, page: &playwrightPage{page: page}}, nil
}

// Stop shuts the Playwright driver down.
func (l *PlaywrightLauncher) Stop() error {
	if l == nil || l.pw == nil {
		return nil
	}
	return l.pw.Stop()
}

type playwrightSession struct {
	browser playwright.Browser
	page    *playwrightPage
}

func (s *playwrightSession) Page() Page { return s.page }

// Close closes the whole browser, taking its context and page with it.
func (s *playwrightSession) Close() error {
	return s.browser.Close()
}

type playwrightPage struct {
	page playwright.Page
}

func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *playwrightPage) Fill(ctx context.Context, target Target, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.locate(target).Fill(value)
}

func (p *playwrightPage) Click(ctx context.Context, target Target) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.locate(target).Click()
}

func (p *playwrightPage) Press(ctx context.Context, target Target, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.locate(target).Press(key)
}

func (p *playwrightPage) SelectOption(ctx context.Context, target Target, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.locate(target).SelectOption(playwright.SelectOptionValues{Values: &[]string{value}})
	return err
}

func (p *playwrightPage) BodyText(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.page.Locator("body").TextContent()
}

func (p *playwrightPage) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.page.Screenshot(playwright.PageScreenshotOptions{FullPage: playwright.Bool(true)})
}

// locate resolves t relative to the document root, or to its parent's matches.
func (p *playwrightPage) locate(t Target) playwright.Locator {
	var scope playwright.Locator
	if t.Parent != nil {
		scope = p.locate(*t.Parent)
	} else {
		scope = p.page.Locator(":root")
	}

	var loc playwright.Locator
	switch t.Kind {
	case KindPlaceholder:
		loc = scope.GetByPlaceholder(t.Value, playwright.LocatorGetByPlaceholderOptions{Exact: playwright.Bool(t.Exact)})
	case KindLabel:
		loc = scope.GetByLabel(t.Value, playwright.LocatorGetByLabelOptions{Exact: playwright.Bool(t.Exact)})
	case KindRole:
		opts := playwright.LocatorGetByRoleOptions{Exact: playwright.Bool(t.Exact)}
		if t.Value != "" {
			opts.Name = t.Value
		}
		loc = scope.GetByRole(playwright.AriaRole(t.Role), opts)
	case KindText:
		loc = scope.GetByText(t.Value, playwright.LocatorGetByTextOptions{Exact: playwright.Bool(t.Exact)})
	default:
		loc = scope.Locator(t.Value)
	}
	if t.HasText != "" {
		loc = loc.Filter(playwright.LocatorFilterOptions{HasText: t.HasText})
	}
	if t.Indexed() {
		loc = loc.Nth(t.Index)
	}
	return loc
}
