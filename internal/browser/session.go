package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/ivlev/shotignore/internal/geometry"
	"github.com/ivlev/shotignore/internal/ignore"
	"github.com/ivlev/shotignore/internal/region"
)

// NavigateTimeout bounds navigation and the wait for the load event.
var NavigateTimeout = 30 * time.Second

// Session is a browser with one page open on the screenshot's URL.
type Session struct {
	Browser *rod.Browser
	Page    *Page

	lnch *launcher.Launcher
}

// Open connects to the browser at remoteURL (a DevTools websocket URL) or,
// when remoteURL is empty, launches a local headless Chrome, then opens
// pageURL in a new tab.
func Open(ctx context.Context, remoteURL, pageURL string, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{}

	wsURL := remoteURL
	if wsURL == "" {
		s.lnch = launcher.New().Headless(true)
		u, err := s.lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		logger.Info("browser: launched local chrome", "url", wsURL)
	} else {
		logger.Info("browser: connecting to remote", "url", wsURL)
	}

	b := rod.New().ControlURL(wsURL).Context(ctx)
	if err := b.Connect(); err != nil {
		s.kill()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	s.Browser = b

	page, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	navCtx, cancel := context.WithTimeout(ctx, NavigateTimeout)
	defer cancel()
	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		s.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		logger.Warn("browser: wait load timeout", "url", pageURL, "error", err)
	}

	s.Page = NewPage(page)
	s.Page.Logger = logger
	return s, nil
}

// Close disconnects and, for a launched browser, kills the process.
func (s *Session) Close() error {
	var err error
	if s.Browser != nil {
		err = s.Browser.Close()
	}
	s.kill()
	return err
}

func (s *Session) kill() {
	if s.lnch != nil {
		s.lnch.Kill()
	}
}

// Anchor is the position of one element matched by an ignore locator.
type Anchor struct {
	Strategy ignore.Strategy
	Locator  region.Locator
	Rect     geometry.Rectangle
}

// Anchors locates every element named by spec and reports its box relative
// to scope, in strategy order. Locators of type "rect" name no element and
// are skipped.
func (p *Page) Anchors(ctx context.Context, spec region.Spec, scope *geometry.Rectangle) ([]Anchor, error) {
	var out []Anchor
	for _, strategy := range ignore.Order {
		for _, l := range spec[strategy] {
			if l.Type == "rect" {
				continue
			}
			found, err := p.FindElements(ctx, l)
			if err != nil {
				return nil, err
			}
			for _, e := range found {
				el, ok := e.(*rod.Element)
				if !ok {
					return nil, fmt.Errorf("browser: unexpected element %T", e)
				}
				r, err := p.ElementCoords(ctx, el, scope)
				if err != nil {
					return nil, err
				}
				out = append(out, Anchor{Strategy: strategy, Locator: l, Rect: r})
			}
		}
	}
	return out, nil
}
