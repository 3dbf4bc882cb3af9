// Package chromesurface is an sso.Surface backed by a visible Chrome window
// driven over the DevTools protocol.
package chromesurface

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/chromedp/cdproto/inspector"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/jrsteele09/atreader/sso"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ sso.Surface = (*Surface)(nil)

// Surface opens a fresh browser profile per Open so no cookies leak between
// attempts.
type Surface struct {
	browserPath string
	headless    bool
	logger      zerolog.Logger

	lock   sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Surface)

// WithBrowserPath selects the Chrome executable. Empty means auto-detect.
func WithBrowserPath(path string) Option {
	return func(s *Surface) {
		s.browserPath = path
	}
}

// WithHeadless runs the browser without a window (primarily for testing)
func WithHeadless(headless bool) Option {
	return func(s *Surface) {
		s.headless = headless
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Surface) {
		s.logger = logger
	}
}

func New(opts ...Option) *Surface {
	s := &Surface{
		logger: log.With().Str("component", "chromesurface").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open starts the browser on loginURL. Events stop and the channel closes when
// the window is closed, ctx is done or Close is called.
func (s *Surface) Open(ctx context.Context, loginURL string) (<-chan sso.NavigationEvent, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.cancel != nil {
		return nil, errors.New("[Surface.Open] surface is already open")
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Flag("headless", s.headless))
	if s.browserPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(s.browserPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	cancel := func() {
		browserCancel()
		allocCancel()
	}

	loads := make(chan struct{}, 1)
	chromedp.ListenTarget(browserCtx, func(ev any) {
		switch ev.(type) {
		case *page.EventLoadEventFired:
			select {
			case loads <- struct{}{}:
			default:
			}
		case *inspector.EventDetached, *inspector.EventTargetCrashed:
			// Cancelling blocks on the target's event loop, which is running this
			// listener.
			go cancel()
		}
	})

	if err := chromedp.Run(browserCtx, chromedp.Navigate(loginURL)); err != nil {
		cancel()
		return nil, errors.Wrap(err, "[Surface.Open] navigate")
	}

	events := make(chan sso.NavigationEvent)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.pump(browserCtx, loads, events, done)
	return events, nil
}

// Close shuts the browser down and waits for the event pump to exit.
func (s *Surface) Close() error {
	s.lock.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.lock.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

func (s *Surface) pump(ctx context.Context, loads <-chan struct{}, events chan<- sso.NavigationEvent, done chan<- struct{}) {
	defer close(done)
	defer close(events)

	for {
		select {
		case <-ctx.Done():
			return
		case <-loads:
			ev, err := snapshot(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				s.logger.Debug().Err(err).Msg("Failed to read browser cookies")
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func snapshot(ctx context.Context) (sso.NavigationEvent, error) {
	var (
		location string
		cookies  []*network.Cookie
	)
	err := chromedp.Run(ctx,
		chromedp.Location(&location),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			cookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return sso.NavigationEvent{}, err
	}
	return sso.NavigationEvent{URL: location, Cookies: toCookies(cookies)}, nil
}

func toCookies(in []*network.Cookie) []sso.Cookie {
	out := make([]sso.Cookie, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		out = append(out, sso.Cookie{
			Name:    c.Name,
			Value:   c.Value,
			Domain:  c.Domain,
			Expires: cookieExpiry(c),
		})
	}
	return out
}

// cookieExpiry converts DevTools seconds-since-epoch. Session cookies have no
// expiry.
func cookieExpiry(c *network.Cookie) time.Time {
	if c.Session || c.Expires <= 0 {
		return time.Time{}
	}
	sec, frac := math.Modf(c.Expires)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}
