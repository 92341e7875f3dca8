package browse

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wikicap/wikicap/pkg/behavior"
	"github.com/wikicap/wikicap/pkg/utils"
)

// DefaultEntryURL is the address loaded at the start of every page visit.
// Wikipedia serves a random article on each request to it
const DefaultEntryURL = "https://pt.wikipedia.org/wiki/Especial:Aleatória"

// DefaultLinkSelector matches internal article links eligible for clicking
const DefaultLinkSelector = "a[href^='/wiki/']"

// DefaultClickAttempts bounds the lookup-and-click retries per click decision
const DefaultClickAttempts = 2

// scrollScript scrolls the page down by the amount passed as argument
const scrollScript = "window.scrollBy(0, arguments[0]);"

// Config defines the configuration of a Simulator
type Config struct {
	// EntryURL is the address loaded on each page visit
	EntryURL string
	// LinkSelector matches the links eligible for clicking
	LinkSelector string
	// ClickAttempts bounds the lookup-and-click retries per click decision
	ClickAttempts int
}

// Simulator drives a browser session through a randomized sequence of page
// visits: load, optional idle, optional link click, read, scroll
type Simulator struct {
	behavior behavior.Behavior
	config   Config
	rng      *rand.Rand
	logger   logrus.FieldLogger
}

// NewSimulator creates a Simulator with the given behavior and configuration,
// applying defaults for unset config values
func NewSimulator(
	b behavior.Behavior,
	config Config,
	rng *rand.Rand,
	logger logrus.FieldLogger,
) (*Simulator, error) {
	err := b.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid behavior: %w", err)
	}

	if rng == nil {
		return nil, fmt.Errorf("a random source must be provided")
	}

	if config.EntryURL == "" {
		config.EntryURL = DefaultEntryURL
	}

	if config.LinkSelector == "" {
		config.LinkSelector = DefaultLinkSelector
	}

	if config.ClickAttempts <= 0 {
		config.ClickAttempts = DefaultClickAttempts
	}

	return &Simulator{
		behavior: b,
		config:   config,
		rng:      rng,
		logger:   logger,
	}, nil
}

// Run opens a session from the factory and visits the given number of pages.
// The session is released exactly once on every return path. A cancelled
// context ends the run at the next pause, returning the context's error.
func (s *Simulator) Run(ctx context.Context, pages int, newSession SessionFactory) error {
	if pages <= 0 {
		return fmt.Errorf("pages must be positive: %d", pages)
	}

	session, err := newSession()
	if err != nil {
		return fmt.Errorf("opening browser session: %w", err)
	}

	defer func() {
		_ = session.Quit()
	}()

	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := s.visit(ctx, session, page, pages)
		if err != nil {
			return fmt.Errorf("visiting page %d: %w", page, err)
		}
	}

	s.logger.Info("browsing finished")

	return nil
}

// visit performs a single page visit
func (s *Simulator) visit(ctx context.Context, session Session, page int, pages int) error {
	logger := s.logger.WithField("page", fmt.Sprintf("%d/%d", page, pages))
	logger.Info("opening random article")

	err := session.Navigate(s.config.EntryURL)
	if err != nil {
		return fmt.Errorf("navigating to %q: %w", s.config.EntryURL, err)
	}

	err = s.sleep(ctx, s.behavior.PageLoadWait.Sample(s.rng))
	if err != nil {
		return err
	}

	err = s.maybeIdle(ctx, logger)
	if err != nil {
		return err
	}

	if s.behavior.MaxClicksPerPage > 0 && s.behavior.ShouldClick(s.rng) {
		outcome := s.click(session)
		logger.WithField("outcome", outcome.String()).Info("link click")

		if outcome == ClickSucceeded {
			// give the clicked page time to load
			err = s.sleep(ctx, s.behavior.PageLoadWait.Sample(s.rng))
			if err != nil {
				return err
			}

			err = s.maybeIdle(ctx, logger)
			if err != nil {
				return err
			}
		}
	}

	read := s.behavior.ReadTime.Sample(s.rng)
	logger.WithField("read", utils.DurationSeconds(read)).Info("reading")
	err = s.sleep(ctx, read)
	if err != nil {
		return err
	}

	scrolls := s.behavior.ScrollsPerPage.Sample(s.rng)
	for i := 0; i < scrolls; i++ {
		pixels := s.behavior.ScrollPixels.Sample(s.rng)

		err = session.ExecuteScript(scrollScript, []interface{}{pixels})
		if err != nil {
			return fmt.Errorf("scrolling page: %w", err)
		}

		logger.WithFields(logrus.Fields{
			"scroll": fmt.Sprintf("%d/%d", i+1, scrolls),
			"pixels": pixels,
		}).Info("scrolled down")

		err = s.sleep(ctx, s.behavior.ScrollPause.Sample(s.rng))
		if err != nil {
			return err
		}

		err = s.maybeIdle(ctx, logger)
		if err != nil {
			return err
		}
	}

	return nil
}

// click makes a bounded number of attempts to find an eligible link and
// click it. Interaction errors are retried, a page without eligible links
// is not
func (s *Simulator) click(session Session) ClickOutcome {
	for attempt := 0; attempt < s.config.ClickAttempts; attempt++ {
		links, err := session.FindVisibleElements(s.config.LinkSelector)
		if err != nil {
			continue
		}

		if len(links) == 0 {
			return ClickNotFound
		}

		err = links[s.rng.Intn(len(links))].Click()
		if err != nil {
			continue
		}

		return ClickSucceeded
	}

	return ClickTransientFailure
}

// maybeIdle occasionally pauses, as a reader that got distracted
func (s *Simulator) maybeIdle(ctx context.Context, logger logrus.FieldLogger) error {
	if !s.behavior.ShouldIdle(s.rng) {
		return nil
	}

	idle := s.behavior.IdleTime.Sample(s.rng)
	logger.WithField("idle", utils.DurationSeconds(idle)).Info("human pause")

	return s.sleep(ctx, idle)
}

// sleep waits for the given duration unless the context is cancelled first
func (s *Simulator) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
