package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/review-suggester/pkg/github"

	"github.com/codeGROOVE-dev/retry"
	"github.com/codeGROOVE-dev/sprinkler/pkg/client"
)

const (
	eventChannelSize     = 100             // Buffer size for event channel
	eventDedupWindow     = 5 * time.Second // Time window for deduplicating events
	eventMapMaxSize      = 1000            // Maximum entries in event dedup map
	eventMapCleanupAge   = 1 * time.Hour   // Age threshold for cleaning up old entries
	eventMaxRetries      = 3
	eventMaxRetryDelay   = 10 * time.Second
	maxReconnectAttempts = 100
	reconnectBackoff     = 30 * time.Second
	maxBackoff           = 5 * time.Minute
)

// sprinklerMonitor manages WebSocket event subscriptions for a single org.
type sprinklerMonitor struct {
	mu                sync.RWMutex
	lastEventAt       time.Time
	bot               *Bot
	client            *client.Client
	eventChan         chan string
	lastEventMap      map[string]time.Time
	stopChan          chan struct{}
	org               string
	reconnectAttempts int
	isRunning         bool
	isStopped         bool
}

// newSprinklerMonitor creates a monitor for one org.
func newSprinklerMonitor(bot *Bot, org string) *sprinklerMonitor {
	return &sprinklerMonitor{
		bot:          bot,
		org:          org,
		eventChan:    make(chan string, eventChannelSize),
		lastEventMap: make(map[string]time.Time),
		stopChan:     make(chan struct{}),
	}
}

// start begins monitoring pull_request events for this org.
func (sm *sprinklerMonitor) start(ctx context.Context) error {
	sm.mu.Lock()
	if sm.isRunning {
		sm.mu.Unlock()
		return nil
	}
	sm.isRunning = true
	sm.isStopped = false
	sm.mu.Unlock()

	slog.Info("Starting event monitor", "component", "sprinkler", "org", sm.org)
	go sm.processEvents(ctx)
	go sm.manageConnection(ctx)
	return nil
}

// manageConnection restarts the WebSocket client when it gives up. The
// sprinkler client retries internally; this loop only handles fatal exits.
func (sm *sprinklerMonitor) manageConnection(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sm.stopChan:
			return
		default:
			sm.mu.RLock()
			stopped := sm.isStopped
			sm.mu.RUnlock()
			if stopped {
				return
			}

			if err := sm.connect(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}

				sm.mu.Lock()
				sm.reconnectAttempts++
				attempts := sm.reconnectAttempts
				sm.mu.Unlock()

				if attempts >= maxReconnectAttempts {
					slog.Error("Max reconnection attempts reached, giving up", "component", "sprinkler", "org", sm.org)
					return
				}

				backoff := reconnectBackoff * time.Duration(attempts)
				if backoff > maxBackoff {
					backoff = maxBackoff
				}
				slog.Warn("WebSocket client gave up, restarting after backoff",
					"component", "sprinkler", "org", sm.org, "attempt", attempts, "backoff", backoff, "error", err)

				select {
				case <-ctx.Done():
					return
				case <-sm.stopChan:
					return
				case <-time.After(backoff):
				}
			} else {
				sm.mu.Lock()
				sm.reconnectAttempts = 0
				sm.mu.Unlock()

				select {
				case <-ctx.Done():
					return
				case <-sm.stopChan:
					return
				case <-time.After(5 * time.Second):
				}
			}
		}
	}
}

// connect runs one WebSocket client session (blocking).
func (sm *sprinklerMonitor) connect(ctx context.Context) error {
	config := client.Config{
		ServerURL:    "wss://" + client.DefaultServerAddress + "/ws",
		Organization: sm.org,
		TokenProvider: func() (string, error) {
			sm.bot.client.SetCurrentOrg(sm.org)
			token, err := sm.bot.client.Token(ctx)
			sm.bot.client.SetCurrentOrg("")
			if err != nil {
				return "", fmt.Errorf("failed to get token: %w", err)
			}
			return token, nil
		},
		EventTypes:     []string{"pull_request"},
		UserEventsOnly: false,
		NoReconnect:    false,
		OnConnect: func() {
			slog.Info("WebSocket connected", "component", "sprinkler", "org", sm.org)
		},
		OnDisconnect: func(err error) {
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Warn("WebSocket disconnected", "component", "sprinkler", "org", sm.org, "error", err)
			}
		},
		OnEvent: func(event client.Event) {
			sm.handleEvent(event)
		},
	}

	wsClient, err := client.New(config)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}

	sm.mu.Lock()
	sm.client = wsClient
	sm.mu.Unlock()

	if err := wsClient.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// handleEvent queues a pull_request event URL for processing, deduplicating
// bursts for the same PR.
func (sm *sprinklerMonitor) handleEvent(event client.Event) {
	if event.Type != "pull_request" || event.URL == "" {
		return
	}

	sm.mu.Lock()
	now := time.Now()
	if lastSeen, ok := sm.lastEventMap[event.URL]; ok && now.Sub(lastSeen) < eventDedupWindow {
		sm.mu.Unlock()
		return
	}
	sm.lastEventMap[event.URL] = now
	sm.lastEventAt = now

	// Bound the dedup map so a long-lived monitor cannot leak.
	if len(sm.lastEventMap) > eventMapMaxSize {
		cutoff := now.Add(-eventMapCleanupAge)
		for url, ts := range sm.lastEventMap {
			if ts.Before(cutoff) {
				delete(sm.lastEventMap, url)
			}
		}
	}
	sm.mu.Unlock()

	select {
	case sm.eventChan <- event.URL:
	default:
		slog.Warn("Event channel full, dropping event", "component", "sprinkler", "url", event.URL)
	}
}

// processEvents drains the event channel and processes each PR with retry.
func (sm *sprinklerMonitor) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sm.stopChan:
			return
		case prURL := <-sm.eventChan:
			sm.processEvent(ctx, prURL)
		}
	}
}

// processEvent runs the suggester for one PR event.
func (sm *sprinklerMonitor) processEvent(ctx context.Context, prURL string) {
	owner, repo, number, err := github.ParsePRURL(prURL)
	if err != nil {
		slog.Warn("Failed to parse PR URL", "component", "sprinkler", "url", prURL, "error", err)
		return
	}

	slog.Info("Processing PR event", "component", "sprinkler", "owner", owner, "repo", repo, "pr", number)

	sm.bot.client.SetCurrentOrg(owner)
	defer sm.bot.client.SetCurrentOrg("")

	err = retry.Do(func() error {
		return sm.bot.processSinglePR(ctx, owner, repo, number)
	},
		retry.Attempts(eventMaxRetries),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxDelay(eventMaxRetryDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Info("Retrying PR processing", "component", "sprinkler", "attempt", n+1, "pr", number, "error", err)
		}),
		retry.Context(ctx),
	)
	if err != nil {
		slog.Error("Failed to process PR after retries",
			"component", "sprinkler", "owner", owner, "repo", repo, "pr", number, "error", err)
	}
}

// stop shuts the monitor down.
func (sm *sprinklerMonitor) stop() {
	sm.mu.Lock()
	if !sm.isRunning {
		sm.mu.Unlock()
		return
	}
	sm.isRunning = false
	sm.isStopped = true
	sm.mu.Unlock()

	close(sm.stopChan)

	sm.mu.RLock()
	wsClient := sm.client
	sm.mu.RUnlock()
	if wsClient != nil {
		wsClient.Stop()
	}
}
