package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"clipsmith/internal/config"
	"clipsmith/internal/jobs"
	"clipsmith/internal/logging"
	"clipsmith/internal/notifications"
	"clipsmith/internal/pipeline"
	"clipsmith/internal/preview"
	"clipsmith/internal/ratelimit"
	"clipsmith/internal/services"
)

type commandContext struct {
	configFlag *string
	userFlag   *int64
	chatFlag   *int64

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, userFlag, chatFlag *int64) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		userFlag:   userFlag,
		chatFlag:   chatFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) userID() int64 {
	if c.userFlag == nil {
		return 1
	}
	return *c.userFlag
}

func (c *commandContext) chatID() int64 {
	if c.chatFlag == nil {
		return 1
	}
	return *c.chatFlag
}

// cliServices is everything a command needs to drive jobs in process. The
// CLI runs phases synchronously; the deferred submitter only records the
// jobs the preview manager asks for so the command can run them afterwards.
type cliServices struct {
	cfg     *config.Config
	store   *jobs.Store
	runner  *pipeline.Runner
	manager *preview.Manager
	limiter *ratelimit.Store
	pending *deferredSubmitter
}

func (c *commandContext) openServices() (*cliServices, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}

	store, err := jobs.Open(cfg)
	if err != nil {
		return nil, nil, err
	}

	logger := logging.NewNop()
	notifier := notifications.NewService(cfg)
	runner := pipeline.NewRunner(cfg, store, notifier, logger)
	pending := &deferredSubmitter{store: store}
	manager := preview.NewManager(store, pending, logger)
	limiter := ratelimit.New(
		time.Duration(cfg.RateLimit.IntervalMS)*time.Millisecond,
		cfg.RateLimit.Burst)

	svc := &cliServices{
		cfg:     cfg,
		store:   store,
		runner:  runner,
		manager: manager,
		limiter: limiter,
		pending: pending,
	}
	return svc, func() { store.Close() }, nil
}

// resolveJobID picks the explicit --job value or falls back to the latest
// job pointer for the invoking user.
func (svc *cliServices) resolveJobID(ctx context.Context, jobFlag string, userID, chatID int64) (string, error) {
	jobFlag = strings.TrimSpace(jobFlag)
	if jobFlag != "" {
		return jobFlag, nil
	}
	latest, err := svc.store.Latest(ctx, chatID, userID)
	if err != nil {
		return "", err
	}
	if latest == "" {
		return "", services.Wrap(services.ErrValidation, "cli", "resolve",
			"no recent job for this user; pass --job", nil)
	}
	return latest, nil
}

// runPending executes jobs the preview manager submitted during this
// command, in submission order.
func (svc *cliServices) runPending(ctx context.Context) error {
	for _, id := range svc.pending.take() {
		if err := svc.runner.Run(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

type deferredSubmitter struct {
	store *jobs.Store
	ids   []string
}

func (s *deferredSubmitter) Submit(ctx context.Context, id string, userID, chatID int64, payload jobs.Payload) error {
	if _, err := s.store.Create(ctx, id, userID, chatID, payload); err != nil {
		return err
	}
	s.ids = append(s.ids, id)
	return nil
}

func (s *deferredSubmitter) take() []string {
	ids := s.ids
	s.ids = nil
	return ids
}
