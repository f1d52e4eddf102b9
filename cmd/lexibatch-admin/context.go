package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/example/lexibatch/internal/config"
	"github.com/example/lexibatch/internal/database"
	"github.com/example/lexibatch/internal/logging"
	"github.com/example/lexibatch/internal/scheduling"
)

type commandContext struct {
	userFlag *int64

	configOnce sync.Once
	config     *config.Config

	serviceOnce sync.Once
	logger      *slog.Logger
	store       *database.Store
	service     *scheduling.Service
	serviceErr  error
}

func newCommandContext(userFlag *int64) *commandContext {
	return &commandContext{userFlag: userFlag}
}

func (c *commandContext) configValue() *config.Config {
	c.configOnce.Do(func() {
		c.config = config.Load()
	})
	return c.config
}

func (c *commandContext) userID() int64 {
	if c.userFlag == nil {
		return 0
	}
	return *c.userFlag
}

func (c *commandContext) ensureService(ctx context.Context) (*scheduling.Service, error) {
	c.serviceOnce.Do(func() {
		if c.userID() <= 0 {
			c.serviceErr = fmt.Errorf("user id must be positive")
			return
		}
		cfg := c.configValue()
		logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
		if err != nil {
			c.serviceErr = err
			return
		}
		if ctx == nil {
			ctx = context.Background()
		}
		store, err := database.Connect(ctx, cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			c.serviceErr = err
			return
		}
		c.logger = logger
		c.store = store
		c.service = scheduling.NewService(store, scheduling.Options{
			ReadyThreshold:     cfg.BatchReadyThreshold,
			LearnedRepetitions: cfg.LearnedRepetitions,
			FivePointAllowTwo:  cfg.FivePointAllowTwo,
			NewCardsPerDay:     cfg.AnkiNewCardsPerDay,
			MatureIntervalDays: cfg.MatureIntervalDays,
			Logger:             logger,
		})
	})
	return c.service, c.serviceErr
}

func (c *commandContext) close() error {
	if c.store == nil {
		return nil
	}
	err := c.store.Close()
	c.store = nil
	return err
}

func shouldSkipStore(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipStore"] == "true" {
			return true
		}
	}
	return false
}

func parseDatabaseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid database id %q", raw)
	}
	return id, nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
