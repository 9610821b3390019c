package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dicklesworthstone/loginchallenge/internal/authserver"
	"github.com/Dicklesworthstone/loginchallenge/internal/config"
)

// newBackend builds the demo authentication server from config. The returned
// cleanup stops the users-file watcher and closes the Redis client.
func newBackend(ctx context.Context, cfg *config.Config, addr string, logger *slog.Logger) (*authserver.Server, func(), error) {
	records := authserver.DefaultUsers()
	if cfg.Server.UsersFile != "" {
		loaded, err := authserver.LoadUsersFile(cfg.Server.UsersFile)
		if err != nil {
			return nil, nil, err
		}
		records = loaded
	}
	users, err := authserver.NewUserStore(records, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("load users: %w", err)
	}

	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	var sessions authserver.SessionStore
	if cfg.Server.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Server.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", cfg.Server.RedisAddr, err)
		}
		cleanups = append(cleanups, func() { _ = client.Close() })
		sessions = authserver.NewRedisStore(client, "loginchallenge:")
		logger.Info("using redis session store", "addr", cfg.Server.RedisAddr)
	}

	srv, err := authserver.New(authserver.Config{
		Addr:       addr,
		Users:      users,
		Sessions:   sessions,
		SigningKey: []byte(cfg.Server.SigningKey),
		TokenTTL:   cfg.Server.TokenTTL,
		RateLimit:  cfg.Server.RateLimit,
		Burst:      cfg.Server.Burst,
		Logger:     logger,
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	if cfg.Server.UsersFile != "" {
		watchCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := authserver.WatchUsersFile(watchCtx, cfg.Server.UsersFile, users, logger); err != nil {
				logger.Warn("users file hot reload disabled", "error", err)
			}
		}()
		cleanups = append(cleanups, func() {
			cancel()
			<-done
		})
	}

	return srv, cleanup, nil
}
