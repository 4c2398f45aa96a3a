// Package server wires the running pieces together: the Telegram poller that
// collects jobs, the execution backend that runs them, and the HTTP API that
// exposes job history.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"clipcast/config"
	"clipcast/internal/appdirs"
	"clipcast/internal/bot"
	"clipcast/internal/queue"
	"clipcast/internal/router"
	"clipcast/internal/service"
	"clipcast/internal/taskrunner"
	"clipcast/internal/types"
	"clipcast/log"
	"clipcast/pkg/telegram"
)

const shutdownTimeout = 10 * time.Second

type queueSubmitter struct {
	q *queue.Queue
}

func (s queueSubmitter) SubmitClipJob(job types.JobInput) error {
	return s.q.EnqueueClipJob(queue.PayloadFromJob(job))
}

// Start runs everything until ctx is canceled, then shuts down in order:
// HTTP first, then the poller, then the execution backend.
func Start(ctx context.Context) error {
	client := telegram.NewClient(config.Conf.Telegram.Token, config.Conf.App.Proxy)
	sink := bot.TelegramSink{Client: client}
	messenger := bot.TelegramMessenger{Client: client}

	svc, err := service.NewService(sink, messenger)
	if err != nil {
		return err
	}

	uploadDir, err := appdirs.ResolveUploadRoot()
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	var submitter bot.Submitter
	var closeBackend func()

	if config.Conf.Queue.RedisAddr != "" {
		q := queue.NewQueue(queue.QueueConfig{
			RedisAddr:     config.Conf.Queue.RedisAddr,
			RedisPassword: config.Conf.Queue.RedisPassword,
			RedisDB:       config.Conf.Queue.RedisDB,
			Concurrency:   config.Conf.Queue.Concurrency,
		})
		submitter = queueSubmitter{q: q}
		closeBackend = func() { _ = q.Close() }
		g.Go(func() error {
			return queue.StartWorker(q, svc)
		})
	} else {
		runner := taskrunner.New(svc, taskrunner.Config{
			Concurrency: config.Conf.Queue.Concurrency,
		})
		submitter = runner
		closeBackend = runner.Close
	}

	tgBot := bot.New(client, submitter, uploadDir, config.Conf.Telegram.PollTimeout)
	g.Go(func() error {
		log.GetLogger().Info("Telegram poller started",
			zap.Int("poll_timeout", config.Conf.Telegram.PollTimeout))
		return tgBot.Poll(ctx)
	})

	gin.SetMode(gin.ReleaseMode)
	engine := gin.Default()
	router.SetupRouter(engine)

	addr := fmt.Sprintf("%s:%d", config.Conf.Server.Host, config.Conf.Server.Port)
	httpServer := &http.Server{Addr: addr, Handler: engine}

	g.Go(func() error {
		log.GetLogger().Info("HTTP API listening", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.GetLogger().Warn("HTTP shutdown failed", zap.Error(err))
		}
		closeBackend()
		return ctx.Err()
	})

	return g.Wait()
}
