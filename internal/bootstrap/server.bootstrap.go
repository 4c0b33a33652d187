package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/minimarket/order-service/internal/config"
	"github.com/minimarket/order-service/internal/constant"
	"github.com/minimarket/order-service/internal/entity"
	httpHandler "github.com/minimarket/order-service/internal/handler/order/http"
	"github.com/minimarket/order-service/internal/infrastructure"
	"github.com/minimarket/order-service/internal/repository"
	orderservice "github.com/minimarket/order-service/internal/service/order"
	"github.com/minimarket/order-service/internal/service/pricing"
	"github.com/minimarket/order-service/internal/service/ratelimit"
	"github.com/minimarket/order-service/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartServer(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ordersDB, err := infrastructure.NewPostgresConnection(ctx, config.Env.Database["orders"])
	util.ContinueOrFatal(err)
	infrastructure.StartPostgresHealthCheck(ctx, ordersDB, config.Env.Database["orders"].PingInterval)

	orderRepo := repository.NewOrderRepository(ordersDB)
	executionRepo := repository.NewExecutionRepository(ordersDB)
	transactor := infrastructure.NewTransactor(ordersDB)

	limiter, closeLimiter := newLimiter(ctx, config.Env.RateLimit)
	pricingService := pricing.NewPricingService(config.Env.Pricing)

	orderService := orderservice.NewOrderService(limiter, orderRepo, executionRepo, pricingService, transactor)

	var nc *nats.Conn
	if strings.TrimSpace(config.Env.NatsJetstream.URL) != "" {
		var js nats.JetStreamContext
		nc, js, err = infrastructure.NewJetstream()
		util.ContinueOrFatal(err)

		orderService = orderService.WithJetstream(js)

		publishers := []entity.Publisher{orderService}
		for _, v := range publishers {
			err = v.JetstreamEventInit(ctx)
			util.ContinueOrFatal(err)
		}
	}

	orderHTTPHandler := httpHandler.NewOrderHTTPHandler(orderService)
	httpMux := http.NewServeMux()
	orderHTTPHandler.Register(httpMux)

	httpPort := fmt.Sprintf(":%s", config.Env.Port["http"])
	httpServer := infrastructure.NewHTTPServerWithConfig(infrastructure.HTTPServerConfig{
		Addr:            httpPort,
		ShutdownTimeout: config.Env.GracefulShutdownTimeout,
	}, httpMux)

	go func() {
		err := httpServer.Start()
		if err != nil {
			logrus.Error(err)
		}
	}()
	logrus.Info(fmt.Sprintf("http server started on %s", httpPort))

	ops := map[string]operation{
		"orders database": func(ctx context.Context) error {
			cancel()
			return ordersDB.Close()
		},
		"http": func(ctx context.Context) error {
			return httpServer.Shutdown(ctx)
		},
	}
	if closeLimiter != nil {
		ops["rate limiter"] = func(ctx context.Context) error {
			return closeLimiter()
		}
	}
	if nc != nil {
		ops["nats connection"] = func(ctx context.Context) error {
			return infrastructure.CloseJetstream(nc)
		}
	}

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops)

	<-wait
}

func newLimiter(ctx context.Context, cfg config.RateLimitConfig) (ratelimit.Limiter, func() error) {
	if cfg.Backend == constant.RateLimitBackendRedis {
		limiter, err := ratelimit.NewRedisLimiter(config.Env.Redis["rate_limit"].CacheDSN, cfg.Window, cfg.MaxRequests)
		util.ContinueOrFatal(err)

		logrus.Info("using redis rate limiter")

		return limiter, limiter.Close
	}

	limiter := ratelimit.NewMemoryLimiter(cfg.Window, cfg.MaxRequests, cfg.IdleTTL)
	limiter.StartEviction(ctx)

	return limiter, nil
}
