package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"solar-checker/internal/common/camunda"
	"solar-checker/internal/common/config"
	"solar-checker/internal/common/database"
	"solar-checker/internal/common/logger"
	"solar-checker/internal/common/observability"
	"solar-checker/internal/flow"
	"solar-checker/internal/geocode"
	"solar-checker/internal/qualification"
	"solar-checker/internal/reference"
	"solar-checker/internal/upload"
)

// runtime holds the configured collaborators shared by the subcommands.
type runtime struct {
	cfg     *config.Config
	zap     *zap.Logger
	log     logger.Logger
	obs     *observability.Observability
	closers []func() error
}

func newRuntime(path, level string) (*runtime, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if level != "" {
		cfg.Logging.Level = level
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	r := &runtime{
		cfg: cfg,
		zap: zapLog,
		log: logger.NewZapAdapter(zapLog),
		obs: observability.New(observability.Config{
			ServiceName:    cfg.Observability.ServiceName,
			JaegerEndpoint: cfg.Observability.JaegerEndpoint,
		}),
	}
	r.zap.Debug("configuration loaded",
		zap.String("environment", cfg.App.Environment),
		zap.String("qualification", cfg.Qualification.BaseURL),
		zap.String("reference", cfg.Reference.BaseURL),
	)
	return r, nil
}

func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			r.zap.Warn("shutdown step failed", zap.Error(err))
		}
	}
	r.obs.Shutdown()
	_ = r.zap.Sync()
}

func (r *runtime) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.zap.Error("metrics server failed", zap.Error(err))
		}
	}()
	r.zap.Info("metrics server listening", zap.String("addr", addr))

	r.closers = append(r.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	})
}

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

// ==========================
// Collaborators
// ==========================

func (r *runtime) resolver() (*geocode.Resolver, error) {
	return geocode.NewResolverFromConfig(geocode.FromAppConfig(r.cfg), r.log, r.obs)
}

func (r *runtime) gateway() (*qualification.Gateway, error) {
	cfg := qualification.FromAppConfig(r.cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("qualification: %w", err)
	}
	return qualification.NewGateway(cfg, r.log, r.obs), nil
}

// reference builds the reference-data client. The Redis cache is optional;
// when it cannot be reached the client runs uncached.
func (r *runtime) reference(ctx context.Context) (*reference.Client, error) {
	cfg := reference.FromAppConfig(r.cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("reference: %w", err)
	}
	if !r.cfg.Reference.Cache {
		return reference.NewClient(cfg, r.log, r.obs), nil
	}

	redis := database.NewRedis(r.cfg.Redis)
	err := retryWithBackoff(ctx, func() error {
		return redis.Ping(ctx)
	}, 3, 500*time.Millisecond, r.zap, "Redis connection")
	if err != nil {
		r.zap.Warn("reference cache disabled", zap.Error(err))
		_ = redis.Close()
		return reference.NewClient(cfg, r.log, r.obs), nil
	}
	r.closers = append(r.closers, redis.Close)
	r.zap.Info("Redis connected successfully", zap.String("address", r.cfg.Redis.Address))
	return reference.NewClient(cfg, r.log, r.obs, reference.WithCache(redis)), nil
}

// publisher hands submissions to Zeebe when a broker is configured and to
// the log otherwise.
func (r *runtime) publisher(ctx context.Context) flow.ApplicationPublisher {
	if !r.cfg.Camunda.Enabled() {
		return camunda.NewLogPublisher(r.log)
	}

	clientCfg := camunda.DefaultClientConfig()
	clientCfg.GatewayAddress = r.cfg.Camunda.BrokerAddress
	clientCfg.ProcessID = r.cfg.Camunda.ProcessID
	clientCfg.UsePlaintextConnection = r.cfg.Camunda.Plaintext
	clientCfg.RequestTimeout = config.GetDuration(r.cfg.Camunda.RequestTimeout)

	var client *camunda.Client
	err := retryWithBackoff(ctx, func() error {
		var err error
		client, err = camunda.NewClientWithConfig(clientCfg, r.log)
		return err
	}, 3, time.Second, r.zap, "Zeebe client initialization")
	if err != nil {
		r.zap.Warn("zeebe unavailable, applications will only be logged", zap.Error(err))
		return camunda.NewLogPublisher(r.log)
	}
	r.closers = append(r.closers, client.Close)
	r.zap.Info("Zeebe client connected successfully")
	return client
}

func (r *runtime) previews() *upload.PreviewStore {
	if dir := r.cfg.Uploads.PreviewDir; dir != "" {
		return upload.NewDiskPreviewStore(dir)
	}
	return upload.NewMemoryPreviewStore()
}

func (r *runtime) controller(ctx context.Context) (*flow.Controller, error) {
	resolver, err := r.resolver()
	if err != nil {
		return nil, err
	}
	gateway, err := r.gateway()
	if err != nil {
		return nil, err
	}
	ref, err := r.reference(ctx)
	if err != nil {
		return nil, err
	}

	return flow.New(flow.Dependencies{
		Resolver:      resolver,
		Gateway:       gateway,
		Reference:     ref,
		Previews:      r.previews(),
		Publisher:     r.publisher(ctx),
		Logger:        r.log,
		Observability: r.obs,
	}, flow.FromAppConfig(r.cfg))
}
