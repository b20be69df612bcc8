package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/quire"
	"github.com/aretw0/quire/internal/adapters/file"
	"github.com/aretw0/quire/internal/config"
	httpadapter "github.com/aretw0/quire/pkg/adapters/http"
	loamadapter "github.com/aretw0/quire/pkg/adapters/loam"
	"github.com/aretw0/quire/pkg/adapters/memory"
	"github.com/aretw0/quire/pkg/adapters/pdf"
	redisadapter "github.com/aretw0/quire/pkg/adapters/redis"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/observability"
	"github.com/aretw0/quire/pkg/persistence/middleware"
	"github.com/aretw0/quire/pkg/ports"
	"github.com/aretw0/quire/pkg/session"
)

// Services is the wiring shared by the long-running commands.
type Services struct {
	Manager  *session.Manager
	Streams  *httpadapter.StreamManager
	Registry *prometheus.Registry // nil unless metrics are enabled
	closers  []func() error
}

// NewServices builds the store, loader, renderer and hooks described by cfg.
func NewServices(cfg config.Config, logger *slog.Logger) (*Services, error) {
	s := &Services{Streams: httpadapter.NewStreamManager(httpadapter.WithStreamLogger(logger))}

	var managerOpts []session.Option
	var store ports.DocumentStore
	switch cfg.Store.Kind {
	case config.StoreMemory:
		store = memory.NewStore()
	case config.StoreFile:
		store = file.New(cfg.Store.Dir)
	case config.StoreRedis:
		r := cfg.Store.Redis
		var opts []redisadapter.Option
		if r.Prefix != "" {
			opts = append(opts, redisadapter.WithPrefix(r.Prefix))
		}
		if r.TTL > 0 {
			opts = append(opts, redisadapter.WithTTL(r.TTL))
		}
		rs := redisadapter.New(r.Addr, r.Password, r.DB, opts...)
		s.closers = append(s.closers, rs.Close)
		store = rs
		prefix := r.Prefix
		if prefix == "" {
			prefix = redisadapter.DefaultPrefix
		}
		managerOpts = append(managerOpts, session.WithLocker(redisadapter.NewLocker(rs.Client(), prefix)))
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}

	if mws, err := storeMiddleware(cfg.Store); err != nil {
		s.Close()
		return nil, err
	} else if len(mws) > 0 {
		store = middleware.Wrap(store, mws...)
	}

	if cfg.Documents != "" {
		loader, err := loamadapter.Open(cfg.Documents)
		if err != nil {
			s.Close()
			return nil, err
		}
		managerOpts = append(managerOpts, session.WithLoader(loader))
	}

	hooks := []domain.LifecycleHooks{observability.LoggingHooks(logger), s.Streams.Hooks()}
	if cfg.Metrics {
		s.Registry = prometheus.NewRegistry()
		s.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(s.Registry)
		if err != nil {
			s.Close()
			return nil, err
		}
		hooks = append(hooks, metrics.Hooks())
	}

	renderer := pdf.New(
		pdf.WithLogger(logger),
		pdf.WithCompression(cfg.Compress),
		pdf.WithBaseDir(cfg.BaseDir),
	)
	if cfg.LockTTL > 0 {
		managerOpts = append(managerOpts, session.WithLockTTL(cfg.LockTTL))
	}
	managerOpts = append(managerOpts,
		session.WithLogger(logger),
		session.WithSessionOptions(
			quire.WithRenderer(renderer),
			quire.WithLifecycleHooks(observability.Chain(hooks...)),
		),
	)
	s.Manager = session.NewManager(store, managerOpts...)
	return s, nil
}

// storeMiddleware redacts before it encrypts, so masked values never reach
// the ciphertext.
func storeMiddleware(cfg config.Store) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		mws = append(mws, middleware.NewPIIMiddleware(cfg.Redact))
	}
	if cfg.EncryptionKey != "" {
		active, err := config.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, err
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for _, k := range cfg.FallbackKeys {
			key, err := config.DecodeKey(k)
			if err != nil {
				return nil, err
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(enc))
	}
	return mws, nil
}

// Close destroys live sessions and releases backend connections.
func (s *Services) Close() error {
	var errs []error
	if s.Manager != nil {
		errs = append(errs, s.Manager.Close())
	}
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
