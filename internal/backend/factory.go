package backend

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gstdash/internal/amqp"
	"gstdash/internal/api"
	"gstdash/internal/api/memory"
	"gstdash/internal/cache"
	"gstdash/internal/log"
	"gstdash/internal/session"
	"gstdash/internal/storage"
)

// Factory builds Resources from a Config.
type Factory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Factory{logger: logger.WithComponent(log.ComponentBackend)}
}

// Create builds every resource. On failure anything already acquired is
// released before returning.
func (f *Factory) Create(ctx context.Context, cfg Config) (res *Resources, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res = &Resources{Cache: cache.NewManager()}
	res.addCleanup(func() error { res.Cache.Stop(); return nil })
	defer func() {
		if err != nil {
			_ = res.Close()
			res = nil
		}
	}()

	if res.Source, err = f.createSource(cfg, res); err != nil {
		return nil, err
	}
	if res.Sessions, err = f.createSessions(ctx, cfg, res); err != nil {
		return nil, err
	}
	res.Events = f.createEvents(cfg, res)
	return res, nil
}

// CreateSource builds only the data source, for tools that need no sessions.
func (f *Factory) CreateSource(cfg Config) (api.Source, error) {
	if !cfg.Data.IsValid() {
		return nil, fmt.Errorf("invalid data backend: %s", cfg.Data)
	}
	return f.createSource(cfg, &Resources{})
}

func (f *Factory) createSource(cfg Config, res *Resources) (api.Source, error) {
	var src api.Source

	switch cfg.Data {
	case HTTPData:
		src = api.NewClient(cfg.APIBaseURL,
			api.WithAPIKey(cfg.APIKey),
			api.WithHTTPClient(upstreamHTTPClient()),
			api.WithLogger(f.logger.WithComponent(log.ComponentAPI)))
		f.logger.Info("Initialized upstream API source",
			log.FieldBackend, cfg.Data,
			"base_url", cfg.APIBaseURL,
			"api_key_set", cfg.APIKey != "")

	case MemoryData:
		dataDir := cfg.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		store, err := memory.NewFromDir(dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load memory data from %s: %w", dataDir, err)
		}
		src = store
		f.logger.Info("Initialized memory source", log.FieldBackend, cfg.Data, "data_directory", dataDir)

	default:
		return nil, fmt.Errorf("unsupported data backend: %s", cfg.Data)
	}

	if cfg.CacheTTL > 0 {
		src = api.NewCachedSource(src, cfg.CacheTTL, res.Cache, f.logger)
		f.logger.Info("Caching upstream responses", "ttl", cfg.CacheTTL.String())
	}
	return src, nil
}

func (f *Factory) createSessions(ctx context.Context, cfg Config, res *Resources) (session.Store, error) {
	switch cfg.Sessions {
	case MemorySessions:
		store := session.NewMemoryStore(cfg.SessionTTL)
		res.Cache.Register(store.Cache())
		f.logger.Info("Initialized memory session store")
		return store, nil

	case SQLiteSessions:
		repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.SessionTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite session store: %w", err)
		}
		repo.WithLogger(f.logger)
		res.addCleanup(repo.Close)
		res.addCheck("sqlite", repo)
		res.Cache.Register(repo)
		f.logger.Info("Initialized SQLite session store", "db_path", cfg.SQLiteDBPath)
		return repo, nil

	case RedisSessions:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.RedisAddr, err)
		}
		store := session.NewRedisStore(client, cfg.SessionTTL)
		res.addCleanup(client.Close)
		res.addCheck("redis", store)
		f.logger.Info("Initialized Redis session store", "addr", cfg.RedisAddr, "db", cfg.RedisDB)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported session backend: %s", cfg.Sessions)
	}
}

// createEvents never fails: without a broker, events are dropped.
func (f *Factory) createEvents(cfg Config, res *Resources) session.EventSink {
	if cfg.AMQPURL == "" {
		return session.NopSink{}
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, f.logger)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without session events", log.FieldError, err)
		return session.NopSink{}
	}
	res.addCleanup(client.Close)
	res.addCheck("amqp", client)
	f.logger.Info("Initialized AMQP client",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)
	return client
}

// upstreamHTTPClient traces outgoing calls. Deadlines come from the caller's
// context, so the client carries no timeout of its own.
func upstreamHTTPClient() *http.Client {
	return &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
}
