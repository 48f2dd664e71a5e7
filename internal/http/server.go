package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"gstdash/internal/api"
	"gstdash/internal/core"
	"gstdash/internal/log"
	"gstdash/internal/middleware/ratelimit"
	"gstdash/internal/middleware/security"
	"gstdash/internal/middleware/trace"
	"gstdash/internal/services"
	"gstdash/internal/session"
	appweb "gstdash/web"
)

// DefaultRequestTimeout bounds the upstream work done for one page.
const DefaultRequestTimeout = 20 * time.Second

// Deps is everything the server needs from the outside.
type Deps struct {
	Source      api.Source
	Sessions    session.Store
	Events      session.EventSink
	Credentials session.Credentials
	SessionTTL  time.Duration

	VendorsPaginated bool
	Location         *time.Location
	LoginRateLimit   int
	RequestTimeout   time.Duration

	// Ready reports backend health for /readyz; nil means always ready.
	Ready func(ctx context.Context) map[string]error

	Logger *log.Logger
}

type Server struct {
	http.Server

	pages    map[string]*template.Template
	guard    *session.Guard
	vendors  *services.VendorService
	filings  *services.FilingService
	details  *services.DetailsService
	inflight *services.Inflight
	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	dates      core.DateFormatter
	ready      func(ctx context.Context) map[string]error
	timeout    time.Duration
	sessionTTL time.Duration
	logger     *log.Logger
	now        func() time.Time
	started    time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Source == nil {
		return nil, errors.New("http server: nil source")
	}
	if deps.Sessions == nil {
		return nil, errors.New("http server: nil session store")
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	rlConfig := ratelimit.DefaultConfig()
	if deps.LoginRateLimit > 0 {
		rlConfig.Limit = deps.LoginRateLimit
	}

	vendors := services.NewVendorService(deps.Source, deps.VendorsPaginated, logger)
	s := &Server{
		guard: session.NewGuard(deps.Sessions, deps.Credentials,
			session.WithEventSink(deps.Events), session.WithLogger(logger)),
		vendors:    vendors,
		filings:    services.NewFilingService(deps.Source),
		details:    services.NewDetailsService(deps.Source, vendors, logger),
		inflight:   services.NewInflight(),
		detector:   security.NewDetector(logger),
		dates:      core.NewDateFormatter(deps.Location),
		ready:      deps.Ready,
		timeout:    timeout,
		sessionTTL: deps.SessionTTL,
		logger:     logger.WithComponent(log.ComponentHTTP),
		now:        time.Now,
		started:    time.Now(),
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	pages, err := s.parseTemplates(appweb.TemplatesFS)
	if err != nil {
		return nil, err
	}
	s.pages = pages

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	// Everything that can fail is done; the limiter starts a goroutine.
	s.limiter = ratelimit.NewLimiter(rlConfig)

	mux := http.NewServeMux()
	s.routes(mux, static)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var handler http.Handler = mux
	handler = s.detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = otelhttp.NewHandler(handler, "gstdash")

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      timeout + 10*time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s, nil
}

func (s *Server) routes(mux *http.ServeMux, static fs.FS) {
	assets := http.StripPrefix("/static/", http.FileServer(http.FS(static)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(assets))

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	public := func(h http.HandlerFunc) http.Handler {
		return security.NoStore(s.withSession(h))
	}
	protected := func(h http.HandlerFunc) http.Handler {
		return security.NoStore(s.withSession(s.requireAuth(h)))
	}

	limitLogin := s.limiter.Middleware(s.detector.ExtractClientIP, s.handleLoginLimited)
	mux.Handle("GET /login", public(s.handleLoginPage))
	mux.Handle("POST /login", security.NoStore(limitLogin(s.withSession(http.HandlerFunc(s.handleLogin)))))
	mux.Handle("POST /logout", public(s.handleLogout))

	mux.Handle("GET /{$}", protected(s.handleIndex))
	mux.Handle("GET /vendors", protected(s.handleVendors))
	mux.Handle("GET /all-filings", protected(s.handleAllFilings))
	mux.Handle("GET /all-filings/export.xlsx", protected(s.handleExportAll))
	mux.Handle("GET /gst-filings/{gstin}", protected(s.handleVendorFilings))
	mux.Handle("GET /gst-filings/{gstin}/export.xlsx", protected(s.handleExportVendor))
	mux.Handle("GET /vendor-details", protected(s.handleVendorSelector))
	mux.Handle("GET /vendor-details/{gstin}", protected(s.handleVendorDetails))

	mux.Handle("/", public(s.handleNotFound))
}

// Shutdown gracefully shuts down the server and its background goroutines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics is a snapshot of the middleware counters.
type Metrics struct {
	Requests      trace.Metrics
	Security      security.DetectionMetrics
	RateLimit     ratelimit.Metrics
	InflightViews int
}

func (s *Server) Metrics() Metrics {
	return Metrics{
		Requests:      s.tracer.GetMetrics(),
		Security:      s.detector.GetMetrics(),
		RateLimit:     s.limiter.GetMetrics(),
		InflightViews: s.inflight.Len(),
	}
}
