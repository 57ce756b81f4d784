package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"spesetracker/internal/log"
	"spesetracker/internal/middleware/security"
	"spesetracker/internal/middleware/trace"
	"spesetracker/internal/services"
	appweb "spesetracker/web"
)

type Server struct {
	http.Server
	templates *template.Template
	ledger    *services.LedgerService
	ready     func(ctx context.Context) error
	logger    *log.Logger
	started   time.Time

	traceMiddleware *trace.Middleware
	shutdownOnce    sync.Once
}

type Option func(*Server)

// WithReadiness installs the store probe used by /readyz.
func WithReadiness(probe func(ctx context.Context) error) Option {
	return func(s *Server) { s.ready = probe }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *services.LedgerService, opts ...Option) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		ledger:  ledger,
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default()
	}
	s.logger = s.logger.WithComponent(log.ComponentHTTP)
	s.traceMiddleware = trace.NewMiddleware(extractClientIP, s.logger)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("POST /expenses/{id}/cells/{column}", s.handleEditCell)

	// UI partials
	mux.HandleFunc("GET /ui/grid", s.handleGrid)
	mux.HandleFunc("GET /ui/chart", s.handleChart)
	mux.HandleFunc("GET /chart.png", s.handleChartPNG)

	mux.HandleFunc("GET /api/expenses", s.handleAPIExpenses)
	mux.HandleFunc("GET /api/totals", s.handleAPITotals)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	s.Handler = s.traceMiddleware.Middleware(headers.Middleware(mux))

	return s
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
