// Package rest exposes the account and expense services as a JSON HTTP API.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/expensekeeper/internal/logging"
	"github.com/dmitrijs2005/expensekeeper/internal/server/auth"
	"github.com/dmitrijs2005/expensekeeper/internal/server/models"
	"github.com/dmitrijs2005/expensekeeper/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 10 * time.Second

// UserService is the account lifecycle used by the API.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	DeleteAccount(ctx context.Context, caller auth.Identity, userID int64) error
}

// ProfileService is the self-service profile API.
type ProfileService interface {
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, name, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID int64, current, next string) error
	RequestPictureUpload(ctx context.Context, userID int64) (*services.PictureUpload, error)
	PictureURL(ctx context.Context, key string) (string, error)
}

// ExpenseService is the per-user expense ledger.
type ExpenseService interface {
	Create(ctx context.Context, userID int64, e *models.Expense) (*models.Expense, error)
	List(ctx context.Context, userID int64) ([]*models.Expense, error)
	Delete(ctx context.Context, userID, expenseID int64) error
}

// Options carries the HTTP-level settings.
type Options struct {
	Address        string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

type HTTPServer struct {
	opts     Options
	logger   logging.Logger
	issuer   *auth.TokenIssuer
	users    UserService
	profiles ProfileService
	expenses ExpenseService
}

func NewHTTPServer(opts Options, l logging.Logger, issuer *auth.TokenIssuer, us UserService, ps ProfileService, es ExpenseService) *HTTPServer {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &HTTPServer{
		opts:     opts,
		logger:   l.With("module", "http_server"),
		issuer:   issuer,
		users:    us,
		profiles: ps,
		expenses: es,
	}
}

// Handler builds the router with the full middleware stack.
func (s *HTTPServer) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.opts.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/hello", s.makeHandler(s.handleHello))
	r.Post("/hello", s.makeHandler(s.handleHello))
	r.Post("/token", s.makeHandler(s.handleToken))
	r.Post("/signup", s.makeHandler(s.handleSignup))

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)

		r.Route("/profile", func(r chi.Router) {
			r.Get("/", s.makeHandler(s.handleGetProfile))
			r.Put("/", s.makeHandler(s.handleUpdateProfile))
			r.Put("/password", s.makeHandler(s.handleUpdatePassword))
			r.Post("/picture", s.makeHandler(s.handleRequestPicture))
		})

		r.Delete("/user/{id}", s.makeHandler(s.handleDeleteUser))

		r.Route("/expenses", func(r chi.Router) {
			r.Get("/", s.makeHandler(s.handleListExpenses))
			r.Post("/", s.makeHandler(s.handleCreateExpense))
			r.Delete("/{id}", s.makeHandler(s.handleDeleteExpense))
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
