package main

import (
	"context"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/example/movie-platform/internal/accounts"
	"github.com/example/movie-platform/internal/catalog"
	"github.com/example/movie-platform/internal/platform/analytics"
	"github.com/example/movie-platform/internal/platform/auth"
	"github.com/example/movie-platform/internal/platform/config"
	"github.com/example/movie-platform/internal/platform/db"
	"github.com/example/movie-platform/internal/platform/httpserver"
	"github.com/example/movie-platform/internal/platform/logging"
	"github.com/example/movie-platform/internal/platform/natsconn"
	"github.com/example/movie-platform/internal/platform/run"
	socialhandlers "github.com/example/movie-platform/internal/social/handlers"
	socialstore "github.com/example/movie-platform/internal/social/store"
	"github.com/example/movie-platform/internal/watchlist"
)

const catalogInvalidateSubject = "catalog.cache.invalidate"

type stores struct {
	users     accounts.UserStore
	votes     socialstore.VoteStore
	comments  socialstore.CommentStore
	watchlist watchlist.Store
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	st := initStores(cfg, log)
	if st.close != nil {
		defer st.close()
	}

	// NATS is optional; without it analytics and cache invalidation are no-ops.
	var nc *nats.Conn
	var js nats.JetStreamContext
	if strings.TrimSpace(os.Getenv("NATS_URL")) != "" {
		nc, err = natsconn.Connect(natsconn.Options{})
		if err != nil {
			log.Warn("nats unavailable, analytics disabled", zap.Error(err))
		} else {
			defer nc.Close()
			if js, err = nc.JetStream(); err != nil {
				log.Warn("jetstream unavailable, analytics disabled", zap.Error(err))
				js = nil
			}
		}
	}
	ap := analytics.New(js, log)

	verifier := auth.JWTVerifier{Secret: []byte(cfg.JWTSecret)}
	tokens := accounts.TokenService{Secret: []byte(cfg.JWTSecret)}
	mailer := accounts.NewSMTPMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.User, cfg.SMTP.Pass, cfg.SMTP.From, log)
	avatars := accounts.AvatarStore{Dir: cfg.UploadDir}
	omdb := catalog.NewClient(cfg.OMDB.BaseURL, cfg.OMDB.APIKey)
	cache := catalog.NewTTLCache(cfg.OMDB.CacheTTLSec, nc, catalogInvalidateSubject)

	r := chi.NewRouter()
	httpserver.SetupRouter(r)

	r.Route("/api", func(r chi.Router) {
		r.Use(httpserver.NewRateLimiter(20, 40).Middleware)

		// Public account routes
		r.Post("/register", accounts.Register(st.users, tokens, mailer, cfg.FrontendURL, ap))
		r.Get("/verify-email/{token}", accounts.VerifyEmail(st.users, tokens))
		r.Post("/login", accounts.Login(st.users, tokens, ap))
		r.Post("/reset-password-request", accounts.ResetPasswordRequest(st.users, tokens, mailer, cfg.FrontendURL))
		r.Post("/reset-password", accounts.ResetPassword(st.users, tokens))

		// Catalog proxy
		r.Get("/home", catalog.Home(omdb, cache))
		r.Get("/movie/{imdbID}", catalog.MovieByID(omdb, cache, ap))

		// Public social reads
		r.Get("/movies/{movie_id}/ratings", socialhandlers.GetRatings(st.votes))
		r.Get("/movies/{movie_id}/comments", socialhandlers.ListComments(st.comments))

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireUser(verifier))

			r.Get("/edit-account", accounts.GetAccount(st.users))
			r.Put("/edit-account", accounts.UpdateAccount(st.users, avatars))

			r.Post("/movies/{movie_id}/like", socialhandlers.CastVote(st.votes, ap))
			r.Get("/movies/{movie_id}/uservote", socialhandlers.GetUserVote(st.votes))
			r.Post("/movies/{movie_id}/comment", socialhandlers.PostComment(st.comments, ap))
			r.Put("/comments/{comment_id}", socialhandlers.UpdateComment(st.comments))
			r.Delete("/comments/{comment_id}", socialhandlers.DeleteComment(st.comments))
			r.Post("/comments/{comment_id}/vote", socialhandlers.VoteComment(st.comments))

			r.Post("/watchlist/{movieId}", watchlist.Add(st.watchlist, ap))
			r.Delete("/watchlist/{movieId}", watchlist.Remove(st.watchlist))
			r.Get("/watchlist", watchlist.List(st.watchlist))
		})
	})

	// Uploaded avatars
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.UploadDir))))

	srv := httpserver.New(httpserver.Options{Addr: cfg.HTTP.Addr, ServiceName: cfg.ServiceName, Logger: log, Router: r})

	runner := run.New(log)
	code := runner.WithSignals(func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			_ = srv.Shutdown(context.Background())
		}()
		return srv.Start(log)
	})

	log.Info("exit", zap.Int("code", code))
	run.Exit(code)
}

// initStores selects the storage backend. In production (APP_ENV=production)
// a working Postgres connection is required and the process terminates
// otherwise; in development everything falls back to memory.
func initStores(cfg config.AppConfig, log *zap.Logger) stores {
	isProd := strings.EqualFold(strings.TrimSpace(os.Getenv("APP_ENV")), "production")

	fallback := func(reason string, err error) stores {
		if isProd {
			log.Error("postgres is required in production but unavailable",
				zap.String("reason", reason), zap.Error(err))
			_ = log.Sync()
			os.Exit(1)
		}
		log.Warn("using in-memory stores (development only)",
			zap.String("reason", reason), zap.Error(err))
		users := accounts.NewInMemoryUserStore()
		return stores{
			users:     users,
			votes:     socialstore.NewInMemoryVoteStore(),
			comments:  socialstore.NewInMemoryCommentStore(users),
			watchlist: watchlist.NewInMemoryStore(),
		}
	}

	if cfg.DatabaseURL == "" {
		return fallback("DATABASE_URL not set", nil)
	}
	pool, err := db.Open(context.Background(), cfg.DatabaseURL)
	if err != nil {
		return fallback("postgres unavailable", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return fallback("postgres ping failed", err)
	}

	log.Info("stores: postgres")
	return stores{
		users:     accounts.NewPostgresUserStore(pool),
		votes:     socialstore.NewPostgresVoteStore(pool),
		comments:  socialstore.NewPostgresCommentStore(pool),
		watchlist: watchlist.NewPostgresStore(pool),
		close:     pool.Close,
	}
}
