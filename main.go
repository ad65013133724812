package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chetan-code/taskdesk/internal/config"
	"github.com/chetan-code/taskdesk/internal/handler"
	"github.com/chetan-code/taskdesk/internal/mail"
	"github.com/chetan-code/taskdesk/internal/repository"
	"github.com/chetan-code/taskdesk/internal/service"
	"github.com/chetan-code/taskdesk/internal/session"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/gorilla/sessions"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func loadConfig() *config.Config {
	//load env variables, the real environment wins over .env
	if err := godotenv.Load(); err != nil {
		slog.Warn("environment_file_not_loaded", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_load_failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initDB(dburl string) *sql.DB {
	db, err := sql.Open("pgx", dburl)
	if err != nil {
		slog.Error("database_intialization_failed", "error", err)
		os.Exit(1)
	}

	//check if connection is alive
	err = db.Ping()
	if err != nil {
		slog.Error("database_connection_ping_failed", "error", err)
		os.Exit(1)
	}

	slog.Info("database_intialisation_success")

	return db
}

func initGorm(db *sql.DB) *gorm.DB {
	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		slog.Error("orm_intialization_failed", "error", err)
		os.Exit(1)
	}
	return gdb
}

// initSessionStore returns nil when no redis is configured; sessions then live until they expire.
func initSessionStore(addr string) (session.Store, func()) {
	if addr == "" {
		slog.Warn("session_tracking_disabled", "reason", "REDIS_ADDR not set")
		return nil, func() {}
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Error("redis_connection_ping_failed", "addr", addr, "error", err)
		os.Exit(1)
	}

	slog.Info("redis_intialisation_success", "addr", addr)
	return session.NewRedisStore(rdb), func() { rdb.Close() }
}

func loggerMW(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		//logging completion of a request
		slog.Info("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"ip", r.RemoteAddr,
			"status", ww.Status(),
			//imp : how long does it take a req to complete
			"duration", time.Since(start).String(),
		)
	})
}

/*
gothic will create temp cookie using key it will store it for sometime
and when user complete login it will compare it to make sure login
process was completed from this app only \
Protection from cross site request forgery
*/
func setupGothic(cfg *config.Config, store *sessions.CookieStore) {
	goth.UseProviders(
		google.New(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.CallbackURL, "email", "profile"),
	)
	gothic.Store = store
}

// newCookieStore keeps flash messages and the oauth state.
func newCookieStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SecretKey))
	store.MaxAge(int(cfg.SessionTTL / time.Second))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = cfg.SecureCookies
	return store
}

func setupSlog() {
	//Json handler that writes to standard out
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     slog.LevelDebug, //log debug and above
		AddSource: true,            //adds file name and line number
	})

	//Intialise new logger and set it as default for the server
	logger := slog.New(handler)
	slog.SetDefault(logger)
}

func startServer(addr string, h http.Handler) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server_start", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server_start_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server_shutdown_failed", "error", err)
	}
	slog.Info("server_stopped")
}

func main() {

	//structure logging
	setupSlog()

	cfg := loadConfig()

	db := initDB(cfg.DatabaseURL)
	defer db.Close()

	repo, err := repository.NewRepo(initGorm(db))
	if err != nil {
		slog.Error("repository_creation_failed", "error", err)
		os.Exit(1)
	}

	store, closeStore := initSessionStore(cfg.RedisAddr)
	defer closeStore()

	mailer := mail.NewSMTPMailer(cfg.Mail.Server, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password)
	svc := service.New(repo, mailer)
	sm := session.NewManager([]byte(cfg.SecretKey), cfg.SessionTTL, cfg.SecureCookies, store)

	//authentication
	cookieStore := newCookieStore(cfg)
	if cfg.Google.Enabled() {
		setupGothic(cfg, cookieStore)
	}

	h := handler.NewTodoHandler(svc, sm, cookieStore, cfg.Google.Enabled())

	//routing + middleware
	startServer(cfg.Addr, loggerMW(h.Routes()))
}
