package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"todolists/internal/config"
	"todolists/internal/database"
	"todolists/internal/logger"
	"todolists/internal/pgstore"
	"todolists/internal/session"
	"todolists/internal/sessionstore"
	"todolists/internal/todo"
	"todolists/internal/user"
	"todolists/internal/web"
)

func main() {
	// 主流程：加载配置、打开存储、启动 HTTP 服务并等待退出信号
	hashPassword := flag.String("hash-password", "", "print a bcrypt hash of the given password and exit")
	addUser := flag.String("add-user", "", "create a user in the database and exit (password from -password)")
	password := flag.String("password", "", "password for -add-user")
	migrate := flag.Bool("migrate", false, "apply the schema to the database and exit")
	listUsers := flag.Bool("list-users", false, "print the usernames in the database and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := todo.HashPassword(*hashPassword)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr).With().Timestamp().Logger()
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New(cfg.Log)

	ctx := context.Background()

	if *migrate || *listUsers || *addUser != "" {
		if err := runAdmin(ctx, cfg, log, *migrate, *listUsers, *addUser, *password); err != nil {
			log.Fatal().Err(err).Msg("admin command failed")
		}
		return
	}

	sessions, closeSessions, err := openSessions(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open session backend")
	}
	defer closeSessions()

	newStore, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer closeStore()

	app := web.NewApp(sessions, newStore, log, web.Options{
		CookieSecure: cfg.Session.CookieSecure,
		SessionTTL:   cfg.Session.TTL,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      app.Routes(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("store", cfg.Store).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown error")
	}
}

func openSessions(ctx context.Context, cfg *config.Config) (session.Manager, func(), error) {
	// 选择会话后端
	if cfg.Session.Backend != config.SessionRedis {
		return session.NewMemoryManager(cfg.Session.TTL), func() {}, nil
	}
	rdb, err := session.OpenRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		return nil, nil, err
	}
	return session.NewRedisManager(rdb, cfg.Session.TTL), func() { rdb.Close() }, nil
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (web.StoreFactory, func(), error) {
	// 按配置选择存储实现
	if cfg.Store == config.StoreSession {
		creds := sessionstore.ParseCredentials(cfg.Auth.Users)
		if len(creds) == 0 {
			log.Warn().Msg("no users configured, sign in will always fail")
		}
		return func(sess *session.Session) todo.Store {
			return sessionstore.New(sess, creds)
		}, func() {}, nil
	}

	db, err := database.Open(ctx, cfg.Database, cfg.Log, log)
	if err != nil {
		return nil, nil, err
	}
	return func(sess *session.Session) todo.Store {
		username, _ := sess.User()
		return pgstore.New(db.DB, username)
	}, func() { db.Close() }, nil
}

func runAdmin(ctx context.Context, cfg *config.Config, log zerolog.Logger, migrate, list bool, username, password string) error {
	// 管理命令：建表、建用户、列用户
	db, err := database.Open(ctx, cfg.Database, cfg.Log, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if _, err := db.ExecContext(ctx, database.Schema); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
		log.Info().Msg("schema applied")
	}

	users := user.NewStore(db.DB)

	if username != "" {
		if password == "" {
			return errors.New("-password is required with -add-user")
		}
		if _, err := users.Create(ctx, username, password); err != nil {
			if !errors.Is(err, user.ErrUsernameExists) {
				return err
			}
			if err := users.SetPassword(ctx, username, password); err != nil {
				return err
			}
			log.Info().Str("username", username).Msg("password updated")
			return nil
		}
		log.Info().Str("username", username).Msg("user created")
	}

	if list {
		names, err := users.Usernames(ctx)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
	}
	return nil
}
