// Package web exposes a todo.Store over JSON HTTP. Each request gets a
// session from the configured session.Manager and a store built for it.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"todolists/internal/session"
	"todolists/internal/todo"
)

const cookieName = "todos_session"

// StoreFactory builds the store for one request's session.
type StoreFactory func(sess *session.Session) todo.Store

type Options struct {
	CookieSecure bool
	SessionTTL   time.Duration
}

type App struct {
	sessions session.Manager
	newStore StoreFactory
	log      zerolog.Logger
	validate *validator.Validate
	opts     Options
}

func NewApp(sessions session.Manager, newStore StoreFactory, log zerolog.Logger, opts Options) *App {
	return &App{
		sessions: sessions,
		newStore: newStore,
		log:      log,
		validate: validator.New(),
		opts:     opts,
	}
}

func (a *App) Routes() http.Handler {
	// 注册路由与中间件
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(a.log))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", a.handleHealth)

	r.Group(func(r chi.Router) {
		r.Use(a.withSession)

		r.Post("/signin", a.handleSignIn)
		r.Post("/signout", a.handleSignOut)

		r.Group(func(r chi.Router) {
			r.Use(a.requireSignIn)

			r.Get("/stats", a.handleStats)

			r.Route("/lists", func(r chi.Router) {
				r.Get("/", a.handleListTodoLists)
				r.Post("/", a.handleCreateTodoList)

				r.Route("/{listID}", func(r chi.Router) {
					r.Get("/", a.handleGetTodoList)
					r.Put("/", a.handleUpdateTodoList)
					r.Delete("/", a.handleDeleteTodoList)
					r.Post("/complete_all", a.handleCompleteAll)
					r.Post("/todos", a.handleCreateTodo)

					r.Route("/todos/{todoID}", func(r chi.Router) {
						r.Get("/", a.handleGetTodo)
						r.Post("/toggle", a.handleToggleTodo)
						r.Delete("/", a.handleDeleteTodo)
					})
				})
			})
		})
	})

	return r
}

type ctxKey int

const (
	sessionKey ctxKey = iota
	storeKey
)

func sessionFrom(ctx context.Context) *session.Session {
	s, _ := ctx.Value(sessionKey).(*session.Session)
	return s
}

func storeFrom(ctx context.Context) todo.Store {
	s, _ := ctx.Value(storeKey).(todo.Store)
	return s
}

// withSession loads the caller's session, creating one when the cookie is
// missing or stale, and saves it once the handler returns.
func (a *App) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var sess *session.Session
		if c, err := r.Cookie(cookieName); err == nil {
			sess, err = a.sessions.Load(ctx, c.Value)
			if err != nil && !errors.Is(err, session.ErrNotFound) {
				a.serverError(w, r, err)
				return
			}
		}
		if sess == nil {
			var err error
			sess, err = a.sessions.New(ctx)
			if err != nil {
				a.serverError(w, r, err)
				return
			}
			http.SetCookie(w, &http.Cookie{
				Name:     cookieName,
				Value:    sess.ID,
				Path:     "/",
				HttpOnly: true,
				Secure:   a.opts.CookieSecure,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(a.opts.SessionTTL.Seconds()),
			})
		}

		ctx = context.WithValue(ctx, sessionKey, sess)
		ctx = context.WithValue(ctx, storeKey, a.newStore(sess))
		next.ServeHTTP(w, r.WithContext(ctx))

		if err := a.sessions.Save(context.WithoutCancel(ctx), sess); err != nil {
			hlog.FromRequest(r).Error().Err(err).Str("session", sess.ID).Msg("failed to save session")
		}
	})
}

func (a *App) requireSignIn(next http.Handler) http.Handler {
	// 未登录直接返回 401
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := sessionFrom(r.Context()).User(); !ok {
			a.writeError(w, http.StatusUnauthorized, "you must be signed in")
			return
		}
		next.ServeHTTP(w, r)
	})
}
