// Package live hosts server-driven engine runs over websocket connections.
// Each connection drives exactly one run and receives every snapshot it
// publishes.
package live

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"quiz-funnel/internal/auth"
	"quiz-funnel/internal/config"
	"quiz-funnel/internal/domain"
	"quiz-funnel/internal/engine"
	"quiz-funnel/internal/gateway"
	"quiz-funnel/internal/logger"
	"quiz-funnel/internal/presence"
	"quiz-funnel/internal/validation"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	RunPath    = "/ws/run"
	HealthPath = "/healthz"

	writeWait   = 10 * time.Second
	sendBuffer  = 32
	maxReadSize = 64 * 1024
)

// QuizFinder resolves a published quiz within an owner namespace.
type QuizFinder interface {
	GetPublishedQuiz(ctx context.Context, ownerID, slug string) (*domain.QuizDefinition, error)
}

type Server struct {
	auth      *auth.Authenticator
	quizzes   QuizFinder
	submitter gateway.Submitter
	engine    engine.Options
	presence  config.PresenceConfig
	validator *validation.Validator
	upgrader  websocket.Upgrader
	log       *zap.Logger
}

// NewServer wires the live endpoint. opts supplies the engine defaults; its
// Loader, Gateway and ContentHost are replaced per connection.
func NewServer(a *auth.Authenticator, quizzes QuizFinder, submitter gateway.Submitter, opts engine.Options, presenceCfg config.PresenceConfig) *Server {
	return &Server{
		auth:      a,
		quizzes:   quizzes,
		submitter: submitter,
		engine:    opts,
		presence:  presenceCfg,
		validator: validation.NewValidator(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger.Component("live"),
	}
}

// Handler returns the routes served by the live listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(RunPath, s.ServeRun)
	mux.HandleFunc(HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// ServeRun authenticates the caller, upgrades the connection and drives one
// run of the quiz named by the slug query parameter.
func (s *Server) ServeRun(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if errs := s.validator.ValidateSlug(slug); len(errs) > 0 {
		writeHTTPError(w, http.StatusBadRequest, string(domain.CodeValidation), errs.Error())
		return
	}
	owner, err := s.authenticate(r)
	if err != nil {
		writeHTTPError(w, http.StatusUnauthorized, string(domain.CodeUnauthorized), err.Error())
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxReadSize)

	sess := newSession(conn, s.log)
	go sess.writeLoop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := s.engine
	opts.Loader = engine.LoaderFunc(func(ctx context.Context, slug string) (*domain.QuizDefinition, error) {
		return s.quizzes.GetPublishedQuiz(ctx, owner, slug)
	})
	opts.Gateway = s.submitter
	opts.ContentHost = sess
	opts.UserAgent = r.UserAgent()
	opts.Logger = s.log
	run := engine.New(opts)

	updates := run.Updates()
	forwarded := make(chan struct{})
	go func() {
		defer close(forwarded)
		for snap := range updates {
			sess.send(outboundMessage{Type: TypeState, Payload: snap})
		}
	}()

	log := s.log.With(zap.String("run_id", run.ID()), zap.String("slug", slug), zap.String("owner", owner))
	log.Info("live run connected")

	if err := run.Start(ctx, slug); err != nil {
		sess.sendError(err)
	} else {
		if s.presence.Enabled {
			feed := presence.NewFeed(s.presence)
			go feed.Run(ctx, func(n int) {
				sess.send(outboundMessage{Type: TypePresence, Payload: presencePayload{Count: n}})
			})
		}
		sess.readLoop(run)
	}

	cancel()
	run.Close()
	<-forwarded
	sess.shutdown()
	log.Info("live run disconnected", zap.Strings("path", statesToStrings(run.Path())))
}

func (s *Server) authenticate(r *http.Request) (string, error) {
	if s.auth == nil {
		return "", nil
	}
	key := r.Header.Get("apikey")
	if key == "" {
		key = r.URL.Query().Get("apikey")
	}
	if key == "" {
		return "", errors.New("apikey is missing")
	}
	owner, err := s.auth.ResolveOwner(key)
	if err != nil {
		return "", errors.New("invalid API key")
	}
	if s.auth.RequiresToken() {
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if token == "" {
			token = r.URL.Query().Get("access_token")
		}
		if token == "" {
			return "", errors.New("bearer token is missing")
		}
		if _, err := s.auth.ValidateJWT(token); err != nil {
			return "", err
		}
	}
	return owner, nil
}

func writeHTTPError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorPayload{Code: code, Message: message})
}

func statesToStrings(states []engine.State) []string {
	out := make([]string, len(states))
	for i, st := range states {
		out[i] = string(st)
	}
	return out
}
