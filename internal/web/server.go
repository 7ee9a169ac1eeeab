package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"pongrank/internal/back"
	"pongrank/internal/config"
	"pongrank/internal/util"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)

	r.Get("/", noContent)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Get("/v1/player/{name}", s.getPlayer)
	r.Get("/v1/player/{name}/history", s.getPlayerHistory)
	r.Get("/v1/player/{name}/history.svg", s.getPlayerHistoryChart)
	r.Get("/v1/tournament/{name}", s.getTournament)

	r.Group(func(r chi.Router) {
		r.Use(s.authorizer)

		r.Post("/v1/players", s.postPlayer)
		r.Get("/v1/player/{name}/chart-link", s.getPlayerChartLink)

		r.With(s.throttler).Post("/v1/tournaments/adjustments", s.postAdjustments)
		r.With(s.throttler).Post("/v1/tournaments/results", s.postResults)
	})

	return r
}

type Server struct {
	http     *http.Server
	back     *back.Back
	config   *config.Config
	gatherer prometheus.Gatherer

	// limiter is nil when submissions are not throttled.
	limiter *rate.Limiter
}

// NewServer creates the HTTP API, /metrics exposes what gatherer collects.
func NewServer(back *back.Back, conf *config.Config, gatherer prometheus.Gatherer) *Server {
	s := &Server{
		back:     back,
		config:   conf,
		gatherer: gatherer,
	}

	if n := conf.SubmissionsPerMinute; n > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(n)), n)
	}

	s.http = &http.Server{
		Addr:         conf.HTTPAddr,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  10 * time.Second,
		Handler:      s.setupRouter(),
	}

	return s
}

func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func noContent(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Serve listens until done is closed, the caller must have added this
// function to wg.
func (s *Server) Serve(wg *sync.WaitGroup, done <-chan struct{}) {
	log.Printf("info: starting HTTP server on %s", s.http.Addr)
	defer wg.Done()

	go func() {
		err := s.http.ListenAndServe()
		if err == http.ErrServerClosed {
			log.Println("info: HTTP server closed")
			return
		}

		log.Fatalf("webserver crashed: %s", err)
	}()

	<-done
	if err := s.http.Close(); err != nil {
		log.Printf("warning: unable to close webserver: %s", err)
	}
}

func (s *Server) response(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	response, err := json.Marshal(data)
	if err != nil {
		log.Printf("error: unable to marshal response: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(code)

	if _, err := w.Write(response); err != nil {
		log.Printf("error: unable to send response: %s", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// error sends err to the client if it is meant to be seen, a generic status
// text otherwise.
func (s *Server) error(w http.ResponseWriter, err error, code int) {
	msg, public := util.IsPublic(err)
	if code >= http.StatusInternalServerError {
		log.Printf("error: %s", err)
		msg = http.StatusText(code)
	} else if !public {
		msg = err.Error()
	}

	s.response(w, code, errorResponse{Error: msg})
}

// backError maps errors of the back package to HTTP statuses.
func (s *Server) backError(w http.ResponseWriter, err error) {
	var code int
	switch {
	case back.IsNotFound(err):
		code = http.StatusNotFound
	case errors.Is(err, back.ErrDuplicateTournament),
		errors.Is(err, back.ErrPlayerNameTaken):
		code = http.StatusConflict
	case errors.Is(err, back.ErrInvalidInputFormat):
		code = http.StatusBadRequest
	case errors.Is(err, back.ErrNotEnoughHistory):
		code = http.StatusNotFound
	default:
		if _, ok := util.IsPublic(err); ok {
			code = http.StatusBadRequest
		} else {
			code = http.StatusInternalServerError
		}
	}

	s.error(w, err, code)
}

func (s *Server) cache(w http.ResponseWriter, scope string, d time.Duration) {
	w.Header().Set("Cache-Control", fmt.Sprintf("%s,max-age=%d", scope, d/time.Second))
}

func (s *Server) authorizer(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := s.config.CheckAPIToken(r.Header.Get("Authorization")); err != nil {
			if !errors.Is(err, config.ErrUnauthorized) {
				log.Printf("warning: unable to check API token: %s", err)
			}
			s.error(w, config.ErrUnauthorized, http.StatusUnauthorized)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) throttler(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "60")
			s.error(w, errors.New("too many submissions, try again later"), http.StatusTooManyRequests)
			return
		}

		h.ServeHTTP(w, r)
	})
}
