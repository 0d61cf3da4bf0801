// Package api serves a read-only view of a running chat process over HTTP:
// health, room status and Prometheus metrics. It never touches segments;
// everything it reports comes from snapshots the app loop publishes.
package api

import (
	"context"
	"net"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"shmchat/pkg/models"
	"shmchat/pkg/state/logger"
)

// StatusFunc returns the latest published status, or nil before the first.
type StatusFunc func() *models.Status

type Options struct {
	Address string
	RPS     float64
	Burst   int
}

type Server struct {
	opts    Options
	status  StatusFunc
	limiter *limiterPool
	handler fasthttp.RequestHandler
	srv     *fasthttp.Server
}

func New(opts Options, status StatusFunc) *Server {
	s := &Server{
		opts:    opts,
		status:  status,
		limiter: newLimiterPool(opts.RPS, opts.Burst),
	}
	r := newRouter()
	r.GET("/healthz", s.health)
	r.GET("/v1/status", s.fullStatus)
	r.GET("/v1/rooms", s.rooms)
	r.GET("/v1/rooms/{room}", s.room)
	r.GET("/metrics", wrapHTTPHandler(promhttp.Handler()))
	s.handler = s.limit(r.Handler)
	s.srv = &fasthttp.Server{
		Handler: s.handler,
		Name:    "shmchat",
	}
	return s
}

// Handler returns the full handler chain, rate limiting included.
func (s *Server) Handler() fasthttp.RequestHandler { return s.handler }

// ListenAndServe listens on the configured address and serves until ctx
// is done.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts the server down.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	logger.Info("api_listening", "addr", ln.Addr().String())
	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		err := s.srv.Shutdown()
		<-errCh
		logger.Info("api_stopped")
		return err
	}
}

// wrapHTTPHandler wraps an http.Handler to work with fasthttp.
func wrapHTTPHandler(h http.Handler) fasthttp.RequestHandler {
	return fasthttpadaptor.NewFastHTTPHandler(h)
}

func (s *Server) limit(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		if !s.limiter.Allow(ctx.RemoteIP().String()) {
			WriteJSONError(ctx, fasthttp.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next(ctx)
	}
}

func (s *Server) health(ctx *fasthttp.RequestCtx) {
	ctx.SetContentType("text/plain; charset=utf-8")
	ctx.SetBodyString("ok\n")
}

func (s *Server) current(ctx *fasthttp.RequestCtx) *models.Status {
	var st *models.Status
	if s.status != nil {
		st = s.status()
	}
	if st == nil {
		WriteJSONError(ctx, fasthttp.StatusServiceUnavailable, "status not published yet")
	}
	return st
}

func (s *Server) fullStatus(ctx *fasthttp.RequestCtx) {
	if st := s.current(ctx); st != nil {
		_ = WriteJSON(ctx, st)
	}
}

func (s *Server) rooms(ctx *fasthttp.RequestCtx) {
	st := s.current(ctx)
	if st == nil {
		return
	}
	rooms := st.Rooms
	if rooms == nil {
		rooms = []models.RoomStatus{}
	}
	_ = WriteJSON(ctx, map[string]any{"user": st.User, "rooms": rooms})
}

func (s *Server) room(ctx *fasthttp.RequestCtx) {
	raw, _ := ctx.UserValue("room").(string)
	n, err := strconv.Atoi(raw)
	if err != nil {
		WriteJSONError(ctx, fasthttp.StatusBadRequest, "room must be a number")
		return
	}
	st := s.current(ctx)
	if st == nil {
		return
	}
	for _, r := range st.Rooms {
		if r.Room == n {
			_ = WriteJSON(ctx, r)
			return
		}
	}
	WriteJSONError(ctx, fasthttp.StatusNotFound, "room not open")
}
