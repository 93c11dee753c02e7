// Package server serves the HTTP API of the transmitter daemon.
package server

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/sparques/irtx"
	"github.com/sparques/irtx/service"
)

const shutdownTimeout = 5 * time.Second

// Config for the HTTP server.
type Config struct {
	// Host interface to listen on
	Host string
	// Port to listen on for HTTP requests
	Port int
}

// Service is the transmitter the server forwards requests to.
type Service interface {
	Send(ctx context.Context, req service.SendRequest) (service.SendResult, error)
	CarrierKhz() uint32
}

// Server runs the HTTP server.
type Server struct {
	Config
	log     zerolog.Logger
	service Service
}

// New configures a new Server.
func New(cfg Config, log zerolog.Logger, svc Service) (*Server, error) {
	return &Server{
		Config:  cfg,
		log:     log.With().Str("component", "server").Logger(),
		service: svc,
	}, nil
}

// ProtocolInfo describes a protocol in GET /v1/protocols.
type ProtocolInfo struct {
	Name       string `json:"name"`
	CarrierKhz uint32 `json:"carrier_khz"`
	Bits       int    `json:"bits"`
}

func (s *Server) router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/v1/protocols", s.handleProtocols)
	e.POST("/v1/send", s.handleSend)
	return e
}

func (s *Server) handleProtocols(c echo.Context) error {
	names := irtx.ProtocolNames()
	list := make([]ProtocolInfo, 0, len(names))
	for _, name := range names {
		p, err := irtx.Lookup(name)
		if err != nil {
			continue
		}
		list = append(list, ProtocolInfo{Name: p.Name, CarrierKhz: p.CarrierKhz, Bits: p.Bits})
	}
	return c.JSON(http.StatusOK, list)
}

func (s *Server) handleSend(c echo.Context) error {
	var req service.SendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, service.SendResult{Error: err.Error()})
	}
	result, err := s.service.Send(c.Request().Context(), req)
	if err != nil {
		return c.JSON(statusOf(err), result)
	}
	return c.JSON(http.StatusOK, result)
}

func statusOf(err error) int {
	cause := errors.Cause(err)
	switch {
	case irtx.IsUnknownProtocol(err):
		return http.StatusNotFound
	case irtx.IsBitCount(err), irtx.IsInvalidDuration(err):
		return http.StatusBadRequest
	case cause == context.Canceled, cause == context.DeadlineExceeded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Run the server until the given context is canceled.
func (s *Server) Run(ctx context.Context) error {
	log := s.log
	addr := net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on address %s", addr)
	}
	srv := http.Server{
		Handler: s.router(),
	}

	log.Debug().Str("address", addr).Msg("Serving HTTP")
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(lis)
	}()

	select {
	case err := <-serveErr:
		return errors.Wrap(err, "failed to serve HTTP")
	case <-ctx.Done():
	}

	log.Info().Msg("Closing HTTP server")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
