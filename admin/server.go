// Package admin is the outward-facing control surface: a small authenticated
// HTTP API for health inspection and remote shutdown. It runs beside the
// chat session and never touches room state directly; shutdown goes through
// the root context, same as a signal.
package admin

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shirou/gopsutil/process"

	"showbot/auth"
	"showbot/runtime"
)

// Options configures the admin server.
type Options struct {
	Username     string
	PasswordHash string
	Issuer       auth.TokenIssuer
	// Shutdown cancels the root context; wired to POST /shutdown.
	Shutdown context.CancelFunc
}

type Server struct {
	app     *fiber.App
	session *runtime.Session
	opts    Options
	log     *slog.Logger
}

func NewServer(session *runtime.Session, opts Options, log *slog.Logger) *Server {
	s := &Server{
		session: session,
		opts:    opts,
		log:     log,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(recover.New())

	app.Post("/login", s.login)

	authorized := app.Group("/", s.requireToken)
	authorized.Get("/status", s.status)
	authorized.Post("/shutdown", s.shutdown)

	s.app = app
	return s
}

// Listen blocks serving the API until Close is called.
func (s *Server) Listen(addr string) error {
	s.log.Info("admin surface listening", "addr", addr)
	return s.app.Listen(addr)
}

// Close stops the listener gracefully.
func (s *Server) Close() error {
	return s.app.Shutdown()
}

type errorResponse struct {
	Error string `json:"error"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func (s *Server) login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}

	ok, err := auth.ComparePassword(req.Password, s.opts.PasswordHash)
	if err != nil || !ok || req.Username != s.opts.Username {
		return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{Error: "wrong username or password"})
	}

	token, err := s.opts.Issuer.Generate(req.Username)
	if err != nil {
		s.log.Error("token generation failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: "internal error"})
	}
	return c.JSON(tokenResponse{Token: token})
}

// requireToken guards everything below /login with a bearer token check.
func (s *Server) requireToken(c *fiber.Ctx) error {
	header := c.Get("Authorization")
	token := strings.TrimPrefix(header, "Bearer ")
	if header == "" || token == header {
		return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{Error: "bearer token required"})
	}
	claims, err := s.opts.Issuer.Validate(token)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(errorResponse{Error: "invalid or expired token"})
	}
	c.Locals("username", claims.Username)
	return c.Next()
}

type roomStatus struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Users   int    `json:"users"`
	Private bool   `json:"private"`
}

type statusResponse struct {
	Connected     bool         `json:"connected"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	Rooms         []roomStatus `json:"rooms"`
	Tiers         int          `json:"tiers"`
	RSSBytes      uint64       `json:"rss_bytes"`
	CPUPercent    float64      `json:"cpu_percent"`
}

func (s *Server) status(c *fiber.Ctx) error {
	resp := statusResponse{Tiers: len(s.session.Tiers())}

	if start, ok := s.session.ConnectionStart(); ok {
		resp.Connected = true
		resp.UptimeSeconds = int64(time.Since(start).Seconds())
	}
	for _, room := range s.session.Registry().Rooms() {
		resp.Rooms = append(resp.Rooms, roomStatus{
			ID:      string(room.ID),
			Title:   room.Title(),
			Users:   len(room.Users()),
			Private: room.IsPrivate(),
		})
	}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if mem, err := p.MemoryInfo(); err == nil {
			resp.RSSBytes = mem.RSS
		}
		if cpu, err := p.CPUPercent(); err == nil {
			resp.CPUPercent = cpu
		}
	}
	return c.JSON(resp)
}

func (s *Server) shutdown(c *fiber.Ctx) error {
	user, _ := c.Locals("username").(string)
	s.log.Warn("shutdown requested over admin surface", "user", user)
	if s.opts.Shutdown != nil {
		s.opts.Shutdown()
	}
	return c.JSON(fiber.Map{"status": "shutting down"})
}
