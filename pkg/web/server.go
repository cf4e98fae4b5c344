// Package web serves the monitoring dashboard: live status and event
// streams over websockets, a small JSON API, and Prometheus metrics.
package web

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/petwatch/go-petwatch/internal/log"
	"github.com/petwatch/go-petwatch/internal/metrics"
	"github.com/petwatch/go-petwatch/pkg/hub"
	"github.com/petwatch/go-petwatch/pkg/tracking"
)

// maxLogEntries bounds the in-memory event buffer served to new clients.
const maxLogEntries = 200

// LogEntry is one dashboard event line.
type LogEntry struct {
	Time    string `json:"time"`
	Type    string `json:"type"` // detect, track, capture, error
	Message string `json:"message"`
}

// Server is the dashboard HTTP/websocket server. It implements
// tracking.StatusSink so the monitor can push updates directly.
type Server struct {
	app  *fiber.App
	port string

	status   tracking.Status
	statusMu sync.RWMutex

	logs   []LogEntry
	logsMu sync.RWMutex

	statusHub *hub.Hub
	logHub    *hub.Hub

	// OnTrigger starts a monitoring cycle outside the schedule. Returns
	// an error when a cycle is already in flight.
	OnTrigger func() error
}

// NewServer assembles the fiber app and routes.
func NewServer(port string) *Server {
	s := &Server{
		port:      port,
		logs:      make([]LogEntry, 0, maxLogEntries),
		statusHub: hub.New("status"),
		logHub:    hub.New("events"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "petwatch",
		DisableStartupMessage: true,
	})

	app.Use(cors.New())
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/logs", s.handleLogs)
	api.Post("/trigger", s.handleTrigger)

	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	app.Get("/ws/logs", websocket.New(s.handleLogsWS))

	s.app = app
	return s
}

// Start runs the hubs and listens. Blocks until shutdown.
func (s *Server) Start() error {
	go s.statusHub.Run()
	go s.logHub.Run()
	log.Info("dashboard listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// StartAsync runs the server in a goroutine.
func (s *Server) StartAsync() {
	go func() {
		if err := s.Start(); err != nil {
			log.Error("dashboard server stopped", "err", err)
		}
	}()
}

// Shutdown stops the listener gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// MonitorUpdate stores the latest snapshot and fans it out.
func (s *Server) MonitorUpdate(st tracking.Status) {
	s.statusMu.Lock()
	s.status = st
	s.statusMu.Unlock()

	s.statusHub.BroadcastJSON(st)
}

// MonitorLog records a dashboard event and fans it out.
func (s *Server) MonitorLog(kind, msg string) {
	entry := LogEntry{
		Time:    time.Now().Format("15:04:05"),
		Type:    kind,
		Message: msg,
	}

	s.logsMu.Lock()
	s.logs = append(s.logs, entry)
	if len(s.logs) > maxLogEntries {
		s.logs = s.logs[1:]
	}
	s.logsMu.Unlock()

	s.logHub.BroadcastJSON(entry)
}
