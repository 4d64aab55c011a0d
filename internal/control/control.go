// Package control serves the local configuration channel.
//
// The control server binds loopback only. The options UI uses it to read
// connection status and runtime statistics, point the bridge at a different
// assistant endpoint, and force a reconnect. Endpoint changes are persisted
// and take effect on the next connection attempt.
package control

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/internal/logging"
	"github.com/pagelens/pagelens/internal/monitoring"
	"github.com/pagelens/pagelens/internal/shared/id"
	"github.com/pagelens/pagelens/internal/shared/wire"
	"github.com/pagelens/pagelens/internal/transport"
)

// Connection is the slice of the transport client the control channel
// drives.
type Connection interface {
	State() transport.State
	Endpoint() string
	QueueDepth() int
	SetEndpoint(host string, port int)
	Connect()
	Disconnect()
}

// Server is the loopback control server.
type Server struct {
	cfg     config.ControlConfig
	log     *logging.Logger
	metrics *monitoring.Metrics
	store   *config.Store
	conn    Connection

	router *gin.Engine
	srv    *http.Server

	lastConnected atomic.Int64

	watchMu  sync.Mutex
	watchers map[*websocket.Conn]struct{}
}

// NewServer builds the control server. store may be nil; endpoint changes
// then apply to the running process only.
func NewServer(cfg config.ControlConfig, log *logging.Logger, metrics *monitoring.Metrics, store *config.Store, conn Connection) *Server {
	if log == nil {
		log = logging.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		cfg:      cfg,
		log:      log,
		metrics:  metrics,
		store:    store,
		conn:     conn,
		router:   router,
		watchers: make(map[*websocket.Conn]struct{}),
	}

	router.GET("/health", s.health)
	router.GET("/status", s.status)
	router.GET("/stats", s.stats)
	router.GET("/events", s.events)
	router.POST("/config", s.updateConfig)
	router.POST("/reconnect", s.reconnect)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{})))
	}
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// NoteConnected records the moment the transport last reached the peer.
func (s *Server) NoteConnected() {
	s.lastConnected.Store(time.Now().UnixNano())
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.srv = &http.Server{Addr: addr, Handler: s.router}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("control channel listening", zap.String("addr", addr))
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.watchMu.Lock()
		for conn := range s.watchers {
			conn.Close()
		}
		s.watchers = make(map[*websocket.Conn]struct{})
		s.watchMu.Unlock()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "pagelens-bridge",
	})
}

func (s *Server) status(c *gin.Context) {
	resp := gin.H{
		"state":      s.conn.State().String(),
		"endpoint":   s.conn.Endpoint(),
		"queueDepth": s.conn.QueueDepth(),
	}
	if at := s.lastConnected.Load(); at > 0 {
		resp["lastConnected"] = time.Unix(0, at).UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) stats(c *gin.Context) {
	if s.metrics == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, s.metrics.GetSnapshot())
}

type endpointRequest struct {
	Host string `json:"host" binding:"required"`
	Port int    `json:"port" binding:"required"`
}

// updateConfig persists a new assistant endpoint. The live connection is
// untouched; the override applies on the next attempt.
func (s *Server) updateConfig(c *gin.Context) {
	var req endpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Port <= 0 || req.Port > 65535 {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("port %d out of range", req.Port)})
		return
	}

	if s.store != nil {
		if err := s.store.SetEndpoint(req.Host, req.Port); err != nil {
			s.log.Error("failed to persist endpoint", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}
	s.conn.SetEndpoint(req.Host, req.Port)

	eventID := id.NewEventID()
	s.log.Info("endpoint updated",
		zap.String("eventId", eventID),
		zap.String("host", req.Host),
		zap.Int("port", req.Port))
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"eventId":  eventID,
		"endpoint": s.conn.Endpoint(),
	})
}

type reconnectRequest struct {
	SkipAutoReconnect bool `json:"skipAutoReconnect"`
}

func (s *Server) reconnect(c *gin.Context) {
	var req reconnectRequest
	_ = c.ShouldBindJSON(&req)

	s.conn.Disconnect()
	if !req.SkipAutoReconnect {
		s.conn.Connect()
	}

	eventID := id.NewEventID()
	s.log.Info("reconnect requested",
		zap.String("eventId", eventID),
		zap.Bool("skipAutoReconnect", req.SkipAutoReconnect))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"eventId": eventID,
		"state":   s.conn.State().String(),
	})
}

var watchUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// statusEvent is one state-transition frame on the /events socket.
type statusEvent struct {
	EventID   string `json:"eventId"`
	State     string `json:"state"`
	Timestamp string `json:"timestamp"`
}

// events upgrades to a WebSocket that streams connection state changes.
// The current state is sent immediately on subscribe.
func (s *Server) events(c *gin.Context) {
	conn, err := watchUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("events upgrade failed", zap.Error(err))
		return
	}

	s.watchMu.Lock()
	s.watchers[conn] = struct{}{}
	s.watchMu.Unlock()

	_ = conn.WriteJSON(statusEvent{
		EventID:   id.NewEventID(),
		State:     s.conn.State().String(),
		Timestamp: wire.Now(),
	})

	// Reads only serve to notice the client going away.
	go func() {
		defer func() {
			s.watchMu.Lock()
			delete(s.watchers, conn)
			s.watchMu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// BroadcastState pushes the connection's current state to every /events
// subscriber. The server wiring calls it on transport transitions.
func (s *Server) BroadcastState() {
	ev := statusEvent{
		EventID:   id.NewEventID(),
		State:     s.conn.State().String(),
		Timestamp: wire.Now(),
	}

	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for conn := range s.watchers {
		if err := conn.WriteJSON(ev); err != nil {
			delete(s.watchers, conn)
			conn.Close()
		}
	}
}
