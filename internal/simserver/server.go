// Package simserver is a development stand-in for the platform's realtime
// backend. It speaks the same wire contract as production, keeps everything
// in memory, and exists so the client and its consumers can be run and tested
// without the full platform.
package simserver

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/dinesync/dinesync/internal/config"
	"github.com/dinesync/dinesync/internal/realtime"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ClientTokenMiddleware tags every browser with a stable token cookie so
// reconnects keep their identity.
func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = uuid.NewString()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

type Server struct {
	hub    *hub
	engine *gin.Engine
}

func New(cfg *config.Config) *Server {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("DinesyncSessions", store))
	r.Use(ClientTokenMiddleware())

	s := &Server{hub: newHub(), engine: r}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ws", s.handleWS)

	api := r.Group("/api")
	api.POST("/orders", s.createOrder)
	api.POST("/waiter-calls", s.createWaiterCall)

	return s
}

// Handler exposes the router for http.Server and tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) handleWS(c *gin.Context) {
	sid := c.GetString("client_token")
	if sid == "" {
		sid = uuid.NewString()
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "simserver").Msg("ws upgrade")
		return
	}
	log.Info().Str("module", "simserver").Str("sid", sid).Msg("new connection")

	sess := newSession(sid, conn)
	go s.writePump(sess)

	s.sendTo(sess, realtime.EventWelcome, realtime.Welcome{
		Message: "connected to dinesync realtime",
	})

	s.readPump(sess)
}

func (s *Server) writePump(sess *session) {
	for data := range sess.send {
		if err := sess.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
			log.Error().Err(err).Str("module", "simserver").Msg("writePump set deadline")
			return
		}
		if err := sess.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Str("module", "simserver").Str("sid", sess.id).Msg("writePump write")
			return
		}
	}
}

func (s *Server) readPump(sess *session) {
	defer func() {
		log.Info().Str("module", "simserver").Str("sid", sess.id).Msg("connection closed")
		s.hub.drop(sess)
		sess.close()
	}()

	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		s.handleFrame(sess, data)
	}
}

// createOrder is the REST entry the customer menu posts to. The realtime
// channel only announces it.
func (s *Server) createOrder(c *gin.Context) {
	var req struct {
		TableNumber  string  `json:"table_number"`
		ItemsJSON    string  `json:"items_json"`
		CustomerName string  `json:"customer_name"`
		Total        float64 `json:"total"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad payload"})
		return
	}

	order := s.hub.createOrder(realtime.Order{
		TableNumber:  req.TableNumber,
		ItemsJSON:    req.ItemsJSON,
		CustomerName: req.CustomerName,
		Total:        req.Total,
	})
	log.Info().Str("module", "simserver").Int64("order_id", order.ID).Msg("order created")

	payload := realtime.OrderPayload{Order: order}
	s.hub.broadcast(realtime.RoomAdmin, realtime.EventNewOrder, payload)
	s.hub.broadcast(realtime.RoomStaff, realtime.EventNewOrder, payload)

	c.JSON(http.StatusCreated, order)
}

// createWaiterCall is the REST entry a table page posts to.
func (s *Server) createWaiterCall(c *gin.Context) {
	var req struct {
		TableNumber     string `json:"table_number"`
		TableUniqueID   string `json:"table_unique_id"`
		CustomerMessage string `json:"customer_message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad payload"})
		return
	}

	call := s.hub.createCall(realtime.WaiterCall{
		TableNumber:     req.TableNumber,
		TableUniqueID:   req.TableUniqueID,
		CustomerMessage: req.CustomerMessage,
	})
	log.Info().Str("module", "simserver").Str("call_id", call.ID).
		Str("table", call.TableNumber).Msg("waiter call created")

	s.hub.broadcast(realtime.RoomAdmin, realtime.EventWaiterCall, call)
	s.hub.broadcast(realtime.RoomStaff, realtime.EventWaiterCall, call)
	if call.TableUniqueID != "" {
		// Confirmation back to the table's own room, if anyone is in it.
		s.hub.broadcast(call.TableUniqueID, realtime.EventWaiterCallSent,
			realtime.WaiterCallSent{CallID: call.ID, Message: "waiter call sent"})
	}

	c.JSON(http.StatusCreated, call)
}
