package ws

import (
	"context"
	"encoding/json"
	stdlog "log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	persistlog "transitcraft.sim/internal/persistence/log"
	"transitcraft.sim/internal/protocol"
	"transitcraft.sim/internal/sim/world"
)

type Server struct {
	world *world.World
	log   *stdlog.Logger
	audit *persistlog.AuditLogger

	upgrader websocket.Upgrader
}

func NewServer(w *world.World, logger *stdlog.Logger, audit *persistlog.AuditLogger) *Server {
	return &Server{
		world: w,
		log:   logger,
		audit: audit,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		if !s.handshake(conn) {
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		// State pusher.
		go func() {
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					var msg protocol.StateMsg
					if err := s.world.View(ctx, func(w *world.World) {
						msg = w.StateSummary()
					}); err != nil {
						return
					}
					if err := writeJSON(conn, msg); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				s.reject(conn, act.ID, "bad protocol_version")
				continue
			}
			if !protocol.IsKnownCommand(act.Cmd) {
				s.reject(conn, act.ID, "unknown command")
				continue
			}

			res := s.world.Do(ctx, act)
			if s.audit != nil {
				_ = s.audit.WriteAudit(world.AuditEntry{
					WorldID: s.world.ID(), AtMs: time.Now().UnixMilli(),
					Cmd: act.Cmd, OK: res.OK, Code: res.Code, Reason: res.Reason,
				})
			}
			if err := writeJSON(conn, res); err != nil {
				cancel()
				return
			}
		}
	}
}

func (s *Server) handshake(conn *websocket.Conn) bool {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"),
			time.Now().Add(time.Second))
		return false
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"),
			time.Now().Add(time.Second))
		return false
	}

	cat := s.world.Catalogs()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		WorldID:         s.world.ID(),
		Seed:            s.world.Seed(),
		TransportDigest: cat.Transport.Digest,
		EventsDigest:    cat.Events.Digest,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return false
	}
	if hello.ClientName != "" {
		s.log.Printf("client %q connected to world %s", hello.ClientName, s.world.ID())
	}
	return true
}

func (s *Server) reject(conn *websocket.Conn, id, reason string) {
	_ = writeJSON(conn, protocol.ResultMsg{
		Type: protocol.TypeResult, ProtocolVersion: protocol.Version,
		ID: id, OK: false, Code: protocol.ErrProtoBadRequest, Reason: reason,
	})
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
