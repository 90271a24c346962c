package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"runegate.gg/internal/game/realm"
	"runegate.gg/internal/protocol"
)

type Config struct {
	ReadDeadline  time.Duration
	WriteDeadline time.Duration
	OutQueue      int
}

func (c *Config) applyDefaults() {
	if c.ReadDeadline <= 0 {
		c.ReadDeadline = 60 * time.Second
	}
	if c.WriteDeadline <= 0 {
		c.WriteDeadline = 5 * time.Second
	}
	if c.OutQueue <= 0 {
		c.OutQueue = 64
	}
}

type Server struct {
	realm *realm.Realm
	cfg   Config
	log   *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(r *realm.Realm, cfg Config, logger *log.Logger) *Server {
	cfg.applyDefaults()
	s := &Server{
		realm: r,
		cfg:   cfg,
		log:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

// decodeRequest maps a wire frame to the typed record the realm consumes.
// Frames with unknown types never reach the realm loop.
var decodeRequest = map[string]func([]byte) (any, error){
	protocol.TypeUseItem:           decodeInto[protocol.UseItemMsg],
	protocol.TypeOpenItem:          decodeInto[protocol.OpenItemMsg],
	protocol.TypeGameObjUse:        decodeInto[protocol.GameObjUseMsg],
	protocol.TypeGameObjReportUse:  decodeInto[protocol.GameObjReportUseMsg],
	protocol.TypeCastSpell:         decodeInto[protocol.CastSpellMsg],
	protocol.TypeCancelCast:        decodeInto[protocol.CancelCastMsg],
	protocol.TypeCancelAura:        decodeInto[protocol.CancelAuraMsg],
	protocol.TypePetCancelAura:     decodeInto[protocol.PetCancelAuraMsg],
	protocol.TypeCancelGrowthAura:  decodeInto[protocol.CancelGrowthAuraMsg],
	protocol.TypeCancelMountAura:   decodeInto[protocol.CancelMountAuraMsg],
	protocol.TypeCancelModSpeed:    decodeInto[protocol.CancelModSpeedMsg],
	protocol.TypeCancelAutoRepeat:  decodeInto[protocol.CancelAutoRepeatMsg],
	protocol.TypeCancelChannelling: decodeInto[protocol.CancelChannellingMsg],
	protocol.TypeTotemDestroyed:    decodeInto[protocol.TotemDestroyedMsg],
	protocol.TypeSelfRes:           decodeInto[protocol.SelfResMsg],
	protocol.TypeSpellClick:        decodeInto[protocol.SpellClickMsg],
	protocol.TypeMirrorImageData:   decodeInto[protocol.MirrorImageDataMsg],
	protocol.TypeMissileCollision:  decodeInto[protocol.MissileCollisionMsg],
	protocol.TypeUpdateMissile:     decodeInto[protocol.UpdateMissileMsg],
	protocol.TypeKeyboundOverride:  decodeInto[protocol.KeyboundOverrideMsg],
}

func decodeInto[T any](b []byte) (any, error) {
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, out := s.handshake(conn)
		if sessionID == "" {
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// Writer goroutine. The realm never blocks on a slow client; this
		// goroutine drains the session's outbound queue.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteDeadline))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(s.cfg.ReadDeadline))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				continue
			}
			dec := decodeRequest[base.Type]
			if dec == nil {
				continue
			}
			v, err := dec(msg)
			if err != nil {
				continue
			}
			if !s.realm.Submit(realm.RequestEnvelope{SessionID: sessionID, Type: base.Type, Msg: v}) {
				s.log.Printf("inbox full, dropping %s from %s", base.Type, sessionID)
			}
		}

		// Cleanup.
		s.realm.Leave(sessionID)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (sessionID string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", nil
	}
	name := strings.TrimSpace(hello.SessionName)
	if name == "" {
		name = "player"
	}

	out = make(chan []byte, s.cfg.OutQueue)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := s.realm.Join(ctx, name, out)
	if err != nil || resp.Err != "" {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "join failed"), time.Now().Add(time.Second))
		return "", nil
	}
	// The WELCOME frame is queued by the realm on join; the writer goroutine
	// delivers it first since nothing else is in the queue yet.
	return resp.SessionID, out
}
