package realm

import (
	"encoding/json"
	"fmt"

	"runegate.gg/internal/protocol"
)

// Session is the server-side identity of one connected client. It owns
// exactly one player actor; control may be delegated elsewhere (vehicle,
// possession) without changing ownership. Created at join, destroyed at
// leave; outlives individual requests.
type Session struct {
	ID     string
	Name   string
	Player *Actor

	out chan []byte
}

func (s *Session) send(v any) {
	if s == nil || s.out == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case s.out <- b:
	default:
		// Slow consumer: drop. The client state-syncs on its next request.
	}
}

// SendEquipError reports a client-visible denial for an item operation.
func (s *Session) SendEquipError(code string, item *Item) {
	if !protocol.IsKnownCode(code) {
		code = protocol.ErrCantUse
	}
	msg := protocol.EquipErrorMsg{Type: protocol.TypeEquipError, Code: code}
	if item != nil {
		msg.ItemGUID = item.GUID
	}
	s.send(msg)
}

func (s *Session) SendSpellPrepare(clientCastID, serverCastID string) {
	s.send(protocol.SpellPrepareMsg{
		Type:         protocol.TypeSpellPrepare,
		ClientCastID: clientCastID,
		ServerCastID: serverCastID,
	})
}

func (r *Realm) handleJoin(req JoinRequest) {
	n := r.nextSession.Add(1)
	id := fmt.Sprintf("S%06d", n)

	a := r.SpawnPlayer(req.Name)
	s := &Session{
		ID:     id,
		Name:   req.Name,
		Player: a,
		out:    req.Out,
	}
	a.Session = s
	r.sessions[id] = s

	if req.Resp != nil {
		req.Resp <- JoinResponse{SessionID: id, ActorGUID: a.GUID}
	}
	s.send(protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       id,
		RealmID:         r.cfg.ID,
		ActorGUID:       a.GUID,
	})
}

func (r *Realm) handleLeave(sessionID string) {
	s := r.sessions[sessionID]
	if s == nil {
		return
	}
	if s.Player != nil {
		s.Player.Session = nil
	}
	delete(r.sessions, sessionID)
}

// SpawnPlayer creates a live player actor. Exposed for fixtures and the join
// path; persistence-backed character load is outside this layer.
func (r *Realm) SpawnPlayer(name string) *Actor {
	a := newActor(r.NewGUID(), ActorPlayer, name)
	a.MovedAs = a.GUID
	r.actors[a.GUID] = a
	return a
}

// SpawnCreature creates a live creature actor (pet, totem, vehicle...).
func (r *Realm) SpawnCreature(name string) *Actor {
	a := newActor(r.NewGUID(), ActorCreature, name)
	a.MovedAs = a.GUID
	r.actors[a.GUID] = a
	return a
}

func (r *Realm) Actor(guid GUID) *Actor { return r.actors[guid] }

// RemoveActor drops an actor from existence. Outstanding continuations that
// captured its guid re-validate and no-op.
func (r *Realm) RemoveActor(guid GUID) {
	delete(r.actors, guid)
}
