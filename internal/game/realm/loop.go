package realm

import (
	"context"
	"fmt"
	"time"

	"runegate.gg/internal/protocol"
)

// Run drives the realm's single authoritative timeline. Every piece of
// actor/session state is touched only from here; no two requests for the
// same actor ever run concurrently.
func (r *Realm) Run(ctx context.Context) error {
	interval := time.Second / time.Duration(r.cfg.TickRateHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stop:
			return nil
		case req := <-r.join:
			r.handleJoin(req)
			r.metrics.sessions(1)
		case id := <-r.leave:
			r.handleLeave(id)
			r.metrics.sessions(-1)
		case env := <-r.inbox:
			r.applyRequest(env)
		case g := <-r.giftResolved:
			r.resumeWrappedOpen(g)
		case <-ticker.C:
			r.tick.Add(1)
		}
	}
}

func (r *Realm) Stop() { close(r.stop) }

// Join attaches a session from outside the loop.
func (r *Realm) Join(ctx context.Context, name string, out chan []byte) (JoinResponse, error) {
	req := JoinRequest{Name: name, Out: out, Resp: make(chan JoinResponse, 1)}
	select {
	case r.join <- req:
	case <-ctx.Done():
		return JoinResponse{}, ctx.Err()
	}
	select {
	case resp := <-req.Resp:
		return resp, nil
	case <-ctx.Done():
		return JoinResponse{}, ctx.Err()
	}
}

// Leave detaches a session from outside the loop.
func (r *Realm) Leave(id string) {
	select {
	case r.leave <- id:
	default:
	}
}

type requestHandler func(r *Realm, s *Session, msg any)

var requestDispatch = map[string]requestHandler{
	protocol.TypeUseItem:           (*Realm).handleUseItem,
	protocol.TypeOpenItem:          (*Realm).handleOpenItem,
	protocol.TypeGameObjUse:        (*Realm).handleGameObjUse,
	protocol.TypeGameObjReportUse:  (*Realm).handleGameObjReportUse,
	protocol.TypeCastSpell:         (*Realm).handleCastSpell,
	protocol.TypeCancelCast:        (*Realm).handleCancelCast,
	protocol.TypeCancelAura:        (*Realm).handleCancelAura,
	protocol.TypePetCancelAura:     (*Realm).handlePetCancelAura,
	protocol.TypeCancelGrowthAura:  (*Realm).handleCancelGrowthAura,
	protocol.TypeCancelMountAura:   (*Realm).handleCancelMountAura,
	protocol.TypeCancelModSpeed:    (*Realm).handleCancelModSpeed,
	protocol.TypeCancelAutoRepeat:  (*Realm).handleCancelAutoRepeat,
	protocol.TypeCancelChannelling: (*Realm).handleCancelChannelling,
	protocol.TypeTotemDestroyed:    (*Realm).handleTotemDestroyed,
	protocol.TypeSelfRes:           (*Realm).handleSelfRes,
	protocol.TypeSpellClick:        (*Realm).handleSpellClick,
	protocol.TypeMirrorImageData:   (*Realm).handleMirrorImageData,
	protocol.TypeMissileCollision:  (*Realm).handleMissileCollision,
	protocol.TypeUpdateMissile:     (*Realm).handleUpdateMissile,
	protocol.TypeKeyboundOverride:  (*Realm).handleKeyboundOverride,
}

var supportedRequestTypes = []string{
	protocol.TypeUseItem,
	protocol.TypeOpenItem,
	protocol.TypeGameObjUse,
	protocol.TypeGameObjReportUse,
	protocol.TypeCastSpell,
	protocol.TypeCancelCast,
	protocol.TypeCancelAura,
	protocol.TypePetCancelAura,
	protocol.TypeCancelGrowthAura,
	protocol.TypeCancelMountAura,
	protocol.TypeCancelModSpeed,
	protocol.TypeCancelAutoRepeat,
	protocol.TypeCancelChannelling,
	protocol.TypeTotemDestroyed,
	protocol.TypeSelfRes,
	protocol.TypeSpellClick,
	protocol.TypeMirrorImageData,
	protocol.TypeMissileCollision,
	protocol.TypeUpdateMissile,
	protocol.TypeKeyboundOverride,
}

func validateRequestDispatch() error {
	allowed := make(map[string]struct{}, len(supportedRequestTypes))
	for _, k := range supportedRequestTypes {
		if k == "" {
			return fmt.Errorf("requestDispatch: empty supported key")
		}
		if _, ok := allowed[k]; ok {
			return fmt.Errorf("requestDispatch: duplicate supported key %q", k)
		}
		allowed[k] = struct{}{}
	}
	if len(requestDispatch) != len(allowed) {
		return fmt.Errorf("requestDispatch size mismatch: got=%d want=%d", len(requestDispatch), len(allowed))
	}
	for k := range requestDispatch {
		if _, ok := allowed[k]; !ok {
			return fmt.Errorf("requestDispatch has unsupported key %q", k)
		}
	}
	return nil
}

func (r *Realm) applyRequest(env RequestEnvelope) {
	s := r.sessions[env.SessionID]
	if s == nil {
		r.metrics.silentDrop("no_session")
		return
	}
	h := requestDispatch[env.Type]
	if h == nil {
		r.metrics.silentDrop("unknown_type")
		return
	}
	r.metrics.request(env.Type)
	h(r, s, env.Msg)
}
