package realm

import (
	"runegate.gg/internal/game/catalogs"
	"runegate.gg/internal/protocol"
)

const broadcastRange = 100.0

func (r *Realm) handleTotemDestroyed(s *Session, msg any) {
	req, ok := msg.(protocol.TotemDestroyedMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := r.ResolveEffectiveActor(s)
	if player == nil {
		r.metrics.silentDrop("remote_control")
		return
	}
	if int(req.Slot) >= MaxTotemSlots {
		r.metrics.silentDrop("bad_slot")
		return
	}
	guid := player.SummonSlots[req.Slot]
	if guid == 0 {
		r.metrics.silentDrop("empty_slot")
		return
	}
	totem := r.actors[guid]
	if totem == nil || !totem.IsTotem || totem.GUID != req.TotemGUID {
		r.metrics.silentDrop("totem_mismatch")
		return
	}
	r.UnsummonTotem(player, int(req.Slot), totem)
}

// UnsummonTotem removes the totem from existence and frees its slot.
func (r *Realm) UnsummonTotem(owner *Actor, slot int, totem *Actor) {
	owner.SummonSlots[slot] = 0
	r.RemoveActor(totem.GUID)
}

func (r *Realm) handleSelfRes(s *Session, msg any) {
	req, ok := msg.(protocol.SelfResMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := s.Player
	if player == nil {
		return
	}
	if !player.HasSelfResSpell(req.SpellID) {
		r.metrics.silentDrop("not_self_res")
		return
	}
	spell := r.catalogs.Spell(req.SpellID)
	if spell == nil {
		r.metrics.silentDrop("unknown_spell")
		return
	}
	// Silent: the client shows its own error and should not have sent this.
	if player.HasAuraCategory(catalogs.AuraCategoryPreventRes) && !spell.BypassNoResAura {
		r.metrics.silentDrop("prevent_resurrection")
		return
	}
	r.castSelf(player, req.SpellID)
	player.RemoveSelfResSpell(req.SpellID)
}

func (r *Realm) handleSpellClick(s *Session, msg any) {
	req, ok := msg.(protocol.SpellClickMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := s.Player
	if player == nil {
		return
	}
	// Existence re-check before touching the unit: a stale guid here used to
	// be a crash, now it is a silent drop.
	unit := r.CreatureOrPetOrVehicle(req.UnitGUID)
	if unit == nil {
		r.metrics.silentDrop("no_unit")
		return
	}
	if unit.OnSpellClick != nil {
		unit.OnSpellClick(player)
	}
}

func (r *Realm) handleMirrorImageData(s *Session, msg any) {
	req, ok := msg.(protocol.MirrorImageDataMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	unit := r.actors[req.UnitGUID]
	if unit == nil {
		r.metrics.silentDrop("no_unit")
		return
	}
	// Clone-caster does not stack; the first application is the only one.
	au := unit.FirstAuraOfCategory(catalogs.AuraCategoryCloneCaster)
	if au == nil {
		r.metrics.silentDrop("not_clone")
		return
	}
	creator := r.actors[au.CasterGUID]
	if creator == nil {
		r.metrics.silentDrop("no_creator")
		return
	}

	if creator.IsPlayer() {
		s.send(protocol.MirrorImagePlayerMsg{
			Type:           protocol.TypeMirrorImagePlayer,
			UnitGUID:       unit.GUID,
			DisplayID:      creator.DisplayID,
			RaceID:         creator.RaceID,
			Gender:         creator.Gender,
			ClassID:        creator.ClassID,
			Customizations: creator.Customizations,
			GuildGUID:      creator.GuildGUID,
			ItemDisplayIDs: creator.EquipDisplay,
		})
		return
	}
	s.send(protocol.MirrorImageCreatureMsg{
		Type:      protocol.TypeMirrorImageCreature,
		UnitGUID:  unit.GUID,
		DisplayID: creator.DisplayID,
	})
}

func (r *Realm) handleMissileCollision(s *Session, msg any) {
	req, ok := msg.(protocol.MissileCollisionMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	caster := r.actors[req.CasterGUID]
	if caster == nil {
		r.metrics.silentDrop("no_caster")
		return
	}
	cast := caster.FindCurrentCastBySpellID(req.SpellID)
	if cast == nil || !cast.Targets.HasDst() {
		r.metrics.silentDrop("no_matching_cast")
		return
	}

	pos := req.CollisionPos
	cast.Targets.Dst = &pos
	// Destination changed; flight time must follow.
	r.engine.RecalculateFlightTime(cast)

	r.broadcastNear(caster, protocol.MissileNotifyMsg{
		Type:         protocol.TypeMissileNotify,
		CasterGUID:   caster.GUID,
		CastID:       req.CastID,
		CollisionPos: req.CollisionPos,
	})
}

func (r *Realm) handleUpdateMissile(s *Session, msg any) {
	req, ok := msg.(protocol.UpdateMissileMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	caster := r.actors[req.CasterGUID]
	if caster == nil {
		r.metrics.silentDrop("no_caster")
		return
	}
	cast := caster.CurrentCast(CastGeneric)
	if cast == nil || cast.Spell.ID != req.SpellID || cast.ID != req.CastID ||
		!cast.Targets.HasDst() || !cast.Targets.HasSrc() {
		r.metrics.silentDrop("no_matching_cast")
		return
	}

	src := req.FirePos
	dst := req.ImpactPos
	cast.Targets.Src = &src
	cast.Targets.Dst = &dst
	cast.Targets.Pitch = req.Pitch
	cast.Targets.Speed = req.Speed

	if req.MoveUpdate != nil {
		if player := s.Player; player != nil {
			r.applyMoveStop(player, req.MoveUpdate)
		}
	}
}

func (r *Realm) handleKeyboundOverride(s *Session, msg any) {
	req, ok := msg.(protocol.KeyboundOverrideMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := s.Player
	if player == nil {
		return
	}
	if !player.HasAuraWithMiscValue(catalogs.AuraCategoryKeybound, req.OverrideID) {
		r.metrics.silentDrop("no_override_aura")
		return
	}
	o, known := r.catalogs.Overrides[req.OverrideID]
	if !known {
		r.metrics.silentDrop("unknown_override")
		return
	}
	r.castSelf(player, o.SpellID)
}

// broadcastNear sends to every session whose player is within broadcast
// range of the center actor, including the center's own session.
func (r *Realm) broadcastNear(center *Actor, v any) {
	for _, s := range r.sessions {
		p := s.Player
		if p == nil {
			continue
		}
		dx := p.Pos.X - center.Pos.X
		dy := p.Pos.Y - center.Pos.Y
		dz := p.Pos.Z - center.Pos.Z
		if dx*dx+dy*dy+dz*dz > broadcastRange*broadcastRange {
			continue
		}
		s.send(v)
	}
}
