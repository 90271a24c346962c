package realm

import (
	"runegate.gg/internal/game/catalogs"
	"runegate.gg/internal/protocol"
)

// Cancellation handlers are symmetric: locate the active cast or aura by
// identity and attributes, and tear it down only when it is confirmed to be
// the one targeted. Cancel-immunity always wins, whatever the source.

func (r *Realm) handleCancelCast(s *Session, msg any) {
	req, ok := msg.(protocol.CancelCastMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := r.ResolveEffectiveActor(s)
	if player == nil {
		r.metrics.silentDrop("remote_control")
		return
	}
	if player.HasNonMeleeCast() {
		r.InterruptNonMeleeSpells(player, req.SpellID)
	}
}

func (r *Realm) handleCancelAura(s *Session, msg any) {
	req, ok := msg.(protocol.CancelAuraMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := s.Player
	if player == nil {
		return
	}
	spell := r.catalogs.Spell(req.SpellID)
	if spell == nil {
		r.metrics.silentDrop("unknown_spell")
		return
	}
	if spell.NoAuraCancel {
		r.metrics.silentDrop("cancel_immune")
		return
	}

	// Channeled case: the "aura" the client sees is the in-flight channel.
	// Interrupt only when the current channel is the requested spell.
	if spell.Channeled {
		if cur := player.CurrentCast(CastChanneled); cur != nil && cur.Spell.ID == req.SpellID {
			r.engine.InterruptCurrent(player, CastChanneled)
		}
		return
	}

	// Non-channeled: negative and passive auras are never client-cancellable.
	if !spell.Positive || spell.Passive {
		r.metrics.silentDrop("not_cancellable")
		return
	}
	player.RemoveOwnedAura(req.SpellID, req.CasterGUID)
}

func (r *Realm) handlePetCancelAura(s *Session, msg any) {
	req, ok := msg.(protocol.PetCancelAuraMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := s.Player
	if player == nil {
		return
	}
	if r.catalogs.Spell(req.SpellID) == nil {
		// Log-and-continue: the pet is still resolved and the removal still
		// runs. Kept for parity with long-standing client behavior.
		r.log.Printf("unknown pet spell id %d from %s", req.SpellID, s.ID)
		r.writeAudit(AuditEntry{
			Kind:      AuditUnknownPetSpell,
			SessionID: s.ID,
			ActorGUID: player.GUID,
			SpellID:   req.SpellID,
		})
	}

	pet := r.CreatureOrPetOrVehicle(req.PetGUID)
	if pet == nil {
		r.log.Printf("pet cancel aura for non-existent unit %d by %q", req.PetGUID, player.Name)
		r.metrics.silentDrop("no_pet")
		return
	}
	if pet.GUID != player.GuardianPet && pet.GUID != player.CharmedUnit {
		r.log.Printf("unit %d is not a pet of %q", req.PetGUID, player.Name)
		r.metrics.silentDrop("not_own_pet")
		return
	}
	if !pet.Alive {
		s.send(protocol.PetActionFeedbackMsg{
			Type:     protocol.TypePetActionFeedback,
			PetGUID:  pet.GUID,
			Response: protocol.PetFeedbackDead,
		})
		return
	}
	pet.RemoveOwnedAura(req.SpellID, 0)
}

// clientCancelKeep is the shared filter of the bulk category sweeps: an
// application survives when it is cancel-immune, non-positive or passive.
func clientCancelKeep(au *Aura) bool {
	return au.CancelImmune || !au.Positive || au.Passive
}

func (r *Realm) handleCancelGrowthAura(s *Session, msg any) {
	if player := s.Player; player != nil {
		player.RemoveAurasByCategory(catalogs.AuraCategoryScale, clientCancelKeep)
	}
}

func (r *Realm) handleCancelMountAura(s *Session, msg any) {
	if player := s.Player; player != nil {
		player.RemoveAurasByCategory(catalogs.AuraCategoryMounted, clientCancelKeep)
	}
}

func (r *Realm) handleCancelModSpeed(s *Session, msg any) {
	req, ok := msg.(protocol.CancelModSpeedMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := s.Player
	if player == nil || player.MovedAs != req.TargetGUID {
		r.metrics.silentDrop("mover_mismatch")
		return
	}
	player.RemoveAurasByCategory(catalogs.AuraCategorySpeedNoControl, clientCancelKeep)
}

func (r *Realm) handleCancelAutoRepeat(s *Session, msg any) {
	if player := s.Player; player != nil {
		r.engine.InterruptCurrent(player, CastAutoRepeat)
	}
}

func (r *Realm) handleCancelChannelling(s *Session, msg any) {
	req, ok := msg.(protocol.CancelChannellingMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := s.Player
	if player == nil {
		return
	}
	// Remote control drops the request for the player-mover case only; a
	// creature mover (pet bar, vehicle) channels through its own slot.
	mover := r.actors[player.MovedAs]
	if mover == nil {
		r.metrics.silentDrop("no_mover")
		return
	}
	if mover != player && mover.IsPlayer() {
		r.metrics.silentDrop("remote_control")
		return
	}

	spell := r.catalogs.Spell(req.SpellID)
	if spell == nil {
		r.metrics.silentDrop("unknown_spell")
		return
	}
	if spell.NoAuraCancel {
		r.metrics.silentDrop("cancel_immune")
		return
	}

	cur := mover.CurrentCast(CastChanneled)
	if cur == nil || cur.Spell.ID != spell.ID {
		// Not the channel we're running; the actual cast continues.
		r.metrics.silentDrop("channel_mismatch")
		return
	}
	r.engine.InterruptCurrent(mover, CastChanneled)
}
