package realm

import (
	"runegate.gg/internal/protocol"
)

func (r *Realm) handleCastSpell(s *Session, msg any) {
	req, ok := msg.(protocol.CastSpellMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := s.Player
	if player == nil {
		r.metrics.silentDrop("no_actor")
		return
	}

	spell := r.catalogs.Spell(req.Cast.SpellID)
	if spell == nil {
		r.log.Printf("unknown spell id %d from %s", req.Cast.SpellID, s.ID)
		r.metrics.silentDrop("unknown_spell")
		return
	}

	caster := r.ResolveCaster(s, spell)
	if caster == nil {
		r.metrics.silentDrop("remote_control")
		return
	}

	triggerFlag := TriggeredNone
	targets := targetsFrom(req.Cast.Target)

	// Known-spell check for player casters. Raid-marker spells skip it, and
	// two unknown-spell allowances exist: the spell that picks a targeted
	// object's lock, and spells a held aura triggers from the client side.
	if caster.IsPlayer() && !caster.HasSpell(spell.ID) && !spell.RaidMarker {
		allow := false
		if targets.ObjectGUID != 0 {
			if o := r.objects[targets.ObjectGUID]; o != nil && r.spellForLock(o, caster) == spell.ID {
				allow = true
			}
		}
		if r.HasAuraWithTriggerSpell(caster, spell.ID) {
			allow = true
			triggerFlag = TriggeredFull
		}
		if !allow {
			r.metrics.silentDrop("unknown_spell_for_caster")
			return
		}
	}

	spell = r.catalogs.CastOverride(spell)

	if spell.Passive {
		r.metrics.silentDrop("passive_spell")
		return
	}

	// Own spells are off-limits while possessing another unit.
	if player.Possessing {
		r.metrics.silentDrop("possessing")
		return
	}

	// The client resends the auto-repeat cast when another spell fires
	// during the shot rotation. An identical resend against an unchanged
	// target is a no-op; a changed target falls through and the new cast
	// interrupts the old one.
	if spell.AutoRepeat {
		if cur := caster.CurrentCast(CastAutoRepeat); cur != nil &&
			cur.Spell.ID == spell.ID && cur.Targets.UnitGUID == targets.UnitGUID {
			r.metrics.silentDrop("autorepeat_resend")
			return
		}
	}

	// Rank substitution: scale level-ranked buffs to the target's level. A
	// missing rank keeps the original request; it may still fail later with
	// a proper error.
	if targets.UnitGUID != 0 {
		if tgt := r.actors[targets.UnitGUID]; tgt != nil {
			if actual := r.catalogs.RankForLevel(spell, tgt.LevelFor(caster)); actual != nil {
				spell = actual
			}
		}
	}

	if req.Cast.MoveUpdate != nil {
		r.applyMoveStop(caster, req.Cast.MoveUpdate)
	}

	cast := r.engine.CreateCast(caster, spell, triggerFlag)
	cast.FromClient = true
	cast.Misc = req.Cast.Misc

	// Ack before the effects resolve so the client renders cast state
	// optimistically.
	s.SendSpellPrepare(req.Cast.CastID, cast.ID)

	r.engine.Prepare(cast, targets)
	caster.setCurrentCast(cast)
	r.metrics.castCreated()
}

func (r *Realm) applyMoveStop(a *Actor, mu *protocol.MoveUpdate) {
	a.Pos = mu.Pos
}

// castSelf creates and prepares an untriggered self-cast outside the normal
// client cast path (self-res, keybound overrides).
func (r *Realm) castSelf(a *Actor, spellID uint32) {
	def := r.catalogs.Spell(spellID)
	if def == nil {
		return
	}
	cast := r.engine.CreateCast(a, def, TriggeredNone)
	r.engine.Prepare(cast, Targets{UnitGUID: a.GUID})
	a.setCurrentCast(cast)
	r.metrics.castCreated()
}
