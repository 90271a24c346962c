package realm

import "runegate.gg/internal/game/catalogs"

// ResolveEffectiveActor returns the session's player actor iff the player is
// the unit its client currently moves. A mismatch (mid-vehicle-exit, desync)
// is a silent no-op for every request kind that calls this: the client is
// expected to self-correct, so no error goes back.
func (r *Realm) ResolveEffectiveActor(s *Session) *Actor {
	if s == nil || s.Player == nil {
		return nil
	}
	if s.Player.MovedAs != s.Player.GUID {
		return nil
	}
	return s.Player
}

// ResolveCaster computes the effective caster for a spell cast request.
// Remote control is conditionally allowed here: when the moved unit is a
// creature lacking the spell, control falls back to the player iff the
// player is a passenger of that unit and the spell permits passenger-cast
// delegation. Returns nil for a silent drop.
func (r *Realm) ResolveCaster(s *Session, spell *catalogs.SpellDef) *Actor {
	player := s.Player
	if player == nil {
		return nil
	}
	mover := r.actors[player.MovedAs]
	if mover == nil {
		return nil
	}
	// A detached player mover means desync; drop. Creature movers proceed
	// (pet bar, vehicle seat).
	if mover != player && mover.IsPlayer() {
		return nil
	}
	caster := mover
	if caster.IsCreature() && !caster.HasSpell(spell.ID) {
		if !player.IsOnVehicle(caster.GUID) || !spell.PassengerCast {
			return nil
		}
		caster = player
	}
	return caster
}

// CreatureOrPetOrVehicle resolves a creature guid near the player. Existence
// is the only check at this layer.
func (r *Realm) CreatureOrPetOrVehicle(guid GUID) *Actor {
	a := r.actors[guid]
	if a == nil || !a.IsCreature() {
		return nil
	}
	return a
}
