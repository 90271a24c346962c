package realm

import "runegate.gg/internal/game/catalogs"

// Aura is one active aura application on an actor. Attribute flags are
// copied from the source spell at application time so a later catalog reload
// cannot change the legality of an already-applied aura.
type Aura struct {
	SpellID      uint32
	CasterGUID   GUID
	Category     string
	Positive     bool
	Passive      bool
	CancelImmune bool

	// BreakOnItemUse drops the aura when its holder uses any item.
	BreakOnItemUse bool

	// MiscValue carries category-specific data (keybound override id).
	MiscValue uint32
}

// ApplyAura attaches an aura built from the spell definition. Used by the
// spell engine and by fixtures; the gateway itself only removes auras.
func (r *Realm) ApplyAura(a *Actor, spellID uint32, caster GUID, miscValue uint32) *Aura {
	def := r.catalogs.Spell(spellID)
	if def == nil {
		return nil
	}
	au := &Aura{
		SpellID:        spellID,
		CasterGUID:     caster,
		Category:       def.AuraCategory,
		Positive:       def.Positive,
		Passive:        def.Passive,
		CancelImmune:   def.NoAuraCancel,
		BreakOnItemUse: def.BreakOnItemUse,
		MiscValue:      miscValue,
	}
	a.auras = append(a.auras, au)
	return au
}

func (a *Actor) Auras() []*Aura { return a.auras }

func (a *Actor) HasAuraCategory(cat string) bool {
	for _, au := range a.auras {
		if au.Category == cat {
			return true
		}
	}
	return false
}

// FirstAuraOfCategory returns the oldest application of the category. The
// clone-caster category does not stack, so "first" is "the" application.
func (a *Actor) FirstAuraOfCategory(cat string) *Aura {
	for _, au := range a.auras {
		if au.Category == cat {
			return au
		}
	}
	return nil
}

// HasAuraWithMiscValue reports an application of the category carrying the
// given misc value (keybound overrides).
func (a *Actor) HasAuraWithMiscValue(cat string, misc uint32) bool {
	for _, au := range a.auras {
		if au.Category == cat && au.MiscValue == misc {
			return true
		}
	}
	return false
}

// HasAuraWithTriggerSpell reports whether some held aura's spell legitimizes
// a client-side cast of triggerID.
func (r *Realm) HasAuraWithTriggerSpell(a *Actor, triggerID uint32) bool {
	for _, au := range a.auras {
		def := r.catalogs.Spell(au.SpellID)
		if def != nil && def.AuraCategory == catalogs.AuraCategoryClientTrigger && def.TriggerSpellID == triggerID {
			return true
		}
	}
	return false
}

// RemoveOwnedAura removes the first application matching spell id and, when
// non-zero, caster guid. Returns whether anything was removed.
func (a *Actor) RemoveOwnedAura(spellID uint32, caster GUID) bool {
	for i, au := range a.auras {
		if au.SpellID != spellID {
			continue
		}
		if caster != 0 && au.CasterGUID != caster {
			continue
		}
		a.auras = append(a.auras[:i], a.auras[i+1:]...)
		return true
	}
	return false
}

// RemoveAurasByCategory removes every application of the category for which
// keep returns false. Each application is judged independently; this is a
// bulk sweep, not a single-target removal.
func (a *Actor) RemoveAurasByCategory(cat string, keep func(*Aura) bool) int {
	removed := 0
	kept := a.auras[:0]
	for _, au := range a.auras {
		if au.Category == cat && !keep(au) {
			removed++
			continue
		}
		kept = append(kept, au)
	}
	a.auras = kept
	return removed
}

// RemoveAurasOnItemUse drops every aura flagged to break when its holder
// uses an item. Runs after authorization, before dispatch.
func (a *Actor) RemoveAurasOnItemUse() int {
	removed := 0
	kept := a.auras[:0]
	for _, au := range a.auras {
		if au.BreakOnItemUse {
			removed++
			continue
		}
		kept = append(kept, au)
	}
	a.auras = kept
	return removed
}
