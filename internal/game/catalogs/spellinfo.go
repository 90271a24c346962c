package catalogs

// RankForLevel returns the level-scaled variant of s covering the target
// level, or nil when no rank matches. A nil result means the caller should
// proceed with the original spell; explicit casts of an out-of-range rank
// fail later with a proper error instead of being rejected here.
func (c *Catalogs) RankForLevel(s *SpellDef, level uint8) *SpellDef {
	if s == nil || len(s.Ranks) == 0 {
		return nil
	}
	for _, r := range s.Ranks {
		if level >= r.MinLevel && level <= r.MaxLevel {
			return c.Spells[r.SpellID]
		}
	}
	return nil
}

// CastOverride resolves cast-override substitution. Returns s itself when no
// override applies.
func (c *Catalogs) CastOverride(s *SpellDef) *SpellDef {
	if s == nil || s.OverrideSpellID == 0 {
		return s
	}
	if o := c.Spells[s.OverrideSpellID]; o != nil {
		return o
	}
	return s
}

// CanBeUsedInCombat reports whether an item effect spell may fire while its
// user is in combat.
func (s *SpellDef) CanBeUsedInCombat() bool {
	return !s.NotInCombat
}

// ClientCancellable reports whether a client may cancel an aura of this
// spell: never for cancel-immune, negative or passive spells.
func (s *SpellDef) ClientCancellable() bool {
	return !s.NoAuraCancel && s.Positive && !s.Passive
}
