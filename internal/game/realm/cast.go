package realm

import (
	"github.com/google/uuid"

	"runegate.gg/internal/game/catalogs"
	"runegate.gg/internal/protocol"
)

// CastCategory is one of the mutually exclusive concurrent-cast slots an
// actor holds: at most one in-flight cast per category.
type CastCategory int

const (
	CastGeneric CastCategory = iota
	CastChanneled
	CastAutoRepeat
)

func categoryFor(s *catalogs.SpellDef) CastCategory {
	switch {
	case s.AutoRepeat:
		return CastAutoRepeat
	case s.Channeled:
		return CastChanneled
	default:
		return CastGeneric
	}
}

type TriggerFlags uint32

const (
	TriggeredNone TriggerFlags = 0
	TriggeredFull TriggerFlags = 1
)

// Targets is the resolved target set of a cast. Guids stay guids: a cast
// holds lookup keys, never live actor references.
type Targets struct {
	UnitGUID   GUID
	ObjectGUID GUID
	ItemGUID   GUID
	Src        *protocol.Position
	Dst        *protocol.Position
	Pitch      float64
	Speed      float64
}

func targetsFrom(t protocol.TargetDescriptor) Targets {
	out := Targets{
		UnitGUID:   t.UnitGUID,
		ObjectGUID: t.ObjectGUID,
		ItemGUID:   t.ItemGUID,
	}
	if t.SrcPos != nil {
		p := *t.SrcPos
		out.Src = &p
	}
	if t.DstPos != nil {
		p := *t.DstPos
		out.Dst = &p
	}
	return out
}

func (t *Targets) HasSrc() bool { return t.Src != nil }
func (t *Targets) HasDst() bool { return t.Dst != nil }

// Cast is an in-flight cast object owned by the spell engine. The gateway
// creates it, acknowledges it, and hands it over.
type Cast struct {
	ID         string // server-assigned correlation id
	CasterGUID GUID
	Spell      *catalogs.SpellDef
	Category   CastCategory
	Targets    Targets
	Flags      TriggerFlags
	FromClient bool
	Misc       [2]uint32

	// DelayMoment is the missile flight bookkeeping the engine recomputes
	// when the destination moves.
	DelayMoment uint64
}

// SpellEngine is the owning subsystem for casts. The default implementation
// keeps per-actor category slots; effect resolution is out of scope here.
type SpellEngine interface {
	CreateCast(caster *Actor, spell *catalogs.SpellDef, flags TriggerFlags) *Cast
	Prepare(c *Cast, t Targets)
	InterruptCurrent(caster *Actor, cat CastCategory)
	RecalculateFlightTime(c *Cast)
}

type castEngine struct {
	catalogs *catalogs.Catalogs
}

func newCastEngine(c *catalogs.Catalogs) *castEngine {
	return &castEngine{catalogs: c}
}

func (e *castEngine) CreateCast(caster *Actor, spell *catalogs.SpellDef, flags TriggerFlags) *Cast {
	return &Cast{
		ID:         uuid.NewString(),
		CasterGUID: caster.GUID,
		Spell:      spell,
		Category:   categoryFor(spell),
		Flags:      flags,
	}
}

func (e *castEngine) Prepare(c *Cast, t Targets) {
	c.Targets = t
}

func (e *castEngine) InterruptCurrent(caster *Actor, cat CastCategory) {
	delete(caster.casts, cat)
}

func (e *castEngine) RecalculateFlightTime(c *Cast) {
	// Flight time scales with the new destination; the stub keeps a
	// monotonic marker so tests can observe the recalculation happened.
	c.DelayMoment++
}

// CurrentCast returns the in-flight cast in the given category slot, or nil.
func (a *Actor) CurrentCast(cat CastCategory) *Cast {
	return a.casts[cat]
}

// FindCurrentCastBySpellID searches all category slots.
func (a *Actor) FindCurrentCastBySpellID(spellID uint32) *Cast {
	for _, c := range a.casts {
		if c != nil && c.Spell.ID == spellID {
			return c
		}
	}
	return nil
}

// HasNonMeleeCast reports any in-flight generic or channeled cast.
func (a *Actor) HasNonMeleeCast() bool {
	return a.casts[CastGeneric] != nil || a.casts[CastChanneled] != nil
}

func (a *Actor) setCurrentCast(c *Cast) {
	a.casts[c.Category] = c
}

// InterruptNonMeleeSpells interrupts generic and channeled casts; when
// spellID is non-zero only a matching cast is torn down.
func (r *Realm) InterruptNonMeleeSpells(a *Actor, spellID uint32) {
	for _, cat := range []CastCategory{CastGeneric, CastChanneled} {
		c := a.casts[cat]
		if c == nil {
			continue
		}
		if spellID != 0 && c.Spell.ID != spellID {
			continue
		}
		r.engine.InterruptCurrent(a, cat)
	}
}
