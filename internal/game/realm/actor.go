package realm

import "runegate.gg/internal/protocol"

type ActorKind int

const (
	ActorPlayer ActorKind = iota + 1
	ActorCreature
)

const MaxTotemSlots = 4

// Actor is any entity capable of acting: a player character or a creature
// (pet, totem, vehicle, possessed unit). Only the realm loop touches it.
type Actor struct {
	GUID  GUID
	Kind  ActorKind
	Name  string
	Level uint8

	Alive      bool
	InCombat   bool
	InArena    bool
	Possessing bool

	Pos protocol.Position

	// MovedAs is the guid of the unit this actor's client currently moves.
	// Normally the actor itself; differs mid-vehicle-exit, under possession
	// and during client desync windows. A lookup key, never an owner ref.
	MovedAs GUID

	// VehicleGUID is set while a player rides a vehicle creature.
	VehicleGUID GUID

	// Creature relations back to the owning player.
	OwnerGUID GUID
	IsTotem   bool

	// Player-side pet bookkeeping.
	GuardianPet GUID
	CharmedUnit GUID

	KnownSpells   map[uint32]bool
	SelfResSpells []uint32
	SummonSlots   [MaxTotemSlots]GUID

	auras []*Aura
	casts map[CastCategory]*Cast

	items map[ItemPos]*Item
	Gold  uint64

	collectedAppearances map[uint32]bool
	usedObjects          map[uint32]int

	// OnSpellClick is the unit's own click behavior (mount, board, charm).
	OnSpellClick func(clicker *Actor)

	Session *Session

	// Appearance, served verbatim for mirror-image requests.
	DisplayID      uint32
	RaceID         uint8
	Gender         uint8
	ClassID        uint8
	GuildGUID      uint64
	Customizations []uint32
	EquipDisplay   []uint32
}

func newActor(guid GUID, kind ActorKind, name string) *Actor {
	return &Actor{
		GUID:        guid,
		Kind:        kind,
		Name:        name,
		Level:       1,
		Alive:       true,
		KnownSpells: map[uint32]bool{},
		casts:       map[CastCategory]*Cast{},
		items:       map[ItemPos]*Item{},
	}
}

func (a *Actor) IsPlayer() bool   { return a.Kind == ActorPlayer }
func (a *Actor) IsCreature() bool { return a.Kind == ActorCreature }

// HasSpell reports whether the actor knows the spell (creature spell list or
// player spellbook; the distinction does not matter at this layer).
func (a *Actor) HasSpell(id uint32) bool { return a.KnownSpells[id] }

func (a *Actor) LearnSpell(id uint32) { a.KnownSpells[id] = true }

// IsOnVehicle reports whether a rides the given unit.
func (a *Actor) IsOnVehicle(unit GUID) bool {
	return unit != 0 && a.VehicleGUID == unit
}

// LevelFor returns the level used for rank scaling against the given caster.
func (a *Actor) LevelFor(caster *Actor) uint8 {
	return a.Level
}

// ObjectUseCredit returns the advancement credit accrued for an object entry.
func (a *Actor) ObjectUseCredit(entry uint32) int {
	return a.usedObjects[entry]
}

// HasAppearance reports whether the display id is in the actor's collection.
func (a *Actor) HasAppearance(displayID uint32) bool {
	return a.collectedAppearances[displayID]
}

func (a *Actor) HasSelfResSpell(id uint32) bool {
	for _, s := range a.SelfResSpells {
		if s == id {
			return true
		}
	}
	return false
}

func (a *Actor) RemoveSelfResSpell(id uint32) {
	for i, s := range a.SelfResSpells {
		if s == id {
			a.SelfResSpells = append(a.SelfResSpells[:i], a.SelfResSpells[i+1:]...)
			return
		}
	}
}
