package realm

import "runegate.gg/internal/protocol"

const interactDistance = 5.0

// ObjectAI is the scripted brain of a world object. OnReportUse returning
// true consumes the report before advancement credit is granted.
type ObjectAI interface {
	OnReportUse(user *Actor) bool
}

// GameObject is a usable world object (door, chest, lever). The gateway
// validates interaction legality; the object's own Use hook owns the effect.
type GameObject struct {
	GUID  GUID
	Entry uint32
	Name  string
	Pos   protocol.Position

	// UsableMounted permits use while the player is mounted or seated.
	UsableMounted bool

	// LockSpellID is the spell a player may cast on this object without
	// knowing it (picking its lock).
	LockSpellID uint32

	AI    ObjectAI
	OnUse func(user *Actor)
}

func (r *Realm) AddObject(o *GameObject) {
	if o.GUID == 0 {
		o.GUID = r.NewGUID()
	}
	r.objects[o.GUID] = o
}

func (r *Realm) Object(guid GUID) *GameObject { return r.objects[guid] }

// objectIfCanInteract resolves a world object the actor can reach right now.
func (r *Realm) objectIfCanInteract(a *Actor, guid GUID) *GameObject {
	o := r.objects[guid]
	if o == nil {
		return nil
	}
	dx := a.Pos.X - o.Pos.X
	dy := a.Pos.Y - o.Pos.Y
	dz := a.Pos.Z - o.Pos.Z
	if dx*dx+dy*dy+dz*dz > interactDistance*interactDistance {
		return nil
	}
	return o
}

// spellForLock returns the object's lock-picking spell for the player, or
// nil. Unknown-spell casts matching this are allowed.
func (r *Realm) spellForLock(o *GameObject, p *Actor) uint32 {
	if o == nil {
		return 0
	}
	return o.LockSpellID
}
