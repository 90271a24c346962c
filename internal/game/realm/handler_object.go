package realm

import (
	"runegate.gg/internal/game/catalogs"
	"runegate.gg/internal/protocol"
)

func (r *Realm) handleGameObjUse(s *Session, msg any) {
	req, ok := msg.(protocol.GameObjUseMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := s.Player
	if player == nil {
		return
	}
	obj := r.objectIfCanInteract(player, req.ObjectGUID)
	if obj == nil {
		r.metrics.silentDrop("no_object")
		return
	}

	// Remote control normally invalidates the use, except from a vehicle
	// seat or mount when the object allows mounted use.
	if player.MovedAs != player.GUID {
		mounted := player.IsOnVehicle(player.MovedAs) || player.HasAuraCategory(catalogs.AuraCategoryMounted)
		if !mounted && !obj.UsableMounted {
			r.metrics.silentDrop("remote_control")
			return
		}
	}

	if obj.OnUse != nil {
		obj.OnUse(player)
	}
}

func (r *Realm) handleGameObjReportUse(s *Session, msg any) {
	req, ok := msg.(protocol.GameObjReportUseMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := r.ResolveEffectiveActor(s)
	if player == nil {
		r.metrics.silentDrop("remote_control")
		return
	}
	obj := r.objectIfCanInteract(player, req.ObjectGUID)
	if obj == nil {
		r.metrics.silentDrop("no_object")
		return
	}
	if obj.AI != nil && obj.AI.OnReportUse(player) {
		return
	}
	r.creditObjectUse(player, obj.Entry)
}

// creditObjectUse grants advancement credit for using the object.
func (r *Realm) creditObjectUse(a *Actor, entry uint32) {
	if a.usedObjects == nil {
		a.usedObjects = map[uint32]int{}
	}
	a.usedObjects[entry]++
}
