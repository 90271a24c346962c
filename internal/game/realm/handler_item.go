package realm

import (
	"runegate.gg/internal/game/catalogs"
	"runegate.gg/internal/game/loot"
	"runegate.gg/internal/protocol"
)

func (r *Realm) handleUseItem(s *Session, msg any) {
	req, ok := msg.(protocol.UseItemMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	user := r.ResolveEffectiveActor(s)
	if user == nil {
		r.metrics.silentDrop("remote_control")
		return
	}

	pos := ItemPos{Bag: req.Bag, Slot: req.Slot}
	item, tpl, authorized := r.authorizeUseItem(s, user, pos, req.ItemGUID)
	if !authorized {
		return
	}

	user.RemoveAurasOnItemUse()

	targets := targetsFrom(req.Cast.Target)
	// A script that claims the request must ack the client itself, or the
	// item sticks in its gray pending state.
	if r.scripts.OnItemUse(user, item, targets, req.Cast.CastID) {
		return
	}
	r.castItemUseSpells(s, user, item, tpl, req.Cast, targets)
}

// castItemUseSpells dispatches the item's on-use effects to the spell
// engine. The first effect carries the client correlation ack; follow-up
// effects ride along fully triggered.
func (r *Realm) castItemUseSpells(s *Session, user *Actor, item *Item, tpl *catalogs.ItemDef, req protocol.SpellCastRequest, targets Targets) {
	acked := false
	for _, spellID := range tpl.Effects {
		def := r.catalogs.Spell(spellID)
		if def == nil {
			continue
		}
		flags := TriggeredFull
		if !acked {
			flags = TriggeredNone
		}
		cast := r.engine.CreateCast(user, def, flags)
		cast.FromClient = true
		cast.Misc = req.Misc
		if !acked {
			s.SendSpellPrepare(req.CastID, cast.ID)
			acked = true
		}
		if targets.ItemGUID == 0 {
			targets.ItemGUID = item.GUID
		}
		r.engine.Prepare(cast, targets)
		user.setCurrentCast(cast)
		r.metrics.castCreated()
	}
}

func (r *Realm) handleOpenItem(s *Session, msg any) {
	req, ok := msg.(protocol.OpenItemMsg)
	if !ok {
		r.metrics.silentDrop("bad_payload")
		return
	}
	player := r.ResolveEffectiveActor(s)
	if player == nil {
		r.metrics.silentDrop("remote_control")
		return
	}

	pos := ItemPos{Bag: req.Bag, Slot: req.Slot}
	item, tpl, authorized := r.authorizeOpenItem(s, player, pos)
	if !authorized {
		return
	}

	if item.Wrapped {
		r.beginWrappedOpen(s, item)
		return
	}
	r.openLoot(s, player, item, tpl)
}

// openLoot serves the container's contents, generating them on first open.
// Generation happens at most once per item instance; later opens reuse the
// in-memory or persisted record.
func (r *Realm) openLoot(s *Session, player *Actor, item *Item, tpl *catalogs.ItemDef) {
	if !item.lootGenerated {
		if stored := r.loadStoredLoot(item); stored != nil {
			item.loot = stored
			item.lootGenerated = true
		} else {
			l := &loot.Loot{ContainerCounter: item.Counter()}
			l.Money = r.lootEng.GenerateMoneyLoot(tpl.MinMoneyLoot, tpl.MaxMoneyLoot)
			l.Items = r.lootEng.FillLoot(tpl.LootTable)
			item.loot = l
			item.lootGenerated = true

			// Empty loot is never persisted: trivially-empty containers
			// must not grow the store.
			if !l.Empty() && r.lootStore != nil {
				if err := r.lootStore.Persist(l); err != nil {
					r.log.Printf("persist loot for item %d: %v", item.GUID, err)
				}
			}
		}
	}

	if item.loot == nil {
		s.send(protocol.LootErrorMsg{Type: protocol.TypeLootError, OwnerGUID: item.GUID, Code: protocol.ErrNoLoot})
		return
	}
	resp := protocol.LootResponseMsg{
		Type:      protocol.TypeLootResponse,
		OwnerGUID: item.GUID,
		Money:     item.loot.Money,
	}
	for _, li := range item.loot.Items {
		if li.Looted {
			continue
		}
		resp.Items = append(resp.Items, protocol.LootItemRef{Entry: li.Entry, Count: li.Count})
	}
	s.send(resp)
}

func (r *Realm) loadStoredLoot(item *Item) *loot.Loot {
	if r.lootStore == nil {
		return nil
	}
	l, found, err := r.lootStore.Load(item.Counter())
	if err != nil {
		r.log.Printf("load stored loot for item %d: %v", item.GUID, err)
		return nil
	}
	if !found {
		return nil
	}
	return l
}
