package realm

import (
	"runegate.gg/internal/game/catalogs"
	"runegate.gg/internal/game/loot"
	"runegate.gg/internal/protocol"
)

type ItemPos struct {
	Bag  uint8
	Slot uint8
}

// Item is one inventory-positioned item instance. The durable counter used
// by the persistence layer is the guid itself.
type Item struct {
	GUID  GUID
	Entry uint32
	Pos   ItemPos

	Equipped bool
	Bound    bool
	Locked   bool

	// Wrapped hides the item's true identity behind a gift record until the
	// open resolves.
	Wrapped     bool
	GiftCreator GUID

	Flags      uint32
	Durability uint32

	// Loot state. lootGenerated stays set even after the loot is emptied so
	// an instance never rolls twice.
	lootGenerated bool
	loot          *loot.Loot
}

func (i *Item) Counter() uint64 { return uint64(i.GUID) }

func (i *Item) Template(c *catalogs.Catalogs) *catalogs.ItemDef {
	return c.Item(i.Entry)
}

// AddItem places a new item instance into the actor's inventory.
func (r *Realm) AddItem(a *Actor, entry uint32, pos ItemPos) *Item {
	it := &Item{
		GUID:  r.NewGUID(),
		Entry: entry,
		Pos:   pos,
	}
	if tpl := r.catalogs.Item(entry); tpl != nil {
		it.Durability = tpl.MaxDurability
		if tpl.LockID != 0 {
			it.Locked = true
		}
	}
	a.items[pos] = it
	return it
}

// ItemByPos returns the item at (bag, slot), or nil.
func (a *Actor) ItemByPos(pos ItemPos) *Item {
	return a.items[pos]
}

// UseableItemByPos returns the item at (bag, slot) if it is in a state where
// a use request could address it at all.
func (a *Actor) UseableItemByPos(pos ItemPos) *Item {
	it := a.items[pos]
	if it == nil {
		return nil
	}
	return it
}

// DestroyItem removes the item at pos from existence.
func (a *Actor) DestroyItem(pos ItemPos) {
	delete(a.items, pos)
}

// CanUseItem is the actor-level capability check: dead actors and items the
// actor is not permitted to carry fail here.
func (a *Actor) CanUseItem(it *Item, tpl *catalogs.ItemDef) string {
	if !a.Alive {
		return protocol.ErrPlayerDead
	}
	return ""
}

// inventorySnapshot captures the persisted shape of the actor's inventory by
// value, safe to hand off the realm loop.
func (r *Realm) inventorySnapshot(a *Actor) InventorySnapshot {
	snap := InventorySnapshot{ActorGUID: a.GUID, Gold: a.Gold}
	for _, it := range a.items {
		snap.Items = append(snap.Items, ItemRow{
			Counter:    it.Counter(),
			Entry:      it.Entry,
			Bag:        it.Pos.Bag,
			Slot:       it.Pos.Slot,
			Flags:      it.Flags,
			Durability: it.Durability,
			Wrapped:    it.Wrapped,
			Bound:      it.Bound,
		})
	}
	return snap
}
