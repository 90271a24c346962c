package realm

import (
	"testing"

	"runegate.gg/internal/protocol"
)

func useItemMsg(it *Item, spellID uint32) protocol.UseItemMsg {
	return protocol.UseItemMsg{
		Type:     protocol.TypeUseItem,
		Bag:      it.Pos.Bag,
		Slot:     it.Pos.Slot,
		ItemGUID: it.GUID,
		Cast:     protocol.SpellCastRequest{SpellID: spellID, CastID: "c-1"},
	}
}

func TestUseItem_HappyPath(t *testing.T) {
	f := newFixture(t)
	it := f.r.AddItem(f.player, 1000, ItemPos{Bag: 0, Slot: 1})

	f.r.handleUseItem(f.sess, useItemMsg(it, 100))

	m := recv(t, f.out)
	if m["type"] != protocol.TypeSpellPrepare {
		t.Fatalf("expected SPELL_PREPARE, got %v", m["type"])
	}
	if m["client_cast_id"] != "c-1" {
		t.Fatalf("client cast id not echoed: %v", m["client_cast_id"])
	}
	if f.player.CurrentCast(CastGeneric) == nil {
		t.Fatalf("expected an in-flight generic cast")
	}
}

func TestUseItem_GUIDMismatchLooksLikeMissingItem(t *testing.T) {
	f := newFixture(t)
	it := f.r.AddItem(f.player, 1000, ItemPos{Bag: 0, Slot: 1})

	msg := useItemMsg(it, 100)
	msg.ItemGUID = it.GUID + 999

	f.r.handleUseItem(f.sess, msg)

	m := expectEquipError(t, f.out, protocol.ErrItemNotFound)
	// The probe must not learn what occupies the slot.
	if _, leaked := m["item_guid"]; leaked {
		t.Fatalf("guid mismatch leaked the slot's item: %v", m)
	}

	// An empty slot yields the same bytes apart from position.
	msg.Slot = 9
	f.r.handleUseItem(f.sess, msg)
	m2 := expectEquipError(t, f.out, protocol.ErrItemNotFound)
	if _, leaked := m2["item_guid"]; leaked {
		t.Fatalf("empty slot attached an item guid: %v", m2)
	}
}

func TestUseItem_DeadPlayer(t *testing.T) {
	f := newFixture(t)
	it := f.r.AddItem(f.player, 1000, ItemPos{Bag: 0, Slot: 1})
	f.player.Alive = false

	f.r.handleUseItem(f.sess, useItemMsg(it, 100))
	expectEquipError(t, f.out, protocol.ErrPlayerDead)
}

func TestUseItem_ArenaConsumable(t *testing.T) {
	f := newFixture(t)
	f.player.InArena = true

	it := f.r.AddItem(f.player, 1000, ItemPos{Bag: 0, Slot: 1})
	f.r.handleUseItem(f.sess, useItemMsg(it, 100))
	expectEquipError(t, f.out, protocol.ErrNotDuringArenaMatch)

	// The exemption flag lifts the consumable restriction.
	exempt := f.r.AddItem(f.player, 1002, ItemPos{Bag: 0, Slot: 2})
	f.r.handleUseItem(f.sess, useItemMsg(exempt, 100))
	if m := recv(t, f.out); m["type"] != protocol.TypeSpellPrepare {
		t.Fatalf("exempt consumable denied: %v", m)
	}

	// The explicit arena ban holds regardless of class.
	banned := f.r.AddItem(f.player, 1301, ItemPos{Bag: 0, Slot: 3})
	f.r.handleUseItem(f.sess, useItemMsg(banned, 100))
	expectEquipError(t, f.out, protocol.ErrNotDuringArenaMatch)
}

func TestUseItem_CombatEffectsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	f.player.InCombat = true

	// Item 1001's only effect is combat-banned.
	it := f.r.AddItem(f.player, 1001, ItemPos{Bag: 0, Slot: 1})
	f.r.handleUseItem(f.sess, useItemMsg(it, 101))
	expectEquipError(t, f.out, protocol.ErrNotInCombat)
	if f.player.CurrentCast(CastGeneric) != nil {
		t.Fatalf("combat-denied use still produced a cast")
	}

	// A combat-legal effect set goes through.
	ok := f.r.AddItem(f.player, 1000, ItemPos{Bag: 0, Slot: 2})
	f.r.handleUseItem(f.sess, useItemMsg(ok, 100))
	if m := recv(t, f.out); m["type"] != protocol.TypeSpellPrepare {
		t.Fatalf("combat-legal use denied: %v", m)
	}
}

func TestUseItem_BindOnUse(t *testing.T) {
	f := newFixture(t)
	it := f.r.AddItem(f.player, 1300, ItemPos{Bag: 0, Slot: 1})
	it.Equipped = true

	if it.Bound {
		t.Fatalf("item pre-bound")
	}
	f.r.handleUseItem(f.sess, useItemMsg(it, 540))
	drain(f.out)

	if !it.Bound {
		t.Fatalf("bind-on-use item not bound by first use")
	}
	if !f.player.HasAppearance(7010) {
		t.Fatalf("binding did not record the appearance")
	}
}

func TestUseItem_UnequippedEquippable(t *testing.T) {
	f := newFixture(t)
	it := f.r.AddItem(f.player, 1300, ItemPos{Bag: 0, Slot: 1})
	// Not equipped: equip-slot items must be worn to be used.
	f.r.handleUseItem(f.sess, useItemMsg(it, 540))
	expectEquipError(t, f.out, protocol.ErrItemNotFound)
}

func TestUseItem_BreaksFlaggedAuras(t *testing.T) {
	f := newFixture(t)
	f.r.ApplyAura(f.player, 540, f.player.GUID, 0) // break-on-item-use
	f.r.ApplyAura(f.player, 300, f.player.GUID, 0) // unrelated

	it := f.r.AddItem(f.player, 1000, ItemPos{Bag: 0, Slot: 1})
	f.r.handleUseItem(f.sess, useItemMsg(it, 100))
	drain(f.out)

	for _, au := range f.player.Auras() {
		if au.SpellID == 540 {
			t.Fatalf("break-on-item-use aura survived an item use")
		}
	}
	if len(f.player.Auras()) != 1 {
		t.Fatalf("unrelated aura was swept: %d left", len(f.player.Auras()))
	}
}

func TestUseItem_ScriptHookShortCircuits(t *testing.T) {
	f := newFixture(t)
	claimed := false
	f.r.scripts.RegisterItemUse(1000, func(user *Actor, item *Item, targets Targets, castID string) bool {
		claimed = true
		return true
	})

	it := f.r.AddItem(f.player, 1000, ItemPos{Bag: 0, Slot: 1})
	f.r.handleUseItem(f.sess, useItemMsg(it, 100))

	if !claimed {
		t.Fatalf("script hook not invoked")
	}
	// The claiming script owns the ack; the gateway must not cast.
	expectNoOutbound(t, f.out)
	if f.player.CurrentCast(CastGeneric) != nil {
		t.Fatalf("claimed use still produced a cast")
	}
}

func TestUseItem_RemoteControlDrops(t *testing.T) {
	f := newFixture(t)
	it := f.r.AddItem(f.player, 1000, ItemPos{Bag: 0, Slot: 1})
	f.player.MovedAs = f.player.GUID + 7

	f.r.handleUseItem(f.sess, useItemMsg(it, 100))
	expectNoOutbound(t, f.out)
}
