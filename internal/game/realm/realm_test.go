package realm

import (
	"encoding/json"
	"testing"

	"runegate.gg/internal/game/catalogs"
	"runegate.gg/internal/game/loot"
	"runegate.gg/internal/protocol"
)

// testCatalogs builds an in-memory catalog with the fixtures the handler
// tests lean on. Built directly so catalog file parsing stays out of these
// tests.
func testCatalogs() *catalogs.Catalogs {
	c := &catalogs.Catalogs{
		Spells:    map[uint32]*catalogs.SpellDef{},
		Items:     map[uint32]*catalogs.ItemDef{},
		Locks:     map[uint32]catalogs.LockDef{},
		Overrides: map[uint32]catalogs.KeyboundOverrideDef{},
	}

	addSpell := func(s *catalogs.SpellDef) { c.Spells[s.ID] = s }
	addSpell(&catalogs.SpellDef{ID: 100, Name: "heal", Positive: true})
	addSpell(&catalogs.SpellDef{ID: 101, Name: "focus", Positive: true, NotInCombat: true})
	addSpell(&catalogs.SpellDef{ID: 200, Name: "drain", Channeled: true})
	addSpell(&catalogs.SpellDef{ID: 201, Name: "autoshot", AutoRepeat: true})
	addSpell(&catalogs.SpellDef{ID: 202, Name: "locked channel", Channeled: true, NoAuraCancel: true})
	addSpell(&catalogs.SpellDef{ID: 300, Name: "growth", Positive: true, AuraCategory: catalogs.AuraCategoryScale})
	addSpell(&catalogs.SpellDef{ID: 301, Name: "mount", Positive: true, AuraCategory: catalogs.AuraCategoryMounted})
	addSpell(&catalogs.SpellDef{ID: 302, Name: "dash", Positive: true, AuraCategory: catalogs.AuraCategorySpeedNoControl})
	addSpell(&catalogs.SpellDef{ID: 303, Name: "mirror", Positive: true, AuraCategory: catalogs.AuraCategoryCloneCaster})
	addSpell(&catalogs.SpellDef{ID: 304, Name: "grave chill", AuraCategory: catalogs.AuraCategoryPreventRes})
	addSpell(&catalogs.SpellDef{ID: 305, Name: "stormwatch", Positive: true,
		AuraCategory: catalogs.AuraCategoryClientTrigger, TriggerSpellID: 306})
	addSpell(&catalogs.SpellDef{ID: 306, Name: "stormwatch bolt"})
	addSpell(&catalogs.SpellDef{ID: 307, Name: "attunement", Positive: true, AuraCategory: catalogs.AuraCategoryKeybound})
	addSpell(&catalogs.SpellDef{ID: 310, Name: "sticky ward", Positive: true, NoAuraCancel: true})
	addSpell(&catalogs.SpellDef{ID: 311, Name: "curse"}) // negative
	addSpell(&catalogs.SpellDef{ID: 312, Name: "toughness", Passive: true, Positive: true})
	addSpell(&catalogs.SpellDef{ID: 400, Name: "soulstone", Positive: true})
	addSpell(&catalogs.SpellDef{ID: 401, Name: "last rites", Positive: true, BypassNoResAura: true})
	addSpell(&catalogs.SpellDef{ID: 500, Name: "firebolt",
		Ranks: []catalogs.SpellRank{
			{SpellID: 500, MinLevel: 1, MaxLevel: 10},
			{SpellID: 501, MinLevel: 11, MaxLevel: 20},
		}})
	addSpell(&catalogs.SpellDef{ID: 501, Name: "firebolt II"})
	addSpell(&catalogs.SpellDef{ID: 510, Name: "shadow word", OverrideSpellID: 511})
	addSpell(&catalogs.SpellDef{ID: 511, Name: "shadow word: ruin"})
	addSpell(&catalogs.SpellDef{ID: 520, Name: "cannon blast", PassengerCast: true})
	addSpell(&catalogs.SpellDef{ID: 540, Name: "contemplation", Positive: true, BreakOnItemUse: true})
	addSpell(&catalogs.SpellDef{ID: 550, Name: "pick lock"})
	addSpell(&catalogs.SpellDef{ID: 560, Name: "raid beacon", Positive: true, RaidMarker: true})

	c.Items[1000] = &catalogs.ItemDef{Entry: 1000, Name: "draught",
		Class: catalogs.ItemClassConsumable, InventoryType: catalogs.InvTypeNonEquip,
		Bonding: catalogs.BindNone, Effects: []uint32{100}}
	c.Items[1001] = &catalogs.ItemDef{Entry: 1001, Name: "scroll",
		Class: catalogs.ItemClassConsumable, InventoryType: catalogs.InvTypeNonEquip,
		Bonding: catalogs.BindNone, Effects: []uint32{101}}
	c.Items[1002] = &catalogs.ItemDef{Entry: 1002, Name: "banner",
		Class: catalogs.ItemClassConsumable, InventoryType: catalogs.InvTypeNonEquip,
		Bonding: catalogs.BindNone, IgnoreArenaRestrictions: true, Effects: []uint32{100}}
	c.Items[1100] = &catalogs.ItemDef{Entry: 1100, Name: "crate",
		Class: catalogs.ItemClassContainer, InventoryType: catalogs.InvTypeNonEquip,
		Bonding: catalogs.BindNone, HasLoot: true, MinMoneyLoot: 10, MaxMoneyLoot: 10}
	c.Items[1101] = &catalogs.ItemDef{Entry: 1101, Name: "lockbox",
		Class: catalogs.ItemClassContainer, InventoryType: catalogs.InvTypeNonEquip,
		Bonding: catalogs.BindNone, HasLoot: true, LockID: 10, MaxMoneyLoot: 10}
	c.Items[1102] = &catalogs.ItemDef{Entry: 1102, Name: "corrupt box",
		Class: catalogs.ItemClassContainer, InventoryType: catalogs.InvTypeNonEquip,
		Bonding: catalogs.BindNone, HasLoot: true, LockID: 99}
	c.Items[1103] = &catalogs.ItemDef{Entry: 1103, Name: "empty shell",
		Class: catalogs.ItemClassContainer, InventoryType: catalogs.InvTypeNonEquip,
		Bonding: catalogs.BindNone, HasLoot: true}
	c.Items[1200] = &catalogs.ItemDef{Entry: 1200, Name: "scrap",
		Class: catalogs.ItemClassTradeGoods, InventoryType: catalogs.InvTypeNonEquip,
		Bonding: catalogs.BindNone}
	c.Items[1300] = &catalogs.ItemDef{Entry: 1300, Name: "band",
		Class: catalogs.ItemClassArmor, InventoryType: "FINGER",
		Bonding: catalogs.BindOnUse, DisplayID: 7010, Effects: []uint32{540}}
	c.Items[1301] = &catalogs.ItemDef{Entry: 1301, Name: "arena banned",
		Class: catalogs.ItemClassTradeGoods, InventoryType: catalogs.InvTypeNonEquip,
		Bonding: catalogs.BindNone, NotUsableInArena: true, Effects: []uint32{100}}
	c.Items[1400] = &catalogs.ItemDef{Entry: 1400, Name: "gifted sword",
		Class: catalogs.ItemClassWeapon, InventoryType: "MAIN_HAND",
		Bonding: catalogs.BindNone, MaxDurability: 45}

	c.Locks[10] = catalogs.LockDef{ID: 10, Name: "rusted"}
	c.Overrides[1] = catalogs.KeyboundOverrideDef{ID: 1, SpellID: 306}
	return c
}

// memAudit records audit entries in memory.
type memAudit struct {
	entries []AuditEntry
}

func (m *memAudit) WriteAudit(e AuditEntry) error {
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAudit) lastKind() string {
	if len(m.entries) == 0 {
		return ""
	}
	return m.entries[len(m.entries)-1].Kind
}

// memLootStore is a loot.Store backed by a map, counting persists.
type memLootStore struct {
	stored   map[uint64]*loot.Loot
	persists int
}

func newMemLootStore() *memLootStore {
	return &memLootStore{stored: map[uint64]*loot.Loot{}}
}

func (m *memLootStore) Load(counter uint64) (*loot.Loot, bool, error) {
	l, ok := m.stored[counter]
	return l, ok, nil
}

func (m *memLootStore) Persist(l *loot.Loot) error {
	m.persists++
	m.stored[l.ContainerCounter] = l
	return nil
}

func (m *memLootStore) Delete(counter uint64) error {
	delete(m.stored, counter)
	return nil
}

// memGiftStore resolves gift queries from a map. Callbacks run inline, which
// posts to the realm's giftResolved channel; tests drain it with pumpGift.
type memGiftStore struct {
	gifts    map[uint64]GiftResult
	queryErr error

	commits []commitRecord
}

type commitRecord struct {
	Snap        InventorySnapshot
	GiftCounter uint64
}

func newMemGiftStore() *memGiftStore {
	return &memGiftStore{gifts: map[uint64]GiftResult{}}
}

func (m *memGiftStore) QueryGiftAsync(counter uint64, done func(GiftResult)) {
	if m.queryErr != nil {
		done(GiftResult{Err: m.queryErr})
		return
	}
	res, ok := m.gifts[counter]
	if !ok {
		done(GiftResult{Found: false})
		return
	}
	res.Found = true
	done(res)
}

func (m *memGiftStore) CommitUnwrapAsync(snap InventorySnapshot, giftCounter uint64) {
	m.commits = append(m.commits, commitRecord{Snap: snap, GiftCounter: giftCounter})
}

type fixture struct {
	r      *Realm
	audit  *memAudit
	loots  *memLootStore
	gifts  *memGiftStore
	sess   *Session
	player *Actor
	out    chan []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	audit := &memAudit{}
	loots := newMemLootStore()
	gifts := newMemGiftStore()
	r, err := New(RealmConfig{ID: "test"}, testCatalogs(),
		WithAuditLogger(audit),
		WithLootStore(loots),
		WithGiftStore(gifts),
		WithLootSeed(42),
	)
	if err != nil {
		t.Fatalf("realm: %v", err)
	}

	out := make(chan []byte, 64)
	r.handleJoin(JoinRequest{Name: "tester", Out: out})
	var sess *Session
	for _, s := range r.sessions {
		sess = s
	}
	if sess == nil {
		t.Fatalf("no session after join")
	}
	drain(out) // welcome

	return &fixture{
		r:      r,
		audit:  audit,
		loots:  loots,
		gifts:  gifts,
		sess:   sess,
		player: sess.Player,
		out:    out,
	}
}

// pumpGift advances one resolved gift continuation into the realm, the way
// the loop would.
func (f *fixture) pumpGift(t *testing.T) {
	t.Helper()
	select {
	case g := <-f.r.giftResolved:
		f.r.resumeWrappedOpen(g)
	default:
		t.Fatalf("no gift continuation pending")
	}
}

func drain(out chan []byte) {
	for {
		select {
		case <-out:
		default:
			return
		}
	}
}

// recv decodes the next outbound frame into a generic map.
func recv(t *testing.T, out chan []byte) map[string]any {
	t.Helper()
	select {
	case b := <-out:
		var m map[string]any
		if err := json.Unmarshal(b, &m); err != nil {
			t.Fatalf("decode outbound: %v", err)
		}
		return m
	default:
		t.Fatalf("expected an outbound message")
		return nil
	}
}

func expectNoOutbound(t *testing.T, out chan []byte) {
	t.Helper()
	select {
	case b := <-out:
		t.Fatalf("unexpected outbound message: %s", b)
	default:
	}
}

func expectEquipError(t *testing.T, out chan []byte, code string) map[string]any {
	t.Helper()
	m := recv(t, out)
	if m["type"] != protocol.TypeEquipError {
		t.Fatalf("expected %s, got %v", protocol.TypeEquipError, m["type"])
	}
	if m["code"] != code {
		t.Fatalf("expected code %s, got %v", code, m["code"])
	}
	return m
}
