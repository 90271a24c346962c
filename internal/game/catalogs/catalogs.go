package catalogs

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Catalogs is the static game data the gateway validates requests against:
// spell definitions, item templates, the lock table and keybound overrides.
// Loaded once at startup; read-only afterwards.
type Catalogs struct {
	Spells    map[uint32]*SpellDef
	Items     map[uint32]*ItemDef
	Locks     map[uint32]LockDef
	Overrides map[uint32]KeyboundOverrideDef
}

type spellsFile struct {
	Spells []*SpellDef `yaml:"spells"`
}

type itemsFile struct {
	Items []*ItemDef `yaml:"items"`
}

type locksFile struct {
	Locks []LockDef `yaml:"locks"`
}

type overridesFile struct {
	Overrides []KeyboundOverrideDef `yaml:"keybound_overrides"`
}

// SpellDef is one spell's validation-relevant shape. Effect resolution lives
// in the spell engine; the gateway only reads attributes and rank data.
type SpellDef struct {
	ID   uint32 `yaml:"id"`
	Name string `yaml:"name"`

	Passive    bool `yaml:"passive,omitempty"`
	Channeled  bool `yaml:"channeled,omitempty"`
	AutoRepeat bool `yaml:"auto_repeat,omitempty"`
	Positive   bool `yaml:"positive,omitempty"`

	// Attribute flags.
	NoAuraCancel    bool `yaml:"no_aura_cancel,omitempty"`
	BreakOnItemUse  bool `yaml:"break_on_item_use,omitempty"`
	NotInCombat     bool `yaml:"not_in_combat,omitempty"`
	RaidMarker      bool `yaml:"raid_marker,omitempty"`
	BypassNoResAura bool `yaml:"bypass_no_res_aura,omitempty"`
	PassengerCast   bool `yaml:"passenger_cast,omitempty"`

	// AuraCategory tags the aura this spell applies, if any. See the
	// AuraCategory* constants.
	AuraCategory string `yaml:"aura_category,omitempty"`

	// TriggerSpellID marks client-side periodic trigger auras: while this
	// aura is held, the client may legitimately cast TriggerSpellID without
	// knowing it.
	TriggerSpellID uint32 `yaml:"trigger_spell_id,omitempty"`

	// OverrideSpellID substitutes the actually-cast spell (cast overrides).
	OverrideSpellID uint32 `yaml:"override_spell_id,omitempty"`

	Ranks []SpellRank `yaml:"ranks,omitempty"`
}

// SpellRank is a level-scaled variant of a base spell.
type SpellRank struct {
	SpellID  uint32 `yaml:"spell_id"`
	MinLevel uint8  `yaml:"min_level"`
	MaxLevel uint8  `yaml:"max_level"`
}

// Aura categories the cancellation subsystem sweeps by.
const (
	AuraCategoryScale          = "SCALE"
	AuraCategoryMounted        = "MOUNTED"
	AuraCategorySpeedNoControl = "SPEED_NO_CONTROL"
	AuraCategoryCloneCaster    = "CLONE_CASTER"
	AuraCategoryPreventRes     = "PREVENT_RESURRECTION"
	AuraCategoryClientTrigger  = "PERIODIC_TRIGGER_FROM_CLIENT"
	AuraCategoryKeybound       = "KEYBOUND_OVERRIDE"
)

// Item classes and bonding policies.
const (
	ItemClassConsumable = "CONSUMABLE"
	ItemClassContainer  = "CONTAINER"
	ItemClassTradeGoods = "TRADE_GOODS"
	ItemClassArmor      = "ARMOR"
	ItemClassWeapon     = "WEAPON"

	BindNone      = "NONE"
	BindOnAcquire = "BIND_ON_ACQUIRE"
	BindOnEquip   = "BIND_ON_EQUIP"
	BindOnUse     = "BIND_ON_USE"
	BindQuest     = "BIND_QUEST"

	InvTypeNonEquip = "NON_EQUIP"
)

// ItemDef is an item template.
type ItemDef struct {
	Entry         uint32 `yaml:"entry"`
	Name          string `yaml:"name"`
	Class         string `yaml:"class"`
	InventoryType string `yaml:"inventory_type"`
	Bonding       string `yaml:"bonding,omitempty"`
	LockID        uint32 `yaml:"lock_id,omitempty"`
	DisplayID     uint32 `yaml:"display_id,omitempty"`
	MaxDurability uint32 `yaml:"max_durability,omitempty"`

	HasLoot                 bool `yaml:"has_loot,omitempty"`
	IgnoreArenaRestrictions bool `yaml:"ignore_arena_restrictions,omitempty"`
	NotUsableInArena        bool `yaml:"not_usable_in_arena,omitempty"`

	// Effects are the spells an item use dispatches.
	Effects []uint32 `yaml:"effects,omitempty"`

	// Loot generation inputs.
	MinMoneyLoot uint32         `yaml:"min_money_loot,omitempty"`
	MaxMoneyLoot uint32         `yaml:"max_money_loot,omitempty"`
	LootTable    []LootEntryDef `yaml:"loot_table,omitempty"`
}

type LootEntryDef struct {
	Entry    uint32  `yaml:"entry"`
	Chance   float64 `yaml:"chance"`
	MinCount uint32  `yaml:"min_count"`
	MaxCount uint32  `yaml:"max_count"`
}

// LockDef exists so a live lock id can be told apart from a corrupt one.
type LockDef struct {
	ID       uint32 `yaml:"id"`
	Name     string `yaml:"name,omitempty"`
	KeyEntry uint32 `yaml:"key_entry,omitempty"`
}

type KeyboundOverrideDef struct {
	ID      uint32 `yaml:"id"`
	SpellID uint32 `yaml:"spell_id"`
}

// Load reads all catalog files under dir.
func Load(dir string) (*Catalogs, error) {
	c := &Catalogs{
		Spells:    map[uint32]*SpellDef{},
		Items:     map[uint32]*ItemDef{},
		Locks:     map[uint32]LockDef{},
		Overrides: map[uint32]KeyboundOverrideDef{},
	}

	var sf spellsFile
	if err := loadYAML(filepath.Join(dir, "spells.yaml"), &sf); err != nil {
		return nil, err
	}
	for _, s := range sf.Spells {
		if _, dup := c.Spells[s.ID]; dup {
			return nil, fmt.Errorf("spells.yaml: duplicate spell id %d", s.ID)
		}
		c.Spells[s.ID] = s
	}

	var itf itemsFile
	if err := loadYAML(filepath.Join(dir, "items.yaml"), &itf); err != nil {
		return nil, err
	}
	for _, it := range itf.Items {
		if _, dup := c.Items[it.Entry]; dup {
			return nil, fmt.Errorf("items.yaml: duplicate item entry %d", it.Entry)
		}
		if it.Bonding == "" {
			it.Bonding = BindNone
		}
		c.Items[it.Entry] = it
	}

	var lf locksFile
	if err := loadYAML(filepath.Join(dir, "locks.yaml"), &lf); err != nil {
		return nil, err
	}
	for _, l := range lf.Locks {
		c.Locks[l.ID] = l
	}

	var of overridesFile
	if err := loadYAML(filepath.Join(dir, "overrides.yaml"), &of); err != nil {
		return nil, err
	}
	for _, o := range of.Overrides {
		c.Overrides[o.ID] = o
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func loadYAML(path string, v any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return nil
}

func (c *Catalogs) validate() error {
	for id, s := range c.Spells {
		for _, r := range s.Ranks {
			if _, ok := c.Spells[r.SpellID]; !ok {
				return fmt.Errorf("spell %d: rank references unknown spell %d", id, r.SpellID)
			}
			if r.MinLevel > r.MaxLevel {
				return fmt.Errorf("spell %d: rank %d has inverted level range", id, r.SpellID)
			}
		}
		if s.OverrideSpellID != 0 {
			if _, ok := c.Spells[s.OverrideSpellID]; !ok {
				return fmt.Errorf("spell %d: override references unknown spell %d", id, s.OverrideSpellID)
			}
		}
	}
	for entry, it := range c.Items {
		for _, eff := range it.Effects {
			if _, ok := c.Spells[eff]; !ok {
				return fmt.Errorf("item %d: effect references unknown spell %d", entry, eff)
			}
		}
	}
	for id, o := range c.Overrides {
		if _, ok := c.Spells[o.SpellID]; !ok {
			return fmt.Errorf("keybound override %d: unknown spell %d", id, o.SpellID)
		}
	}
	return nil
}

// Spell returns the definition for id, or nil.
func (c *Catalogs) Spell(id uint32) *SpellDef {
	return c.Spells[id]
}

// Item returns the template for entry, or nil.
func (c *Catalogs) Item(entry uint32) *ItemDef {
	return c.Items[entry]
}
