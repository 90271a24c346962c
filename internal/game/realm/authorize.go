package realm

import (
	"runegate.gg/internal/game/catalogs"
	"runegate.gg/internal/protocol"
)

// The authorization checker runs each request kind through a fixed, ordered
// predicate chain. The first failing predicate determines the error code;
// later predicates never run. Predicates read live state only — any
// mutation they authorize happens on the same loop iteration.

type check[T any] struct {
	name string
	run  func(ctx T) string // "" continues the chain, anything else denies
}

// runChecks returns the first denial code and the name of the failing
// predicate, or ("", "") when the whole chain passes.
func runChecks[T any](checks []check[T], ctx T) (code string, failed string) {
	for _, c := range checks {
		if code := c.run(ctx); code != "" {
			return code, c.name
		}
	}
	return "", ""
}

type useItemContext struct {
	r    *Realm
	s    *Session
	user *Actor

	pos         ItemPos
	claimedGUID GUID

	// Filled in by lookup predicates as the chain progresses.
	item *Item
	tpl  *catalogs.ItemDef

	// errItem is the instance attached to a denial, when the failing
	// predicate is allowed to acknowledge the item exists.
	errItem *Item
}

var useItemChecks = []check[*useItemContext]{
	{name: "slot_identity", run: func(ctx *useItemContext) string {
		ctx.item = ctx.user.UseableItemByPos(ctx.pos)
		if ctx.item == nil {
			return protocol.ErrItemNotFound
		}
		if ctx.item.GUID != ctx.claimedGUID {
			// Deliberately the same generic code as a missing item, so a
			// probing client learns nothing about what occupies the slot.
			ctx.item = nil
			return protocol.ErrItemNotFound
		}
		return ""
	}},
	{name: "template", run: func(ctx *useItemContext) string {
		ctx.tpl = ctx.item.Template(ctx.r.catalogs)
		if ctx.tpl == nil {
			ctx.errItem = ctx.item
			return protocol.ErrItemNotFound
		}
		return ""
	}},
	{name: "equip_state", run: func(ctx *useItemContext) string {
		if ctx.tpl.InventoryType != catalogs.InvTypeNonEquip && !ctx.item.Equipped {
			ctx.errItem = ctx.item
			return protocol.ErrItemNotFound
		}
		return ""
	}},
	{name: "capability", run: func(ctx *useItemContext) string {
		if code := ctx.user.CanUseItem(ctx.item, ctx.tpl); code != "" {
			ctx.errItem = ctx.item
			return code
		}
		return ""
	}},
	{name: "consumable_arena", run: func(ctx *useItemContext) string {
		if ctx.tpl.Class == catalogs.ItemClassConsumable && !ctx.tpl.IgnoreArenaRestrictions && ctx.user.InArena {
			ctx.errItem = ctx.item
			return protocol.ErrNotDuringArenaMatch
		}
		return ""
	}},
	{name: "arena_ban", run: func(ctx *useItemContext) string {
		if ctx.tpl.NotUsableInArena && ctx.user.InArena {
			ctx.errItem = ctx.item
			return protocol.ErrNotDuringArenaMatch
		}
		return ""
	}},
	{name: "combat_effects", run: func(ctx *useItemContext) string {
		if !ctx.user.InCombat {
			return ""
		}
		// All-or-nothing: one combat-banned effect rejects the whole use.
		for _, spellID := range ctx.tpl.Effects {
			if def := ctx.r.catalogs.Spell(spellID); def != nil && !def.CanBeUsedInCombat() {
				ctx.errItem = ctx.item
				return protocol.ErrNotInCombat
			}
		}
		return ""
	}},
}

// authorizeUseItem runs the item-use chain and, on success, applies the
// binding-policy side effect. Binding here catches GM-granted items that
// skipped binding at acquisition; it is part of authorization success, not a
// dispatch effect.
func (r *Realm) authorizeUseItem(s *Session, user *Actor, pos ItemPos, claimed GUID) (*Item, *catalogs.ItemDef, bool) {
	ctx := &useItemContext{r: r, s: s, user: user, pos: pos, claimedGUID: claimed}
	if code, _ := runChecks(useItemChecks, ctx); code != "" {
		r.metrics.denial(protocol.TypeUseItem, code)
		s.SendEquipError(code, ctx.errItem)
		return nil, nil, false
	}

	switch ctx.tpl.Bonding {
	case catalogs.BindOnUse, catalogs.BindOnAcquire, catalogs.BindQuest:
		if !ctx.item.Bound {
			ctx.item.Bound = true
			r.addItemAppearance(user, ctx.item, ctx.tpl)
		}
	}
	return ctx.item, ctx.tpl, true
}

type openItemContext struct {
	r      *Realm
	s      *Session
	player *Actor

	pos ItemPos

	item *Item
	tpl  *catalogs.ItemDef

	errItem *Item
}

var openItemChecks = []check[*openItemContext]{
	{name: "alive", run: func(ctx *openItemContext) string {
		// The client shows its own message for dead state; this is the
		// authoritative backstop.
		if !ctx.player.Alive {
			return protocol.ErrPlayerDead
		}
		return ""
	}},
	{name: "exists", run: func(ctx *openItemContext) string {
		ctx.item = ctx.player.ItemByPos(ctx.pos)
		if ctx.item == nil {
			return protocol.ErrItemNotFound
		}
		return ""
	}},
	{name: "template", run: func(ctx *openItemContext) string {
		ctx.tpl = ctx.item.Template(ctx.r.catalogs)
		if ctx.tpl == nil {
			ctx.errItem = ctx.item
			return protocol.ErrItemNotFound
		}
		return ""
	}},
	{name: "openable", run: func(ctx *openItemContext) string {
		if !ctx.tpl.HasLoot && !ctx.item.Wrapped {
			// Only a modified client sends this; normal clients never offer
			// the open action on a non-openable item.
			ctx.r.writeAudit(AuditEntry{
				Kind:      AuditSuspectedExploit,
				SessionID: ctx.s.ID,
				ActorGUID: ctx.player.GUID,
				ActorName: ctx.player.Name,
				ItemGUID:  ctx.item.GUID,
				ItemEntry: ctx.item.Entry,
				Detail:    "open on non-openable item",
			})
			ctx.r.metrics.exploit()
			ctx.errItem = ctx.item
			return protocol.ErrClientLockedOut
		}
		return ""
	}},
	{name: "lock", run: func(ctx *openItemContext) string {
		lockID := ctx.tpl.LockID
		if lockID == 0 {
			return ""
		}
		if _, known := ctx.r.catalogs.Locks[lockID]; !known {
			// Live data referencing a lock the lock table does not know is
			// structurally impossible; reject and flag it.
			ctx.r.writeAudit(AuditEntry{
				Kind:      AuditIntegrityFault,
				SessionID: ctx.s.ID,
				ActorGUID: ctx.player.GUID,
				ItemGUID:  ctx.item.GUID,
				ItemEntry: ctx.item.Entry,
				Detail:    "unknown lock id",
			})
			ctx.errItem = ctx.item
			return protocol.ErrItemLocked
		}
		if ctx.item.Locked {
			ctx.errItem = ctx.item
			return protocol.ErrItemLocked
		}
		return ""
	}},
}

func (r *Realm) authorizeOpenItem(s *Session, player *Actor, pos ItemPos) (*Item, *catalogs.ItemDef, bool) {
	ctx := &openItemContext{r: r, s: s, player: player, pos: pos}
	if code, _ := runChecks(openItemChecks, ctx); code != "" {
		r.metrics.denial(protocol.TypeOpenItem, code)
		s.SendEquipError(code, ctx.errItem)
		return nil, nil, false
	}
	return ctx.item, ctx.tpl, true
}

// addItemAppearance registers the item's appearance in the player's
// collection, so a first use records the collectible even when binding was
// skipped at acquisition.
func (r *Realm) addItemAppearance(a *Actor, it *Item, tpl *catalogs.ItemDef) {
	if tpl.DisplayID == 0 {
		return
	}
	if a.collectedAppearances == nil {
		a.collectedAppearances = map[uint32]bool{}
	}
	a.collectedAppearances[tpl.DisplayID] = true
}
