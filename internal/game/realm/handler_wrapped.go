package realm

// Wrapped-item resolution is the one two-phase operation in the gateway:
// authorization succeeds synchronously, then the gift record is fetched off
// the realm loop and the open resumes through the giftResolved channel. The
// continuation carries only value-captured identifiers; everything is
// re-validated at resume time because arbitrarily many other requests may
// have run during the suspension window.

type giftResolved struct {
	SessionID string
	Pos       ItemPos
	ItemGUID  GUID
	Res       GiftResult
}

func (r *Realm) beginWrappedOpen(s *Session, item *Item) {
	if r.gifts == nil {
		r.log.Printf("wrapped open for item %d with no gift store configured", item.GUID)
		return
	}
	// Captured by value: the live *Item must not outlive this call.
	key := giftResolved{
		SessionID: s.ID,
		Pos:       item.Pos,
		ItemGUID:  item.GUID,
	}
	r.gifts.QueryGiftAsync(item.Counter(), func(res GiftResult) {
		key.Res = res
		// The fetch always completes and this always runs, possibly as a
		// no-op after re-validation. There is no cancellation path.
		r.giftResolved <- key
	})
}

func (r *Realm) resumeWrappedOpen(g giftResolved) {
	s := r.sessions[g.SessionID]
	if s == nil || s.Player == nil {
		// Session disconnected while the fetch was outstanding.
		r.metrics.continuation("session_gone")
		return
	}
	player := s.Player

	item := player.ItemByPos(g.Pos)
	if item == nil || item.GUID != g.ItemGUID || !item.Wrapped {
		// The slot was reused, traded away or already unwrapped. Stale.
		r.metrics.continuation("stale")
		return
	}

	if g.Res.Err != nil {
		// Infrastructure failure, not a missing row: leave the item alone
		// and let the client retry the open.
		r.log.Printf("gift query for item %d: %v", g.ItemGUID, g.Res.Err)
		r.metrics.continuation("query_error")
		return
	}

	if !g.Res.Found {
		// A flagged-wrapped item without a gift row cannot happen through
		// any legal path. Destroy it rather than leave it half-wrapped.
		r.writeAudit(AuditEntry{
			Kind:      AuditIntegrityFault,
			SessionID: s.ID,
			ActorGUID: player.GUID,
			ItemGUID:  item.GUID,
			ItemEntry: item.Entry,
			Detail:    "wrapped item has no gift record, destroying",
		})
		player.DestroyItem(g.Pos)
		r.metrics.continuation("missing_gift")
		return
	}

	// Rewrite the item's identity to the gift's true contents.
	item.GiftCreator = 0
	item.Entry = g.Res.Entry
	item.Flags = g.Res.Flags
	item.Wrapped = false
	if tpl := r.catalogs.Item(item.Entry); tpl != nil {
		item.Durability = tpl.MaxDurability
	} else {
		r.writeAudit(AuditEntry{
			Kind:      AuditIntegrityFault,
			SessionID: s.ID,
			ItemGUID:  item.GUID,
			ItemEntry: item.Entry,
			Detail:    "gift resolved to unknown item entry",
		})
	}

	// Inventory/gold save and gift deletion commit as one transaction: a
	// crash between the two must not duplicate or orphan the gift.
	r.gifts.CommitUnwrapAsync(r.inventorySnapshot(player), uint64(g.ItemGUID))
	r.metrics.continuation("ok")
}
