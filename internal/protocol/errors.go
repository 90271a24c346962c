package protocol

// Equip/cast denial codes. These mirror the client's own error table, so a
// code it does not know renders as a generic failure.
const (
	ErrItemNotFound        = "E_ITEM_NOT_FOUND"
	ErrPlayerDead          = "E_PLAYER_DEAD"
	ErrClientLockedOut     = "E_CLIENT_LOCKED_OUT"
	ErrItemLocked          = "E_ITEM_LOCKED"
	ErrNotDuringArenaMatch = "E_NOT_DURING_ARENA_MATCH"
	ErrNotInCombat         = "E_NOT_IN_COMBAT"
	ErrCantUse             = "E_CANT_USE"

	// Loot layer.
	ErrNoLoot = "E_NO_LOOT"

	// Pet feedback.
	PetFeedbackDead = "DEAD"
)

var knownCodes = map[string]struct{}{
	ErrItemNotFound:        {},
	ErrPlayerDead:          {},
	ErrClientLockedOut:     {},
	ErrItemLocked:          {},
	ErrNotDuringArenaMatch: {},
	ErrNotInCombat:         {},
	ErrCantUse:             {},
	ErrNoLoot:              {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
