package realm

// ItemUseHook is a scripted interception point. Returning true means the
// script fully handled the use; the gateway then skips the normal cast. A
// script that claims the request must ack the client itself, or the item
// sticks in its gray pending state.
type ItemUseHook func(user *Actor, item *Item, targets Targets, castID string) bool

// ScriptRegistry maps item entries to hooks. Registration happens during
// startup; the realm loop only reads.
type ScriptRegistry struct {
	itemUse map[uint32][]ItemUseHook
}

func NewScriptRegistry() *ScriptRegistry {
	return &ScriptRegistry{itemUse: map[uint32][]ItemUseHook{}}
}

func (sr *ScriptRegistry) RegisterItemUse(entry uint32, h ItemUseHook) {
	sr.itemUse[entry] = append(sr.itemUse[entry], h)
}

// OnItemUse runs hooks in registration order; the first to claim the request
// wins.
func (sr *ScriptRegistry) OnItemUse(user *Actor, item *Item, targets Targets, castID string) bool {
	for _, h := range sr.itemUse[item.Entry] {
		if h(user, item, targets, castID) {
			return true
		}
	}
	return false
}
