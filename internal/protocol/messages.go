package protocol

// The transport decodes each wire frame into one of these records before
// handing it to the realm. Opcode numbers and framing are the transport's
// problem; the realm only ever sees typed records.

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionName     string `json:"session_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	SessionID       string `json:"session_id"`
	RealmID         string `json:"realm_id"`
	ActorGUID       uint64 `json:"actor_guid"`
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// MoveUpdate is the optional movement payload piggybacked on cast requests.
// The realm applies it as a MOVE_STOP before dispatching the cast.
type MoveUpdate struct {
	Pos    Position `json:"pos"`
	Facing float64  `json:"facing"`
}

// TargetDescriptor carries the client-supplied targets of a cast. All guids
// are hints: the realm re-resolves every one of them against live state.
type TargetDescriptor struct {
	UnitGUID   uint64    `json:"unit_guid,omitempty"`
	ObjectGUID uint64    `json:"object_guid,omitempty"`
	ItemGUID   uint64    `json:"item_guid,omitempty"`
	SrcPos     *Position `json:"src_pos,omitempty"`
	DstPos     *Position `json:"dst_pos,omitempty"`
}

// SpellCastRequest is the shared cast payload of USE_ITEM and CAST_SPELL.
// It is consumed by a single dispatch call and never outlives it.
type SpellCastRequest struct {
	SpellID    uint32           `json:"spell_id"`
	CastID     string           `json:"cast_id"` // client-assigned correlation id
	Misc       [2]uint32        `json:"misc,omitempty"`
	Target     TargetDescriptor `json:"target"`
	MoveUpdate *MoveUpdate      `json:"move_update,omitempty"`
}

type UseItemMsg struct {
	Type     string           `json:"type"`
	Bag      uint8            `json:"bag"`
	Slot     uint8            `json:"slot"`
	ItemGUID uint64           `json:"item_guid"`
	Cast     SpellCastRequest `json:"cast"`
}

type OpenItemMsg struct {
	Type string `json:"type"`
	Bag  uint8  `json:"bag"`
	Slot uint8  `json:"slot"`
}

type GameObjUseMsg struct {
	Type       string `json:"type"`
	ObjectGUID uint64 `json:"object_guid"`
}

type GameObjReportUseMsg struct {
	Type       string `json:"type"`
	ObjectGUID uint64 `json:"object_guid"`
}

type CastSpellMsg struct {
	Type string           `json:"type"`
	Cast SpellCastRequest `json:"cast"`
}

type CancelCastMsg struct {
	Type    string `json:"type"`
	CastID  string `json:"cast_id,omitempty"`
	SpellID uint32 `json:"spell_id"`
}

type CancelAuraMsg struct {
	Type       string `json:"type"`
	SpellID    uint32 `json:"spell_id"`
	CasterGUID uint64 `json:"caster_guid,omitempty"`
}

type PetCancelAuraMsg struct {
	Type    string `json:"type"`
	PetGUID uint64 `json:"pet_guid"`
	SpellID uint32 `json:"spell_id"`
}

type CancelGrowthAuraMsg struct {
	Type string `json:"type"`
}

type CancelMountAuraMsg struct {
	Type string `json:"type"`
}

type CancelModSpeedMsg struct {
	Type       string `json:"type"`
	TargetGUID uint64 `json:"target_guid"`
}

type CancelAutoRepeatMsg struct {
	Type string `json:"type"`
}

type CancelChannellingMsg struct {
	Type    string `json:"type"`
	SpellID uint32 `json:"spell_id"`
	Reason  int32  `json:"reason,omitempty"`
}

type TotemDestroyedMsg struct {
	Type      string `json:"type"`
	Slot      uint8  `json:"slot"`
	TotemGUID uint64 `json:"totem_guid"`
}

type SelfResMsg struct {
	Type    string `json:"type"`
	SpellID uint32 `json:"spell_id"`
}

type SpellClickMsg struct {
	Type     string `json:"type"`
	UnitGUID uint64 `json:"unit_guid"`
}

type MirrorImageDataMsg struct {
	Type     string `json:"type"`
	UnitGUID uint64 `json:"unit_guid"`
}

type MissileCollisionMsg struct {
	Type         string   `json:"type"`
	CasterGUID   uint64   `json:"caster_guid"`
	SpellID      uint32   `json:"spell_id"`
	CastID       string   `json:"cast_id"`
	CollisionPos Position `json:"collision_pos"`
}

type UpdateMissileMsg struct {
	Type       string      `json:"type"`
	CasterGUID uint64      `json:"caster_guid"`
	CastID     string      `json:"cast_id"`
	SpellID    uint32      `json:"spell_id"`
	Pitch      float64     `json:"pitch"`
	Speed      float64     `json:"speed"`
	FirePos    Position    `json:"fire_pos"`
	ImpactPos  Position    `json:"impact_pos"`
	MoveUpdate *MoveUpdate `json:"move_update,omitempty"`
}

type KeyboundOverrideMsg struct {
	Type       string `json:"type"`
	OverrideID uint32 `json:"override_id"`
}

// EQUIP_ERROR (server -> client): the client-visible denial record.
type EquipErrorMsg struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	ItemGUID uint64 `json:"item_guid,omitempty"`
}

// SPELL_PREPARE (server -> client): echoes the client cast id against the
// server-assigned one, sent before the cast's effects resolve.
type SpellPrepareMsg struct {
	Type         string `json:"type"`
	ClientCastID string `json:"client_cast_id"`
	ServerCastID string `json:"server_cast_id"`
}

type LootItemRef struct {
	Entry uint32 `json:"entry"`
	Count uint32 `json:"count"`
}

type LootResponseMsg struct {
	Type      string        `json:"type"`
	OwnerGUID uint64        `json:"owner_guid"`
	Money     uint32        `json:"money"`
	Items     []LootItemRef `json:"items,omitempty"`
}

type LootErrorMsg struct {
	Type      string `json:"type"`
	OwnerGUID uint64 `json:"owner_guid"`
	Code      string `json:"code"`
}

type MirrorImagePlayerMsg struct {
	Type           string   `json:"type"`
	UnitGUID       uint64   `json:"unit_guid"`
	DisplayID      uint32   `json:"display_id"`
	RaceID         uint8    `json:"race_id"`
	Gender         uint8    `json:"gender"`
	ClassID        uint8    `json:"class_id"`
	Customizations []uint32 `json:"customizations,omitempty"`
	GuildGUID      uint64   `json:"guild_guid,omitempty"`
	ItemDisplayIDs []uint32 `json:"item_display_ids"`
}

type MirrorImageCreatureMsg struct {
	Type      string `json:"type"`
	UnitGUID  uint64 `json:"unit_guid"`
	DisplayID uint32 `json:"display_id"`
}

// NOTIFY_MISSILE_TRAJECTORY_COLLISION: unsolicited broadcast to observers
// near the caster after a collision-driven destination change.
type MissileNotifyMsg struct {
	Type         string   `json:"type"`
	CasterGUID   uint64   `json:"caster_guid"`
	CastID       string   `json:"cast_id"`
	CollisionPos Position `json:"collision_pos"`
}

type PetActionFeedbackMsg struct {
	Type     string `json:"type"`
	PetGUID  uint64 `json:"pet_guid"`
	Response string `json:"response"`
}
