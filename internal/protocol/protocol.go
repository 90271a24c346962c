package protocol

import "encoding/json"

const Version = "1.0"

// Client -> server message types.
const (
	TypeHello = "HELLO"

	TypeUseItem           = "USE_ITEM"
	TypeOpenItem          = "OPEN_ITEM"
	TypeGameObjUse        = "GAME_OBJ_USE"
	TypeGameObjReportUse  = "GAME_OBJ_REPORT_USE"
	TypeCastSpell         = "CAST_SPELL"
	TypeCancelCast        = "CANCEL_CAST"
	TypeCancelAura        = "CANCEL_AURA"
	TypePetCancelAura     = "PET_CANCEL_AURA"
	TypeCancelGrowthAura  = "CANCEL_GROWTH_AURA"
	TypeCancelMountAura   = "CANCEL_MOUNT_AURA"
	TypeCancelModSpeed    = "CANCEL_MOD_SPEED_NO_CONTROL"
	TypeCancelAutoRepeat  = "CANCEL_AUTO_REPEAT"
	TypeCancelChannelling = "CANCEL_CHANNELLING"
	TypeTotemDestroyed    = "TOTEM_DESTROYED"
	TypeSelfRes           = "SELF_RES"
	TypeSpellClick        = "SPELL_CLICK"
	TypeMirrorImageData   = "MIRROR_IMAGE_DATA"
	TypeMissileCollision  = "MISSILE_TRAJECTORY_COLLISION"
	TypeUpdateMissile     = "UPDATE_MISSILE_TRAJECTORY"
	TypeKeyboundOverride  = "KEYBOUND_OVERRIDE"
)

// Server -> client message types.
const (
	TypeWelcome             = "WELCOME"
	TypeEquipError          = "EQUIP_ERROR"
	TypeSpellPrepare        = "SPELL_PREPARE"
	TypeLootResponse        = "LOOT_RESPONSE"
	TypeLootError           = "LOOT_ERROR"
	TypeMirrorImagePlayer   = "MIRROR_IMAGE_PLAYER"
	TypeMirrorImageCreature = "MIRROR_IMAGE_CREATURE"
	TypeMissileNotify       = "NOTIFY_MISSILE_TRAJECTORY_COLLISION"
	TypePetActionFeedback   = "PET_ACTION_FEEDBACK"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}
