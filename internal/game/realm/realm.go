package realm

import (
	"log"
	"sync/atomic"

	"runegate.gg/internal/game/catalogs"
	"runegate.gg/internal/game/loot"
)

type GUID = uint64

type RealmConfig struct {
	ID         string
	TickRateHz int
	InboxSize  int
}

// RequestEnvelope is one decoded client request bound to its issuing session.
type RequestEnvelope struct {
	SessionID string
	Type      string
	Msg       any
}

// JoinRequest attaches a new session to the realm loop.
type JoinRequest struct {
	Name string
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	SessionID string
	ActorGUID GUID
	Err       string
}

// GiftStore is the deferred persistence surface the continuation manager
// depends on. Implemented by chardb.
type GiftStore interface {
	// QueryGiftAsync resolves the gift row for an item counter off-loop and
	// invokes done exactly once from the executor goroutine.
	QueryGiftAsync(itemCounter uint64, done func(GiftResult))
	// CommitUnwrapAsync persists the inventory+gold snapshot and deletes the
	// consumed gift row in a single transaction.
	CommitUnwrapAsync(snap InventorySnapshot, giftCounter uint64)
}

type GiftResult struct {
	Found bool
	Entry uint32
	Flags uint32
	Err   error
}

// InventorySnapshot is a value-only copy of a player's persisted inventory
// state, safe to hand to the executor goroutine.
type InventorySnapshot struct {
	ActorGUID GUID
	Gold      uint64
	Items     []ItemRow
}

type ItemRow struct {
	Counter    uint64
	Entry      uint32
	Bag        uint8
	Slot       uint8
	Flags      uint32
	Durability uint32
	Wrapped    bool
	Bound      bool
}

// Realm is a single-threaded authoritative action gateway. All actor and
// session state must be accessed only from the realm loop goroutine.
type Realm struct {
	cfg      RealmConfig
	catalogs *catalogs.Catalogs

	tick atomic.Uint64

	sessions map[string]*Session
	actors   map[GUID]*Actor
	objects  map[GUID]*GameObject

	inbox        chan RequestEnvelope
	join         chan JoinRequest
	leave        chan string
	giftResolved chan giftResolved
	stop         chan struct{}

	nextGUID    atomic.Uint64
	nextSession atomic.Uint64

	engine    SpellEngine
	lootEng   *loot.Engine
	lootStore loot.Store
	gifts     GiftStore
	scripts   *ScriptRegistry
	audit     AuditLogger
	metrics   *Metrics
	log       *log.Logger
}

// AuditLogger receives integrity-fault and suspected-exploit records. May be
// a no-op in tests.
type AuditLogger interface {
	WriteAudit(e AuditEntry) error
}

type AuditEntry struct {
	Tick      uint64 `json:"t"`
	Kind      string `json:"kind"`
	SessionID string `json:"session_id,omitempty"`
	ActorGUID GUID   `json:"actor_guid,omitempty"`
	ActorName string `json:"actor_name,omitempty"`
	ItemGUID  GUID   `json:"item_guid,omitempty"`
	ItemEntry uint32 `json:"item_entry,omitempty"`
	SpellID   uint32 `json:"spell_id,omitempty"`
	Detail    string `json:"detail,omitempty"`
}

// Audit kinds.
const (
	AuditSuspectedExploit = "SUSPECTED_EXPLOIT"
	AuditIntegrityFault   = "INTEGRITY_FAULT"
	AuditUnknownPetSpell  = "UNKNOWN_PET_SPELL"
)

type Option func(*Realm)

func WithGiftStore(gs GiftStore) Option     { return func(r *Realm) { r.gifts = gs } }
func WithLootStore(ls loot.Store) Option    { return func(r *Realm) { r.lootStore = ls } }
func WithAuditLogger(a AuditLogger) Option  { return func(r *Realm) { r.audit = a } }
func WithSpellEngine(e SpellEngine) Option  { return func(r *Realm) { r.engine = e } }
func WithMetrics(m *Metrics) Option         { return func(r *Realm) { r.metrics = m } }
func WithLogger(l *log.Logger) Option       { return func(r *Realm) { r.log = l } }
func WithLootSeed(seed int64) Option        { return func(r *Realm) { r.lootEng = loot.NewEngine(seed) } }
func WithScripts(s *ScriptRegistry) Option  { return func(r *Realm) { r.scripts = s } }

func New(cfg RealmConfig, cats *catalogs.Catalogs, opts ...Option) (*Realm, error) {
	if cfg.TickRateHz <= 0 {
		cfg.TickRateHz = 20
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 4096
	}
	r := &Realm{
		cfg:      cfg,
		catalogs: cats,

		sessions: map[string]*Session{},
		actors:   map[GUID]*Actor{},
		objects:  map[GUID]*GameObject{},

		inbox:        make(chan RequestEnvelope, cfg.InboxSize),
		join:         make(chan JoinRequest, 16),
		leave:        make(chan string, 16),
		giftResolved: make(chan giftResolved, 64),
		stop:         make(chan struct{}),
	}
	for _, o := range opts {
		o(r)
	}
	if r.engine == nil {
		r.engine = newCastEngine(cats)
	}
	if r.lootEng == nil {
		r.lootEng = loot.NewEngine(0)
	}
	if r.scripts == nil {
		r.scripts = NewScriptRegistry()
	}
	if r.log == nil {
		r.log = log.New(log.Writer(), "[realm "+cfg.ID+"] ", log.LstdFlags)
	}
	if err := validateRequestDispatch(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Realm) ID() string   { return r.cfg.ID }
func (r *Realm) Tick() uint64 { return r.tick.Load() }

func (r *Realm) NewGUID() GUID {
	return GUID(r.nextGUID.Add(1))
}

// Submit queues a decoded request for the realm loop. Drops when the inbox
// is full; the client retries on its own.
func (r *Realm) Submit(env RequestEnvelope) bool {
	select {
	case r.inbox <- env:
		return true
	default:
		return false
	}
}

func (r *Realm) writeAudit(e AuditEntry) {
	if r.audit == nil {
		return
	}
	e.Tick = r.tick.Load()
	if err := r.audit.WriteAudit(e); err != nil {
		r.log.Printf("audit write: %v", err)
	}
}
