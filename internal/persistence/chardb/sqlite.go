package chardb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	_ "modernc.org/sqlite"

	"runegate.gg/internal/game/realm"
)

// DB is the character database: gift records and inventory/gold state. All
// statements execute on a single writer goroutine; callers hand work in
// through channels and never touch the connection directly. Deferred query
// callbacks run on the writer goroutine — keep them tiny (post an envelope
// back to the realm loop).
type DB struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqGiftQuery reqKind = iota + 1
	reqUnwrap
	reqInsertGift
)

type req struct {
	kind reqKind

	counter uint64
	done    func(realm.GiftResult)

	snap        realm.InventorySnapshot
	giftCounter uint64

	entry uint32
	flags uint32
	errc  chan error
}

func Open(path string, queue int) (*DB, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if queue <= 0 {
		queue = 8192
	}
	d := &DB{
		db: db,
		ch: make(chan req, queue),
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.loop()
	}()
	return d, nil
}

func initPragmas(db *sql.DB) error {
	// WAL keeps the realm loop from ever waiting on a reader.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("pragma %q: %w", p, err)
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS character_gifts (
			item_counter INTEGER PRIMARY KEY,
			entry        INTEGER NOT NULL,
			flags        INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE TABLE IF NOT EXISTS character_inventory (
			item_counter INTEGER PRIMARY KEY,
			actor_guid   INTEGER NOT NULL,
			entry        INTEGER NOT NULL,
			bag          INTEGER NOT NULL,
			slot         INTEGER NOT NULL,
			flags        INTEGER NOT NULL DEFAULT 0,
			durability   INTEGER NOT NULL DEFAULT 0,
			wrapped      INTEGER NOT NULL DEFAULT 0,
			bound        INTEGER NOT NULL DEFAULT 0
		);`,
		`CREATE INDEX IF NOT EXISTS idx_inventory_actor ON character_inventory(actor_guid);`,
		`CREATE TABLE IF NOT EXISTS character_gold (
			actor_guid INTEGER PRIMARY KEY,
			gold       INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, s := range schema {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("schema: %w", err)
		}
	}
	return nil
}

func (d *DB) Close() error {
	var err error
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.ch)
		d.wg.Wait()
		err = d.db.Close()
	})
	return err
}

func (d *DB) loop() {
	for r := range d.ch {
		switch r.kind {
		case reqGiftQuery:
			r.done(d.selectGift(r.counter))
		case reqUnwrap:
			if err := d.commitUnwrap(r.snap, r.giftCounter); err != nil {
				// Nothing upstream can repair this; surface it loudly.
				fmt.Fprintf(os.Stderr, "chardb: commit unwrap for gift %d: %v\n", r.giftCounter, err)
			}
		case reqInsertGift:
			_, err := d.db.Exec(
				`INSERT OR REPLACE INTO character_gifts (item_counter, entry, flags) VALUES (?, ?, ?)`,
				int64(r.counter), int64(r.entry), int64(r.flags))
			if r.errc != nil {
				r.errc <- err
			}
		}
	}
}

// QueryGiftAsync implements realm.GiftStore. The fetch always completes and
// done always runs, even when the result is a miss.
func (d *DB) QueryGiftAsync(itemCounter uint64, done func(realm.GiftResult)) {
	if d.closed.Load() {
		done(realm.GiftResult{Err: fmt.Errorf("chardb closed")})
		return
	}
	d.ch <- req{kind: reqGiftQuery, counter: itemCounter, done: done}
}

func (d *DB) selectGift(counter uint64) realm.GiftResult {
	var entry, flags int64
	err := d.db.QueryRow(
		`SELECT entry, flags FROM character_gifts WHERE item_counter = ?`,
		int64(counter)).Scan(&entry, &flags)
	if err == sql.ErrNoRows {
		return realm.GiftResult{Found: false}
	}
	if err != nil {
		return realm.GiftResult{Err: err}
	}
	return realm.GiftResult{Found: true, Entry: uint32(entry), Flags: uint32(flags)}
}

// CommitUnwrapAsync implements realm.GiftStore: inventory+gold save and gift
// deletion in one transaction.
func (d *DB) CommitUnwrapAsync(snap realm.InventorySnapshot, giftCounter uint64) {
	if d.closed.Load() {
		return
	}
	d.ch <- req{kind: reqUnwrap, snap: snap, giftCounter: giftCounter}
}

func (d *DB) commitUnwrap(snap realm.InventorySnapshot, giftCounter uint64) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM character_inventory WHERE actor_guid = ?`, int64(snap.ActorGUID)); err != nil {
		return err
	}
	for _, it := range snap.Items {
		if _, err := tx.Exec(
			`INSERT INTO character_inventory
			 (item_counter, actor_guid, entry, bag, slot, flags, durability, wrapped, bound)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			int64(it.Counter), int64(snap.ActorGUID), int64(it.Entry),
			int64(it.Bag), int64(it.Slot), int64(it.Flags), int64(it.Durability),
			boolInt(it.Wrapped), boolInt(it.Bound)); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO character_gold (actor_guid, gold) VALUES (?, ?)
		 ON CONFLICT(actor_guid) DO UPDATE SET gold = excluded.gold`,
		int64(snap.ActorGUID), int64(snap.Gold)); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM character_gifts WHERE item_counter = ?`, int64(giftCounter)); err != nil {
		return err
	}
	return tx.Commit()
}

// InsertGift writes a gift row synchronously. Wrapping an item goes through
// the trade/mail layer in production; tests and tools use this.
func (d *DB) InsertGift(itemCounter uint64, entry, flags uint32) error {
	if d.closed.Load() {
		return fmt.Errorf("chardb closed")
	}
	errc := make(chan error, 1)
	d.ch <- req{kind: reqInsertGift, counter: itemCounter, entry: entry, flags: flags, errc: errc}
	return <-errc
}

// GiftExists reads outside the writer goroutine; sqlite WAL makes that safe.
func (d *DB) GiftExists(itemCounter uint64) (bool, error) {
	var n int64
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM character_gifts WHERE item_counter = ?`,
		int64(itemCounter)).Scan(&n)
	return n > 0, err
}

// InventoryGold returns the persisted gold for an actor (0 when absent).
func (d *DB) InventoryGold(actorGUID uint64) (uint64, error) {
	var g int64
	err := d.db.QueryRow(
		`SELECT gold FROM character_gold WHERE actor_guid = ?`, int64(actorGUID)).Scan(&g)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return uint64(g), err
}

// InventoryCount returns the number of persisted inventory rows for an actor.
func (d *DB) InventoryCount(actorGUID uint64) (int, error) {
	var n int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM character_inventory WHERE actor_guid = ?`, int64(actorGUID)).Scan(&n)
	return n, err
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
