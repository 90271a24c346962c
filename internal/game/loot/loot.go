package loot

import (
	"math/rand"
	"sync"
	"time"

	"runegate.gg/internal/game/catalogs"
)

// Loot is the generated contents of one container item instance. Generated
// at most once per instance; reloaded from the store on later opens.
type Loot struct {
	ContainerCounter uint64 `json:"container_counter"`
	Money            uint32 `json:"money"`
	Items            []Item `json:"items,omitempty"`
}

type Item struct {
	Entry  uint32 `json:"entry"`
	Count  uint32 `json:"count"`
	Looted bool   `json:"looted,omitempty"`
}

func (l *Loot) UnlootedCount() int {
	n := 0
	for _, it := range l.Items {
		if !it.Looted {
			n++
		}
	}
	return n
}

// Empty reports whether there is nothing worth persisting: no money and no
// unlooted entries.
func (l *Loot) Empty() bool {
	return l.Money == 0 && l.UnlootedCount() == 0
}

// Store persists generated loot across opens (and restarts). Implementations
// must be safe for use from the realm loop goroutine only.
type Store interface {
	Load(containerCounter uint64) (*Loot, bool, error)
	Persist(l *Loot) error
	Delete(containerCounter uint64) error
}

// Engine rolls money and item drops. The probability model is deliberately
// simple; drop tables live in the item catalog.
type Engine struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine builds a roll engine; seed 0 picks a time-based seed.
func NewEngine(seed int64) *Engine {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{rng: rand.New(rand.NewSource(seed))}
}

// GenerateMoneyLoot rolls a uniform amount in [min, max]. Zero bounds yield
// zero money.
func (e *Engine) GenerateMoneyLoot(minMoney, maxMoney uint32) uint32 {
	if maxMoney == 0 || maxMoney < minMoney {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return minMoney + uint32(e.rng.Int63n(int64(maxMoney-minMoney)+1))
}

// FillLoot rolls each table entry independently.
func (e *Engine) FillLoot(table []catalogs.LootEntryDef) []Item {
	if len(table) == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Item
	for _, def := range table {
		if def.Chance < 100 && e.rng.Float64()*100 >= def.Chance {
			continue
		}
		count := def.MinCount
		if def.MaxCount > def.MinCount {
			count += uint32(e.rng.Int63n(int64(def.MaxCount-def.MinCount) + 1))
		}
		if count == 0 {
			count = 1
		}
		out = append(out, Item{Entry: def.Entry, Count: count})
	}
	return out
}
