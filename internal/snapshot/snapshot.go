// Package snapshot caches per-user read snapshots of the ledger.
//
// Dashboard reads take an immutable Snapshot and hand its slices to the
// calculator package. Every write path calls Invalidate for the affected user,
// so the next read reloads from the store.
package snapshot

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/mmynk/fintrack/internal/models"
)

// Snapshot is a consistent-enough view of one user's records.
// Callers must treat the slices as read-only.
type Snapshot struct {
	Incomes  []models.IncomeRecord
	Expenses []models.ExpenseRecord
	Goals    []models.SavingsGoal // including archived
	LoadedAt time.Time
}

// Loader is the subset of storage.Store a snapshot is built from.
type Loader interface {
	ListIncomes(ctx context.Context, userID uuid.UUID, period *models.Period) ([]models.IncomeRecord, error)
	ListExpenses(ctx context.Context, userID uuid.UUID, period *models.Period) ([]models.ExpenseRecord, error)
	ListGoals(ctx context.Context, userID uuid.UUID, includeArchived bool) ([]models.SavingsGoal, error)
}

type cacheItem struct {
	userID    uuid.UUID
	snap      *Snapshot
	expiresAt time.Time
}

// Cache is an LRU cache of snapshots with a TTL.
type Cache struct {
	loader      Loader
	maxSize     int
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time

	mu    sync.Mutex
	items map[uuid.UUID]*list.Element
	lru   *list.List
	gen   map[uuid.UUID]uint64

	group  singleflight.Group
	lookup *prometheus.CounterVec
}

// New creates a cache holding at most maxSize users for ttl each.
// lookups may be nil.
func New(loader Loader, maxSize int, ttl time.Duration, lookups *prometheus.CounterVec) *Cache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache{
		loader:      loader,
		maxSize:     maxSize,
		ttl:         ttl,
		loadTimeout: defaultLoadTimeout,
		now:         time.Now,
		items:       make(map[uuid.UUID]*list.Element),
		lru:         list.New(),
		gen:         make(map[uuid.UUID]uint64),
		lookup:      lookups,
	}
}

// defaultLoadTimeout bounds a shared load, which no single caller can cancel.
const defaultLoadTimeout = 30 * time.Second

// Get returns the user's snapshot, loading it on a miss.
// Concurrent misses for the same user share one load. A caller whose ctx ends
// stops waiting, but the load carries on for the others.
func (c *Cache) Get(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	snap, gen, ok := c.cached(userID)
	if ok {
		c.count("hit")
		return snap, nil
	}
	c.count("miss")

	key := fmt.Sprintf("%s/%d", userID, gen)
	ch := c.group.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		snap, err := c.load(lctx, userID)
		if err != nil {
			return nil, err
		}
		c.store(userID, gen, snap)
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Snapshot), nil
	}
}

// Invalidate drops the user's snapshot. Loads already in flight are not stored.
func (c *Cache) Invalidate(userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen[userID]++
	if elem, ok := c.items[userID]; ok {
		c.removeElement(elem)
	}
}

// CleanExpired removes expired snapshots and returns how many were removed.
func (c *Cache) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for elem := c.lru.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*cacheItem).expiresAt) {
			c.removeElement(elem)
			removed++
		}
		elem = prev
	}
	return removed
}

// Len returns the number of cached snapshots.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

func (c *Cache) cached(userID uuid.UUID) (*Snapshot, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	gen := c.gen[userID]
	elem, ok := c.items[userID]
	if !ok {
		return nil, gen, false
	}
	item := elem.Value.(*cacheItem)
	if c.now().After(item.expiresAt) {
		c.removeElement(elem)
		return nil, gen, false
	}
	c.lru.MoveToFront(elem)
	return item.snap, gen, true
}

// load reads the three record lists concurrently.
func (c *Cache) load(ctx context.Context, userID uuid.UUID) (*Snapshot, error) {
	snap := &Snapshot{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.Incomes, err = c.loader.ListIncomes(gctx, userID, nil)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Expenses, err = c.loader.ListExpenses(gctx, userID, nil)
		return err
	})
	g.Go(func() error {
		var err error
		snap.Goals, err = c.loader.ListGoals(gctx, userID, true)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	snap.LoadedAt = c.now()
	return snap, nil
}

func (c *Cache) store(userID uuid.UUID, gen uint64, snap *Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen[userID] != gen {
		return
	}

	item := &cacheItem{userID: userID, snap: snap, expiresAt: c.now().Add(c.ttl)}
	if elem, ok := c.items[userID]; ok {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}
	c.items[userID] = c.lru.PushFront(item)

	for c.lru.Len() > c.maxSize {
		c.removeElement(c.lru.Back())
	}
}

func (c *Cache) removeElement(elem *list.Element) {
	c.lru.Remove(elem)
	delete(c.items, elem.Value.(*cacheItem).userID)
}

func (c *Cache) count(result string) {
	if c.lookup != nil {
		c.lookup.WithLabelValues(result).Inc()
	}
}
