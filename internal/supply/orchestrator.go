package supply

import (
	"context"
	"sync"

	"github.com/pders01/polarstock/internal/debuglog"
	"github.com/pders01/polarstock/internal/provider"
)

const (
	DefaultOverfetch       = 3
	DefaultAcquireAttempts = 2
)

type OrchestratorOptions struct {
	// Overfetch is how many candidates are requested per slot.
	Overfetch int
	// AcquireAttempts bounds re-acquisition when every candidate in a window
	// was already claimed by the same batch.
	AcquireAttempts int
}

// Orchestrator fills slots from the cache while keeping every photo in a
// batch unique. Batches run one at a time; slots inside a batch are filled in
// ascending id order.
type Orchestrator struct {
	mu         sync.Mutex
	cache      *QueryResultCache
	exclusions *ExclusionTracker
	overfetch  int
	attempts   int
	log        *debuglog.FieldLogger
}

func NewOrchestrator(cache *QueryResultCache, exclusions *ExclusionTracker, opts OrchestratorOptions) *Orchestrator {
	if opts.Overfetch < 1 {
		opts.Overfetch = DefaultOverfetch
	}
	if opts.AcquireAttempts < 1 {
		opts.AcquireAttempts = DefaultAcquireAttempts
	}
	if exclusions == nil {
		exclusions = NewExclusionTracker(DefaultExclusionCapacity, nil)
	}
	return &Orchestrator{
		cache:      cache,
		exclusions: exclusions,
		overfetch:  opts.Overfetch,
		attempts:   opts.AcquireAttempts,
		log:        debuglog.Component("orchestrator"),
	}
}

func (o *Orchestrator) Cache() *QueryResultCache {
	return o.cache
}

func (o *Orchestrator) Exclusions() *ExclusionTracker {
	return o.exclusions
}

// FillAll fills every slot that is neither locked nor deleted.
func (o *Orchestrator) FillAll(ctx context.Context, board *Board) *BatchResult {
	return o.run(ctx, board, nil)
}

// FillSlot refreshes one slot. Locked and deleted slots are left alone and
// yield an empty, successful result.
func (o *Orchestrator) FillSlot(ctx context.Context, board *Board, id int) *BatchResult {
	return o.run(ctx, board, []int{id})
}

// ChangeTopic switches the board to topic, drops the selection and refills
// every unlocked, live slot.
func (o *Orchestrator) ChangeTopic(ctx context.Context, board *Board, topic string) *BatchResult {
	board.SetTopic(topic)
	board.UnselectAll()
	return o.run(ctx, board, nil)
}

func (o *Orchestrator) run(ctx context.Context, board *Board, ids []int) *BatchResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	query := board.Query()
	result := &BatchResult{Query: query}
	result.Targets = board.beginBatch(ids)
	log := o.log.With("query", query)

	claimed := make(map[string]struct{}, len(result.Targets))
	for _, id := range result.Targets {
		photo, err := o.pick(ctx, query, claimed, board.currentID(id))
		if err != nil {
			board.abandonSlot(id)
			result.Errors = append(result.Errors, &SlotFillError{SlotID: id, Err: err})
			log.Warnf("slot %d not filled: %v", id, err)
			continue
		}
		claimed[photo.ID] = struct{}{}
		o.exclusions.Record(photo.ID)
		board.fillSlot(id, photo)
		result.Filled = append(result.Filled, id)
	}

	result.classify()

	if len(result.Filled) > 0 {
		if err := o.exclusions.Flush(); err != nil {
			log.Errorf("%v", err)
		}
	}

	log.Infof("batch done: %d/%d filled (%s)", len(result.Filled), len(result.Targets), result.Outcome)
	return result
}

// pick chooses a photo for one slot: unclaimed and unseen if possible, else
// merely unclaimed. The slot's current photo is never handed back to it.
func (o *Orchestrator) pick(ctx context.Context, query string, claimed map[string]struct{}, current string) (provider.Photo, error) {
	for attempt := 0; attempt < o.attempts; attempt++ {
		candidates := o.cache.Acquire(ctx, query, o.overfetch)
		if len(candidates) == 0 {
			break
		}

		var fallback *provider.Photo
		for i := range candidates {
			c := &candidates[i]
			if _, taken := claimed[c.ID]; taken || c.ID == current {
				continue
			}
			if !o.exclusions.Has(c.ID) {
				return *c, nil
			}
			if fallback == nil {
				fallback = c
			}
		}
		if fallback != nil {
			return *fallback, nil
		}
	}
	return provider.Photo{}, ErrNoCandidates
}
