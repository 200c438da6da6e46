package cart

import (
	"sync"
	"time"

	"github.com/fjod/donation_cart/internal/domain"
	"github.com/shopspring/decimal"
)

// DefaultRecentlyAddedDelay matches how long the UI keeps the mini cart open.
const DefaultRecentlyAddedDelay = 100 * time.Millisecond

// Store holds the cart of one session. All transitions go through Reduce
// under the store lock.
type Store struct {
	id       string
	notifier Notifier
	delay    time.Duration

	mu       sync.Mutex
	state    domain.CartState
	lastUsed time.Time

	recentlyAdded bool
	generation    uint64
	timer         *time.Timer
}

type Option func(*Store)

func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithRecentlyAddedDelay sets how long the recently-added flag stays up.
func WithRecentlyAddedDelay(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.delay = d
		}
	}
}

func NewStore(id string, opts ...Option) *Store {
	s := &Store{
		id:       id,
		notifier: nopNotifier{},
		delay:    DefaultRecentlyAddedDelay,
		state:    Empty(),
		lastUsed: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) ID() string {
	return s.id
}

func (s *Store) AddItem(appeal domain.Appeal, amount decimal.Decimal, frequency domain.Frequency) (domain.CartState, error) {
	if err := ValidateAmount(amount); err != nil {
		s.notifier.AddRejected(s.id, appeal.ID, err)
		return s.State(), err
	}
	if !frequency.Valid() {
		s.notifier.AddRejected(s.id, appeal.ID, ErrInvalidFrequency)
		return s.State(), ErrInvalidFrequency
	}

	action := AddItem{Appeal: appeal, Amount: amount, Frequency: frequency}

	s.mu.Lock()
	s.state = Reduce(s.state, action)
	s.touch()
	s.armRecentlyAdded()
	snapshot := snapshotOf(s.state)
	item := snapshot.Items[indexOf(snapshot.Items, action.Key())]
	s.mu.Unlock()

	s.notifier.ItemAdded(s.id, item)
	return snapshot, nil
}

// RemoveItem and UpdateQuantity treat an amount AddItem would reject as an
// absent key.
func (s *Store) RemoveItem(appealID string, amount decimal.Decimal, frequency domain.Frequency) domain.CartState {
	if ValidateAmount(amount) != nil {
		return s.State()
	}
	return s.dispatch(RemoveItem{Key: domain.Key{AppealID: appealID, Amount: amount, Frequency: frequency}})
}

func (s *Store) UpdateQuantity(appealID string, amount decimal.Decimal, frequency domain.Frequency, quantity int) domain.CartState {
	if ValidateAmount(amount) != nil {
		return s.State()
	}
	return s.dispatch(UpdateQuantity{
		Key:      domain.Key{AppealID: appealID, Amount: amount, Frequency: frequency},
		Quantity: quantity,
	})
}

func (s *Store) ClearCart() domain.CartState {
	return s.dispatch(ClearCart{})
}

// Settle takes paid line items out of the cart. Quantities added to the same
// key after the snapshot was taken stay in the cart.
func (s *Store) Settle(paid []domain.LineItem) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range paid {
		key := item.Key()
		i := indexOf(s.state.Items, key)
		if i < 0 {
			continue
		}
		s.state = Reduce(s.state, UpdateQuantity{Key: key, Quantity: s.state.Items[i].Quantity - item.Quantity})
	}
	s.touch()
	return snapshotOf(s.state)
}

// State returns a copy callers may keep.
func (s *Store) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotOf(s.state)
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.ItemCount()
}

func (s *Store) RecentlyAdded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recentlyAdded
}

// Close cancels a pending recently-added reset.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.recentlyAdded = false
}

func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

func (s *Store) dispatch(action Action) domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, action)
	s.touch()
	return snapshotOf(s.state)
}

func (s *Store) touch() {
	s.lastUsed = time.Now()
}

// armRecentlyAdded must be called with s.mu held. Each arm bumps the
// generation so a timer from an earlier add cannot clear the flag.
func (s *Store) armRecentlyAdded() {
	if s.timer != nil {
		s.timer.Stop()
	}
	s.generation++
	gen := s.generation
	s.recentlyAdded = true
	s.timer = time.AfterFunc(s.delay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.generation != gen {
			return
		}
		s.recentlyAdded = false
		s.timer = nil
	})
}

func snapshotOf(state domain.CartState) domain.CartState {
	items := make([]domain.LineItem, len(state.Items))
	copy(items, state.Items)
	return domain.CartState{Items: items, Total: state.Total}
}
