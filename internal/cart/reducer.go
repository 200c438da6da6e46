package cart

import (
	"github.com/fjod/donation_cart/internal/domain"
	"github.com/shopspring/decimal"
)

// Action is one of AddItem, RemoveItem, UpdateQuantity or ClearCart.
type Action interface {
	isAction()
}

type AddItem struct {
	Appeal    domain.Appeal
	Amount    decimal.Decimal
	Frequency domain.Frequency
}

type RemoveItem struct {
	Key domain.Key
}

type UpdateQuantity struct {
	Key      domain.Key
	Quantity int
}

type ClearCart struct{}

func (AddItem) isAction()        {}
func (RemoveItem) isAction()     {}
func (UpdateQuantity) isAction() {}
func (ClearCart) isAction()      {}

func (a AddItem) Key() domain.Key {
	return domain.Key{AppealID: a.Appeal.ID, Amount: a.Amount, Frequency: a.Frequency}
}

// Empty returns the state a session starts with.
func Empty() domain.CartState {
	return domain.CartState{Items: []domain.LineItem{}, Total: decimal.Zero}
}

// Reduce applies action to state and returns the next state. It never
// modifies state's item slice.
func Reduce(state domain.CartState, action Action) domain.CartState {
	switch a := action.(type) {
	case AddItem:
		return addItem(state, a)
	case RemoveItem:
		return removeItem(state, a.Key)
	case UpdateQuantity:
		if a.Quantity <= 0 {
			return removeItem(state, a.Key)
		}
		return updateQuantity(state, a.Key, a.Quantity)
	case ClearCart:
		return Empty()
	default:
		return state
	}
}

func addItem(state domain.CartState, a AddItem) domain.CartState {
	key := a.Key()
	if idx := indexOf(state.Items, key); idx >= 0 {
		items := clone(state.Items)
		items[idx].Quantity++
		return withItems(items)
	}

	items := make([]domain.LineItem, len(state.Items), len(state.Items)+1)
	copy(items, state.Items)
	items = append(items, domain.LineItem{
		AppealID:  a.Appeal.ID,
		Amount:    a.Amount,
		Frequency: a.Frequency,
		Quantity:  1,
		Appeal:    a.Appeal,
	})
	return withItems(items)
}

func removeItem(state domain.CartState, key domain.Key) domain.CartState {
	items := make([]domain.LineItem, 0, len(state.Items))
	for _, item := range state.Items {
		if item.Key().Matches(key) {
			continue
		}
		items = append(items, item)
	}
	return withItems(items)
}

func updateQuantity(state domain.CartState, key domain.Key, quantity int) domain.CartState {
	idx := indexOf(state.Items, key)
	if idx < 0 {
		return withItems(clone(state.Items))
	}
	items := clone(state.Items)
	items[idx].Quantity = quantity
	return withItems(items)
}

func indexOf(items []domain.LineItem, key domain.Key) int {
	for i, item := range items {
		if item.Key().Matches(key) {
			return i
		}
	}
	return -1
}

func clone(items []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, len(items))
	copy(out, items)
	return out
}

// withItems is the only place a state is built, so Total always follows Items.
func withItems(items []domain.LineItem) domain.CartState {
	return domain.CartState{Items: items, Total: domain.TotalOf(items)}
}
