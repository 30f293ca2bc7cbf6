// Package cart holds the session-scoped shopping cart. Carts live in
// Redis keyed by user id; they are never persisted relationally and a
// cancelled checkout leaves them untouched.
package cart

import (
	"errors"
	"time"
)

var ErrAlreadyInCart = errors.New("item already in cart")

// Item is one selectable project. Quantity is always 1: the cart has
// set semantics on the project id.
type Item struct {
	ProjectID  string    `json:"project_id"`
	Title      string    `json:"title"`
	PriceCents int       `json:"price_cents"`
	Quantity   int       `json:"quantity"`
	AddedAt    time.Time `json:"added_at"`
}

type Cart struct {
	UserID    string    `json:"user_id"`
	Items     []Item    `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Cart) Contains(projectID string) bool {
	for _, it := range c.Items {
		if it.ProjectID == projectID {
			return true
		}
	}
	return false
}

// Add appends the item unless it is already present, in which case the
// caller gets ErrAlreadyInCart to surface as a user notice.
func (c *Cart) Add(it Item) error {
	if c.Contains(it.ProjectID) {
		return ErrAlreadyInCart
	}
	it.Quantity = 1
	if it.AddedAt.IsZero() {
		it.AddedAt = time.Now().UTC()
	}
	c.Items = append(c.Items, it)
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// Remove drops the item by project id. Removing an absent id is a
// silent no-op.
func (c *Cart) Remove(projectID string) {
	for i, it := range c.Items {
		if it.ProjectID == projectID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.UpdatedAt = time.Now().UTC()
			return
		}
	}
}

func (c *Cart) Clear() {
	c.Items = nil
	c.UpdatedAt = time.Now().UTC()
}

func (c *Cart) TotalCents() int {
	total := 0
	for _, it := range c.Items {
		total += it.PriceCents
	}
	return total
}
