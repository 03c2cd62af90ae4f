// Package storage holds the key-value persistence port used by the session
// state owners, with an in-memory and a gorm-backed implementation.
package storage

import "github.com/pkg/errors"

// Keys under which session state is persisted.
const (
	KeyCartItems = "cart-items"
	KeyFavorites = "favorites"
)

// ErrStoreClosed is returned by stores that were shut down.
var ErrStoreClosed = errors.New("store closed")

// Store is the persisted store contract. Get reports ok=false for an absent
// key; an error means the backend failed, not that the key is missing.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
}

// SessionKey namespaces a key for one storefront session.
func SessionKey(sessionID, key string) string {
	return sessionID + ":" + key
}
