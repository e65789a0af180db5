package repositories

// KeyValueStore is a durable string store. Implementations never fail the caller:
// errors are logged and degrade to a miss or a no-op.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// Scoped prefixes every key, giving each owner its own area of a shared store.
type Scoped struct {
	store  KeyValueStore
	prefix string
}

func NewScoped(store KeyValueStore, owner string) *Scoped {
	return &Scoped{store: store, prefix: owner + ":"}
}

func (s *Scoped) Get(key string) (string, bool) {
	return s.store.Get(s.prefix + key)
}

func (s *Scoped) Set(key, value string) {
	s.store.Set(s.prefix+key, value)
}

func (s *Scoped) Remove(key string) {
	s.store.Remove(s.prefix + key)
}
