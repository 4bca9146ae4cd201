package connection

// bagToken identifies a bag entry by pointer identity, so two keys never
// collide even if they share a name and value type.
type bagToken struct {
	name string
}

// Key is a typed accessor for a connection's item bag. Create one per piece
// of session state with NewKey and share it between the writer and readers:
//
//	var memberKey = connection.NewKey[string]("chat.member_id")
//
//	memberKey.Set(conn, member.ID)
//	id, ok := memberKey.Get(conn)
//
// The zero Key is not usable.
type Key[T any] struct {
	token *bagToken
}

// NewKey creates a bag key for values of type T. The name is used only for
// debugging; distinct keys are always distinct entries.
func NewKey[T any](name string) Key[T] {
	return Key[T]{token: &bagToken{name: name}}
}

// Get returns the value stored under the key, reporting whether it is set.
func (k Key[T]) Get(c *Connection) (T, bool) {
	c.bagMu.Lock()
	v, ok := c.bag[k.token]
	c.bagMu.Unlock()
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Set stores a value under the key, replacing any previous value.
func (k Key[T]) Set(c *Connection, v T) {
	c.bagMu.Lock()
	c.bag[k.token] = v
	c.bagMu.Unlock()
}

// Delete removes the key's value. No-op if absent.
func (k Key[T]) Delete(c *Connection) {
	c.bagMu.Lock()
	delete(c.bag, k.token)
	c.bagMu.Unlock()
}

// GetOrSet returns the stored value, or stores and returns the result of
// init. init is invoked at most once per key per connection, even under
// concurrent callers; losers observe the winner's value.
func (k Key[T]) GetOrSet(c *Connection, init func() T) T {
	c.bagMu.Lock()
	defer c.bagMu.Unlock()
	if v, ok := c.bag[k.token]; ok {
		return v.(T)
	}
	v := init()
	c.bag[k.token] = v
	return v
}
