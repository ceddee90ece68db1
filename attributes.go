package orm

// H is an unordered set of column values, used for input and snapshots.
type H map[string]Value

// Attributes is an ordered column -> Value bag. Keys keep the order of their
// first Set, which is also the column order of an INSERT.
type Attributes struct {
	keys []string
	vals map[string]Value
}

func NewAttributes() *Attributes {
	return &Attributes{vals: make(map[string]Value)}
}

func (a *Attributes) Get(key string) (Value, bool) {
	v, ok := a.vals[key]
	return v, ok
}

func (a *Attributes) Set(key string, v Value) {
	if _, ok := a.vals[key]; !ok {
		a.keys = append(a.keys, key)
	}
	a.vals[key] = v
}

func (a *Attributes) Keys() []string {
	return append([]string(nil), a.keys...)
}

func (a *Attributes) Len() int {
	return len(a.keys)
}

// Values returns the values of keys, in that order.
func (a *Attributes) Values(keys []string) []Value {
	out := make([]Value, len(keys))
	for i, k := range keys {
		out[i] = a.vals[k]
	}
	return out
}

func (a *Attributes) Clone() *Attributes {
	c := &Attributes{keys: a.Keys(), vals: make(map[string]Value, len(a.vals))}
	for k, v := range a.vals {
		c.vals[k] = v
	}
	return c
}

func (a *Attributes) H() H {
	out := make(H, len(a.vals))
	for k, v := range a.vals {
		out[k] = v
	}
	return out
}
