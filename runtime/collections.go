package runtime

import (
	"math"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/emirpasic/gods/sets/hashset"
)

// mapKey normalizes a value under SameValueZero so it can index a Go map.
type mapKey struct {
	kind ValueType
	num  float64
	str  string
	ref  interface{}
}

func keyOf(v *Value) mapKey {
	switch v.Type {
	case TypeNumber, TypeFloat:
		f := v.ToNumber()
		if math.IsNaN(f) {
			return mapKey{kind: TypeNumber, str: "NaN"}
		}
		if f == 0 {
			f = 0
		}
		return mapKey{kind: TypeNumber, num: f}
	case TypeBoolean:
		if v.Bool {
			return mapKey{kind: TypeBoolean, num: 1}
		}
		return mapKey{kind: TypeBoolean}
	case TypeBigInt:
		return mapKey{kind: TypeBigInt, str: v.BigInt.String()}
	case TypeString:
		return mapKey{kind: TypeString, str: v.Str}
	case TypeSymbol:
		return mapKey{kind: TypeSymbol, ref: v.Symbol}
	case TypeObject:
		return mapKey{kind: TypeObject, ref: v.Object}
	}
	return mapKey{kind: v.Type}
}

type mapEntry struct {
	key   *Value
	value *Value
}

// OrderedMap backs Map and Set: SameValueZero keys in insertion order.
type OrderedMap struct {
	entries *linkedhashmap.Map
	version int
}

func NewOrderedMap() *OrderedMap {
	return &OrderedMap{entries: linkedhashmap.New()}
}

// Set inserts or updates key. Updating keeps the original position.
func (m *OrderedMap) Set(key, value *Value) {
	k := keyOf(key)
	if existing, ok := m.entries.Get(k); ok {
		existing.(*mapEntry).value = value
		return
	}
	if key.IsNumber() && key.ToNumber() == 0 {
		key = Zero
	}
	m.entries.Put(k, &mapEntry{key: key, value: value})
	m.version++
}

func (m *OrderedMap) Get(key *Value) (*Value, bool) {
	e, ok := m.entries.Get(keyOf(key))
	if !ok {
		return Undefined, false
	}
	return e.(*mapEntry).value, true
}

func (m *OrderedMap) Has(key *Value) bool {
	_, ok := m.entries.Get(keyOf(key))
	return ok
}

func (m *OrderedMap) Delete(key *Value) bool {
	k := keyOf(key)
	if _, ok := m.entries.Get(k); !ok {
		return false
	}
	m.entries.Remove(k)
	m.version++
	return true
}

func (m *OrderedMap) Clear() {
	m.entries.Clear()
	m.version++
}

func (m *OrderedMap) Size() int {
	return m.entries.Size()
}

// Entries returns a snapshot of key/value pairs.
func (m *OrderedMap) Entries() [][2]*Value {
	out := make([][2]*Value, 0, m.entries.Size())
	it := m.entries.Iterator()
	for it.Next() {
		e := it.Value().(*mapEntry)
		out = append(out, [2]*Value{e.key, e.value})
	}
	return out
}

// Cursor iterates live: entries added during iteration are visited and
// deleted entries are skipped.
func (m *OrderedMap) Cursor() func() (key, value *Value, ok bool) {
	seen := hashset.New()
	pos := 0
	version := m.version
	return func() (*Value, *Value, bool) {
		if version != m.version {
			pos = 0
			version = m.version
		}
		keys := m.entries.Keys()
		for pos < len(keys) {
			k := keys[pos]
			pos++
			if seen.Contains(k) {
				continue
			}
			seen.Add(k)
			e, ok := m.entries.Get(k)
			if !ok {
				continue
			}
			entry := e.(*mapEntry)
			return entry.key, entry.value, true
		}
		return nil, nil, false
	}
}

// ExportTable maps export names to live binding cells in declaration order.
type ExportTable struct {
	names *linkedhashmap.Map
}

func NewExportTable() *ExportTable {
	return &ExportTable{names: linkedhashmap.New()}
}

// Bind exports a live binding under name.
func (t *ExportTable) Bind(name string, b *Binding) {
	t.names.Put(name, b)
}

// Append exports b under name and moves name to the end of the export
// order.
func (t *ExportTable) Append(name string, b *Binding) {
	t.names.Remove(name)
	t.names.Put(name, b)
}

// SetValue exports a captured value under name.
func (t *ExportTable) SetValue(name string, v *Value) {
	t.names.Put(name, &Binding{Value: v, Kind: BindConst, Initialized: true})
}

// Binding returns the cell exported under name.
func (t *ExportTable) Binding(name string) (*Binding, bool) {
	b, ok := t.names.Get(name)
	if !ok {
		return nil, false
	}
	return b.(*Binding), true
}

// Get reads the current value exported under name.
func (t *ExportTable) Get(name string) (*Value, bool) {
	b, ok := t.Binding(name)
	if !ok {
		return Undefined, false
	}
	return b.Current(), true
}

func (t *ExportTable) Has(name string) bool {
	_, ok := t.names.Get(name)
	return ok
}

// Names lists export names in declaration order.
func (t *ExportTable) Names() []string {
	keys := t.names.Keys()
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.(string)
	}
	return out
}

func (t *ExportTable) Len() int {
	return t.names.Size()
}
