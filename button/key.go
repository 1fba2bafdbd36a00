package button

import "sort"

// Key identifies a button by name and address, independent of the register contents.
// It is comparable and can be used as map key.
type Key struct {
	Name string
	Addr byte
}

func (b *Button) Key() Key {
	return Key{Name: b.name, Addr: b.addr}
}

func (k Key) Less(other Key) bool {
	if k.Name != other.Name {
		return k.Name < other.Name
	}
	return k.Addr < other.Addr
}

// SortButtons orders the buttons by Key
func SortButtons(buttons []*Button) {
	sort.Slice(buttons, func(i, j int) bool {
		return buttons[i].Key().Less(buttons[j].Key())
	})
}
