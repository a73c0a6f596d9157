package set

import (
	"github.com/gofrs/uuid"
	jsonIter "github.com/json-iterator/go"
)

var json = jsonIter.ConfigFastest

// UUID a set of uuid.UUID
type UUID map[uuid.UUID]struct{}

// UUIDSetFromArray builds a set from a slice
func UUIDSetFromArray(arr []uuid.UUID) UUID {
	s := make(UUID, len(arr))
	s.Add(arr...)
	return s
}

// Add adds elements to the set
func (set UUID) Add(v ...uuid.UUID) {
	for _, v := range v {
		set[v] = struct{}{}
	}
}

// Remove removes elements from the set
func (set UUID) Remove(v ...uuid.UUID) {
	for _, v := range v {
		delete(set, v)
	}
}

// Contains reports whether v is in the set
func (set UUID) Contains(v uuid.UUID) bool {
	_, ok := set[v]
	return ok
}

// Array returns the elements as a slice
func (set UUID) Array() []uuid.UUID {
	arr := make([]uuid.UUID, 0, len(set))
	for e := range set {
		arr = append(arr, e)
	}
	return arr
}

// MarshalJSON implements encoding/json.Marshaler
func (set UUID) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Array())
}

// UnmarshalJSON implements encoding/json.Unmarshaler
func (set *UUID) UnmarshalJSON(data []byte) error {
	var value []uuid.UUID
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*set = UUIDSetFromArray(value)
	return nil
}
