// Package join reconciles independently fetched collections in memory.
//
// Every function is O(n) in its inputs and never drops primary records:
// a foreign key that is empty or that does not resolve leaves the related
// slot nil so callers can render a sentinel instead.
package join

// NotAssigned is the display value for an unresolved relationship.
const NotAssigned = "Not assigned"

// Index builds key -> record. Later duplicates overwrite earlier ones.
func Index[T any, K comparable](items []T, key func(T) K) map[K]T {
	idx := make(map[K]T, len(items))
	for _, it := range items {
		idx[key(it)] = it
	}
	return idx
}

// Group builds key -> records, preserving input order within each group.
func Group[T any, K comparable](items []T, key func(T) K) map[K][]T {
	groups := make(map[K][]T)
	for _, it := range items {
		k := key(it)
		groups[k] = append(groups[k], it)
	}
	return groups
}

// Keys returns the distinct present foreign keys of items in first-seen
// order, ready for an In(...) fetch.
func Keys[T any, K comparable](items []T, fk func(T) (K, bool)) []K {
	seen := make(map[K]struct{}, len(items))
	keys := make([]K, 0, len(items))
	for _, it := range items {
		k, ok := fk(it)
		if !ok {
			continue
		}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// Attach returns a copy of primary where set has been called on every element
// with the related record found through fk, or nil when fk is absent or
// unresolved. The input slice is not modified and the output has the same
// length and order, so attaching again yields the same result.
func Attach[P any, R any, K comparable](primary []P, index map[K]R, fk func(P) (K, bool), set func(*P, *R)) []P {
	out := make([]P, len(primary))
	copy(out, primary)
	for i := range out {
		k, ok := fk(out[i])
		if !ok {
			set(&out[i], nil)
			continue
		}
		related, found := index[k]
		if !found {
			set(&out[i], nil)
			continue
		}
		r := related
		set(&out[i], &r)
	}
	return out
}

// Present adapts a nullable string foreign key for Keys and Attach.
func Present(id *string) (string, bool) {
	if id == nil || *id == "" {
		return "", false
	}
	return *id, true
}

// Required adapts a non-null string foreign key for Keys and Attach.
func Required(id string) (string, bool) {
	return id, id != ""
}

// NameOr returns name, or NotAssigned when it is blank.
func NameOr(name string) string {
	if name == "" {
		return NotAssigned
	}
	return name
}
