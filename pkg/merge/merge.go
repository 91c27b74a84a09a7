// Package merge implements field-wise layering of optional override values
// on top of fully specified base values.
//
// An override type mirrors its base type with every field optional (a
// pointer, a pointer to a slice, or a map of nested overrides). A present
// field replaces the base field; an absent field keeps it. Merging never
// mutates its inputs.
package merge

// Override is implemented by every override counterpart of a settings type.
type Override[V any] interface {
	Apply(base V) V
}

// Value copies *over into *dst when over is present.
func Value[T any](dst *T, over *T) {
	if over != nil {
		*dst = *over
	}
}

// Pick composes two optional leaves: next wins when present.
func Pick[T any](prev, next *T) *T {
	if next != nil {
		v := *next
		return &v
	}
	if prev != nil {
		v := *prev
		return &v
	}
	return nil
}

// Slice treats a slice as a single leaf. A present override replaces the
// whole slice; the result never aliases either input.
func Slice[T any](base []T, over *[]T) []T {
	src := base
	if over != nil {
		src = *over
	}
	if src == nil {
		return nil
	}
	out := make([]T, len(src))
	copy(out, src)
	return out
}

// Apply folds overrides onto base from left to right.
func Apply[V any, O Override[V]](base V, overs ...O) V {
	for _, o := range overs {
		base = o.Apply(base)
	}
	return base
}

// Map merges over into a copy of base key by key. Keys already in base are
// merged in place; keys only in over start from fresh().
func Map[K comparable, V any, O Override[V]](base map[K]V, over map[K]O, fresh func() V) map[K]V {
	out := make(map[K]V, len(base)+len(over))
	for k, v := range base {
		out[k] = v
	}
	for k, o := range over {
		cur, ok := out[k]
		if !ok {
			cur = fresh()
		}
		out[k] = o.Apply(cur)
	}
	return out
}

// Compose combines two override maps key by key using then.
func Compose[K comparable, O any](prev, next map[K]O, then func(a, b O) O) map[K]O {
	if len(prev) == 0 && len(next) == 0 {
		return nil
	}
	out := make(map[K]O, len(prev)+len(next))
	for k, o := range prev {
		out[k] = o
	}
	for k, o := range next {
		if cur, ok := out[k]; ok {
			out[k] = then(cur, o)
			continue
		}
		out[k] = o
	}
	return out
}
