// Package confdiff works on partially specified configurations.
//
// A [Tree] is a nested map whose leaves are scalars or arrays. Any key may be
// missing at any depth, which makes the same type usable for sweep
// permutations, minimal stored diffs and merge overlays. [Prune] reduces a
// configuration to what differs from a baseline and [Merge] is its inverse:
//
//	diff := confdiff.Prune(candidate, reference)
//	full := confdiff.Merge(reference, diff) // equal to candidate
//
// Inputs are never modified; results share no memory with their arguments.
package confdiff

import (
	"reflect"
	"sort"
	"strings"

	"github.com/brunoga/deep"
	"github.com/spf13/cast"
)

// Tree is a configuration with every leaf optional.
type Tree map[string]any

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Tree:
		return m, true
	}
	return nil, false
}

func copyValue(v any) any {
	switch c := v.(type) {
	case map[string]any:
		return deep.MustCopy(c)
	case Tree:
		return deep.MustCopy(map[string]any(c))
	case []any:
		return deep.MustCopy(c)
	case []float64:
		return deep.MustCopy(c)
	}
	return v
}

// Merge overlays partial onto base. Nested maps are merged key by key;
// arrays and scalars in partial replace the base value wholesale.
func Merge(base, partial Tree) Tree {
	merged := Tree{}
	for k, v := range base {
		merged[k] = copyValue(v)
	}

	for k, v := range partial {
		pm, ok := asMap(v)
		if !ok {
			merged[k] = copyValue(v)
			continue
		}
		bm, _ := asMap(merged[k])
		merged[k] = map[string]any(Merge(bm, pm))
	}
	return merged
}

// Prune returns candidate without the leaves that equal the corresponding
// leaf of reference. When presets are given the result is pruned again
// against each of them in order, so values shared with any ancestor are
// removed. String leaves such as name and description are always kept and
// sections left empty are dropped.
func Prune(candidate, reference Tree, presets ...Tree) Tree {
	pruned := prune(deep.MustCopy(map[string]any(candidate)), reference)
	for _, p := range presets {
		pruned = prune(pruned, p)
	}
	if pruned == nil {
		return Tree{}
	}
	return Tree(pruned)
}

func prune(c, ref map[string]any) map[string]any {
	for k, v := range c {
		if _, ok := v.(string); ok {
			continue
		}

		rv, ok := ref[k]
		if !ok {
			if v == nil {
				delete(c, k)
			}
			continue
		}

		if cm, ok := asMap(v); ok {
			rm, ok := asMap(rv)
			if !ok {
				continue
			}
			sub := prune(cm, rm)
			if len(sub) == 0 {
				delete(c, k)
			} else {
				c[k] = sub
			}
			continue
		}

		if Equal(v, rv) {
			delete(c, k)
		}
	}
	return c
}

// Equal reports whether a and b are deeply equal. Numbers compare by value
// regardless of their Go type and arrays compare element-wise.
func Equal(a, b any) bool {
	if am, ok := asMap(a); ok {
		bm, ok := asMap(b)
		if !ok || len(am) != len(bm) {
			return false
		}
		for k, av := range am {
			bv, ok := bm[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}

	if as, ok := asSlice(a); ok {
		bs, ok := asSlice(b)
		if !ok || as.Len() != bs.Len() {
			return false
		}
		for i := 0; i < as.Len(); i++ {
			if !Equal(as.Index(i).Interface(), bs.Index(i).Interface()) {
				return false
			}
		}
		return true
	}

	if isNumber(a) && isNumber(b) {
		return cast.ToFloat64(a) == cast.ToFloat64(b)
	}
	return reflect.DeepEqual(a, b)
}

func asSlice(v any) (reflect.Value, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		return rv, true
	}
	return rv, false
}

func isNumber(v any) bool {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

// Set stores value at a dotted path such as "mixedLayer.beta", creating
// intermediate sections as needed.
func Set(t Tree, path string, value any) {
	keys := strings.Split(path, ".")
	cur := map[string]any(t)
	for _, k := range keys[:len(keys)-1] {
		next, ok := asMap(cur[k])
		if !ok {
			next = map[string]any{}
			cur[k] = next
		}
		cur = next
	}
	cur[keys[len(keys)-1]] = value
}

// SetString is Set for command line input: raw is stored as a number or a
// boolean when it parses as one and as a string otherwise.
func SetString(t Tree, path, raw string) {
	if f, err := cast.ToFloat64E(raw); err == nil {
		Set(t, path, f)
		return
	}
	if b, err := cast.ToBoolE(raw); err == nil {
		Set(t, path, b)
		return
	}
	Set(t, path, raw)
}

// Get returns the value stored at a dotted path.
func Get(t Tree, path string) (any, bool) {
	var cur any = map[string]any(t)
	for _, k := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[k]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Paths lists the dotted paths of every leaf in sorted order.
func Paths(t Tree) []string {
	var paths []string
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			if sub, ok := asMap(v); ok {
				walk(p, sub)
				continue
			}
			paths = append(paths, p)
		}
	}
	walk("", t)
	sort.Strings(paths)
	return paths
}
