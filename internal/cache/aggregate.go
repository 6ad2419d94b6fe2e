package cache

import (
	"github.com/five82/homedash/internal/hosts"
)

// Tagged is one aggregated item together with the host that produced it.
type Tagged[T any] struct {
	Host hosts.Host `json:"host"`
	Item T          `json:"item"`
}

type naturalKeyer interface {
	NaturalKey() string
}

// Key returns "<host id>/<natural key>" when the item has a natural key and
// the bare host id otherwise. The host prefix keeps keys unique across
// hosts that report identical items.
func (t Tagged[T]) Key() string {
	if k, ok := any(t.Item).(naturalKeyer); ok {
		return t.Host.ID + "/" + k.NaturalKey()
	}
	if k, ok := any(&t.Item).(naturalKeyer); ok {
		return t.Host.ID + "/" + k.NaturalKey()
	}
	return t.Host.ID
}

// Collect merges the cached data of kind across every registered host, in
// registry order. Absent and errored entries are skipped. Entry data may be
// a T, a *T or a []T; anything else is ignored. Collect never fetches and
// never fails.
func Collect[T any](c *Cache, kind Kind) []Tagged[T] {
	hostList := c.reg.Hosts()
	if kind.Shared() {
		hostList = hostList[:1]
	}

	var out []Tagged[T]
	for _, h := range hostList {
		e := c.Peek(kind, h)
		if e.Absent() {
			continue
		}
		switch v := e.Data.(type) {
		case []T:
			for _, item := range v {
				out = append(out, Tagged[T]{Host: h, Item: item})
			}
		case T:
			out = append(out, Tagged[T]{Host: h, Item: v})
		case *T:
			if v != nil {
				out = append(out, Tagged[T]{Host: h, Item: *v})
			}
		}
	}
	return out
}

// Items strips the host tags.
func Items[T any](tagged []Tagged[T]) []T {
	if len(tagged) == 0 {
		return nil
	}
	out := make([]T, len(tagged))
	for i, t := range tagged {
		out[i] = t.Item
	}
	return out
}
