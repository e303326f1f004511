package memory

import (
	"context"
	"sort"
	"strings"
)

// Keys lists the keys of store under namespace, sorted. An empty namespace
// lists every key.
func Keys(ctx context.Context, store Store, namespace string) ([]string, error) {
	all, err := store.List(ctx)
	if err != nil {
		return nil, err
	}

	prefix := namespace
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	keys := make([]string, 0, len(all))
	for _, k := range all {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Purge deletes every key under namespace and returns how many were removed.
func Purge(ctx context.Context, store Store, namespace string) (int, error) {
	keys, err := Keys(ctx, store, namespace)
	if err != nil {
		return 0, err
	}
	if len(keys) == 0 {
		return 0, nil
	}
	if err := store.Delete(ctx, keys...); err != nil {
		return 0, err
	}
	return len(keys), nil
}
