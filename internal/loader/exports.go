// SPDX-License-Identifier: MPL-2.0

package loader

import (
	"encoding/json"
	"strings"
)

// conditions are tried in this order when an exports target is a
// conditions object. Go maps do not keep package.json key order, so the
// order is fixed here instead.
var conditions = []string{"node", "require", "import", "default"}

// resolveExports maps subpath ("." or "./x") through a package.json exports
// field. ok is false when the subpath is not exported.
func resolveExports(raw json.RawMessage, subpath string) (target string, ok bool) {
	var exports any
	if err := json.Unmarshal(raw, &exports); err != nil {
		return "", false
	}

	obj, isObj := exports.(map[string]any)
	if !isObj || !hasSubpathKeys(obj) {
		// Sugar: the whole value is the "." entry.
		if subpath != "." {
			return "", false
		}
		return resolveTarget(exports, "")
	}

	if v, found := obj[subpath]; found {
		return resolveTarget(v, "")
	}

	best, bestPrefix := "", -1
	for key := range obj {
		prefix, suffix, hasStar := strings.Cut(key, "*")
		if !hasStar || !strings.HasPrefix(subpath, prefix) || !strings.HasSuffix(subpath, suffix) {
			continue
		}
		if len(subpath) < len(prefix)+len(suffix) {
			continue
		}
		if len(prefix) > bestPrefix {
			best, bestPrefix = key, len(prefix)
		}
	}
	if bestPrefix < 0 {
		return "", false
	}
	prefix, suffix, _ := strings.Cut(best, "*")
	return resolveTarget(obj[best], subpath[len(prefix):len(subpath)-len(suffix)])
}

func hasSubpathKeys(obj map[string]any) bool {
	for k := range obj {
		if strings.HasPrefix(k, ".") {
			return true
		}
	}
	return false
}

// resolveTarget picks a file from an exports target. star replaces "*".
func resolveTarget(v any, star string) (string, bool) {
	switch t := v.(type) {
	case string:
		if !strings.HasPrefix(t, "./") {
			return "", false
		}
		return strings.ReplaceAll(t, "*", star), true
	case []any:
		for _, alt := range t {
			if target, ok := resolveTarget(alt, star); ok {
				return target, true
			}
		}
	case map[string]any:
		for _, cond := range conditions {
			if next, found := t[cond]; found {
				if target, ok := resolveTarget(next, star); ok {
					return target, true
				}
			}
		}
	}
	return "", false
}
