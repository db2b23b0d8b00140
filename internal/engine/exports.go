package engine

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

type packageJSON struct {
	Name    string          `json:"name"`
	Main    string          `json:"main"`
	Type    string          `json:"type"`
	Exports json.RawMessage `json:"exports"`
}

// loadPackageJSON reads and memoizes dir/package.json. A missing or
// malformed manifest memoizes as nil.
func (in *Instance) loadPackageJSON(dir string) *packageJSON {
	if pkg, seen := in.pkgCache[dir]; seen {
		return pkg
	}
	var pkg *packageJSON
	data, err := os.ReadFile(filepath.Join(dir, "package.json"))
	if err == nil {
		var decoded packageJSON
		if json.Unmarshal(data, &decoded) == nil {
			pkg = &decoded
		}
	}
	in.pkgCache[dir] = pkg
	return pkg
}

// keyed is one member of a JSON object with declaration order intact.
// Condition maps in "exports" are order-sensitive, so the usual
// map[string]any decode would be wrong.
type keyed struct {
	key   string
	value json.RawMessage
}

func decodeObject(raw json.RawMessage) ([]keyed, bool) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, false
	}
	var members []keyed
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := tok.(string)
		if !ok {
			return nil, false
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, false
		}
		members = append(members, keyed{key: key, value: value})
	}
	return members, true
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, bool) {
	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// resolveExports resolves a "./"-rooted subpath against a package.json
// "exports" value under the given conditions. Returns the relative
// target path and whether resolution succeeded.
//
// Supported shapes: a bare string ("." only), a subpath map (keys
// starting with "."), and condition maps, nested arbitrarily; subpath
// keys may carry one '*' wildcard; fallback arrays take the first
// entry that resolves. Condition keys are tried in declaration order,
// "default" always matches.
func resolveExports(exports json.RawMessage, subpath string, conditions []string) (string, bool) {
	if target, ok := decodeString(exports); ok {
		if subpath == "." {
			return target, true
		}
		return "", false
	}
	members, ok := decodeObject(exports)
	if !ok {
		if subpath == "." {
			return resolveTarget(exports, "", conditions)
		}
		return "", false
	}
	if len(members) > 0 && strings.HasPrefix(members[0].key, ".") {
		return resolveSubpathMap(members, subpath, conditions)
	}
	if subpath != "." {
		return "", false
	}
	return resolveConditions(members, "", conditions)
}

func resolveSubpathMap(members []keyed, subpath string, conditions []string) (string, bool) {
	// точное совпадение побеждает wildcard
	for _, m := range members {
		if m.key == subpath {
			return resolveTarget(m.value, "", conditions)
		}
	}
	// среди wildcard-ключей побеждает самый длинный префикс
	bestPrefix := -1
	var bestValue json.RawMessage
	bestCaptured := ""
	for _, m := range members {
		star := strings.IndexByte(m.key, '*')
		if star < 0 {
			continue
		}
		prefix, suffix := m.key[:star], m.key[star+1:]
		if len(subpath) < len(prefix)+len(suffix) {
			continue
		}
		if !strings.HasPrefix(subpath, prefix) || !strings.HasSuffix(subpath, suffix) {
			continue
		}
		if len(prefix) > bestPrefix {
			bestPrefix = len(prefix)
			bestValue = m.value
			bestCaptured = subpath[len(prefix) : len(subpath)-len(suffix)]
		}
	}
	if bestPrefix < 0 {
		return "", false
	}
	return resolveTarget(bestValue, bestCaptured, conditions)
}

// resolveTarget walks a target value (string, condition map, or
// fallback array) to a concrete relative path, substituting captured
// wildcard text.
func resolveTarget(target json.RawMessage, captured string, conditions []string) (string, bool) {
	if s, ok := decodeString(target); ok {
		if captured != "" {
			s = strings.Replace(s, "*", captured, 1)
		}
		return s, true
	}
	if members, ok := decodeObject(target); ok {
		return resolveConditions(members, captured, conditions)
	}
	if entries, ok := decodeArray(target); ok {
		for _, entry := range entries {
			if resolved, ok := resolveTarget(entry, captured, conditions); ok {
				return resolved, true
			}
		}
	}
	return "", false
}

func resolveConditions(members []keyed, captured string, conditions []string) (string, bool) {
	for _, m := range members {
		if m.key == "default" || hasCondition(conditions, m.key) {
			if resolved, ok := resolveTarget(m.value, captured, conditions); ok {
				return resolved, true
			}
		}
	}
	return "", false
}

func hasCondition(conditions []string, name string) bool {
	for _, c := range conditions {
		if c == name {
			return true
		}
	}
	return false
}
