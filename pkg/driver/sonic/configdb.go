package sonic

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ConfigDB models a SONiC config_db dump: table -> entry key -> field -> value.
// Candidate payloads for the sonic driver are config_db JSON in exactly this
// shape, the same format `config save` produces on the device.
type ConfigDB map[string]map[string]map[string]string

// ParseConfigDB parses a config_db JSON dump.
func ParseConfigDB(text string) (ConfigDB, error) {
	db := ConfigDB{}
	if err := json.Unmarshal([]byte(text), &db); err != nil {
		return nil, fmt.Errorf("parsing config_db JSON: %w", err)
	}
	return db, nil
}

// Render serializes the database as indented JSON. Map keys marshal sorted,
// so two equal databases render byte-identical and diff cleanly.
func (db ConfigDB) Render() (string, error) {
	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

// Clone returns a deep copy.
func (db ConfigDB) Clone() ConfigDB {
	out := make(ConfigDB, len(db))
	for table, entries := range db {
		out[table] = make(map[string]map[string]string, len(entries))
		for key, fields := range entries {
			cp := make(map[string]string, len(fields))
			for f, v := range fields {
				cp[f] = v
			}
			out[table][key] = cp
		}
	}
	return out
}

// Overlay merges other into db: entries are added or have their fields
// overlaid, nothing is removed. This is the merge-candidate semantic.
func (db ConfigDB) Overlay(other ConfigDB) {
	for table, entries := range other {
		if db[table] == nil {
			db[table] = make(map[string]map[string]string, len(entries))
		}
		for key, fields := range entries {
			if db[table][key] == nil {
				db[table][key] = make(map[string]string, len(fields))
			}
			for f, v := range fields {
				db[table][key][f] = v
			}
		}
	}
}

// redisKeys returns the flattened "TABLE|key" Redis keys, sorted.
func (db ConfigDB) redisKeys() []string {
	var keys []string
	for table, entries := range db {
		for key := range entries {
			keys = append(keys, table+"|"+key)
		}
	}
	sort.Strings(keys)
	return keys
}

// fields returns the field map for a flattened Redis key.
func (db ConfigDB) fields(redisKey string) map[string]string {
	parts := strings.SplitN(redisKey, "|", 2)
	if len(parts) != 2 {
		return nil
	}
	return db[parts[0]][parts[1]]
}

// setEntry stores a field map under a flattened Redis key.
func (db ConfigDB) setEntry(redisKey string, fields map[string]string) {
	parts := strings.SplitN(redisKey, "|", 2)
	if len(parts) != 2 {
		return
	}
	if db[parts[0]] == nil {
		db[parts[0]] = make(map[string]map[string]string)
	}
	db[parts[0]][parts[1]] = fields
}
