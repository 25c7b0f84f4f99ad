package surrealdb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdb "github.com/surrealdb/surrealdb.go"
)

// queryResult mirrors one statement's result inside a multi-statement
// SurrealQL query.
type queryResult struct {
	Status string                   `json:"status"`
	Result []map[string]interface{} `json:"result"`
}

func (s *Store) query(ctx context.Context, q string, params map[string]interface{}) ([]queryResult, error) {
	result, err := sdb.Query[[]map[string]interface{}](ctx, s.db, q, params)
	if err != nil {
		return nil, err
	}
	out := make([]queryResult, 0)
	if result != nil {
		for _, qr := range *result {
			out = append(out, queryResult{Status: qr.Status, Result: qr.Result})
		}
	}
	return out, nil
}

// rows flattens every OK statement's rows from a multi-statement query
// into one slice, normalizing SurrealDB's wire shapes as it goes.
func rows(results []queryResult) []map[string]interface{} {
	out := make([]map[string]interface{}, 0)
	for _, r := range results {
		if r.Status != "OK" {
			continue
		}
		out = append(out, r.Result...)
	}
	return normalizeAll(out)
}

func firstRow(results []queryResult) (map[string]interface{}, bool) {
	r := rows(results)
	if len(r) == 0 {
		return nil, false
	}
	return r[0], true
}

func decode[T any](rowsIn []map[string]interface{}) ([]T, error) {
	if len(rowsIn) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(rowsIn)
	if err != nil {
		return nil, fmt.Errorf("surrealdb: marshal rows: %w", err)
	}
	var out []T
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("surrealdb: decode rows: %w", err)
	}
	return out, nil
}

// normalizeAll recursively rewrites SurrealDB's RecordID/Datetime wire
// objects into plain strings so json.Unmarshal into our domain structs
// works without driver-specific types leaking out of this package.
func normalizeAll(v interface{}) []map[string]interface{} {
	out := make([]map[string]interface{}, 0)
	if rs, ok := v.([]map[string]interface{}); ok {
		for _, r := range rs {
			if n, ok := normalizeValue(r).(map[string]interface{}); ok {
				out = append(out, n)
			}
		}
	}
	return out
}

func normalizeValue(data interface{}) interface{} {
	switch v := data.(type) {
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = normalizeValue(item)
		}
		return result
	case map[string]interface{}:
		if dt, ok := v["Datetime"]; ok && len(v) == 1 {
			if s, ok := dt.(string); ok {
				return s
			}
		}
		if id, hasID := v["ID"]; hasID {
			if tb, hasTB := v["Table"]; hasTB && len(v) == 2 {
				return fmt.Sprintf("%v:%v", tb, id)
			}
		}
		if id, hasID := v["id"]; hasID {
			if tb, hasTB := v["tb"]; hasTB && len(v) == 2 {
				return fmt.Sprintf("%v:%v", tb, id)
			}
		}
		result := make(map[string]interface{}, len(v))
		for k, val := range v {
			result[k] = normalizeValue(val)
		}
		return result
	default:
		return data
	}
}

// recordID extracts a SurrealDB "table:id" string from whatever shape
// the driver handed back for an id field.
func recordID(id interface{}) string {
	if id == nil {
		return ""
	}
	if s, ok := id.(string); ok {
		return s
	}
	if m, ok := id.(map[string]interface{}); ok {
		if tb, ok := m["Table"]; ok {
			if rid, ok := m["ID"]; ok {
				return fmt.Sprintf("%v:%v", tb, rid)
			}
		}
	}
	s := fmt.Sprintf("%v", id)
	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		inner := strings.Trim(s, "{}")
		parts := strings.SplitN(inner, " ", 2)
		if len(parts) == 2 {
			return parts[0] + ":" + parts[1]
		}
	}
	return s
}

func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func getMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key].(map[string]interface{}); ok {
		return v
	}
	return map[string]interface{}{}
}

func isAlreadyExistsError(err error) bool {
	if err == nil {
		return false
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "already defined") || strings.Contains(s, "duplicate")
}
