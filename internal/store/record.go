package store

import (
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Typed accessors over Bolt record fields. Missing or differently-typed
// values degrade to zero values; callers treat absent fields as empty.

func recString(rec *neo4j.Record, key string) string {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

func recBool(rec *neo4j.Record, key string) bool {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

func recInt(rec *neo4j.Record, key string) int {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return 0
	}
	switch n := v.(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func recTime(rec *neo4j.Record, key string) time.Time {
	v, ok := rec.Get(key)
	if !ok || v == nil {
		return time.Time{}
	}
	t, _ := v.(time.Time)
	return t
}

func timeNow() time.Time {
	return time.Now().UTC()
}
