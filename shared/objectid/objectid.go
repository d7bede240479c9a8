// Package objectid validates and parses MongoDB document identifiers in the
// shapes they reach the query layer: hex strings, driver values, raw 12-byte
// buffers and extended JSON {"$oid": ...} documents.
package objectid

import (
	"go.mongodb.org/mongo-driver/v2/bson"
)

const (
	hexLength  = 24
	byteLength = 12
	oidKey     = "$oid"
)

// Generate returns a new identifier.
func Generate() bson.ObjectID {
	return bson.NewObjectID()
}

// IsValid reports whether id is identifier-shaped.
func IsValid(id any) bool {
	_, ok := Parse(id)
	return ok
}

// Parse converts an identifier-shaped value into a bson.ObjectID.
func Parse(id any) (bson.ObjectID, bool) {
	switch v := id.(type) {
	case nil:
		return bson.NilObjectID, false
	case bson.ObjectID:
		return v, true
	case *bson.ObjectID:
		if v == nil {
			return bson.NilObjectID, false
		}
		return *v, true
	case string:
		return fromHex(v)
	case []byte:
		if len(v) != byteLength {
			return bson.NilObjectID, false
		}
		var oid bson.ObjectID
		copy(oid[:], v)
		return oid, true
	case bson.M:
		return fromExtJSON(map[string]any(v))
	case map[string]any:
		return fromExtJSON(v)
	case bson.D:
		if len(v) != 1 || v[0].Key != oidKey {
			return bson.NilObjectID, false
		}
		hex, ok := v[0].Value.(string)
		if !ok {
			return bson.NilObjectID, false
		}
		return fromHex(hex)
	default:
		return bson.NilObjectID, false
	}
}

func fromHex(s string) (bson.ObjectID, bool) {
	if len(s) != hexLength {
		return bson.NilObjectID, false
	}
	oid, err := bson.ObjectIDFromHex(s)
	if err != nil {
		return bson.NilObjectID, false
	}
	return oid, true
}

// fromExtJSON accepts the {"$oid": "<hex>"} form produced by extended JSON encoders.
func fromExtJSON(m map[string]any) (bson.ObjectID, bool) {
	if len(m) != 1 {
		return bson.NilObjectID, false
	}
	hex, ok := m[oidKey].(string)
	if !ok {
		return bson.NilObjectID, false
	}
	return fromHex(hex)
}
