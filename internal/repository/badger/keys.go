package badger

import (
	"encoding/binary"
	"strings"
)

// Key namespaces
//
// Prefix  Key format                     Value
// ==========================================================
// "n:"    n:<encoded path>               nodeRecord (JSON)
// "i:"    i:<node id>                    canonical path
// "u:"    u:<user id>                    userRecord (JSON)
// "ue:"   ue:<lower-cased email>         user id
// "t:"    t:<team id>                    models.Team (JSON)
// "a:"    a:<uint64 big-endian sequence> models.ActivityLogEntry (JSON)
//
// Encoded paths replace every '/' with 0x00, so the root encodes to the empty
// string and "/a/b" to "\x00a\x00b". Names never contain 0x00, and 0x00 sorts
// below every other byte, which makes a plain key scan over "n:" a pre-order
// walk of the tree with siblings in byte order: a folder's descendants all
// share the prefix <folder>\x00 and sort before any sibling whose name merely
// extends the folder's name ("/a/b" < "/a/b/x" < "/a/b-c").
const (
	prefixNode     = "n:"
	prefixNodeID   = "i:"
	prefixUser     = "u:"
	prefixEmail    = "ue:"
	prefixTeam     = "t:"
	prefixActivity = "a:"
)

var keyActivitySeq = []byte("seq:activity")

func encodePath(path string) string {
	if path == "/" {
		return ""
	}
	return strings.ReplaceAll(path, "/", "\x00")
}

func keyNode(path string) []byte {
	return []byte(prefixNode + encodePath(path))
}

// keyDescendantPrefix covers every node strictly below path.
func keyDescendantPrefix(path string) []byte {
	return []byte(prefixNode + encodePath(path) + "\x00")
}

func keyNodeID(id string) []byte {
	return []byte(prefixNodeID + id)
}

func keyUser(id string) []byte {
	return []byte(prefixUser + id)
}

func keyEmail(email string) []byte {
	return []byte(prefixEmail + strings.ToLower(email))
}

func keyTeam(id string) []byte {
	return []byte(prefixTeam + id)
}

func keyActivity(seq uint64) []byte {
	key := make([]byte, len(prefixActivity)+8)
	copy(key, prefixActivity)
	binary.BigEndian.PutUint64(key[len(prefixActivity):], seq)
	return key
}
