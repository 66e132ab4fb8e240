package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/stancewatch/core"
)

// Key prefixes for different data types
const (
	sourcePrefix        = "src"
	sourceURLPrefix     = "srcurl"
	sourceDatePrefix    = "srcd"
	domainPolicyPrefix  = "dompol"
	politicianPrefix    = "pol"
	topicPrefix         = "top"
	topicSlugPrefix     = "topslug"
	statementPrefix     = "stmt"
	statementDatePrefix = "stmtd"
	statementPairPrefix = "stmtpt"
	changePrefix        = "stchg"
	changeDatePrefix    = "stchgd"
	changePairPrefix    = "stchgpt"
)

// makeEntityKey generates a primary key for an entity by ID.
func makeEntityKey(prefix string, id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s", prefix, id))
}

// makeLookupKey generates a secondary index key for a unique string field,
// such as a source URL or topic slug. The value stored under it is the
// entity ID.
func makeLookupKey(prefix, value string) []byte {
	return []byte(fmt.Sprintf("%s:%s", prefix, value))
}

// makeDateKey generates a composite key for a date-ordered index.
// Format: prefix:timestamp:id, with the timestamp written BigEndian so
// lexicographic key order matches chronological order.
func makeDateKey(prefix string, timestamp time.Time, id core.ID) []byte {
	head := []byte(prefix + ":")
	buf := make([]byte, len(head)+8+len(id))
	offset := copy(buf, head)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	copy(buf[offset:], []byte(id))
	return buf
}

// makePairDateKey generates a composite key for the per-(politician, topic)
// date-ordered index. Format: prefix:politicianID:topicID:timestamp:id.
func makePairDateKey(prefix string, politicianID, topicID core.ID, timestamp time.Time, id core.ID) []byte {
	head := []byte(fmt.Sprintf("%s:%s:%s:", prefix, politicianID, topicID))
	buf := make([]byte, len(head)+8+len(id))
	offset := copy(buf, head)
	binary.BigEndian.PutUint64(buf[offset:], uint64(timestamp.UnixMicro()))
	offset += 8
	copy(buf[offset:], []byte(id))
	return buf
}

// makePairScanPrefix generates the iteration prefix covering every entry of a
// (politician, topic) pair in a pair-date index.
func makePairScanPrefix(prefix string, politicianID, topicID core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%s:%s:", prefix, politicianID, topicID))
}

// seekLast returns a key positioned past every key carrying the prefix, for
// starting a reverse iteration at the newest entry.
func seekLast(prefix []byte) []byte {
	out := make([]byte, len(prefix)+1)
	copy(out, prefix)
	out[len(prefix)] = 0xFF
	return out
}
