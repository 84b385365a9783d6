package job

import (
	"fmt"
	"hash/fnv"
)

// ShardLabel hashes voiceID to a stable small cardinality label (0-31).
func ShardLabel(voiceID string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(voiceID))
	return fmt.Sprintf("%d", h.Sum32()%32)
}
