package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring mapping keys onto a fixed set of slots
type ring struct {
	hashRing *treemap.Map

	// minSlot caches the slot of the min entry in hashRing, since
	// treemap.Map.Min() is O(log n).
	minSlot int
}

// newRing returns a consistent hash ring over slots [0, slots), with each slot
// having replicationFactor entries in the ring
func newRing(slots, replicationFactor uint) *ring {
	hashRing := treemap.NewWith(utils.Int64Comparator)
	for slot := 0; slot < int(slots); slot++ {
		slotHash, _ := murmur3.Sum128([]byte(fmt.Sprintf("slot%d", slot)))
		slotHashBytes := make([]byte, 8)
		binary.LittleEndian.PutUint64(slotHashBytes, slotHash)

		for i := 0; i < int(replicationFactor); i++ {
			indexBytes := make([]byte, 4)
			binary.LittleEndian.PutUint32(indexBytes, uint32(i))

			hasher := murmur3.New128()
			hasher.Write(slotHashBytes)
			hasher.Write(indexBytes)
			hash, _ := hasher.Sum128()

			hashRing.Put(int64(hash), slot)
		}
	}

	r := &ring{hashRing: hashRing}
	if _, minSlot := hashRing.Min(); minSlot != nil {
		r.minSlot = minSlot.(int)
	}
	return r
}

// shard consistently hashes the key and returns its slot
func (r *ring) shard(key []byte) int {
	raw, _ := murmur3.Sum128(key)
	_, slot := r.hashRing.Ceiling(int64(raw))
	if slot != nil {
		return slot.(int)
	}
	return r.minSlot
}
