package feed

import "encoding/binary"

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - feed/{name}/m            last allocated position (be8)
// - feed/{name}/e/{pos_be8}  entry record
// - feed/{name}/i/{id}       live position for an id (be8, data feeds only)
// - feedmeta/{name}          registry metadata (JSON)

var (
	feedPrefix = []byte("feed/")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
	idSeg      = []byte("/i/")
	regPrefix  = []byte("feedmeta/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyFeedMeta builds the per-feed position metadata key.
func KeyFeedMeta(name string) []byte {
	k := make([]byte, 0, len(feedPrefix)+len(name)+len(metaSuffix))
	k = append(k, feedPrefix...)
	k = append(k, name...)
	k = append(k, metaSuffix...)
	return k
}

// KeyEntry builds the entry key with a big-endian position for ordering.
func KeyEntry(name string, pos uint64) []byte {
	k := make([]byte, 0, len(feedPrefix)+len(name)+len(entrySeg)+8)
	k = append(k, feedPrefix...)
	k = append(k, name...)
	k = append(k, entrySeg...)
	k = appendBE8(k, pos)
	return k
}

// KeyIDIndex builds the id-to-live-position index key.
func KeyIDIndex(name, id string) []byte {
	k := make([]byte, 0, len(feedPrefix)+len(name)+len(idSeg)+len(id))
	k = append(k, feedPrefix...)
	k = append(k, name...)
	k = append(k, idSeg...)
	k = append(k, id...)
	return k
}

// entryBounds returns [low, high) iterator bounds covering all entry keys
// of a feed.
func entryBounds(name string) (low, hi []byte) {
	low = KeyEntry(name, 0)
	hi = append(KeyEntry(name, ^uint64(0)), 0x00)
	return low, hi
}

// positionFromKey extracts the big-endian position from an entry key.
func positionFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

// KeyRegistry builds the registry metadata key for a feed.
func KeyRegistry(name string) []byte {
	k := make([]byte, 0, len(regPrefix)+len(name))
	k = append(k, regPrefix...)
	k = append(k, name...)
	return k
}

// registryBounds returns [low, high) iterator bounds covering all registry
// keys.
func registryBounds() (low, hi []byte) {
	low = append([]byte(nil), regPrefix...)
	hi = append(append([]byte(nil), regPrefix...), 0xff)
	return low, hi
}
