package simulation

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// DefaultSeed is the reproducibility seed used when none is configured.
// Changing it changes every projection.
const DefaultSeed uint64 = 42

// DeriveSeed mixes a parent seed with a set of labels into an independent
// sub-seed. The result depends only on its inputs, never on call order.
func DeriveSeed(seed uint64, labels ...string) uint64 {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	_, _ = d.Write(buf[:])
	for _, l := range labels {
		_, _ = d.Write([]byte{0})
		_, _ = d.WriteString(l)
	}
	return d.Sum64()
}
