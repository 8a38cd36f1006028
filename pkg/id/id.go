package id

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/oklog/ulid/v2"
)

// New returns a ULID-backed entity id with a type prefix, e.g. "wal_01J...".
func New(prefix string) string {
	u := ulid.MustNew(ulid.Timestamp(time.Now()), ulid.Monotonic(rand.Reader, 0))
	return prefix + "_" + u.String()
}

const refChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Reference generates a transaction reference under the single project-wide
// policy: FLK-<TAG>-<unix ms>-<4 random base36 chars>. With 36^4 random
// suffixes per millisecond, two references collide only if generated in the
// same millisecond with the same tag at odds of about 1 in 1.6 million.
func Reference(tag string) string {
	b := make([]byte, 4)
	for i := range b {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(refChars))))
		b[i] = refChars[n.Int64()]
	}
	return fmt.Sprintf("FLK-%s-%d-%s", tag, time.Now().UnixMilli(), string(b))
}

// Reference tags, one per transaction type.
const (
	TagFunding       = "FND"
	TagWithdrawal    = "WDL"
	TagTransferIn    = "TRI"
	TagTransferOut   = "TRO"
	TagEscrowFreeze  = "ESF"
	TagEscrowRelease = "ESR"
	TagEscrowRefund  = "RFD"
)
