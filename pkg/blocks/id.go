package blocks

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"time"
)

const (
	// IDAlphabet is the character set of generated id suffixes
	IDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	columnIDSuffixLength = 4
)

// now is replaced in tests.
var now = time.Now

// NewColumnID returns a column id made of the current time in base36 and
// a short random suffix, e.g. "m2k3x9q1-8fzq". Ids only need to be unique
// among the columns of one block.
func NewColumnID() string {
	return strconv.FormatInt(now().UnixMilli(), 36) + "-" + randomSuffix(columnIDSuffixLength)
}

func randomSuffix(length int) string {
	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(IDAlphabet)))

	for i := 0; i < length; i++ {
		num, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			result[i] = IDAlphabet[i%len(IDAlphabet)]
			continue
		}
		result[i] = IDAlphabet[num.Int64()]
	}

	return string(result)
}
