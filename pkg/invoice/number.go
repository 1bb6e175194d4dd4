package invoice

import (
	"fmt"
	"math/rand"
	"time"
)

// NumberPrefix starts every generated invoice number
const NumberPrefix = "INV"

// GenerateNumber returns an invoice number of the form INV-YYYYMMDD-NNNN
// where NNNN is drawn from rnd in the range 1000-9999.
func GenerateNumber(now time.Time, rnd *rand.Rand) string {
	var n int
	if rnd != nil {
		n = rnd.Intn(9000)
	} else {
		n = rand.Intn(9000)
	}
	return fmt.Sprintf("%s-%s-%04d", NumberPrefix, now.Format("20060102"), 1000+n)
}
