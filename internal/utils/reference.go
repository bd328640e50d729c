package utils

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const referenceCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateReference generates a unique reference for transactions
func GenerateReference(prefix string) string {
	result := make([]byte, 8)
	for i := range result {
		result[i] = referenceCharset[rand.Intn(len(referenceCharset))]
	}

	timestamp := time.Now().Format("20060102")
	return fmt.Sprintf("%s_%s_%s", prefix, timestamp, string(result))
}

// GenerateReferralCode builds a short shareable referral code from the
// username plus a random suffix to keep codes unique.
func GenerateReferralCode(username string) string {
	base := strings.ToUpper(username)
	if len(base) > 6 {
		base = base[:6]
	}

	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = referenceCharset[rand.Intn(len(referenceCharset))]
	}

	return fmt.Sprintf("%s%s", base, string(suffix))
}
