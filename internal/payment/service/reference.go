package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// referencePrefix namespaces payment references so bank statements and
// support tickets are unambiguous about their origin.
const referencePrefix = "NAPPS"

// newReference builds a payment reference from the current time and a random
// suffix. Collisions are improbable, not impossible: the unique constraint on
// profiles.payment_reference is the actual correctness backstop, and a
// violation surfaces as a retryable duplicate-reference conflict.
func newReference(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return fmt.Sprintf("%s-%d-%s", referencePrefix, now.UnixMilli(), suffix)
}
