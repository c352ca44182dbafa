package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateOrderID builds the identifier that links a local payment row with
// the gateway-side transaction. Timestamp prefix keeps ids sortable in logs;
// the uuid suffix makes collisions negligible. The ledger's unique index on
// order_id is the final backstop: a colliding insert fails and Prepare is
// retried with a fresh id.
func GenerateOrderID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	return fmt.Sprintf("ord-%s-%s", time.Now().UTC().Format("20060102150405"), suffix)
}
