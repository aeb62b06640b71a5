package refgen

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// PurchaseOrder returns a candidate purchase order reference of the form
// PO-XXXXXXXX where X is an uppercase hex character. Callers must check the
// store for collisions and regenerate.
func PurchaseOrder() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("PO-%08X", time.Now().UnixNano()&0xFFFFFFFF)
	}
	return "PO-" + strings.ToUpper(hex.EncodeToString(buf))
}

func New(prefix string) string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixNano(), hex.EncodeToString(buf))
}
