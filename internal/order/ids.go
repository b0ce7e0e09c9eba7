package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IDGenerator derives an order id for a settlement happening at at.
type IDGenerator func(at time.Time) string

const (
	IDModeTimestamp = "timestamp"
	IDModeUUID      = "uuid"
)

// TimestampID is the default: the settlement time at second granularity. Two
// settlements within the same second get the same id.
func TimestampID(at time.Time) string {
	return at.Format("20060102150405")
}

func UUIDID(time.Time) string {
	return "o_" + uuid.NewString()
}

func IDGeneratorFor(mode string) (IDGenerator, error) {
	switch mode {
	case "", IDModeTimestamp:
		return TimestampID, nil
	case IDModeUUID:
		return UUIDID, nil
	default:
		return nil, fmt.Errorf("unknown order id mode %q", mode)
	}
}
