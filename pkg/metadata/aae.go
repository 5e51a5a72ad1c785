package metadata

import (
	"fmt"
	"io"
	"time"

	"howett.net/plist"
)

// adjustmentPlist is the subset of an .AAE sidecar that carries a date.
type adjustmentPlist struct {
	AdjustmentTimestamp time.Time `plist:"adjustmentTimestamp"`
	FormatIdentifier    string    `plist:"adjustmentFormatIdentifier"`
}

// aaeFields reads the adjustment timestamp of a sidecar property list. The
// value is written in UTC with a trailing Z, matching exiftool.
func aaeFields(r io.Reader) (map[string]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var doc adjustmentPlist
	if _, err := plist.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode plist: %w", err)
	}

	fields := make(map[string]string)
	if !doc.AdjustmentTimestamp.IsZero() {
		fields[FieldAdjustmentTimestamp] = doc.AdjustmentTimestamp.UTC().Format("2006:01:02 15:04:05Z")
	}
	return fields, nil
}
