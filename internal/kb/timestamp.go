package kb

import "time"

// unknownValue is rendered wherever an optional field has no usable value.
const unknownValue = "Unknown"

// FormatTimestamp renders an epoch-millisecond timestamp as local time in
// "YYYY-MM-DD HH:MM:SS" form. Zero or negative input (absent field)
// renders as "Unknown".
func FormatTimestamp(ms int64) string {
	if ms <= 0 {
		return unknownValue
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}
