package repostatus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Behind is a commits-behind count that may be unknown. The zero value is
// Unknown, which is never equal to a known count of zero.
type Behind struct {
	n     int
	known bool
}

// Unknown is the Behind value used when the count could not be determined.
var Unknown = Behind{}

// Known returns a determined count.
func Known(n int) Behind {
	if n < 0 {
		n = 0
	}
	return Behind{n: n, known: true}
}

// Count returns the count and whether it is known.
func (b Behind) Count() (int, bool) {
	return b.n, b.known
}

func (b Behind) String() string {
	if !b.known {
		return "unknown"
	}
	return strconv.Itoa(b.n)
}

// MarshalJSON encodes a known count as a number and Unknown as "unknown".
func (b Behind) MarshalJSON() ([]byte, error) {
	if !b.known {
		return []byte(`"unknown"`), nil
	}
	return []byte(strconv.Itoa(b.n)), nil
}

// UnmarshalJSON accepts a number or the string "unknown".
func (b *Behind) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if string(data) == `"unknown"` || string(data) == "null" {
		*b = Unknown
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("commits behind: %w", err)
	}
	if n < 0 {
		return fmt.Errorf("commits behind: negative count %d", n)
	}
	*b = Known(n)
	return nil
}
