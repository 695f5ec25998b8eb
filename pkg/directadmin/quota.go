package directadmin

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// UnlimitedValue is the wire sentinel for "no limit".
const UnlimitedValue = "unlimited"

// Quota is a numeric limit that may be unlimited. The zero value is unlimited.
// A limit of 0 is a real limit and is distinct from unlimited.
type Quota struct {
	value   float64
	limited bool
}

func Unlimited() Quota {
	return Quota{}
}

func Limited(v float64) Quota {
	return Quota{value: v, limited: true}
}

// ParseQuota converts a wire value. Empty strings and the unlimited sentinel
// both mean no limit; "0" is a zero limit.
func ParseQuota(s string) (Quota, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, UnlimitedValue) {
		return Unlimited(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Quota{}, fmt.Errorf("parse quota %q: %w", s, err)
	}
	return Limited(v), nil
}

func (q Quota) IsUnlimited() bool {
	return !q.limited
}

// Value returns the limit and false when unlimited.
func (q Quota) Value() (float64, bool) {
	return q.value, q.limited
}

// String renders the wire form, reproducing the sentinel for unlimited.
func (q Quota) String() string {
	if !q.limited {
		return UnlimitedValue
	}
	return strconv.FormatFloat(q.value, 'f', -1, 64)
}

// setQuota writes q using the form fields CMD_API_DOMAIN and the account
// commands expect: key=N for limits, ukey=unlimited otherwise.
func setQuota(v url.Values, key string, q Quota) {
	if q.IsUnlimited() {
		v.Set("u"+key, UnlimitedValue)
		return
	}
	v.Set(key, q.String())
}

func parseFlag(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "on", "1", "true":
		return true
	default:
		return false
	}
}

func flagValue(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
