package util

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the layout of dates given by users, tournaments are dated to
// the day.
const DateLayout = "2006-01-02"

// ParseDate accepts either a plain date or a full RFC 3339 timestamp and
// returns it in UTC.
func ParseDate(str string) (time.Time, error) {
	str = strings.TrimSpace(str)
	if t, err := time.Parse(DateLayout, str); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		return time.Time{}, ErrPublic(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", str))
	}

	return t.UTC(), nil
}

// Date is the format to use anywhere we need to output a date to an user.
func Date(iface interface{}) string {
	var t time.Time
	switch iface := iface.(type) {
	case time.Time:
		t = iface
	case TimeAsDateTimeTZ:
		t = iface.Time()
	case TimeAsTimestamp:
		t = iface.Time()
	default:
		panic(fmt.Errorf("unexpected type %T", iface))
	}

	return t.UTC().Format(DateLayout)
}
