package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// PostbackData is the parsed form of a chat postback payload, a small
// ordered key=value grammar: "action=claim&lead_id=lead_<uuid>&row_id=7".
// When both references are present the UUID-keyed one wins; the row ordinal
// exists only for cards produced before lead UIDs were introduced.
type PostbackData struct {
	Action  string
	LeadUID string
	RowID   uint
}

// HasUID reports whether the payload carried a canonical lead reference.
func (p PostbackData) HasUID() bool { return p.LeadUID != "" }

// ParsePostbackData parses a postback data string. Unknown keys are ignored,
// duplicate keys keep the first value, a missing action or missing lead
// reference is an error.
func ParsePostbackData(data string) (PostbackData, error) {
	var parsed PostbackData

	for _, pair := range strings.Split(data, "&") {
		if pair == "" {
			continue
		}
		key, value, found := strings.Cut(pair, "=")
		if !found {
			return PostbackData{}, fmt.Errorf("malformed postback pair %q", pair)
		}
		switch key {
		case "action":
			if parsed.Action == "" {
				parsed.Action = value
			}
		case "lead_id":
			if parsed.LeadUID == "" {
				if !IsValidLeadUID(value) {
					return PostbackData{}, fmt.Errorf("malformed lead reference %q", value)
				}
				parsed.LeadUID = value
			}
		case "row_id":
			if parsed.RowID == 0 {
				n, err := strconv.ParseUint(value, 10, 32)
				if err != nil {
					return PostbackData{}, fmt.Errorf("malformed row reference %q", value)
				}
				parsed.RowID = uint(n)
			}
		}
	}

	if parsed.Action == "" {
		return PostbackData{}, fmt.Errorf("postback data %q has no action", data)
	}
	if parsed.LeadUID == "" && parsed.RowID == 0 {
		return PostbackData{}, fmt.Errorf("postback data %q has no lead reference", data)
	}
	return parsed, nil
}
