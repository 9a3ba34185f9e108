package broker

import (
	"fmt"
	"strconv"
	"strings"
)

// Operation selects which success heuristics apply when normalizing a raw
// broker response. Cancel and modify replies sometimes omit the success
// status and only acknowledge via a message phrase.
type Operation string

const (
	OpLogin  Operation = "login"
	OpPlace  Operation = "place"
	OpModify Operation = "modify"
	OpCancel Operation = "cancel"
	OpQuery  Operation = "query"
)

// Result is the canonical outcome of a broker call.
type Result struct {
	OK      bool
	Message string
	Code    string
}

// statusKeys, messageKeys and codeKeys are the field spellings observed
// across broker API versions, in lookup order.
var (
	statusKeys  = []string{"status", "Status"}
	messageKeys = []string{"message", "Message", "ErrorMsg", "errorMessage"}
	codeKeys    = []string{"ErrorCode", "errorCode"}
)

// successCodes are broker error codes that still indicate success.
var successCodes = map[string]struct{}{
	"0":   {},
	"200": {},
	"201": {},
}

// successPhrases are acknowledgement substrings that indicate success when
// no explicit status is present.
var successPhrases = map[Operation][]string{
	OpCancel: {"cancel order request sent"},
	OpModify: {"request sent"},
	OpPlace:  {"order placed"},
}

// Normalize maps a decoded broker response of unknown shape into a Result.
// Success is determined by checking, in order: an explicit success status,
// an explicit boolean success flag, a known non-error code, and finally an
// operation-specific acknowledgement phrase in the message. Non-map
// responses are treated as success when truthy and non-empty.
func Normalize(raw any, op Operation) Result {
	switch v := raw.(type) {
	case nil:
		return Result{OK: false, Message: "empty broker response", Code: ""}
	case map[string]any:
		return normalizeMap(v, op)
	case string:
		return Result{OK: v != "", Message: v, Code: ""}
	case bool:
		return Result{OK: v, Message: "", Code: ""}
	case float64:
		return Result{OK: v != 0, Message: strconv.FormatFloat(v, 'f', -1, 64), Code: ""}
	case []any:
		return Result{OK: len(v) > 0, Message: "", Code: ""}
	default:
		return Result{OK: true, Message: fmt.Sprint(v), Code: ""}
	}
}

func normalizeMap(m map[string]any, op Operation) Result {
	status := firstString(m, statusKeys)
	message := firstString(m, messageKeys)
	code := firstString(m, codeKeys)

	ok := strings.Contains(strings.ToLower(status), "success")

	if !ok {
		if flag, found := m["Success"]; found {
			b, isBool := flag.(bool)
			ok = isBool && b
		}
	}

	if !ok && code != "" {
		_, ok = successCodes[code]
	}

	if !ok {
		lower := strings.ToLower(message)
		for _, phrase := range successPhrases[op] {
			if strings.Contains(lower, phrase) {
				ok = true

				break
			}
		}
	}

	if message == "" {
		message = code
	}

	return Result{OK: ok, Message: message, Code: code}
}

// firstString returns the first present key's value rendered as a string.
// Numeric codes are rendered without a decimal point.
func firstString(m map[string]any, keys []string) string {
	for _, key := range keys {
		v, found := m[key]
		if !found || v == nil {
			continue
		}

		switch s := v.(type) {
		case string:
			if s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		default:
			return fmt.Sprint(s)
		}
	}

	return ""
}
