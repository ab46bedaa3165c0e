package fintech

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FlexString is a string that also accepts JSON numbers and null when
// decoding. The backend is inconsistent about scalar types (history ids
// arrive as both 5 and "5").
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexString(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexString(n.String())
		return nil
	}

	// Anything else (bool, object) renders as its raw text rather than
	// failing the whole record.
	*f = FlexString(trimmed)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (f FlexString) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(f))
}

// String returns the underlying string.
func (f FlexString) String() string {
	return string(f)
}

// Known transaction status values. The status set is open; anything else
// renders with a neutral indicator.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Field alias lists, consulted in priority order at the decode boundary.
// The backend has renamed these fields across releases; keeping the lists
// here is the only place alias handling is allowed to live.
var (
	historyIDAliases = []string{"history_id", "historyId", "id"}
	dateAliases      = []string{"transactionDate", "transaction_date", "date", "created_at"}
	typeAliases      = []string{"type", "transaction_type"}
	statusAliases    = []string{"status"}
	amountAliases    = []string{"amount", "transaction_amount"}
	feesAliases      = []string{"internalFeesAmount", "internal_fees_amount", "fees"}
	noteAliases      = []string{"note", "narration", "description"}
	referenceAliases = []string{"reference", "ref"}

	// BalanceAliases are the historical names of the balance-after-
	// transaction field, newest first.
	BalanceAliases = []string{"balance", "current_balance", "balance_after", "new_balance", "account_balance"}
)

// Date layouts the backend has been observed to emit.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006 15:04:05",
	"02/01/2006",
}

// TransactionRecord is one history entry, immutable once decoded.
type TransactionRecord struct {
	// HistoryID is the list key. May be empty; see Key.
	HistoryID FlexString

	// TransactionDate is the raw date string as sent by the backend.
	// Use Date or DisplayDate for parsed access.
	TransactionDate string

	Type   string
	Status string
	Amount FlexString

	// InternalFeesAmount is optional.
	InternalFeesAmount FlexString

	// Balance is the account balance as of this transaction. Optional:
	// the backend does not always populate it.
	Balance FlexString

	// Note is the free-text narration, used by category filters.
	Note string

	Reference string

	// Raw keeps the full backend record for passthrough consumers.
	Raw map[string]json.RawMessage
}

// UnmarshalJSON decodes a loosely-typed backend record, consulting the
// field alias lists in priority order.
func (t *TransactionRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Raw = raw

	t.HistoryID = pickFlex(raw, historyIDAliases)
	t.TransactionDate = pickFlex(raw, dateAliases).String()
	t.Type = pickFlex(raw, typeAliases).String()
	t.Status = pickFlex(raw, statusAliases).String()
	t.Amount = pickFlex(raw, amountAliases)
	t.InternalFeesAmount = pickFlex(raw, feesAliases)
	t.Balance = pickFlex(raw, BalanceAliases)
	t.Note = pickFlex(raw, noteAliases).String()
	t.Reference = pickFlex(raw, referenceAliases).String()

	return nil
}

func pickFlex(raw map[string]json.RawMessage, aliases []string) FlexString {
	for _, name := range aliases {
		value, ok := raw[name]
		if !ok || strings.TrimSpace(string(value)) == "null" {
			continue
		}
		var f FlexString
		if err := f.UnmarshalJSON(value); err == nil && f != "" {
			return f
		}
	}
	return ""
}

// Key returns the stable list key for this record, falling back to the
// display index when the backend sent no history id. The fallback key is
// not stable across reorderings; callers that need stability must check
// HistoryID themselves.
func (t TransactionRecord) Key(index int) string {
	if t.HistoryID != "" {
		return t.HistoryID.String()
	}
	return "idx-" + strconv.Itoa(index)
}

// Date parses the transaction date against the known layouts.
func (t TransactionRecord) Date() (time.Time, bool) {
	raw := strings.TrimSpace(t.TransactionDate)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// DisplayDate renders the transaction date for the UI. Unparseable dates
// render as "N/A", never an error.
func (t TransactionRecord) DisplayDate() string {
	parsed, ok := t.Date()
	if !ok {
		return "N/A"
	}
	return parsed.Format("02 Jan 2006, 3:04 PM")
}

// Succeeded reports whether the record carries the known success status.
func (t TransactionRecord) Succeeded() bool {
	return strings.EqualFold(t.Status, StatusSuccess)
}

// Failed reports whether the record carries the known failed status.
func (t TransactionRecord) Failed() bool {
	return strings.EqualFold(t.Status, StatusFailed)
}

// MatchesNote reports whether the record's note contains the substring,
// case-insensitively. Used by category-filtered views such as airtime.
func (t TransactionRecord) MatchesNote(substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Note), strings.ToLower(substr))
}
