// Package fintech holds the domain model shared by every session
// component: profiles, accounts, transaction records, and resolved
// balances. All tolerance for the backend's loose typing lives here, at
// the decode boundary, so consumers see one consistent shape.
package fintech

import (
	"encoding/json"
	"time"
)

// DeviceFingerprint is an opaque, best-effort-stable identifier for the
// physical device. The empty value means fingerprinting is unavailable.
type DeviceFingerprint string

// Profile is one cross-fintech identity. A device may have several cached
// (multiple people on one device, or one person with legacy + new ids).
type Profile struct {
	// TechvibesID is the stable cross-fintech identifier, primary key.
	TechvibesID string `json:"techvibes_id"`

	// Accounts in discovery order. Order is not semantically significant.
	Accounts []Account `json:"accounts"`
}

// Account is a single bank/fintech-scoped account. (AccountNumber, Fintech)
// identifies it within a profile; AccountNumber alone is not globally unique.
type Account struct {
	AccountNumber     string `json:"account_number"`
	Fintech           string `json:"fintech"`
	CustomerID        string `json:"customer_id"`
	CustomerFirstName string `json:"customer_first_name,omitempty"`
	CustomerLastName  string `json:"customer_last_name,omitempty"`
	Email             string `json:"email,omitempty"`
	// Source is the provenance tag, e.g. "primary" or "linked".
	Source string `json:"source,omitempty"`

	// TechvibesID is the owning identity when known. Persisted with the
	// last-chosen account so cold-start resolution knows which identity
	// to refresh.
	TechvibesID string `json:"techvibes_id,omitempty"`

	// Extra carries backend-supplied passthrough fields untouched.
	Extra map[string]json.RawMessage `json:"extra,omitempty"`
}

// Account field aliases seen across backend releases, priority order.
var (
	accountNumberAliases = []string{"account_number", "accountNumber", "account_no"}
	fintechAliases       = []string{"fintech", "bank", "provider"}
	customerIDAliases    = []string{"customer_id", "customerId"}
	firstNameAliases     = []string{"customer_first_name", "customerFirstName", "firstname", "first_name"}
	lastNameAliases      = []string{"customer_last_name", "customerLastName", "lastname", "last_name"}
	emailAliases         = []string{"email"}
	sourceAliases        = []string{"source"}
	techvibesIDAliases   = []string{"techvibes_id", "techvibesId"}
)

// accountKnownFields is every alias claimed by a typed field; anything
// else in a backend record is kept as passthrough.
var accountKnownFields = func() map[string]bool {
	known := make(map[string]bool)
	for _, group := range [][]string{
		accountNumberAliases, fintechAliases, customerIDAliases,
		firstNameAliases, lastNameAliases, emailAliases,
		sourceAliases, techvibesIDAliases,
	} {
		for _, name := range group {
			known[name] = true
		}
	}
	return known
}()

// UnmarshalJSON decodes a loosely-typed backend account record, consulting
// the alias lists in priority order and keeping unclaimed fields in Extra.
func (a *Account) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	a.AccountNumber = pickFlex(raw, accountNumberAliases).String()
	a.Fintech = pickFlex(raw, fintechAliases).String()
	a.CustomerID = pickFlex(raw, customerIDAliases).String()
	a.CustomerFirstName = pickFlex(raw, firstNameAliases).String()
	a.CustomerLastName = pickFlex(raw, lastNameAliases).String()
	a.Email = pickFlex(raw, emailAliases).String()
	a.Source = pickFlex(raw, sourceAliases).String()
	a.TechvibesID = pickFlex(raw, techvibesIDAliases).String()

	// Our own marshaled form nests passthrough fields under "extra";
	// unfold it so round trips are stable.
	if nested, ok := raw["extra"]; ok {
		var extra map[string]json.RawMessage
		if err := json.Unmarshal(nested, &extra); err == nil {
			a.Extra = extra
		}
		delete(raw, "extra")
	}

	for name, value := range raw {
		if accountKnownFields[name] {
			continue
		}
		if a.Extra == nil {
			a.Extra = make(map[string]json.RawMessage)
		}
		a.Extra[name] = value
	}

	return nil
}

// Key returns the identity of this account within the device directory.
func (a Account) Key() string {
	return a.Fintech + "|" + a.AccountNumber
}

// SameAs reports whether two accounts refer to the same (number, fintech)
// pair. Either side may be partially populated.
func (a Account) SameAs(other Account) bool {
	return a.AccountNumber == other.AccountNumber && a.Fintech == other.Fintech
}

// Usable reports whether this account can be used for balance or history
// queries, which require a backend customer id.
func (a Account) Usable() bool {
	return a.CustomerID != ""
}

// IsZero reports whether the account is entirely unpopulated.
func (a Account) IsZero() bool {
	return a.AccountNumber == "" && a.Fintech == "" && a.CustomerID == ""
}

// DisplayName returns the customer's name, or the account number when the
// backend sent no name fields.
func (a Account) DisplayName() string {
	switch {
	case a.CustomerFirstName != "" && a.CustomerLastName != "":
		return a.CustomerFirstName + " " + a.CustomerLastName
	case a.CustomerFirstName != "":
		return a.CustomerFirstName
	case a.CustomerLastName != "":
		return a.CustomerLastName
	default:
		return a.AccountNumber
	}
}

// ResolvedBalance is the client's best current estimate of an account's
// balance. It is derived, never server-side truth.
type ResolvedBalance struct {
	// Value is the formatted amount, e.g. "4,500.00". "0.00" when no
	// resolution has succeeded.
	Value string `json:"value"`

	// AsOf is the client-local time of the most recent successful
	// resolution. The zero time means never resolved.
	AsOf time.Time `json:"as_of"`
}

// Never reports whether no successful resolution has occurred.
func (b ResolvedBalance) Never() bool {
	return b.AsOf.IsZero()
}

// AsOfDisplay renders the resolution time for the UI, with "Never" as the
// sentinel for the zero time.
func (b ResolvedBalance) AsOfDisplay() string {
	if b.Never() {
		return "Never"
	}
	return b.AsOf.Format("02 Jan 2006 15:04")
}

// ZeroBalance is the display value used before any resolution succeeds.
const ZeroBalance = "0.00"

// NewZeroBalance returns the unresolved balance sentinel.
func NewZeroBalance() ResolvedBalance {
	return ResolvedBalance{Value: ZeroBalance}
}
