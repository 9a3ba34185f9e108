package types

// Credentials is the credential bundle attached to an account record.
// Every field except the account's UserID is optional at load time; the
// session layer rejects login attempts with incomplete bundles.
type Credentials struct {
	APIKey   string `json:"apikey"`
	Password string `json:"password"`
	PAN      string `json:"pan"`
	// TOTPKey is the time-based one-time-password seed. When empty, login is
	// attempted with an empty one-time code.
	TOTPKey string `json:"totpkey"`
}

// AccountRecord is one brokerage login identity managed by the bridge.
// Records are owned by the registry and immutable for the duration of a
// request cycle; they are re-read from storage on every top-level operation.
type AccountRecord struct {
	// UserID is the broker client code. Unique and non-empty.
	UserID string `json:"userid" validate:"required"`
	// Name is the display name shown in canonical views. Falls back to
	// UserID when absent.
	Name        string      `json:"name"`
	Credentials Credentials `json:"creds"`
	// Capital is the account's capital baseline used for net-gain reporting.
	Capital float64 `json:"capital"`
}

// DisplayName returns the account's display name, falling back to the user id.
func (a AccountRecord) DisplayName() string {
	if a.Name != "" {
		return a.Name
	}

	return a.UserID
}

// HasLoginCredentials reports whether the record carries everything a login
// attempt requires. The TOTP seed is not required.
func (a AccountRecord) HasLoginCredentials() bool {
	return a.UserID != "" &&
		a.Credentials.APIKey != "" &&
		a.Credentials.Password != "" &&
		a.Credentials.PAN != ""
}

// AccountSummary is the per-account capital view computed from one holdings
// snapshot. Derived per fetch, never persisted.
type AccountSummary struct {
	Name            string  `json:"name"`
	Capital         float64 `json:"capital"`
	Invested        float64 `json:"invested"`
	PnL             float64 `json:"pnl"`
	CurrentValue    float64 `json:"current_value"`
	AvailableMargin float64 `json:"available_margin"`
	NetGain         float64 `json:"net_gain"`
}
