// Package registry loads account records from per-account JSON files.
package registry

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/opentrade-labs/mobridge/internal/logger"
	"github.com/opentrade-labs/mobridge/internal/types"
)

// Registry reads account configuration from a directory of JSON files.
// Records are re-read on every call: an account's configuration can change
// between top-level operations, so nothing is cached here.
type Registry struct {
	dir    string
	logger *logger.Logger
}

// NewRegistry creates a registry over the given clients directory.
func NewRegistry(dir string, log *logger.Logger) *Registry {
	return &Registry{
		dir:    dir,
		logger: log,
	}
}

// All returns every readable account record. Malformed or unreadable files
// are skipped silently; a missing directory yields an empty set.
func (r *Registry) All() []types.AccountRecord {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil
	}

	records := make([]types.AccountRecord, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			continue
		}

		record, ok := decodeRecord(data)
		if !ok {
			r.logger.Debug("skipping malformed account file", zap.String("file", entry.Name()))

			continue
		}

		records = append(records, record)
	}

	return records
}

// IndexByUserID maps records by their user id, skipping empty ids.
func IndexByUserID(records []types.AccountRecord) map[string]types.AccountRecord {
	index := make(map[string]types.AccountRecord, len(records))

	for _, record := range records {
		if record.UserID != "" {
			index[record.UserID] = record
		}
	}

	return index
}

// IndexByName maps records by lowercased display name, skipping records
// without one. Name lookups are case-insensitive.
func IndexByName(records []types.AccountRecord) map[string]types.AccountRecord {
	index := make(map[string]types.AccountRecord, len(records))

	for _, record := range records {
		name := strings.TrimSpace(record.Name)
		if name != "" {
			index[strings.ToLower(name)] = record
		}
	}

	return index
}

// ByName returns the record whose display name matches, case-insensitively.
func (r *Registry) ByName(name string) (types.AccountRecord, bool) {
	record, found := IndexByName(r.All())[strings.ToLower(strings.TrimSpace(name))]

	return record, found
}

// rawRecord accepts the key spellings and nesting variants found in account
// files: the user id under "userid" or "client_id", credentials either flat
// or under "creds", the TOTP seed under legacy "mpin"/"otp" keys, and the
// capital baseline under "capital" or "base_amount" as a number or string.
type rawRecord struct {
	UserID      string    `json:"userid"`
	ClientID    string    `json:"client_id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	APIKey      string    `json:"apikey"`
	Password    string    `json:"password"`
	PAN         string    `json:"pan"`
	TOTPKey     string    `json:"totpkey"`
	Creds       rawCreds  `json:"creds"`
	Capital     flexFloat `json:"capital"`
	BaseAmount  flexFloat `json:"base_amount"`
}

type rawCreds struct {
	APIKey   string `json:"apikey"`
	Password string `json:"password"`
	PAN      string `json:"pan"`
	TOTPKey  string `json:"totpkey"`
	MPIN     string `json:"mpin"`
	OTP      string `json:"otp"`
}

// flexFloat tolerates numeric strings and garbage, decoding to zero rather
// than failing the whole record.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	var number float64
	if err := json.Unmarshal(data, &number); err == nil {
		*f = flexFloat(number)

		return nil
	}

	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			*f = flexFloat(parsed)
		}
	}

	return nil
}

func decodeRecord(data []byte) (types.AccountRecord, bool) {
	var raw rawRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return types.AccountRecord{}, false
	}

	userID := strings.TrimSpace(pick(raw.UserID, raw.ClientID))
	if userID == "" {
		return types.AccountRecord{}, false
	}

	capital := float64(raw.Capital)
	if capital == 0 {
		capital = float64(raw.BaseAmount)
	}

	return types.AccountRecord{
		UserID: userID,
		Name:   strings.TrimSpace(pick(raw.Name, raw.DisplayName)),
		Credentials: types.Credentials{
			APIKey:   pick(raw.APIKey, raw.Creds.APIKey),
			Password: pick(raw.Password, raw.Creds.Password),
			PAN:      pick(raw.PAN, raw.Creds.PAN),
			TOTPKey:  pick(raw.TOTPKey, raw.Creds.TOTPKey, raw.Creds.MPIN, raw.Creds.OTP),
		},
		Capital: capital,
	}, true
}

// pick returns the first non-empty value.
func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
