// Package symbols exposes the minimum-lot-size reference table.
package symbols

import (
	"database/sql"
	"os"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/opentrade-labs/mobridge/internal/logger"
)

// LotSizes maps a security token to its minimum tradable lot size.
type LotSizes map[string]int

// Get returns the lot size for a token, defaulting to 1 when the token is
// missing or its recorded size is not positive.
func (l LotSizes) Get(token string) int {
	size, found := l[token]
	if !found || size < 1 {
		return 1
	}

	return size
}

// Load reads the symbols table from the sqlite database at path. A missing
// file or unreadable table yields an empty map; per-row problems default
// that row's lot size to 1.
func Load(path string, log *logger.Logger) LotSizes {
	sizes := make(LotSizes)

	if path == "" {
		return sizes
	}

	if _, err := os.Stat(path); err != nil {
		return sizes
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		log.Warn("failed to open symbols database", zap.String("path", path), zap.Error(err))

		return sizes
	}
	defer db.Close()

	rows, err := db.Query(`SELECT [Security ID], [Min Qty] FROM symbols`)
	if err != nil {
		log.Warn("failed to query symbols table", zap.String("path", path), zap.Error(err))

		return sizes
	}
	defer rows.Close()

	for rows.Next() {
		var (
			securityID sql.NullString
			minQty     sql.NullString
		)

		if err := rows.Scan(&securityID, &minQty); err != nil {
			continue
		}

		if !securityID.Valid || securityID.String == "" {
			continue
		}

		size := 1
		if minQty.Valid {
			if parsed, err := strconv.Atoi(minQty.String); err == nil && parsed > 0 {
				size = parsed
			}
		}

		sizes[securityID.String] = size
	}

	return sizes
}
