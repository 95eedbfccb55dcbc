package postgres

import (
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// decimalToNumeric converts a shopspring/decimal into the pgtype.Numeric
// pgx expects for a NUMERIC column; every repository in this package
// touches money, so the conversion lives here.
func decimalToNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

// numericToDecimal is the inverse of decimalToNumeric. An invalid/NULL
// numeric converts to decimal.Zero rather than panicking.
func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
