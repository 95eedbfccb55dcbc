// Package statement extracts structured "Paid In" transactions from the
// free-text body of an uploaded M-Pesa statement.
package statement

import (
	"bufio"
	"regexp"
	"strings"
	"time"

	"github.com/kodisha/rentcore/internal/domain"
	"github.com/shopspring/decimal"
)

// line1Pattern matches a statement's transaction header line:
// <Receipt> <YYYY-MM-DD> <HH:MM:SS> <Details…> <Completed|Pending|Failed> <Amount1> <Amount2>
var line1Pattern = regexp.MustCompile(
	`(?i)^\s*([A-Z0-9]{8,12})\s+(\d{4}-\d{2}-\d{2})\s+(\d{2}:\d{2}:\d{2})\s+(.+?)\s+(Completed|Pending|Failed)\s+(-?[\d,]+\.?\d*)\s+(-?[\d,]+\.?\d*)\s*$`,
)

// counterparty line alternatives, tried in order; first match wins. The
// masked run between the leading digits and the trailing three is a mix
// of digits and asterisks depending on how many digits the statement
// source chooses to mask (e.g. "0****393" or "07******892"), so the
// masked span is matched as any run of digits/asterisks ending in the
// captured last three digits.
var counterpartyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*to\s*-\s*0[\d*]*?(\d{3})\s+(.+?)\s*$`),
	regexp.MustCompile(`(?i)^\s*to\s*-\s*254[\d*]*?(\d{3})\s+(.+?)\s*$`),
	regexp.MustCompile(`(?i)^\s*0[\d*]*?(\d{3})\s+(.+?)\s*$`),
	regexp.MustCompile(`(?i)^\s*254[\d*]*?(\d{3})\s*-\s*(.+?)\s*$`),
}

// Parse extracts the ordered list of ParsedTransaction records from a
// statement's raw text. Withdrawal lines (Amount1 <= 0) and Paid-In
// records whose following line doesn't match a recognized counterparty
// form are both silently skipped; there are no orphan records.
func Parse(rawText string) ([]domain.ParsedTransaction, error) {
	lines := splitLines(rawText)
	var out []domain.ParsedTransaction

	for i := 0; i < len(lines); i++ {
		m := line1Pattern.FindStringSubmatch(lines[i])
		if m == nil {
			continue
		}

		amount1, err := parseAmount(m[6])
		if err != nil {
			continue
		}
		if amount1.Sign() <= 0 {
			continue
		}

		if i+1 >= len(lines) {
			continue
		}
		last3, name, ok := matchCounterparty(lines[i+1])
		if !ok {
			continue
		}

		completionTime, err := time.Parse("2006-01-02 15:04:05", m[2]+" "+m[3])
		if err != nil {
			continue
		}
		amount2, _ := parseAmount(m[7])

		out = append(out, domain.ParsedTransaction{
			ReceiptNo:        m[1],
			CompletionTime:   completionTime,
			Details:          strings.TrimSpace(m[4]),
			SenderPhone:      "0****" + last3,
			SenderPhoneLast3: last3,
			SenderName:       titleCase(name),
			Amount:           amount1,
			Balance:          amount2,
		})

		i++ // consume the counterparty line
	}

	return out, nil
}

// Summary is the aggregate statistics a Statement row stores alongside
// its parsed transactions.
type Summary struct {
	TotalTransactions int
	TotalAmount       decimal.Decimal
	UniqueSenders     int
	DateRange         domain.StatementPeriod
}

// Summarize computes the aggregate statement summary from a parsed
// transaction list. Summarize(nil) returns the zero Summary.
func Summarize(txs []domain.ParsedTransaction) Summary {
	if len(txs) == 0 {
		return Summary{}
	}

	total := decimal.Zero
	senders := make(map[string]struct{})
	minTime, maxTime := txs[0].CompletionTime, txs[0].CompletionTime

	for _, tx := range txs {
		total = total.Add(tx.Amount)
		senders[tx.SenderPhoneLast3] = struct{}{}
		if tx.CompletionTime.Before(minTime) {
			minTime = tx.CompletionTime
		}
		if tx.CompletionTime.After(maxTime) {
			maxTime = tx.CompletionTime
		}
	}

	return Summary{
		TotalTransactions: len(txs),
		TotalAmount:       total,
		UniqueSenders:     len(senders),
		DateRange:         domain.StatementPeriod{Start: minTime, End: maxTime},
	}
}

func matchCounterparty(line string) (last3, name string, ok bool) {
	for _, re := range counterpartyPatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return m[1], strings.TrimSpace(m[2]), true
	}
	return "", "", false
}

func titleCase(s string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		lower := strings.ToLower(f)
		fields[i] = strings.ToUpper(lower[:1]) + lower[1:]
	}
	return strings.Join(fields, " ")
}

func parseAmount(raw string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(raw, ",", "")
	return decimal.NewFromString(cleaned)
}

func splitLines(text string) []string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}
