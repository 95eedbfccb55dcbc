// Package match scores parsed statement transactions against a
// landlord's tenant snapshot and selects the best candidate(s) for
// human review.
package match

import (
	"math"
	"sort"
	"strings"

	"github.com/kodisha/rentcore/internal/domain"
	"github.com/shopspring/decimal"
)

// TenantSnapshot is the minimal tenant data the scorer needs.
type TenantSnapshot struct {
	TenantID   string
	FullName   string
	PhoneLast3 string
	RentAmount decimal.Decimal
}

// Score computes the phone/name/amount/overall scores and the
// confidence/matchType classification for one (transaction, tenant)
// pair.
func Score(tx domain.ParsedTransaction, tenant TenantSnapshot) domain.TenantCandidate {
	phoneScore := scorePhone(tx.SenderPhoneLast3, tenant.PhoneLast3)
	nameScore := scoreName(tx.SenderName, tenant.FullName)
	amountScore, withUtilities := scoreAmount(tx.Amount, tenant.RentAmount)
	overall := 0.60*nameScore + 0.25*phoneScore + 0.15*amountScore

	return domain.TenantCandidate{
		TenantID:      tenant.TenantID,
		TenantName:    tenant.FullName,
		PhoneScore:    phoneScore,
		NameScore:     nameScore,
		AmountScore:   amountScore,
		OverallScore:  overall,
		Confidence:    classifyConfidence(overall),
		MatchType:     classifyMatchType(nameScore, phoneScore, amountScore),
		WithUtilities: withUtilities,
	}
}

func scorePhone(txLast3, tenantLast3 string) float64 {
	if txLast3 != "" && txLast3 == tenantLast3 {
		return 100
	}
	return 0
}

func scoreName(txName, tenantName string) float64 {
	a := strings.ToLower(strings.TrimSpace(txName))
	b := strings.ToLower(strings.TrimSpace(tenantName))
	if a == b {
		return 100
	}

	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 100
	}

	dist := levenshtein(a, b)
	score := 100 * float64(maxLen-dist) / float64(maxLen)
	return clamp(score, 0, 100)
}

// scoreAmount maps the paid-vs-rent delta onto a score. withUtilities
// reports whether the gap looks like a tenant-paid utility add-on
// (a 5-25% overpayment).
func scoreAmount(txAmount, rent decimal.Decimal) (score float64, withUtilities bool) {
	if rent.IsZero() {
		return 0, false
	}

	delta := txAmount.Sub(rent)
	if delta.IsZero() {
		return 100, false
	}

	deltaPct := delta.Abs().Div(rent).Mul(decimal.NewFromInt(100))
	deltaPctF, _ := deltaPct.Float64()

	switch {
	case delta.IsPositive() && deltaPctF >= 5 && deltaPctF <= 25:
		return math.Max(75, 100-deltaPctF), true
	case deltaPctF <= 5:
		return 95, false
	case deltaPctF <= 20:
		return 80 - deltaPctF, false
	default:
		return math.Max(0, 50-deltaPctF), false
	}
}

func classifyConfidence(overall float64) domain.MatchConfidence {
	switch {
	case overall >= 90:
		return domain.ConfidenceHigh
	case overall >= 75:
		return domain.ConfidenceMedium
	case overall >= 60:
		return domain.ConfidenceLow
	default:
		return domain.ConfidenceNone
	}
}

func classifyMatchType(nameScore, phoneScore, amountScore float64) domain.MatchType {
	switch {
	case nameScore >= 95 && (phoneScore == 100 || amountScore >= 95):
		return domain.MatchTypePerfect
	case nameScore >= 90:
		return domain.MatchTypeGood
	case phoneScore == 100 && nameScore >= 80 && amountScore >= 75:
		return domain.MatchTypeGood
	case phoneScore == 100 && nameScore >= 60:
		return domain.MatchTypePartial
	case phoneScore == 100 || nameScore >= 70:
		return domain.MatchTypeWeak
	default:
		return domain.MatchTypeNone
	}
}

// SelectBest scores tx against every tenant in the snapshot and picks
// the best candidate, ranked alternatives, and an overall status.
func SelectBest(tx domain.ParsedTransaction, tenants []TenantSnapshot) domain.MatchResult {
	candidates := make([]domain.TenantCandidate, 0, len(tenants))
	for _, tenant := range tenants {
		candidates = append(candidates, Score(tx, tenant))
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].OverallScore > candidates[j].OverallScore
	})

	// Step 2: a name score >= 95 wins unconditionally, phone not required.
	for i, c := range candidates {
		if c.NameScore < 95 {
			continue
		}
		var alternatives []domain.TenantCandidate
		for j, other := range candidates {
			if j == i {
				continue
			}
			if other.OverallScore >= 50 || other.NameScore >= 80 {
				alternatives = append(alternatives, other)
			}
		}
		best := c
		return domain.MatchResult{
			Transaction:  tx,
			Best:         &best,
			Alternatives: alternatives,
			Status:       statusFor(best, alternatives),
		}
	}

	// Step 3: otherwise require phone confirmation or a strong name.
	var filtered []domain.TenantCandidate
	for _, c := range candidates {
		if c.PhoneScore == 100 || c.NameScore >= 90 {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		return domain.MatchResult{Transaction: tx, Status: domain.OutcomeNoMatch}
	}

	best := filtered[0]
	var alternatives []domain.TenantCandidate
	for _, c := range filtered[1:] {
		if c.OverallScore >= 50 {
			alternatives = append(alternatives, c)
		}
	}

	return domain.MatchResult{
		Transaction:  tx,
		Best:         &best,
		Alternatives: alternatives,
		Status:       statusFor(best, alternatives),
	}
}

func statusFor(best domain.TenantCandidate, alternatives []domain.TenantCandidate) domain.MatchOutcomeStatus {
	if best.OverallScore < 60 {
		return domain.OutcomeNoMatch
	}
	if len(alternatives) > 0 && alternatives[0].OverallScore >= 75 {
		return domain.OutcomeAmbiguous
	}
	return domain.OutcomeMatched
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// levenshtein computes the edit distance between two strings over
// runes, using the standard two-row dynamic-programming table.
func levenshtein(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar) == 0 {
		return len(br)
	}
	if len(br) == 0 {
		return len(ar)
	}

	prev := make([]int, len(br)+1)
	curr := make([]int, len(br)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ar); i++ {
		curr[0] = i
		for j := 1; j <= len(br); j++ {
			cost := 1
			if ar[i-1] == br[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}

	return prev[len(br)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}
