// Package settle implements the settlement engine: cleaning raw stake data,
// deriving per-participant and pool-wide totals, and merging template
// participant lists. Everything here is pure; the service layer decides when
// to call it.
package settle

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"betpool/models"
)

// CleanStakes filters a raw, possibly dirty stake mapping down to the
// entries that are actually valid bets: the key must parse to an integer in
// the 1-49 pool and the value must be numeric and strictly positive.
// Participants not present in the participants list are discarded, and
// participants left without a single surviving entry are omitted from the
// result entirely to keep the table sparse.
//
// Malformed entries are dropped silently rather than reported; stored data
// is never trusted and never fatal.
func CleanStakes(raw map[string]map[string]any, participants []string) models.StakeTable {
	clean := models.StakeTable{}
	for _, name := range participants {
		entries, ok := raw[name]
		if !ok {
			continue
		}
		stakes := models.NumberStakes{}
		for key, value := range entries {
			n, err := strconv.Atoi(strings.TrimSpace(key))
			if err != nil || !models.ValidNumber(n) {
				continue
			}
			amount, ok := parseAmount(value)
			if !ok || !amount.IsPositive() {
				continue
			}
			// Different spellings of the same number ("7", "07")
			// accumulate, which keeps the result independent of map
			// iteration order.
			canonical := models.NumberKey(n)
			stakes[canonical] = stakes[canonical].Add(amount)
		}
		if len(stakes) > 0 {
			clean[name] = stakes
		}
	}
	return clean
}

// parseAmount coerces the value shapes that show up in stored JSON into a
// decimal. Anything else is reported as non-numeric.
func parseAmount(v any) (decimal.Decimal, bool) {
	switch value := v.(type) {
	case decimal.Decimal:
		return value, true
	case float64:
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(value), true
	case int:
		return decimal.NewFromInt(int64(value)), true
	case int64:
		return decimal.NewFromInt(value), true
	case json.Number:
		d, err := decimal.NewFromString(value.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(value))
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}

// Settle derives the authoritative results from cleaned stakes and prize
// settings. Every participant gets a result entry, including those with no
// stakes at all. A participant is paid only when both the winning number and
// a positive payout rate are set and they hold a stake on the winning
// number; the payout is that stake times the rate.
//
// The pool summary satisfies houseProfit = totalStaked - totalPaid exactly;
// the house can lose.
func Settle(stakes models.StakeTable, prize models.PrizeSettings, participants []string) (map[string]models.ParticipantResult, models.Summary) {
	results := make(map[string]models.ParticipantResult, len(participants))
	var summary models.Summary

	var winningKey string
	payable := prize.Payable()
	if payable {
		winningKey = models.NumberKey(*prize.WinningNumber)
	}

	for _, name := range participants {
		var res models.ParticipantResult
		for _, amount := range stakes[name] {
			res.TotalStaked = res.TotalStaked.Add(amount)
		}
		if payable {
			if won, ok := stakes[name][winningKey]; ok {
				res.TotalPaid = won.Mul(*prize.PayoutRate)
			}
		}
		results[name] = res
		summary.TotalStaked = summary.TotalStaked.Add(res.TotalStaked)
		summary.TotalPaid = summary.TotalPaid.Add(res.TotalPaid)
	}

	summary.HouseProfit = summary.TotalStaked.Sub(summary.TotalPaid)
	return results, summary
}

// Recompute is the single entry point for refreshing a record's derived
// fields. Every mutating operation calls it before returning, so the cached
// summary is never stale.
func Recompute(record *models.BetRecord) {
	record.PerParticipantResult, record.Summary = Settle(record.Stakes, record.PrizeSettings, record.Participants)
}

// MergeTemplate appends the template names that are not already in the
// record, preserving the template's order, and reports which names were
// added and which were skipped as duplicates. Existing participants and
// their stakes are untouched, and newly added names get no stake entries.
// Applying the same template twice adds nothing the second time.
func MergeTemplate(record *models.BetRecord, names []string) (added, duplicates []string) {
	for _, name := range names {
		if record.HasParticipant(name) {
			duplicates = append(duplicates, name)
			continue
		}
		record.Participants = append(record.Participants, name)
		added = append(added, name)
	}
	return added, duplicates
}
