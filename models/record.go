package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func init() {
	// Amounts are persisted as bare JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Bet numbers are drawn from a fixed 1-49 pool.
const (
	MinNumber = 1
	MaxNumber = 49
)

// NumberStakes maps a canonical bet-number key ("1".."49") to a positive stake amount.
type NumberStakes map[string]decimal.Decimal

// StakeTable maps a participant name to that participant's sparse stakes.
// Participants without any stake have no entry at all.
type StakeTable map[string]NumberStakes

// PrizeSettings holds the winning number and payout multiple for a round.
// A nil field means the value has not been set yet.
type PrizeSettings struct {
	WinningNumber *int             `json:"winningNumber"`
	PayoutRate    *decimal.Decimal `json:"payoutRate"`
}

// Payable reports whether winnings can be computed: both the winning number
// and a strictly positive payout rate must be present.
func (p PrizeSettings) Payable() bool {
	return p.WinningNumber != nil && p.PayoutRate != nil && p.PayoutRate.IsPositive()
}

// Summary holds the pool-wide settlement totals for a record.
type Summary struct {
	TotalStaked decimal.Decimal `json:"totalStaked"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
	HouseProfit decimal.Decimal `json:"houseProfit"`
}

// ParticipantResult holds the settlement totals for a single participant.
type ParticipantResult struct {
	TotalStaked decimal.Decimal `json:"totalStaked"`
	TotalPaid   decimal.Decimal `json:"totalPaid"`
}

// BetRecord represents one betting round: its participants, their stakes,
// the prize settings and the derived settlement results. The Summary and
// PerParticipantResult fields are recomputed after every mutation and are
// never edited directly.
type BetRecord struct {
	ID                   string                       `json:"-"`
	Title                string                       `json:"title"`
	CreatedAt            time.Time                    `json:"createdAt"`
	Participants         []string                     `json:"participants"`
	Stakes               StakeTable                   `json:"stakes"`
	PrizeSettings        PrizeSettings                `json:"prizeSettings"`
	Summary              Summary                      `json:"summary"`
	PerParticipantResult map[string]ParticipantResult `json:"perParticipantResult"`
}

// RecordHeader is the listing projection of a stored record.
type RecordHeader struct {
	ID        string
	Title     string
	CreatedAt time.Time
}

// NewBetRecord creates an empty record with a fresh unique ID. The ID embeds
// the creation timestamp plus a random disambiguator so that two records
// created within the same second never collide.
func NewBetRecord(title string, now time.Time) *BetRecord {
	if title == "" {
		title = "Round " + now.Format("2006-01-02 15:04:05")
	}
	id := fmt.Sprintf("calc_%s_%s", now.Format("20060102150405"), uuid.NewString()[:8])
	return &BetRecord{
		ID:           id,
		Title:        title,
		CreatedAt:    now,
		Participants: []string{},
		Stakes:       StakeTable{},
	}
}

// HasParticipant checks whether name is in the participant list (exact match).
func (r *BetRecord) HasParticipant(name string) bool {
	for _, p := range r.Participants {
		if p == name {
			return true
		}
	}
	return false
}

// StakeOn returns the stake name has placed on the given number, if any.
func (r *BetRecord) StakeOn(name, numberKey string) (decimal.Decimal, bool) {
	stakes, ok := r.Stakes[name]
	if !ok {
		return decimal.Decimal{}, false
	}
	amount, ok := stakes[numberKey]
	return amount, ok
}

// Clone returns a deep copy of the record.
func (r *BetRecord) Clone() *BetRecord {
	c := *r
	c.Participants = append([]string(nil), r.Participants...)
	c.Stakes = make(StakeTable, len(r.Stakes))
	for name, stakes := range r.Stakes {
		ns := make(NumberStakes, len(stakes))
		for k, v := range stakes {
			ns[k] = v
		}
		c.Stakes[name] = ns
	}
	if r.PrizeSettings.WinningNumber != nil {
		n := *r.PrizeSettings.WinningNumber
		c.PrizeSettings.WinningNumber = &n
	}
	if r.PrizeSettings.PayoutRate != nil {
		rate := *r.PrizeSettings.PayoutRate
		c.PrizeSettings.PayoutRate = &rate
	}
	if r.PerParticipantResult != nil {
		c.PerParticipantResult = make(map[string]ParticipantResult, len(r.PerParticipantResult))
		for name, res := range r.PerParticipantResult {
			c.PerParticipantResult[name] = res
		}
	}
	return &c
}

// NumberKey returns the canonical storage key for a bet number.
func NumberKey(n int) string {
	return strconv.Itoa(n)
}

// ValidNumber reports whether n is inside the 1-49 betting pool.
func ValidNumber(n int) bool {
	return n >= MinNumber && n <= MaxNumber
}

// Characters that may not appear in storage names (record ids, template names).
const invalidNameChars = `<>:"/\|?*`

// ValidStorageName reports whether name can be used as a storage key.
func ValidStorageName(name string) bool {
	return name != "" && !strings.ContainsAny(name, invalidNameChars)
}
