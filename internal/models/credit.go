package models

import (
	"time"

	"gorm.io/datatypes"
)

// CreditBalance keeps two pools per user. Monthly credits reset to the
// plan allotment on a rolling 30-day cycle; purchased credits only grow via
// checkout and shrink via consumption. Consumption drains monthly first.
type CreditBalance struct {
	BaseModel
	UserID             string    `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	MonthlyCredits     int       `gorm:"default:0" json:"monthly_credits"`
	PurchasedCredits   int       `gorm:"default:0" json:"purchased_credits"`
	LastMonthlyRefresh time.Time `json:"last_monthly_refresh"`
}

// Total is the spendable balance.
func (b *CreditBalance) Total() int {
	return b.MonthlyCredits + b.PurchasedCredits
}

// NeedsRefresh reports whether the rolling 30-day window has elapsed.
func (b *CreditBalance) NeedsRefresh(now time.Time) bool {
	return now.Sub(b.LastMonthlyRefresh) >= 30*24*time.Hour
}

type CreditPack string

const (
	CreditPackTen        CreditPack = "ten"
	CreditPackTwentyFive CreditPack = "twentyfive"
	CreditPackFifty      CreditPack = "fifty"
)

// CreditPackInfo is a fixed-price credit bundle.
type CreditPackInfo struct {
	Credits int
	// PriceCents is the charge amount in the smallest currency unit.
	PriceCents int64
}

var creditPacks = map[CreditPack]CreditPackInfo{
	CreditPackTen:        {Credits: 10, PriceCents: 2900},
	CreditPackTwentyFive: {Credits: 25, PriceCents: 5900},
	CreditPackFifty:      {Credits: 50, PriceCents: 9900},
}

// PackInfo looks up a credit pack by type.
func PackInfo(pack CreditPack) (CreditPackInfo, bool) {
	info, ok := creditPacks[pack]
	return info, ok
}

// CreditPurchase is an append-only record of a credit-pack checkout. The
// unique session id makes webhook/confirm replays idempotent.
type CreditPurchase struct {
	BaseModel
	UserID            string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Pack              CreditPack     `gorm:"type:varchar(20);not null" json:"pack"`
	Credits           int            `gorm:"not null" json:"credits"`
	AmountCents       int64          `gorm:"not null" json:"amount_cents"`
	CheckoutSessionID string         `gorm:"uniqueIndex" json:"-"`
	Status            PurchaseStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	CompletedAt       *time.Time     `json:"completed_at,omitempty"`

	// Snapshot of the checkout session metadata, kept for audit.
	SessionMetadata datatypes.JSON `gorm:"type:jsonb" json:"-"`
}
