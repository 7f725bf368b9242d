package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Supplier struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Email            string          `json:"email,omitempty"`
	Category         string          `json:"category"`
	ReliabilityScore decimal.Decimal `json:"reliabilityScore"`
	LeadTimeDays     int             `json:"leadTimeDays"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}
