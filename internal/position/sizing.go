package position

import (
	"math"

	"tradelens/internal/analyzer"
	"tradelens/pkg/model"
)

// DefaultMaxRiskPercent caps the account fraction at risk on one trade
const DefaultMaxRiskPercent = 2.0

// Request describes a prospective long entry
type Request struct {
	Price          float64 `json:"price"`
	StopPrice      float64 `json:"stop_price"`
	RiskAmount     float64 `json:"risk_amount"`
	AccountSize    float64 `json:"account_size"`
	MaxRiskPercent float64 `json:"max_risk_percent"`
}

// PositionSizer sizes trades against a fixed account
type PositionSizer struct {
	AccountSize    float64 // Total account value
	MaxRiskPercent float64 // Max account percent at risk (e.g., 2.0 = 2%)
}

// NewPositionSizer creates a position sizer with the default risk cap
func NewPositionSizer(accountSize float64) *PositionSizer {
	return &PositionSizer{
		AccountSize:    accountSize,
		MaxRiskPercent: DefaultMaxRiskPercent,
	}
}

// Calculate sizes an entry at price with the given stop and dollar risk
func (p *PositionSizer) Calculate(price, stopPrice, riskAmount float64) (*model.PositionSize, error) {
	return CalculatePositionSize(Request{
		Price:          price,
		StopPrice:      stopPrice,
		RiskAmount:     riskAmount,
		AccountSize:    p.AccountSize,
		MaxRiskPercent: p.MaxRiskPercent,
	})
}

// CalculatePositionSize returns the share count that keeps the loss at the
// stop within both the dollar risk and the account risk cap, plus 1R/2R/3R
// targets. A zero stop price means no stop; the whole price is at risk.
func CalculatePositionSize(req Request) (*model.PositionSize, error) {
	const op = "calculate_position_size"

	if req.Price <= 0 {
		return nil, analyzer.NewError(op, analyzer.ErrInvalidParameter, "price must be positive, got %g", req.Price)
	}
	if req.AccountSize <= 0 {
		return nil, analyzer.NewError(op, analyzer.ErrInvalidParameter, "account size must be positive, got %g", req.AccountSize)
	}
	if req.RiskAmount < 0 {
		return nil, analyzer.NewError(op, analyzer.ErrInvalidParameter, "risk amount cannot be negative, got %g", req.RiskAmount)
	}
	if req.MaxRiskPercent <= 0 {
		return nil, analyzer.NewError(op, analyzer.ErrInvalidParameter, "max risk percent must be positive, got %g", req.MaxRiskPercent)
	}
	riskPerShare := math.Abs(req.Price - req.StopPrice)
	if riskPerShare == 0 {
		return nil, analyzer.NewError(op, analyzer.ErrInvalidParameter, "risk per share cannot be zero")
	}
	if req.StopPrice != 0 && req.Price < req.StopPrice {
		return nil, analyzer.NewError(op, analyzer.ErrInvalidParameter, "stop %g must be below price %g", req.StopPrice, req.Price)
	}

	byRisk := math.Floor(req.RiskAmount / riskPerShare)
	byAccount := math.Floor(req.AccountSize * req.MaxRiskPercent / 100 / riskPerShare)
	shares := int(math.Min(byRisk, byAccount))

	dollarRisk := float64(shares) * riskPerShare

	return &model.PositionSize{
		RecommendedShares:    shares,
		DollarRisk:           dollarRisk,
		RiskPerShare:         riskPerShare,
		PositionCost:         float64(shares) * req.Price,
		AccountPercentRisked: dollarRisk / req.AccountSize * 100,
		R1:                   req.Price + riskPerShare*1.0,
		R2:                   req.Price + riskPerShare*2.0,
		R3:                   req.Price + riskPerShare*3.0,
	}, nil
}
