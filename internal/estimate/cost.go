package estimate

import (
	"math"
	"strings"
)

// CostInput 对应完整造价估算表单：混凝土 + 钢筋 + 单价
type CostInput struct {
	Concrete           *ConcreteInput `json:"concrete"`
	Steel              *SteelInput    `json:"steel"`
	Prices             UnitPrices     `json:"prices"`
	LabourPercent      float64        `json:"labour_percent" binding:"gte=0,lte=100"`
	ContingencyPercent float64        `json:"contingency_percent" binding:"gte=0,lte=100"`
	CustomLines        []CustomLine   `json:"custom_lines" binding:"dive"`
	Currency           string         `json:"currency"`
}

type CostResult struct {
	Concrete *ConcreteResult `json:"concrete,omitempty"`
	Steel    *SteelResult    `json:"steel,omitempty"`
	Price    *PriceResult    `json:"price"`
	Total    float64         `json:"total"`
}

// CalculateCost 先算混凝土和钢筋用量，再用这些用量计价
func CalculateCost(in CostInput) (*CostResult, error) {
	if in.Concrete == nil && in.Steel == nil {
		return nil, inputErr("", "concrete or steel input is required")
	}

	res := &CostResult{}
	var q Quantities

	if in.Concrete != nil {
		c, err := CalculateConcrete(*in.Concrete)
		if err != nil {
			return nil, prefix("concrete", err)
		}
		res.Concrete = c
		q.CementBags = float64(c.CementBags)
		q.SandM3 = c.SandM3
		q.AggregateM3 = c.AggregateM3
		q.WaterLitres = c.WaterLitres
		q.ConcreteM3 = c.WetVolume
	}

	if in.Steel != nil {
		s, err := CalculateSteel(*in.Steel)
		if err != nil {
			return nil, prefix("steel", err)
		}
		res.Steel = s
		q.SteelKg = s.TotalWeightKg
	}

	p, err := CalculatePrice(PriceInput{
		Quantities:         q,
		Prices:             in.Prices,
		LabourPercent:      in.LabourPercent,
		ContingencyPercent: in.ContingencyPercent,
		CustomLines:        in.CustomLines,
		Currency:           in.Currency,
	})
	if err != nil {
		return nil, err
	}
	res.Price = p
	res.Total = p.Total
	return res, nil
}

func prefix(field string, err error) error {
	if ie, ok := err.(*InputError); ok {
		f := field
		if ie.Field != "" {
			f = field + "." + ie.Field
		}
		return &InputError{Field: f, Message: ie.Message}
	}
	return err
}

// 建筑标准
const (
	QualityBasic    = "basic"
	QualityStandard = "standard"
	QualityPremium  = "premium"
)

// DefaultRates 每平方米的默认造价
var DefaultRates = map[string]float64{
	QualityBasic:    350,
	QualityStandard: 500,
	QualityPremium:  800,
}

// breakdownShares 造价分项占比，最后一项吸收舍入误差
var breakdownShares = []struct {
	name  string
	share float64
}{
	{"foundation", 0.15},
	{"structure", 0.35},
	{"finishing", 0.30},
	{"mep", 0.15},
	{"other", 0.05},
}

// SimpleCostInput 对应简易造价估算表单
type SimpleCostInput struct {
	AreaM2    float64 `json:"area_m2" binding:"gt=0"`
	Floors    int     `json:"floors" binding:"gte=0"`
	Quality   string  `json:"quality" binding:"omitempty,oneof=basic standard premium"`
	RatePerM2 float64 `json:"rate_per_m2" binding:"gte=0"`
	Currency  string  `json:"currency"`
}

type BreakdownLine struct {
	Item   string  `json:"item"`
	Share  float64 `json:"share"`
	Amount float64 `json:"amount"`
}

type SimpleCostResult struct {
	AreaM2      float64         `json:"area_m2"`
	Floors      int             `json:"floors"`
	TotalAreaM2 float64         `json:"total_area_m2"`
	Quality     string          `json:"quality"`
	RatePerM2   float64         `json:"rate_per_m2"`
	Currency    string          `json:"currency"`
	Breakdown   []BreakdownLine `json:"breakdown"`
	Total       float64         `json:"total"`
}

// CalculateSimpleCost 按面积和单方造价估算总价
func CalculateSimpleCost(in SimpleCostInput) (*SimpleCostResult, error) {
	if in.AreaM2 <= 0 {
		return nil, inputErr("area_m2", "must be greater than 0")
	}
	if in.Floors < 0 {
		return nil, inputErr("floors", "must not be negative")
	}
	if in.RatePerM2 < 0 {
		return nil, inputErr("rate_per_m2", "must not be negative")
	}

	floors := in.Floors
	if floors == 0 {
		floors = 1
	}
	// 与请求绑定的 oneof 校验一致，区分大小写
	quality := in.Quality
	if quality == "" {
		quality = QualityStandard
	}
	defaultRate, ok := DefaultRates[quality]
	if !ok {
		return nil, inputErr("quality", "unknown quality %q", in.Quality)
	}
	rate := in.RatePerM2
	if rate == 0 {
		rate = defaultRate
	}

	totalArea := in.AreaM2 * float64(floors)
	// 按分计算，明细之和与总价严格相等
	totalCents := int64(math.Round(totalArea * rate * 100))
	total := float64(totalCents) / 100

	res := &SimpleCostResult{
		AreaM2:      in.AreaM2,
		Floors:      floors,
		TotalAreaM2: Qty(totalArea),
		Quality:     quality,
		RatePerM2:   rate,
		Currency:    strings.ToUpper(in.Currency),
		Total:       total,
	}

	var allocated int64
	for i, s := range breakdownShares {
		cents := int64(math.Round(float64(totalCents) * s.share))
		if i == len(breakdownShares)-1 {
			cents = totalCents - allocated
		}
		allocated += cents
		res.Breakdown = append(res.Breakdown, BreakdownLine{Item: s.name, Share: s.share, Amount: float64(cents) / 100})
	}
	return res, nil
}
