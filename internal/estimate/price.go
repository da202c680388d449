package estimate

import (
	"fmt"
	"math"
	"strings"

	"github.com/Knetic/govaluate"
)

// Quantities 参与计价的材料用量
type Quantities struct {
	CementBags  float64 `json:"cement_bags" binding:"gte=0"`
	SandM3      float64 `json:"sand_m3" binding:"gte=0"`
	AggregateM3 float64 `json:"aggregate_m3" binding:"gte=0"`
	SteelKg     float64 `json:"steel_kg" binding:"gte=0"`
	WaterLitres float64 `json:"water_litres" binding:"gte=0"`
	ConcreteM3  float64 `json:"concrete_m3" binding:"gte=0"`
}

// UnitPrices 材料单价，0 表示不计价
type UnitPrices struct {
	CementBag   float64 `json:"cement_bag" binding:"gte=0"`
	SandM3      float64 `json:"sand_m3" binding:"gte=0"`
	AggregateM3 float64 `json:"aggregate_m3" binding:"gte=0"`
	SteelKg     float64 `json:"steel_kg" binding:"gte=0"`
	WaterLitre  float64 `json:"water_litre" binding:"gte=0"`
	ConcreteM3  float64 `json:"concrete_m3" binding:"gte=0"`
}

// CustomLine 自定义费用行，Formula 为表达式，例如 "concrete_m3 * 35"
type CustomLine struct {
	Name    string `json:"name" binding:"required"`
	Formula string `json:"formula" binding:"required"`
}

// PriceInput 对应单价计算表单
type PriceInput struct {
	Quantities         Quantities   `json:"quantities"`
	Prices             UnitPrices   `json:"prices"`
	LabourPercent      float64      `json:"labour_percent" binding:"gte=0,lte=100"`
	ContingencyPercent float64      `json:"contingency_percent" binding:"gte=0,lte=100"`
	CustomLines        []CustomLine `json:"custom_lines" binding:"dive"`
	Currency           string       `json:"currency"`
}

type PriceLine struct {
	Item      string  `json:"item"`
	Unit      string  `json:"unit,omitempty"`
	Quantity  float64 `json:"quantity,omitempty"`
	UnitPrice float64 `json:"unit_price,omitempty"`
	Amount    float64 `json:"amount"`
}

type PriceResult struct {
	Currency         string      `json:"currency"`
	Lines            []PriceLine `json:"lines"`
	CustomLines      []PriceLine `json:"custom_lines,omitempty"`
	MaterialSubtotal float64     `json:"material_subtotal"`
	CustomSubtotal   float64     `json:"custom_subtotal"`
	Labour           float64     `json:"labour"`
	Contingency      float64     `json:"contingency"`
	Total            float64     `json:"total"`
}

// CalculatePrice 把用量乘以单价，加上自定义费用、人工和不可预见费
func CalculatePrice(in PriceInput) (*PriceResult, error) {
	if err := checkPercent("labour_percent", in.LabourPercent); err != nil {
		return nil, err
	}
	if err := checkPercent("contingency_percent", in.ContingencyPercent); err != nil {
		return nil, err
	}

	q, p := in.Quantities, in.Prices
	materials := []struct {
		item, unit string
		qty, price float64
		field      string
	}{
		{"Cement", "bag", q.CementBags, p.CementBag, "cement_bags"},
		{"Sand", "m3", q.SandM3, p.SandM3, "sand_m3"},
		{"Aggregate", "m3", q.AggregateM3, p.AggregateM3, "aggregate_m3"},
		{"Steel", "kg", q.SteelKg, p.SteelKg, "steel_kg"},
		{"Water", "litre", q.WaterLitres, p.WaterLitre, "water_litres"},
		{"Ready-mix concrete", "m3", q.ConcreteM3, p.ConcreteM3, "concrete_m3"},
	}

	res := &PriceResult{Currency: strings.ToUpper(in.Currency)}
	var subtotal float64
	for _, m := range materials {
		if m.qty < 0 {
			return nil, inputErr("quantities."+m.field, "must not be negative")
		}
		if m.price < 0 {
			return nil, inputErr("prices", "unit price for %s must not be negative", strings.ToLower(m.item))
		}
		if m.qty == 0 || m.price == 0 {
			continue
		}
		amount := m.qty * m.price
		subtotal += amount
		res.Lines = append(res.Lines, PriceLine{
			Item:      m.item,
			Unit:      m.unit,
			Quantity:  Qty(m.qty),
			UnitPrice: m.price,
			Amount:    Money(amount),
		})
	}

	params := map[string]interface{}{
		"cement_bags":       q.CementBags,
		"sand_m3":           q.SandM3,
		"aggregate_m3":      q.AggregateM3,
		"steel_kg":          q.SteelKg,
		"water_litres":      q.WaterLitres,
		"concrete_m3":       q.ConcreteM3,
		"material_subtotal": subtotal,
	}

	var custom float64
	for i, line := range in.CustomLines {
		amount, err := evaluateFormula(line.Formula, params)
		if err != nil {
			return nil, inputErr(fmt.Sprintf("custom_lines[%d].formula", i), "%q: %v", line.Name, err)
		}
		custom += amount
		res.CustomLines = append(res.CustomLines, PriceLine{Item: line.Name, Amount: Money(amount)})
	}

	labour := (subtotal + custom) * in.LabourPercent / 100
	contingency := (subtotal + custom + labour) * in.ContingencyPercent / 100

	res.MaterialSubtotal = Money(subtotal)
	res.CustomSubtotal = Money(custom)
	res.Labour = Money(labour)
	res.Contingency = Money(contingency)
	res.Total = Money(subtotal + custom + labour + contingency)
	return res, nil
}

func evaluateFormula(formula string, params map[string]interface{}) (float64, error) {
	if strings.TrimSpace(formula) == "" {
		return 0, fmt.Errorf("formula is empty")
	}
	expr, err := govaluate.NewEvaluableExpression(formula)
	if err != nil {
		return 0, fmt.Errorf("invalid formula: %w", err)
	}
	out, err := expr.Evaluate(params)
	if err != nil {
		return 0, fmt.Errorf("evaluation failed: %w", err)
	}
	v, ok := out.(float64)
	if !ok {
		return 0, fmt.Errorf("formula must produce a number, got %T", out)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("formula produced a non-finite number")
	}
	return v, nil
}
