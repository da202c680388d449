package estimate

import (
	"fmt"
	"sort"
)

// StandardDiameters 允许的钢筋直径 (mm)
var StandardDiameters = []int{6, 8, 10, 12, 14, 16, 18, 20, 22, 25, 28, 32, 36, 40}

func standardDiameter(d int) bool {
	for _, s := range StandardDiameters {
		if s == d {
			return true
		}
	}
	return false
}

// UnitWeight 每米钢筋重量 kg/m，d²/162
func UnitWeight(diameterMM int) float64 {
	d := float64(diameterMM)
	return d * d / 162
}

type SteelBar struct {
	Label      string  `json:"label"`
	DiameterMM int     `json:"diameter_mm" binding:"required"`
	LengthM    float64 `json:"length_m" binding:"gt=0"`
	Count      int     `json:"count" binding:"gt=0"`
}

// SteelInput 对应钢筋计算表单（钢筋表）
type SteelInput struct {
	Bars           []SteelBar `json:"bars" binding:"required,min=1,dive"`
	WastagePercent float64    `json:"wastage_percent" binding:"gte=0,lte=100"`
}

type SteelLine struct {
	Label        string  `json:"label"`
	DiameterMM   int     `json:"diameter_mm"`
	Count        int     `json:"count"`
	TotalLengthM float64 `json:"total_length_m"`
	UnitWeight   float64 `json:"unit_weight_kg_m"`
	WeightKg     float64 `json:"weight_kg"`
}

type DiameterTotal struct {
	DiameterMM   int     `json:"diameter_mm"`
	TotalLengthM float64 `json:"total_length_m"`
	WeightKg     float64 `json:"weight_kg"`
}

type SteelResult struct {
	Lines         []SteelLine     `json:"lines"`
	ByDiameter    []DiameterTotal `json:"by_diameter"`
	TotalLengthM  float64         `json:"total_length_m"`
	NetWeightKg   float64         `json:"net_weight_kg"`
	TotalWeightKg float64         `json:"total_weight_kg"`
	TotalTonnes   float64         `json:"total_tonnes"`
}

// CalculateSteel 按钢筋表计算重量，并按直径汇总
func CalculateSteel(in SteelInput) (*SteelResult, error) {
	if len(in.Bars) == 0 {
		return nil, inputErr("bars", "at least one bar is required")
	}
	if err := checkPercent("wastage_percent", in.WastagePercent); err != nil {
		return nil, err
	}

	res := &SteelResult{}
	groups := make(map[int]*DiameterTotal)
	for i, bar := range in.Bars {
		field := fmt.Sprintf("bars[%d]", i)
		if !standardDiameter(bar.DiameterMM) {
			return nil, inputErr(field+".diameter_mm", "%d mm is not a standard bar diameter", bar.DiameterMM)
		}
		if bar.LengthM <= 0 {
			return nil, inputErr(field+".length_m", "must be greater than 0")
		}
		if bar.Count <= 0 {
			return nil, inputErr(field+".count", "must be greater than 0")
		}

		length := bar.LengthM * float64(bar.Count)
		unit := UnitWeight(bar.DiameterMM)
		weight := unit * length

		res.Lines = append(res.Lines, SteelLine{
			Label:        bar.Label,
			DiameterMM:   bar.DiameterMM,
			Count:        bar.Count,
			TotalLengthM: Qty(length),
			UnitWeight:   Qty(unit),
			WeightKg:     Qty(weight),
		})

		g, ok := groups[bar.DiameterMM]
		if !ok {
			g = &DiameterTotal{DiameterMM: bar.DiameterMM}
			groups[bar.DiameterMM] = g
		}
		g.TotalLengthM += length
		g.WeightKg += weight

		res.TotalLengthM += length
		res.NetWeightKg += weight
	}

	for _, g := range groups {
		res.ByDiameter = append(res.ByDiameter, DiameterTotal{
			DiameterMM:   g.DiameterMM,
			TotalLengthM: Qty(g.TotalLengthM),
			WeightKg:     Qty(g.WeightKg),
		})
	}
	sort.Slice(res.ByDiameter, func(i, j int) bool {
		return res.ByDiameter[i].DiameterMM < res.ByDiameter[j].DiameterMM
	})

	total := res.NetWeightKg * (1 + in.WastagePercent/100)
	res.TotalLengthM = Qty(res.TotalLengthM)
	res.NetWeightKg = Qty(res.NetWeightKg)
	res.TotalWeightKg = Qty(total)
	res.TotalTonnes = Qty(total / 1000)
	return res, nil
}
