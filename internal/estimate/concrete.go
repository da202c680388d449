package estimate

import (
	"fmt"
	"math"
	"strings"
)

// 混凝土构件类型
const (
	ElementSlab    = "slab"
	ElementBeam    = "beam"
	ElementColumn  = "column"
	ElementFooting = "footing"
	ElementWall    = "wall"
)

const (
	// DryVolumeFactor 湿体积换算干料体积的系数
	DryVolumeFactor = 1.54
	// CementDensity 水泥堆积密度 kg/m³
	CementDensity = 1440.0
	// CementBagKg 每袋水泥重量
	CementBagKg             = 50.0
	DefaultGrade            = "M20"
	DefaultWaterCementRatio = 0.5
)

// MixRatio 水泥:砂:石
type MixRatio struct {
	Cement    float64 `json:"cement"`
	Sand      float64 `json:"sand"`
	Aggregate float64 `json:"aggregate"`
}

func (m MixRatio) total() float64 {
	return m.Cement + m.Sand + m.Aggregate
}

// MixRatios 常用标号的名义配合比
var MixRatios = map[string]MixRatio{
	"M10": {1, 3, 6},
	"M15": {1, 2, 4},
	"M20": {1, 1.5, 3},
	"M25": {1, 1, 2},
}

type ConcreteElement struct {
	Type   string  `json:"type" binding:"required,oneof=slab beam column footing wall"`
	Label  string  `json:"label"`
	Length float64 `json:"length" binding:"gt=0"`
	Width  float64 `json:"width" binding:"gt=0"`
	Depth  float64 `json:"depth" binding:"gt=0"`
	Count  int     `json:"count" binding:"gte=0"`
}

// ConcreteInput 对应混凝土计算表单
type ConcreteInput struct {
	Elements         []ConcreteElement `json:"elements" binding:"required,min=1,dive"`
	Grade            string            `json:"grade"`
	WastagePercent   float64           `json:"wastage_percent" binding:"gte=0,lte=100"`
	WaterCementRatio float64           `json:"water_cement_ratio" binding:"gte=0"`
}

type ConcreteLine struct {
	Type   string  `json:"type"`
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	Volume float64 `json:"volume_m3"`
}

type ConcreteResult struct {
	Grade       string         `json:"grade"`
	Mix         MixRatio       `json:"mix"`
	Lines       []ConcreteLine `json:"lines"`
	NetVolume   float64        `json:"net_volume_m3"`
	WetVolume   float64        `json:"wet_volume_m3"`
	DryVolume   float64        `json:"dry_volume_m3"`
	CementKg    float64        `json:"cement_kg"`
	CementBags  int            `json:"cement_bags"`
	SandM3      float64        `json:"sand_m3"`
	AggregateM3 float64        `json:"aggregate_m3"`
	WaterLitres float64        `json:"water_litres"`
}

// CalculateConcrete 计算混凝土体积以及水泥、砂、石和水的用量
func CalculateConcrete(in ConcreteInput) (*ConcreteResult, error) {
	if len(in.Elements) == 0 {
		return nil, inputErr("elements", "at least one element is required")
	}
	if err := checkPercent("wastage_percent", in.WastagePercent); err != nil {
		return nil, err
	}

	grade := strings.ToUpper(strings.TrimSpace(in.Grade))
	if grade == "" {
		grade = DefaultGrade
	}
	mix, ok := MixRatios[grade]
	if !ok {
		return nil, inputErr("grade", "unknown concrete grade %q", in.Grade)
	}

	wc := in.WaterCementRatio
	if wc < 0 {
		return nil, inputErr("water_cement_ratio", "must not be negative")
	}
	if wc == 0 {
		wc = DefaultWaterCementRatio
	}

	res := &ConcreteResult{Grade: grade, Mix: mix}
	for i, el := range in.Elements {
		line, err := concreteLine(i, el)
		if err != nil {
			return nil, err
		}
		res.NetVolume += line.Volume
		line.Volume = Qty(line.Volume)
		res.Lines = append(res.Lines, line)
	}

	wet := res.NetVolume * (1 + in.WastagePercent/100)
	dry := wet * DryVolumeFactor
	parts := mix.total()

	cementM3 := dry * mix.Cement / parts
	cementKg := cementM3 * CementDensity

	res.NetVolume = Qty(res.NetVolume)
	res.WetVolume = Qty(wet)
	res.DryVolume = Qty(dry)
	res.CementKg = Qty(cementKg)
	res.CementBags = int(math.Ceil(round(cementKg/CementBagKg, 6)))
	res.SandM3 = Qty(dry * mix.Sand / parts)
	res.AggregateM3 = Qty(dry * mix.Aggregate / parts)
	res.WaterLitres = Qty(cementKg * wc)
	return res, nil
}

func concreteLine(i int, el ConcreteElement) (ConcreteLine, error) {
	field := fmt.Sprintf("elements[%d]", i)
	switch el.Type {
	case ElementSlab, ElementBeam, ElementColumn, ElementFooting, ElementWall:
	default:
		return ConcreteLine{}, inputErr(field+".type", "unknown element type %q", el.Type)
	}
	if el.Length <= 0 {
		return ConcreteLine{}, inputErr(field+".length", "must be greater than 0")
	}
	if el.Width <= 0 {
		return ConcreteLine{}, inputErr(field+".width", "must be greater than 0")
	}
	if el.Depth <= 0 {
		return ConcreteLine{}, inputErr(field+".depth", "must be greater than 0")
	}
	if el.Count < 0 {
		return ConcreteLine{}, inputErr(field+".count", "must not be negative")
	}
	count := el.Count
	if count == 0 {
		count = 1
	}
	return ConcreteLine{
		Type:   el.Type,
		Label:  el.Label,
		Count:  count,
		Volume: el.Length * el.Width * el.Depth * float64(count),
	}, nil
}
