package models

import (
	"encoding/json"
	"math"
)

// Position позиция относительно фиксированной домашней точки.
// Хранится в двух вариантах: картезианский (смещения x/y в метрах) и
// полярный (расстояние/азимут). Картезианская форма, когда она есть,
// авторитетна для расстояний и усреднения; полярная форма остается
// только для старых записей.
type Position struct {
	distanceM  float64
	bearingDeg float64
	xM         float64
	yM         float64
	cartesian  bool
}

// NewPolarPosition создает позицию только с полярными координатами
func NewPolarPosition(distanceM, bearingDeg float64) Position {
	return Position{
		distanceM:  distanceM,
		bearingDeg: bearingDeg,
	}
}

// NewCartesianPosition создает позицию из смещений x (восток) и y (север).
// Полярная форма вычисляется из смещений.
func NewCartesianPosition(xM, yM float64) Position {
	return Position{
		distanceM:  math.Sqrt(xM*xM + yM*yM),
		bearingDeg: bearingFromOffsets(xM, yM),
		xM:         xM,
		yM:         yM,
		cartesian:  true,
	}
}

// HasCartesian сообщает, известны ли картезианские смещения
func (p Position) HasCartesian() bool {
	return p.cartesian
}

// Cartesian возвращает смещения x/y в метрах, если они известны
func (p Position) Cartesian() (xM, yM float64, ok bool) {
	return p.xM, p.yM, p.cartesian
}

// DistanceM возвращает расстояние от дома в метрах
func (p Position) DistanceM() float64 {
	return p.distanceM
}

// BearingDeg возвращает азимут от дома в градусах (0-360)
func (p Position) BearingDeg() float64 {
	return p.bearingDeg
}

// DistanceTo вычисляет расстояние до другой позиции в метрах.
// Если обе позиции картезианские — евклидово расстояние, иначе
// теорема косинусов на полярных координатах.
func (p Position) DistanceTo(other Position) float64 {
	if p.cartesian && other.cartesian {
		dx := p.xM - other.xM
		dy := p.yM - other.yM
		return math.Sqrt(dx*dx + dy*dy)
	}

	dTheta := (other.bearingDeg - p.bearingDeg) * math.Pi / 180
	d2 := p.distanceM*p.distanceM + other.distanceM*other.distanceM -
		2*p.distanceM*other.distanceM*math.Cos(dTheta)
	// Защита от отрицательного эпсилона при вычислениях с плавающей точкой
	return math.Sqrt(math.Max(0, d2))
}

// Centroid вычисляет центроид набора позиций. Усреднение идет в
// картезианском пространстве; позиции без смещений конвертируются
// из полярной формы, и результат остается полярным.
func Centroid(positions []Position) Position {
	if len(positions) == 0 {
		return Position{}
	}

	allCartesian := true
	for _, p := range positions {
		if !p.cartesian {
			allCartesian = false
			break
		}
	}

	var sx, sy float64
	for _, p := range positions {
		if p.cartesian {
			sx += p.xM
			sy += p.yM
		} else {
			b := p.bearingDeg * math.Pi / 180
			sx += p.distanceM * math.Sin(b)
			sy += p.distanceM * math.Cos(b)
		}
	}

	cx := sx / float64(len(positions))
	cy := sy / float64(len(positions))

	if allCartesian {
		return NewCartesianPosition(cx, cy)
	}
	return NewPolarPosition(math.Sqrt(cx*cx+cy*cy), bearingFromOffsets(cx, cy))
}

// bearingFromOffsets вычисляет азимут (0-360) из смещений x/y
func bearingFromOffsets(xM, yM float64) float64 {
	return math.Mod(math.Atan2(xM, yM)*180/math.Pi+360, 360)
}

// positionJSON промежуточная форма для сериализации
type positionJSON struct {
	DistanceM  float64  `json:"distance_m"`
	BearingDeg float64  `json:"bearing_deg"`
	XM         *float64 `json:"x_m,omitempty"`
	YM         *float64 `json:"y_m,omitempty"`
}

// MarshalJSON сериализует позицию, опуская смещения для полярных записей
func (p Position) MarshalJSON() ([]byte, error) {
	out := positionJSON{
		DistanceM:  p.distanceM,
		BearingDeg: p.bearingDeg,
	}
	if p.cartesian {
		x, y := p.xM, p.yM
		out.XM = &x
		out.YM = &y
	}
	return json.Marshal(out)
}

// UnmarshalJSON восстанавливает вариант позиции по наличию смещений
func (p *Position) UnmarshalJSON(data []byte) error {
	var in positionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if in.XM != nil && in.YM != nil {
		*p = NewCartesianPosition(*in.XM, *in.YM)
		return nil
	}
	*p = NewPolarPosition(in.DistanceM, in.BearingDeg)
	return nil
}
