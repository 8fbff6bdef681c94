package frame

import "math"

// Transform maps one planar coordinate pair onto another.
type Transform func(x, y float64) (float64, float64)

// Well-known EPSG codes with built-in transforms.
const (
	WGS84       = 4326
	WebMercator = 3857
	LV95        = 2056
	LV03        = 21781
)

const earthRadius = 6378137.0

type projection struct {
	toWGS84   Transform
	fromWGS84 Transform
}

var projections = map[int]projection{
	WGS84: {
		toWGS84:   func(x, y float64) (float64, float64) { return x, y },
		fromWGS84: func(x, y float64) (float64, float64) { return x, y },
	},
	WebMercator: {toWGS84: mercatorToWGS84, fromWGS84: wgs84ToMercator},
	LV95:        {toWGS84: lv95ToWGS84, fromWGS84: wgs84ToLV95},
	LV03: {
		toWGS84: func(x, y float64) (float64, float64) {
			return lv95ToWGS84(x+2000000, y+1000000)
		},
		fromWGS84: func(x, y float64) (float64, float64) {
			e, n := wgs84ToLV95(x, y)
			return e - 2000000, n - 1000000
		},
	},
}

// SupportedCRS reports whether transforms to and from crs are available.
func SupportedCRS(crs int) bool {
	_, ok := projections[crs]
	return ok
}

// NewTransform returns the coordinate transform between two EPSG codes,
// pivoting through WGS84.
func NewTransform(from, to int) (Transform, error) {
	src, ok := projections[from]
	if !ok {
		return nil, NewExecutionError("unsupported CRS EPSG:%d", from)
	}
	dst, ok := projections[to]
	if !ok {
		return nil, NewExecutionError("unsupported CRS EPSG:%d", to)
	}
	if from == to {
		return projections[WGS84].toWGS84, nil
	}
	return func(x, y float64) (float64, float64) {
		return dst.fromWGS84(src.toWGS84(x, y))
	}, nil
}

func wgs84ToMercator(lon, lat float64) (float64, float64) {
	x := earthRadius * lon * math.Pi / 180
	y := earthRadius * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}

func mercatorToWGS84(x, y float64) (float64, float64) {
	lon := x / earthRadius * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * 180 / math.Pi
	return lon, lat
}

// wgs84ToLV95 uses the swisstopo approximation (accuracy about 1m).
func wgs84ToLV95(lon, lat float64) (float64, float64) {
	phi := (lat*3600 - 169028.66) / 10000
	lambda := (lon*3600 - 26782.5) / 10000

	e := 2600072.37 +
		211455.93*lambda -
		10938.51*lambda*phi -
		0.36*lambda*phi*phi -
		44.54*lambda*lambda*lambda
	n := 1200147.07 +
		308807.95*phi +
		3745.25*lambda*lambda +
		76.63*phi*phi -
		194.56*lambda*lambda*phi +
		119.79*phi*phi*phi
	return e, n
}

func lv95ToWGS84(e, n float64) (float64, float64) {
	y := (e - 2600000) / 1000000
	x := (n - 1200000) / 1000000

	lambda := 2.6779094 +
		4.728982*y +
		0.791484*y*x +
		0.1306*y*x*x -
		0.0436*y*y*y
	phi := 16.9023892 +
		3.238272*x -
		0.270978*y*y -
		0.002528*x*x -
		0.0447*y*y*x -
		0.0140*x*x*x
	return lambda * 100 / 36, phi * 100 / 36
}
