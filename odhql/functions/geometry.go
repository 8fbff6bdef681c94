package functions

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"

	"github.com/hsr-ba-fs15-dat/opendatahub-sub000/frame"
)

func geometry(name string) Param { return Param{Name: name, Kind: GeometryKind} }

func srid(optional bool) Param {
	return Param{Name: "srid", Kind: IntKind, Literal: true, Optional: optional}
}

func geometryFunctions() []*Function {
	return []*Function{
		geomFromTextFunction(),
		setSRIDFunction(),
		sridFunction(),
		asTextFunction(),
		centroidFunction(),
		pointCoordFunction("ST_X", (*geom.Point).X),
		pointCoordFunction("ST_Y", (*geom.Point).Y),
		areaFunction(),
		transformFunction(),
	}
}

// geomFromTextFunction parses WKT, optionally tagging the result with a CRS.
func geomFromTextFunction() *Function {
	f := &Function{Name: "ST_GeomFromText", Params: []Param{text("wkt"), srid(true)}, Returns: frame.Geometry}
	f.Apply = func(c *Call) (*frame.Column, error) {
		col, err := c.Map(0, func(v any) (any, error) {
			return frame.ParseWKT(v.(string))
		})
		if err != nil {
			return nil, err
		}
		return col.WithCRS(int(c.Int(1, 0))), nil
	}
	return f
}

// setSRIDFunction attaches a CRS without transforming coordinates.
func setSRIDFunction() *Function {
	f := &Function{Name: "ST_SetSRID", Params: []Param{geometry("geometry"), srid(false)}, Returns: frame.Geometry}
	f.Apply = func(c *Call) (*frame.Column, error) {
		return c.Column(0).WithType(frame.Geometry).WithCRS(int(c.Int(1, 0))), nil
	}
	return f
}

func sridFunction() *Function {
	f := &Function{Name: "ST_SRID", Params: []Param{geometry("geometry")}, Returns: frame.Integer}
	f.Apply = func(c *Call) (*frame.Column, error) {
		col := c.Column(0)
		if err := col.RequireCRS(f.Name); err != nil {
			return nil, err
		}
		return frame.Broadcast(f.Name, int64(col.CRS()), c.Rows), nil
	}
	return f
}

func asTextFunction() *Function {
	f := &Function{Name: "ST_AsText", Params: []Param{geometry("geometry")}, Returns: frame.Text}
	f.Apply = func(c *Call) (*frame.Column, error) {
		return c.Map(0, func(v any) (any, error) {
			return frame.FormatWKT(v.(geom.T))
		})
	}
	return f
}

func centroidFunction() *Function {
	f := &Function{Name: "ST_Centroid", Params: []Param{geometry("geometry")}, Returns: frame.Geometry}
	f.Apply = func(c *Call) (*frame.Column, error) {
		col, err := c.Map(0, func(v any) (any, error) {
			center, err := xy.Centroid(v.(geom.T))
			if err != nil {
				return nil, err
			}
			return geom.NewPointFlat(geom.XY, []float64{center.X(), center.Y()}), nil
		})
		if err != nil {
			return nil, err
		}
		return col.WithCRS(c.Column(0).CRS()), nil
	}
	return f
}

func pointCoordFunction(name string, coord func(*geom.Point) float64) *Function {
	f := &Function{Name: name, Params: []Param{geometry("point")}, Returns: frame.Float}
	f.Apply = func(c *Call) (*frame.Column, error) {
		return c.Map(0, func(v any) (any, error) {
			p, ok := v.(*geom.Point)
			if !ok {
				return nil, frame.NewExecutionError("%s: argument \"point\" must be a point, got %s", name, frame.FormatValue(v))
			}
			return coord(p), nil
		})
	}
	return f
}

// areaFunction returns the planar area; geometries without area yield 0.
func areaFunction() *Function {
	f := &Function{Name: "ST_Area", Params: []Param{geometry("geometry")}, Returns: frame.Float}
	f.Apply = func(c *Call) (*frame.Column, error) {
		return c.Map(0, func(v any) (any, error) {
			switch g := v.(type) {
			case *geom.Polygon:
				return math.Abs(g.Area()), nil
			case *geom.MultiPolygon:
				return math.Abs(g.Area()), nil
			default:
				return 0.0, nil
			}
		})
	}
	return f
}

// transformFunction reprojects into another CRS.
func transformFunction() *Function {
	f := &Function{Name: "ST_Transform", Params: []Param{geometry("geometry"), srid(false)}, Returns: frame.Geometry}
	f.Apply = func(c *Call) (*frame.Column, error) {
		return c.Column(0).WithType(frame.Geometry).Reproject(int(c.Int(1, 0)))
	}
	return f
}
