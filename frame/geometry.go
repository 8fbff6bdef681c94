package frame

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkt"
)

// ParseWKT decodes a well-known-text geometry.
func ParseWKT(text string) (geom.T, error) {
	g, err := wkt.Unmarshal(text)
	if err != nil {
		return nil, NewExecutionError("invalid WKT %q: %v", text, err)
	}
	return g, nil
}

// FormatWKT encodes a geometry as well-known text.
func FormatWKT(g geom.T) (string, error) {
	text, err := wkt.Marshal(g)
	if err != nil {
		return "", NewExecutionError("cannot encode geometry as WKT: %v", err)
	}
	return text, nil
}

// Reproject transforms every geometry of c into crs and tags the result
// with it. Both CRS must be known.
func (c *Column) Reproject(crs int) (*Column, error) {
	if err := c.RequireCRS("reprojection"); err != nil {
		return nil, err
	}
	if c.crs == crs {
		return c, nil
	}
	transform, err := NewTransform(c.crs, crs)
	if err != nil {
		return nil, err
	}
	values := make([]any, len(c.values))
	for i, v := range c.values {
		if v == nil {
			continue
		}
		g, ok := v.(geom.T)
		if !ok {
			return nil, NewExecutionError("column %q holds a non-geometry value at row %d", c.name, i)
		}
		if values[i], err = transformGeometry(g, transform); err != nil {
			return nil, err
		}
	}
	out := newColumn(c.name, values, Geometry, crs)
	return out, nil
}

// transformGeometry applies fn to every coordinate of a copy of g.
func transformGeometry(g geom.T, fn Transform) (geom.T, error) {
	var clone geom.T
	switch t := g.(type) {
	case *geom.Point:
		clone = t.Clone()
	case *geom.LineString:
		clone = t.Clone()
	case *geom.LinearRing:
		clone = t.Clone()
	case *geom.Polygon:
		clone = t.Clone()
	case *geom.MultiPoint:
		clone = t.Clone()
	case *geom.MultiLineString:
		clone = t.Clone()
	case *geom.MultiPolygon:
		clone = t.Clone()
	case *geom.GeometryCollection:
		out := geom.NewGeometryCollection()
		for _, child := range t.Geoms() {
			transformed, err := transformGeometry(child, fn)
			if err != nil {
				return nil, err
			}
			if err := out.Push(transformed); err != nil {
				return nil, NewExecutionError("cannot rebuild geometry collection: %v", err)
			}
		}
		return out, nil
	default:
		return nil, NewExecutionError("unsupported geometry type %T", g)
	}

	coords := clone.FlatCoords()
	stride := clone.Stride()
	for i := 0; i+1 < len(coords); i += stride {
		coords[i], coords[i+1] = fn(coords[i], coords[i+1])
	}
	return clone, nil
}
