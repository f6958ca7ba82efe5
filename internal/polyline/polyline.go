// Package polyline implements the compact encoded-polyline format used by
// route providers: each coordinate delta is written as a sequence of 5-bit
// chunks with a continuation bit, scaled to 1e-5 degree precision.
package polyline

import "fmt"

// Point is a geographic coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// DecodeError reports a malformed or empty encoded polyline.
type DecodeError struct {
	Index  int
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("polyline decode at index %d: %s", e.Index, e.Reason)
}

// Decode converts an encoded polyline into its coordinate sequence.
// It fails when the input truncates mid-chunk or decodes to zero points.
func Decode(s string) ([]Point, error) {
	if s == "" {
		return nil, &DecodeError{Index: 0, Reason: "empty input"}
	}

	var points []Point
	var lat, lng int64
	i := 0

	for i < len(s) {
		dLat, next, err := decodeDelta(s, i)
		if err != nil {
			return nil, err
		}
		dLng, after, err := decodeDelta(s, next)
		if err != nil {
			return nil, err
		}

		lat += dLat
		lng += dLng
		points = append(points, Point{
			Lat: float64(lat) * 1e-5,
			Lng: float64(lng) * 1e-5,
		})
		i = after
	}

	if len(points) == 0 {
		return nil, &DecodeError{Index: 0, Reason: "no points"}
	}
	return points, nil
}

// decodeDelta reads one signed delta starting at index i and returns the
// delta together with the index of the next unread byte.
func decodeDelta(s string, i int) (int64, int, error) {
	var value int64
	var shift uint

	for {
		if i >= len(s) {
			return 0, i, &DecodeError{Index: i, Reason: "truncated chunk"}
		}
		b := int64(s[i]) - 63
		i++
		value |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if value&1 != 0 {
		return ^(value >> 1), i, nil
	}
	return value >> 1, i, nil
}

// Encode converts a coordinate sequence into an encoded polyline.
func Encode(points []Point) string {
	var out []byte
	var prevLat, prevLng int64

	for _, p := range points {
		lat := int64(round(p.Lat * 1e5))
		lng := int64(round(p.Lng * 1e5))
		out = encodeDelta(out, lat-prevLat)
		out = encodeDelta(out, lng-prevLng)
		prevLat, prevLng = lat, lng
	}
	return string(out)
}

func encodeDelta(out []byte, delta int64) []byte {
	v := delta << 1
	if delta < 0 {
		v = ^v
	}
	for v >= 0x20 {
		out = append(out, byte((0x20|(v&0x1f))+63))
		v >>= 5
	}
	return append(out, byte(v+63))
}

func round(f float64) float64 {
	if f < 0 {
		return float64(int64(f - 0.5))
	}
	return float64(int64(f + 0.5))
}

// Centroid returns the arithmetic mean of all points in the encoded polyline.
// It fails whenever Decode fails; callers treat that as "cannot geolocate."
func Centroid(s string) (Point, error) {
	points, err := Decode(s)
	if err != nil {
		return Point{}, err
	}

	var sumLat, sumLng float64
	for _, p := range points {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(points))
	return Point{Lat: sumLat / n, Lng: sumLng / n}, nil
}
