package utils

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DescriptorLength is the fixed length of a face descriptor vector.
const DescriptorLength = 128

var (
	ErrDescriptorLength = errors.New("descriptor must contain exactly 128 values")
	ErrDescriptorValue  = errors.New("descriptor contains a non-numeric value")
)

// EncodeDescriptor serializes a face descriptor as comma-separated text for
// storage on the user row.
func EncodeDescriptor(vec []float64) (string, error) {
	if len(vec) != DescriptorLength {
		return "", ErrDescriptorLength
	}
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ","), nil
}

// DecodeDescriptor parses a stored descriptor back into a vector.
func DecodeDescriptor(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != DescriptorLength {
		return nil, ErrDescriptorLength
	}
	vec := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, ErrDescriptorValue
		}
		vec[i] = v
	}
	return vec, nil
}

// DescriptorDistance returns the Euclidean distance between two descriptors.
// A live capture matches the enrolled vector when the distance stays at or
// below the configured threshold.
func DescriptorDistance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDescriptorLength
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}
