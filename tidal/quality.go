package tidal

import "fmt"

// Quality represents an audio quality tier. Tiers are strictly ordered;
// quality selection only ever falls downward from the requested tier.
type Quality int

const (
	QualityLow Quality = iota
	QualityNormal
	QualityHigh
	QualityMax
)

var qualityNames = map[Quality]string{
	QualityLow:    "LOW",
	QualityNormal: "NORMAL",
	QualityHigh:   "HIGH",
	QualityMax:    "MAX",
}

// String returns the tier name.
func (q Quality) String() string {
	if name, ok := qualityNames[q]; ok {
		return name
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// ParseQuality parses a tier name.
func ParseQuality(s string) (Quality, error) {
	for q, name := range qualityNames {
		if name == s {
			return q, nil
		}
	}
	return QualityLow, fmt.Errorf("unknown quality %q (expected LOW, NORMAL, HIGH or MAX)", s)
}

// Ext returns the container file extension for a tier.
// LOW and NORMAL are AAC in an MP4 container, HIGH and MAX are FLAC.
func (q Quality) Ext() string {
	if q >= QualityHigh {
		return ".flac"
	}
	return ".m4a"
}

// Lossless reports whether the tier carries lossless audio.
func (q Quality) Lossless() bool {
	return q >= QualityHigh
}
