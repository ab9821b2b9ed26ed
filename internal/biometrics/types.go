// Package biometrics reshapes raw EEG records into chart-ready time series.
package biometrics

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Record is one sampled snapshot from the wearable, as delivered by the backend.
type Record struct {
	ID                string             `json:"id"`
	CreatedAt         time.Time          `json:"createdAt"`
	Timestamp         time.Time          `json:"timestamp"`
	SessionID         string             `json:"sessionId"`
	EEG               EEGData            `json:"eegData"`
	FrequencyAnalysis *FrequencyAnalysis `json:"frequencyAnalysis,omitempty"`
}

// UnmarshalJSON decodes a record, reading createdAt and timestamp leniently:
// RFC 3339, ISO 8601 without a zone (local time), a bare date (UTC) and
// epoch milliseconds are accepted. Anything else, including "" and null,
// decodes as the zero time.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var aux struct {
		plain
		CreatedAt json.RawMessage `json:"createdAt"`
		Timestamp json.RawMessage `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux.plain)
	r.CreatedAt = parseTime(aux.CreatedAt)
	r.Timestamp = parseTime(aux.Timestamp)
	return nil
}

// zonedLayouts carry their own offset; localLayouts are read in time.Local.
var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02 15:04:05.999999999Z07:00",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
	}
)

func parseTime(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}

	if raw[0] != '"' {
		var ms float64
		if err := json.Unmarshal(raw, &ms); err != nil {
			return time.Time{}
		}
		return time.UnixMilli(int64(ms))
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t
		}
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t
	}
	return time.Time{}
}

// EEGData holds the raw per-channel voltages of a record.
type EEGData struct {
	Channels     map[string]Channel `json:"channels"`
	SamplingRate float64            `json:"samplingRate"`
}

// Channel is a single electrode reading.
type Channel struct {
	ChannelName  string  `json:"channelName"`
	VoltageValue float64 `json:"voltageValue"`
}

// FrequencyAnalysis is present only when upstream had enough samples to
// compute spectral power. It is ignored unless HasAnalysis is set.
type FrequencyAnalysis struct {
	HasAnalysis bool                       `json:"hasAnalysis"`
	Channels    map[string]ChannelAnalysis `json:"channels"`
}

// ChannelAnalysis is the spectral breakdown of one channel.
type ChannelAnalysis struct {
	FrequencyBands FrequencyBands `json:"frequencyBands"`
	Ratios         Ratios         `json:"ratios"`
}

// FrequencyBands are non-negative band power magnitudes.
type FrequencyBands struct {
	Delta      float64 `json:"delta"`
	Alpha      float64 `json:"alpha"`
	Beta       float64 `json:"beta"`
	Theta      float64 `json:"theta"`
	Gamma      float64 `json:"gamma"`
	AlphaMajor float64 `json:"alphaMajor"`
	BetaMajor  float64 `json:"betaMajor"`
}

// Ratios are band power quotients computed upstream per channel.
type Ratios struct {
	AlphaTheta          float64 `json:"alphaThetaRatio"`
	AlphaBeta           float64 `json:"alphaBetaRatio"`
	ThetaBeta           float64 `json:"thetaBetaRatio"`
	AlphaMajorBetaMajor float64 `json:"alphaMajorBetaMajorRatio"`
	ThetaAlpha          float64 `json:"thetaAlphaRatio"`
}

// hasFrequencyData reports whether the record contributes to band and ratio series.
func (r *Record) hasFrequencyData() bool {
	return r.FrequencyAnalysis != nil && r.FrequencyAnalysis.HasAnalysis
}

// VoltagePoint is one record's channel voltages. Missing channels are 0.
type VoltagePoint struct {
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
	Channel0  float64   `json:"channel_0"`
	Channel1  float64   `json:"channel_1"`
	Channel2  float64   `json:"channel_2"`
	Channel3  float64   `json:"channel_3"`
}

// BandPoint is one record's band powers averaged across reporting channels.
type BandPoint struct {
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
	Delta     float64   `json:"delta"`
	Alpha     float64   `json:"alpha"`
	Beta      float64   `json:"beta"`
	Theta     float64   `json:"theta"`
	Gamma     float64   `json:"gamma"`
}

// RatioPoint holds the averaged upstream ratios plus two ratios re-derived
// from the averaged bands.
type RatioPoint struct {
	Time                     string    `json:"time"`
	Timestamp                time.Time `json:"timestamp"`
	AlphaThetaRatio          float64   `json:"alphaThetaRatio"`
	AlphaBetaRatio           float64   `json:"alphaBetaRatio"`
	ThetaBetaRatio           float64   `json:"thetaBetaRatio"`
	AlphaMajorBetaMajorRatio float64   `json:"alphaMajorBetaMajorRatio"`
	ThetaAlphaRatio          float64   `json:"thetaAlphaRatio"`
	BetaThetaRatio           float64   `json:"betaThetaRatio"`
	BetaAlphaRatio           float64   `json:"betaAlphaRatio"`
}

// IndexPoint is the display view of a RatioPoint:
//   - Fatigue  = theta/beta (averaged upstream)
//   - Calmness = alpha/beta (averaged upstream)
//   - Focus    = beta/theta (re-derived)
//   - Anxiety  = beta/alpha (re-derived)
type IndexPoint struct {
	Time      string    `json:"time"`
	Timestamp time.Time `json:"timestamp"`
	Fatigue   float64   `json:"fatigue"`
	Calmness  float64   `json:"calmness"`
	Focus     float64   `json:"focus"`
	Anxiety   float64   `json:"anxiety"`
}

// Series is the full output of Aggregate. Voltage has one point per input
// record; Bands, Ratios and Indices have one point per record with frequency
// analysis. All four are in chronological order.
type Series struct {
	Voltage []VoltagePoint `json:"channelVoltageData"`
	Bands   []BandPoint    `json:"frequencyBandData"`
	Ratios  []RatioPoint   `json:"frequencyRatioData"`
	Indices []IndexPoint   `json:"indexData"`
}

// Indices converts a ratio point to its index view.
func (p RatioPoint) Indices() IndexPoint {
	return IndexPoint{
		Time:      p.Time,
		Timestamp: p.Timestamp,
		Fatigue:   p.ThetaBetaRatio,
		Calmness:  p.AlphaBetaRatio,
		Focus:     p.BetaThetaRatio,
		Anxiety:   p.BetaAlphaRatio,
	}
}
