package biometrics

import (
	"cmp"
	"maps"
	"slices"
	"time"
)

// timeLabelFormat renders a 24-hour "HH:MM" label.
const timeLabelFormat = "15:04"

// voltageChannels are the channels projected into the voltage series.
var voltageChannels = [4]string{"channel_0", "channel_1", "channel_2", "channel_3"}

// Option configures Aggregate.
type Option func(*options)

type options struct {
	loc *time.Location
}

// WithLocation sets the zone used for time labels (default: time.Local).
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// Aggregate turns unordered records into the four chart series.
//
// Records are sorted by Timestamp, ties broken by ID, so any permutation of
// the same input yields identical output. The input slice is not modified.
// Aggregate never fails: missing channels and missing analysis degrade to
// zero values or shorter series.
func Aggregate(records []Record, opts ...Option) Series {
	o := options{loc: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b Record) int {
		if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	series := Series{
		Voltage: make([]VoltagePoint, 0, len(sorted)),
		Bands:   []BandPoint{},
		Ratios:  []RatioPoint{},
		Indices: []IndexPoint{},
	}

	for i := range sorted {
		r := &sorted[i]
		label := TimeLabel(r.Timestamp, o.loc)

		series.Voltage = append(series.Voltage, voltagePoint(r, label))

		if !r.hasFrequencyData() {
			continue
		}

		channels := orderedChannels(r.FrequencyAnalysis.Channels)
		bands := averageBands(channels)
		ratios := averageRatios(channels)

		band := BandPoint{
			Time:      label,
			Timestamp: r.Timestamp,
			Delta:     bands.Delta,
			Alpha:     bands.Alpha,
			Beta:      bands.Beta,
			Theta:     bands.Theta,
			Gamma:     bands.Gamma,
		}
		ratio := RatioPoint{
			Time:                     label,
			Timestamp:                r.Timestamp,
			AlphaThetaRatio:          ratios.AlphaTheta,
			AlphaBetaRatio:           ratios.AlphaBeta,
			ThetaBetaRatio:           ratios.ThetaBeta,
			AlphaMajorBetaMajorRatio: ratios.AlphaMajorBetaMajor,
			ThetaAlphaRatio:          ratios.ThetaAlpha,
			BetaThetaRatio:           safeDiv(bands.Beta, bands.Theta),
			BetaAlphaRatio:           safeDiv(bands.Beta, bands.Alpha),
		}

		series.Bands = append(series.Bands, band)
		series.Ratios = append(series.Ratios, ratio)
		series.Indices = append(series.Indices, ratio.Indices())
	}

	return series
}

// TimeLabel formats t as a 24-hour "HH:MM" label in loc.
func TimeLabel(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(timeLabelFormat)
}

func voltagePoint(r *Record, label string) VoltagePoint {
	var v [4]float64
	for i, name := range voltageChannels {
		// Absent channels read as the zero Channel.
		v[i] = r.EEG.Channels[name].VoltageValue
	}
	return VoltagePoint{
		Time:      label,
		Timestamp: r.Timestamp,
		Channel0:  v[0],
		Channel1:  v[1],
		Channel2:  v[2],
		Channel3:  v[3],
	}
}

// orderedChannels returns the channel analyses sorted by channel name so
// floating-point sums do not depend on map iteration order.
func orderedChannels(channels map[string]ChannelAnalysis) []ChannelAnalysis {
	out := make([]ChannelAnalysis, 0, len(channels))
	for _, name := range slices.Sorted(maps.Keys(channels)) {
		out = append(out, channels[name])
	}
	return out
}

// averageBands returns the arithmetic mean of each band across channels.
func averageBands(channels []ChannelAnalysis) FrequencyBands {
	var sum FrequencyBands
	for _, ch := range channels {
		b := ch.FrequencyBands
		sum.Delta += b.Delta
		sum.Alpha += b.Alpha
		sum.Beta += b.Beta
		sum.Theta += b.Theta
		sum.Gamma += b.Gamma
		sum.AlphaMajor += b.AlphaMajor
		sum.BetaMajor += b.BetaMajor
	}

	n := channelCount(channels)
	return FrequencyBands{
		Delta:      sum.Delta / n,
		Alpha:      sum.Alpha / n,
		Beta:       sum.Beta / n,
		Theta:      sum.Theta / n,
		Gamma:      sum.Gamma / n,
		AlphaMajor: sum.AlphaMajor / n,
		BetaMajor:  sum.BetaMajor / n,
	}
}

// averageRatios returns the arithmetic mean of each upstream ratio across channels.
func averageRatios(channels []ChannelAnalysis) Ratios {
	var sum Ratios
	for _, ch := range channels {
		r := ch.Ratios
		sum.AlphaTheta += r.AlphaTheta
		sum.AlphaBeta += r.AlphaBeta
		sum.ThetaBeta += r.ThetaBeta
		sum.AlphaMajorBetaMajor += r.AlphaMajorBetaMajor
		sum.ThetaAlpha += r.ThetaAlpha
	}

	n := channelCount(channels)
	return Ratios{
		AlphaTheta:          sum.AlphaTheta / n,
		AlphaBeta:           sum.AlphaBeta / n,
		ThetaBeta:           sum.ThetaBeta / n,
		AlphaMajorBetaMajor: sum.AlphaMajorBetaMajor / n,
		ThetaAlpha:          sum.ThetaAlpha / n,
	}
}

// channelCount is the averaging divisor, floored at 1.
func channelCount(channels []ChannelAnalysis) float64 {
	return float64(max(len(channels), 1))
}

func safeDiv(num, den float64) float64 {
	if den > 0 {
		return num / den
	}
	return 0
}
