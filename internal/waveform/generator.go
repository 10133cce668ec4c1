package waveform

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"github.com/KevinKickass/VirtualSpectrometer/internal/syncutil"
)

const (
	DefaultNoiseAmplitude = 100
	DefaultPrefix         = 300
)

var (
	ErrTableTooShort   = errors.New("reference table too short")
	ErrUnknownStrategy = errors.New("unknown waveform strategy")
)

// Strategy selects how spectra are synthesized.
type Strategy string

const (
	StrategyAnalytic  Strategy = "analytic"
	StrategyReference Strategy = "reference"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyAnalytic, "":
		return StrategyAnalytic, nil
	case StrategyReference:
		return StrategyReference, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// Generator produces one intensity value per pixel.
type Generator interface {
	Generate(pixelCount int) []uint32
}

// Noise yields uniform draws in [0, 1).
type Noise interface {
	Float64() float64
}

type globalNoise struct{}

func (globalNoise) Float64() float64 { return rand.Float64() }

// DefaultNoise draws from the process-wide source, which is safe for
// concurrent use.
func DefaultNoise() Noise { return globalNoise{} }

type seededNoise struct {
	mu  syncutil.Mutex
	rng *rand.Rand
}

func (n *seededNoise) Float64() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rng.Float64()
}

// NewSeededNoise returns a reproducible source.
func NewSeededNoise(seed uint64) Noise {
	return &seededNoise{rng: rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))}
}

type zeroNoise struct{}

func (zeroNoise) Float64() float64 { return 0 }

// ZeroNoise makes every generator fully deterministic.
var ZeroNoise Noise = zeroNoise{}

// Peak is one Lorentzian-like line: height / (1 + (x-center)^2).
type Peak struct {
	Center float64 `json:"center" mapstructure:"center"`
	Height float64 `json:"height" mapstructure:"height"`
}

// DefaultPeaks are the three lines of the stock simulated spectrum.
func DefaultPeaks() []Peak {
	return []Peak{
		{Center: 500, Height: 5000},
		{Center: 700, Height: 3000},
		{Center: 200, Height: 10000},
	}
}

// Analytic superimposes fixed peaks and adds noise.
type Analytic struct {
	Peaks          []Peak
	NoiseAmplitude float64
	Noise          Noise
}

func NewAnalytic(peaks []Peak, noiseAmplitude float64, noise Noise) *Analytic {
	if noise == nil {
		noise = DefaultNoise()
	}
	return &Analytic{Peaks: peaks, NoiseAmplitude: noiseAmplitude, Noise: noise}
}

func (a *Analytic) Generate(pixelCount int) []uint32 {
	if pixelCount <= 0 {
		return []uint32{}
	}

	out := make([]uint32, pixelCount)
	for x := range out {
		out[x] = clampSample(a.peakSum(x) + scaledNoise(a.NoiseAmplitude, a.Noise))
	}
	return out
}

// Value is the noiseless intensity at pixel x.
func (a *Analytic) Value(x int) uint32 {
	return clampSample(a.peakSum(x))
}

func (a *Analytic) peakSum(x int) float64 {
	var sum float64
	for _, p := range a.Peaks {
		d := float64(x) - p.Center
		sum += p.Height / (1 + d*d)
	}
	return math.Floor(sum)
}

// Replay plays back a captured spectrum after a run of zero pixels.
type Replay struct {
	Prefix         int
	Table          []float64
	NoiseAmplitude float64
	Noise          Noise
}

// NewReplay validates that the table covers pixelCount-prefix pixels.
func NewReplay(prefix int, table []float64, noiseAmplitude float64, noise Noise, pixelCount int) (*Replay, error) {
	if prefix < 0 {
		return nil, fmt.Errorf("negative prefix %d", prefix)
	}
	if need := pixelCount - prefix; len(table) < need {
		return nil, fmt.Errorf("%w: need %d entries, have %d", ErrTableTooShort, need, len(table))
	}
	if noise == nil {
		noise = DefaultNoise()
	}

	return &Replay{
		Prefix:         prefix,
		Table:          table,
		NoiseAmplitude: noiseAmplitude,
		Noise:          noise,
	}, nil
}

func (r *Replay) Generate(pixelCount int) []uint32 {
	if pixelCount <= 0 {
		return []uint32{}
	}

	out := make([]uint32, pixelCount)
	for x := range out {
		if x < r.Prefix {
			continue
		}
		i := x - r.Prefix
		if i >= len(r.Table) {
			continue
		}
		out[x] = clampSample(math.Floor(r.Table[i]) + scaledNoise(r.NoiseAmplitude, r.Noise))
	}
	return out
}

func scaledNoise(amplitude float64, noise Noise) float64 {
	if amplitude == 0 || noise == nil {
		return 0
	}
	return math.Floor(amplitude * noise.Float64())
}

// clampSample keeps values representable as unsigned; the codec masks the rest.
func clampSample(v float64) uint32 {
	switch {
	case v <= 0 || math.IsNaN(v):
		return 0
	case v >= math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(v)
	}
}
