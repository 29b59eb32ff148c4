package synth

import (
	"errors"
	"fmt"
	"time"
)

// Complete is the only percentage reserved for a genuine Completed event.
const Complete = 100

// Bands is the percentage banding policy of the synthesized timeline.
// Upload owns [0, Upload]; everything above it stands for server work
// the client cannot observe.
type Bands struct {
	// Sent is the floor applied when the request starts streaming.
	Sent int `json:"sent" mapstructure:"sent"`
	// Upload is the share of the scale occupied by the byte transfer.
	Upload int `json:"upload" mapstructure:"upload"`
	// Headers is where the security scan starts once response headers arrive.
	Headers int `json:"headers" mapstructure:"headers"`
	// ScanCeiling ends the simulated scan and hands over to recognition.
	ScanCeiling int `json:"scan_ceiling" mapstructure:"scan_ceiling"`
	// Body is applied when the response body starts streaming.
	Body int `json:"body" mapstructure:"body"`
	// RecognitionCeiling caps the simulated recognition; never reaches Complete.
	RecognitionCeiling int `json:"recognition_ceiling" mapstructure:"recognition_ceiling"`
	// EstimateAfter is the percentage that must be exceeded before a
	// remaining-time estimate is produced.
	EstimateAfter int `json:"estimate_after" mapstructure:"estimate_after"`

	ScanStep        int           `json:"scan_step" mapstructure:"scan_step"`
	ScanTick        time.Duration `json:"scan_tick" mapstructure:"scan_tick"`
	RecognitionStep int           `json:"recognition_step" mapstructure:"recognition_step"`
	RecognitionTick time.Duration `json:"recognition_tick" mapstructure:"recognition_tick"`
}

// DefaultBands returns the stock banding policy.
func DefaultBands() Bands {
	return Bands{
		Sent:               5,  //nolint:mnd
		Upload:             30, //nolint:mnd
		Headers:            35, //nolint:mnd
		ScanCeiling:        50, //nolint:mnd
		Body:               85, //nolint:mnd
		RecognitionCeiling: 95, //nolint:mnd
		EstimateAfter:      5,  //nolint:mnd
		ScanStep:           3,  //nolint:mnd
		ScanTick:           200 * time.Millisecond,
		RecognitionStep:    1,
		RecognitionTick:    100 * time.Millisecond,
	}
}

// Validate checks that the bands are strictly ordered inside (0, Complete)
// and that the simulation advances.
func (b Bands) Validate() error {
	order := []struct {
		name  string
		value int
	}{
		{"sent", b.Sent},
		{"upload", b.Upload},
		{"headers", b.Headers},
		{"scan_ceiling", b.ScanCeiling},
		{"body", b.Body},
		{"recognition_ceiling", b.RecognitionCeiling},
	}
	prev := 0
	for _, o := range order {
		if o.value <= prev {
			return fmt.Errorf("band %s (%d) must be greater than %d", o.name, o.value, prev)
		}
		prev = o.value
	}
	if b.RecognitionCeiling >= Complete {
		return fmt.Errorf("band recognition_ceiling (%d) must stay below %d", b.RecognitionCeiling, Complete)
	}
	if b.EstimateAfter < 0 || b.EstimateAfter >= Complete {
		return fmt.Errorf("estimate_after (%d) out of range", b.EstimateAfter)
	}
	if b.ScanStep <= 0 || b.RecognitionStep <= 0 {
		return errors.New("simulation steps must be positive")
	}
	if b.ScanTick <= 0 || b.RecognitionTick <= 0 {
		return errors.New("simulation ticks must be positive")
	}
	return nil
}

// uploadPercent maps a byte ratio onto [0, Upload].
func (b Bands) uploadPercent(loaded, total int64) int {
	if loaded > total {
		loaded = total
	}
	pct := int(float64(loaded)/float64(total)*float64(b.Upload) + 0.5)
	return min(pct, b.Upload)
}
