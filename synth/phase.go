package synth

import "fmt"

// Phase is a coarse logical stage of document processing.
// Ordering is advisory: it keeps percentages from regressing, but Error
// can follow any non-terminal phase.
type Phase int

const (
	PhasePreparing Phase = iota
	PhaseUploading
	PhaseSecurityScan
	PhaseRecognition
	PhaseComplete
	PhaseError
)

var phaseNames = [...]string{
	PhasePreparing:    "preparing",
	PhaseUploading:    "uploading",
	PhaseSecurityScan: "security-scan",
	PhaseRecognition:  "recognition",
	PhaseComplete:     "complete",
	PhaseError:        "error",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// Terminal reports whether no further transitions follow p.
func (p Phase) Terminal() bool {
	return p == PhaseComplete || p == PhaseError
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

// UnmarshalText decodes a phase name produced by MarshalText.
func (p *Phase) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = Phase(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}
