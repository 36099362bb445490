package cycle

// PhaseKind identifies one of the four phases of a cycle.
type PhaseKind string

const (
	Menstruation PhaseKind = "menstruation"
	Follicular   PhaseKind = "follicular"
	Ovulation    PhaseKind = "ovulation"
	Luteal       PhaseKind = "luteal"
)

// Kinds returns the phase kinds in cycle order.
func Kinds() []PhaseKind {
	return []PhaseKind{Menstruation, Follicular, Ovulation, Luteal}
}

// IsValid checks if a phase kind is one of the four known kinds.
func (k PhaseKind) IsValid() bool {
	for _, valid := range Kinds() {
		if k == valid {
			return true
		}
	}
	return false
}

// Label returns the display label for the phase.
func (k PhaseKind) Label() string {
	switch k {
	case Menstruation:
		return "Moon Phase"
	case Follicular:
		return "Bloom Phase"
	case Ovulation:
		return "Power Phase"
	case Luteal:
		return "Soft Phase"
	default:
		return ""
	}
}

// Phase is a named, inclusive range of day offsets within a cycle.
// A phase whose Start is greater than its End is empty and is never
// assigned to any day.
type Phase struct {
	Kind  PhaseKind `json:"kind"`
	Label string    `json:"label"`
	Start int       `json:"start_offset"`
	End   int       `json:"end_offset"`
}

// Empty reports whether the phase covers no days.
func (p Phase) Empty() bool {
	return p.Start > p.End
}

// Len returns the number of days in the phase.
func (p Phase) Len() int {
	if p.Empty() {
		return 0
	}
	return p.End - p.Start + 1
}

// Contains reports whether offset falls inside the phase.
func (p Phase) Contains(offset int) bool {
	return offset >= p.Start && offset <= p.End
}

// boundaries holds the offsets that split a cycle into phases. Both the
// headline computation and the per-day classification go through it.
type boundaries struct {
	cycleLength    int
	mensesLength   int
	ovulationStart int
	ovulationEnd   int
}

func boundariesFor(cycleLength, mensesLength int) boundaries {
	center := cycleLength - LutealPhaseDays
	start := max(center-2, mensesLength)
	end := min(start+4, cycleLength-1)
	return boundaries{
		cycleLength:    cycleLength,
		mensesLength:   mensesLength,
		ovulationStart: start,
		ovulationEnd:   end,
	}
}

func (b boundaries) classify(offset int) PhaseKind {
	switch {
	case offset < b.mensesLength:
		return Menstruation
	case offset < b.ovulationStart:
		return Follicular
	case offset <= b.ovulationEnd:
		return Ovulation
	default:
		return Luteal
	}
}

func (b boundaries) phase(kind PhaseKind) Phase {
	p := Phase{Kind: kind, Label: kind.Label()}
	switch kind {
	case Menstruation:
		p.Start, p.End = 0, b.mensesLength-1
	case Follicular:
		p.Start, p.End = b.mensesLength, b.ovulationStart-1
	case Ovulation:
		p.Start, p.End = b.ovulationStart, b.ovulationEnd
	case Luteal:
		p.Start, p.End = b.ovulationEnd+1, b.cycleLength-1
	}
	return p
}

func (b boundaries) phases() []Phase {
	kinds := Kinds()
	out := make([]Phase, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, b.phase(k))
	}
	return out
}

// normalizeOffset maps any day count onto [0, cycleLength) using floored
// modulo, so negative counts wrap backwards instead of going negative.
func normalizeOffset(days, cycleLength int) int {
	return ((days % cycleLength) + cycleLength) % cycleLength
}

// PhaseForOffset classifies a single day of a cycle.
//
// It uses the same boundaries as Compute, so the phase reported for the
// user's current offset always matches Compute's headline phase. Offsets
// outside [0, cycleLength) are wrapped with floored modulo first.
func PhaseForOffset(offset, cycleLength, mensesLength int) (Phase, error) {
	if err := validateLengths(cycleLength, mensesLength); err != nil {
		return Phase{}, err
	}
	b := boundariesFor(cycleLength, mensesLength)
	return b.phase(b.classify(normalizeOffset(offset, cycleLength))), nil
}

// Phases returns the four phases in cycle order. Their ranges partition
// [0, cycleLength-1]; the follicular phase may be empty for short cycles.
func Phases(cycleLength, mensesLength int) ([]Phase, error) {
	if err := validateLengths(cycleLength, mensesLength); err != nil {
		return nil, err
	}
	return boundariesFor(cycleLength, mensesLength).phases(), nil
}
