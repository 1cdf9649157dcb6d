package tracelog

// EventType identifies the shape and Chrome Trace Event phase of a
// tracepoint.
type EventType uint8

const (
	AsyncStart EventType = iota
	AsyncEnd
	SyncStart
	SyncEnd
	Instant
	GlobalInstant
	Complete
)

func (t EventType) String() string {
	switch t {
	case AsyncStart:
		return "AsyncStart"
	case AsyncEnd:
		return "AsyncEnd"
	case SyncStart:
		return "SyncStart"
	case SyncEnd:
		return "SyncEnd"
	case Instant:
		return "Instant"
	case GlobalInstant:
		return "GlobalInstant"
	case Complete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// PhaseChar returns the Chrome Trace Event phase character for t, per the
// export format's phase mapping. AsyncStart/AsyncEnd and Instant/
// GlobalInstant additionally require the sub-type disambiguator carried
// alongside the phase char in the exporter (an "id" source for async pairs,
// an "s" scope for instants); PhaseChar alone only covers the single-letter
// phase.
func (t EventType) PhaseChar() byte {
	switch t {
	case AsyncStart:
		return 'b'
	case AsyncEnd:
		return 'e'
	case SyncStart:
		return 'B'
	case SyncEnd:
		return 'E'
	case Instant, GlobalInstant:
		return 'i'
	case Complete:
		return 'X'
	default:
		return '?'
	}
}

// TracepointInfo is static, program-lifetime metadata describing one
// instrumentation site. It is shared by pointer and never copied into the
// events it produces; construct one value per call site (typically as a
// package-level var) and reuse it for every LogEvent call from that site.
type TracepointInfo struct {
	Category string
	Name     string
	Type     EventType
	ArgNames [2]string
	ArgTypes [2]ArgType
}

// NewTracepoint constructs a TracepointInfo. It is a plain constructor, not
// a registry lookup: callers are expected to store the result once (e.g. in
// a package-level var) and share it by pointer across every LogEvent call
// for that site.
func NewTracepoint(category, name string, typ EventType, argNames [2]string, argTypes [2]ArgType) *TracepointInfo {
	return &TracepointInfo{
		Category: category,
		Name:     name,
		Type:     typ,
		ArgNames: argNames,
		ArgTypes: argTypes,
	}
}
