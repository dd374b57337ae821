package probe

// Kind classifies why a sample could not be produced.
type Kind int

const (
	// KindTransient is a one-off failure; the owning loop skips the
	// tick and retries on the next one.
	KindTransient = Kind(iota)

	// KindUnavailable means the source cannot currently serve the
	// metric; the owning loop records invalid sentinel readings.
	KindUnavailable

	// KindTimeout means the sample exceeded its deadline; loops treat
	// it like a transient failure.
	KindTimeout

	// KindFatal is a process-level misconfiguration, surfaced once at
	// startup rather than per tick.
	KindFatal
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindUnavailable:
		return "unavailable"
	case KindTimeout:
		return "timeout"
	case KindFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Failure is the error returned by probes. It carries the failure
// class so the owning loop can pick the right per-tick treatment.
type Failure struct {
	// Kind is the failure class.
	Kind Kind

	// Op names the operation that failed.
	Op string

	// Err is the underlying error, possibly nil.
	Err error
}

var _ error = &Failure{}

// Error implements error.
func (f *Failure) Error() string {
	msg := f.Op + ": " + f.Kind.String()
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Transient wraps err as a transient failure of op.
func Transient(op string, err error) error {
	return &Failure{Kind: KindTransient, Op: op, Err: err}
}

// Unavailable wraps err as an unavailable-source failure of op.
func Unavailable(op string, err error) error {
	return &Failure{Kind: KindUnavailable, Op: op, Err: err}
}

// Timeout wraps err as a deadline failure of op.
func Timeout(op string, err error) error {
	return &Failure{Kind: KindTimeout, Op: op, Err: err}
}

// Fatal wraps err as a startup-stopping failure of op.
func Fatal(op string, err error) error {
	return &Failure{Kind: KindFatal, Op: op, Err: err}
}
