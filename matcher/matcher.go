package matcher

type Result int

const (
	// Path explicitly selected.
	Wanted Result = iota
	// Path explicitly rejected.
	Unwanted
	// Path neither selected nor rejected.
	Indifferent
)

func (r Result) String() string {
	switch r {
	case Wanted:
		return "wanted"
	case Unwanted:
		return "unwanted"
	case Indifferent:
		return "indifferent"
	default:
		return "unknown"
	}
}

// MatchFn decides whether it wants a path. Paths are relative, `/`-separated and cleaned.
type MatchFn = func(path string) Result

func noOp(_ string) Result {
	return Indifferent
}

// Combine combines multiple matchers into a single matcher.
// The order of the matchers is important, which is why have explicit parameters for includes and excludes.
func Combine(includes []MatchFn, excludes []MatchFn) MatchFn {
	// Combine the matchers, ensuring exclusions are applied first.
	// This ensures that a path is rejected if it matches any of the excludes, even if it matches an include.
	matchers := make([]MatchFn, 0, len(excludes)+len(includes))
	matchers = append(matchers, excludes...)
	matchers = append(matchers, includes...)

	return func(path string) Result {
		for _, matchFn := range matchers {
			switch result := matchFn(path); result {
			case Wanted, Unwanted:
				return result
			case Indifferent:
			}
		}

		// Default to "don't care."
		return Indifferent
	}
}
