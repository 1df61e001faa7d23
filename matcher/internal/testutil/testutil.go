package testutil

import (
	"testing"

	"github.com/numtide/fmtrc/matcher"
	"github.com/stretchr/testify/require"
)

func MatcherTestResults(
	t *testing.T,
	as *require.Assertions,
	matchFn matcher.MatchFn,
	results map[matcher.Result][]string,
) {
	t.Helper()

	for expected, paths := range results {
		for _, path := range paths {
			actual := matchFn(path)
			as.Equal(expected, actual, "expected %v for path %s; got %v", expected, path, actual)
		}
	}
}
