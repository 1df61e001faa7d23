package build

var (
	Name    = "fmtrc"
	Version = "v0.0.1+dev"
)
