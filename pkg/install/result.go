package install

// Diff carries the prepared diff text between running and candidate
// configurations.
type Diff struct {
	Prepared string `json:"prepared"`
}

// Result is the outcome of a successful install run. On failure no Result is
// produced; the error carries the failing step and cause instead.
type Result struct {
	Changed bool   `json:"changed"`
	Diff    *Diff  `json:"diff,omitempty"`
	Message string `json:"msg"`

	// Committed reports whether a commit was actually issued; dry runs and
	// no-op runs leave it false.
	Committed bool `json:"committed"`
}
