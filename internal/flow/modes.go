// internal/flow/modes.go
package flow

import "fmt"

// Mode is the screen the wizard is on. Exactly one is active at a time.
// The set is closed: only the types in this file implement it.
type Mode interface {
	fmt.Stringer
	flowMode()
}

// StageMode is one of the four question stages, N in 1..4.
type StageMode struct {
	N int
}

type (
	LoadingMode   struct{}
	ResultsMode   struct{}
	FinancingMode struct{}
	DocumentsMode struct{}
	SubmittedMode struct{}
)

const (
	FirstStage = 1
	LastStage  = 4
)

func Stage(n int) Mode { return StageMode{N: n} }

func (m StageMode) String() string   { return fmt.Sprintf("Stage(%d)", m.N) }
func (LoadingMode) String() string   { return "Loading" }
func (ResultsMode) String() string   { return "Results" }
func (FinancingMode) String() string { return "Financing" }
func (DocumentsMode) String() string { return "Documents" }
func (SubmittedMode) String() string { return "Submitted" }

func (StageMode) flowMode()     {}
func (LoadingMode) flowMode()   {}
func (ResultsMode) flowMode()   {}
func (FinancingMode) flowMode() {}
func (DocumentsMode) flowMode() {}
func (SubmittedMode) flowMode() {}

// StageOf returns n when m is Stage(n), otherwise 0.
func StageOf(m Mode) int {
	if s, ok := m.(StageMode); ok {
		return s.N
	}
	return 0
}
