package adb

// StrategyKind identifies how the adb binary is invoked
type StrategyKind string

const (
	// StrategyBare invokes adb through PATH
	StrategyBare StrategyKind = "bare"

	// StrategyPathOverride runs adb from the default SDK directory
	StrategyPathOverride StrategyKind = "pathOverride"

	// StrategyCustom runs adb from the user-configured directory
	StrategyCustom StrategyKind = "customConfigured"
)

// Strategy is the resolved way to run adb
type Strategy struct {
	Kind StrategyKind `json:"kind" yaml:"kind"`

	// WorkDir is the directory commands run in; empty means no working
	// directory is needed (bare PATH invocation)
	WorkDir string `json:"workDir,omitempty" yaml:"workDir,omitempty"`
}

// UsesPath reports whether adb is reachable without a working directory
func (s Strategy) UsesPath() bool {
	return s.WorkDir == ""
}

func (s Strategy) String() string {
	if s.UsesPath() {
		return string(s.Kind) + " (PATH)"
	}
	return string(s.Kind) + " (" + s.WorkDir + ")"
}
