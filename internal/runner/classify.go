package runner

import (
	"regexp"
	"strings"

	"github.com/felixgeelhaar/codecraft/internal/domain"
	"github.com/felixgeelhaar/codecraft/internal/harness"
	"github.com/felixgeelhaar/codecraft/internal/piston"
)

const (
	msgNoRun              = "Failed to execute code"
	msgNoHardwareResponse = "Failed to execute Verilog code - no run or compile response from compiler"
	msgSimulated          = "Verilog code compiled and simulated successfully"
	msgCompiled           = "Verilog code compiled successfully"
)

// simulatorNoise lists the informational banners iverilog writes to stderr.
// Only these are removed; anything else on stderr is an error.
var simulatorNoise = []*regexp.Regexp{
	regexp.MustCompile(`VCD info.*\n`),
	regexp.MustCompile(`timescale.*\n`),
}

// cleanStderr strips simulator banners from stderr
func cleanStderr(stderr string) string {
	for _, re := range simulatorNoise {
		stderr = re.ReplaceAllString(stderr, "")
	}
	return stderr
}

// classify turns one execution response into a test result
func classify(track harness.Track, resp *piston.Response, tc domain.TestCase, policy domain.ComparePolicy) domain.TestResult {
	result := domain.TestResult{
		Name:     tc.Name,
		Expected: tc.ExpectedOutput,
	}

	if track == harness.TrackHardware {
		return classifyHardware(resp, result, policy)
	}

	if resp == nil || resp.Run == nil {
		result.Error = msgNoRun
		result.Kind = domain.FailureTransport
		return result
	}

	result.Output = resp.Run.Stdout
	if resp.Run.Stderr != "" {
		result.Error = resp.Run.Stderr
		result.Kind = domain.FailureRuntime
		return result
	}

	return compare(result, resp.Run.Stdout, policy)
}

func classifyHardware(resp *piston.Response, result domain.TestResult, policy domain.ComparePolicy) domain.TestResult {
	switch {
	case resp != nil && resp.Run != nil:
		if cleaned := strings.TrimSpace(cleanStderr(resp.Run.Stderr)); cleaned != "" {
			result.Output = resp.Run.Stdout
			result.Error = "Compilation/Simulation Error:\n" + cleaned
			result.Kind = domain.FailureRuntime
			return result
		}
		out := resp.Run.Stdout
		if out == "" {
			out = msgSimulated
		}
		return compare(result, out, policy)

	case resp != nil && resp.Compile != nil:
		if resp.Compile.Stderr != "" {
			result.Error = "Compilation Error:\n" + strings.TrimSpace(resp.Compile.Stderr)
			result.Kind = domain.FailureRuntime
			return result
		}
		return compare(result, msgCompiled, policy)

	default:
		result.Error = msgNoHardwareResponse
		result.Kind = domain.FailureTransport
		return result
	}
}

// compare applies the pass rule to an actual output. Both sides are trimmed.
func compare(result domain.TestResult, actual string, policy domain.ComparePolicy) domain.TestResult {
	result.Output = actual
	got := strings.TrimSpace(actual)
	want := strings.TrimSpace(result.Expected)

	switch policy {
	case domain.CompareContains:
		result.Passed = want != "" && strings.Contains(got, want)
	default:
		result.Passed = got == want
	}

	if !result.Passed {
		result.Kind = domain.FailureMismatch
	}
	return result
}
