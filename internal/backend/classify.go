package backend

import "strings"

// Classification buckets a failed call into the retry policy's cases.
type Classification string

const (
	// ClassTransientOverload: the provider is momentarily saturated.
	// Retry the same model once with a jittered delay and a reduced
	// token ceiling, then advance down the chain.
	ClassTransientOverload Classification = "transient_overload"

	// ClassHardQuota: billing or rate-limit exhaustion. Further retries on
	// this backend are pointless for the current request; the whole chain
	// aborts immediately.
	ClassHardQuota Classification = "hard_quota_or_rate_limit"

	// ClassModelMismatch: the requested model id is unknown or unsupported.
	// Skip straight to the next model, no retry.
	ClassModelMismatch Classification = "model_or_version_mismatch"

	// ClassSystemInstructionRejected: the provider rejected the system
	// instruction field. Retry the same call with the system text merged
	// into the user prompt.
	ClassSystemInstructionRejected Classification = "system_instruction_rejected"

	// ClassUnknown: none of the above. Advance to the next model.
	ClassUnknown Classification = "unknown"
)

var overloadWording = []string{
	"overload", "resource has been exhausted", "resource exhausted",
	"try again later", "server is busy", "capacity", "temporarily unavailable",
}

var quotaWording = []string{
	"quota", "billing", "insufficient credit", "insufficient balance",
	"payment required", "exceeded your current", "plan limit",
}

var mismatchWording = []string{
	"not found", "is not supported", "does not exist", "unknown model",
	"no such model", "not available in", "deprecated",
}

var systemInstructionWording = []string{
	"system_instruction", "systeminstruction", "system instruction",
	"system role is not supported", "unknown field \"system\"",
}

func containsAny(body string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(body, n) {
			return true
		}
	}
	return false
}

// Classify maps an HTTP status plus error body onto a Classification.
// A 429 counts as transient only when the body carries overload wording
// and no quota wording; a bare 429 means the rate limit is real.
func Classify(status int, body string) Classification {
	b := strings.ToLower(body)

	quota := containsAny(b, quotaWording)
	overload := containsAny(b, overloadWording)

	switch {
	case status == 402:
		return ClassHardQuota
	case status == 429:
		if overload && !quota {
			return ClassTransientOverload
		}
		return ClassHardQuota
	case status >= 500:
		return ClassTransientOverload
	case status == 404:
		return ClassModelMismatch
	case status == 400 && containsAny(b, systemInstructionWording):
		return ClassSystemInstructionRejected
	}

	if quota {
		return ClassHardQuota
	}
	if containsAny(b, mismatchWording) {
		return ClassModelMismatch
	}
	return ClassUnknown
}
