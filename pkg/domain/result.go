package domain

type FailureKind string

const (
	FailureTimeout           FailureKind = "timeout"
	FailureMissingCredential FailureKind = "missing_credential"
	FailureProvider          FailureKind = "provider"
	FailureNetwork           FailureKind = "network"
	FailureInternal          FailureKind = "internal"
)

type GenerationFailure struct {
	Kind    FailureKind
	Status  int
	Message string
}

// GenerationResult is the uniform outcome of one generate-reply attempt:
// either Text is set, or Failure is.
type GenerationResult struct {
	Text    string
	Failure *GenerationFailure
}

func (r GenerationResult) OK() bool { return r.Failure == nil }
