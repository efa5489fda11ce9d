package usecase

// GroundingValidator checks that a generated answer derives from the
// supplied context. The current implementation accepts every answer; the
// generation prompt carries the grounding constraint instead.
type GroundingValidator interface {
	Validate(answer, contextBlock string) bool
}

type passthroughGroundingValidator struct{}

// NewGroundingValidator creates the pass-through validator.
func NewGroundingValidator() GroundingValidator {
	return passthroughGroundingValidator{}
}

func (passthroughGroundingValidator) Validate(answer, contextBlock string) bool {
	return true
}
