package rotationerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigError_MessageIncludesFieldAndSuggestion(t *testing.T) {
	err := ConfigError{Field: "TargetResourceId", Message: "is required", Suggestion: "set targetResourceId in the resource entry"}
	assert.Contains(t, err.Error(), "TargetResourceId")
	assert.Contains(t, err.Error(), "is required")
	assert.Contains(t, err.Error(), "try:")
}

func TestExternalError_Unwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := ExternalError{Resource: "server1", Operation: "patch password", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "server1")
}

func TestRecoveryRequiredError_MentionsReinitialization(t *testing.T) {
	cause := errors.New("vault unavailable")
	err := RecoveryRequiredError{Name: "s1", Err: cause}

	assert.Contains(t, err.Error(), "re-initialization")
	assert.ErrorIs(t, err, cause)
}
