package utils

import (
	"fmt"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/yukikurage/team-task-api/internal/constants"
)

// CodeGenerator produces candidate manager codes.
type CodeGenerator func() (string, error)

// GenerateManagerCode generates a code in the format MGR-XXXXXXXX where each
// X is an uppercase letter or digit.
func GenerateManagerCode() (string, error) {
	suffix, err := gonanoid.Generate(constants.ManagerCodeAlphabet, constants.ManagerCodeLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate manager code: %w", err)
	}
	return constants.ManagerCodePrefix + suffix, nil
}
