package utils

import (
	"fmt"

	"github.com/google/uuid"
)

// Entity IDs are prefixed UUIDs so a bare ID is still recognizable in
// logs and broker payloads.

func GenerateCommandID() string {
	return fmt.Sprintf("cmd_%s", uuid.NewString())
}

func GenerateComponentID() string {
	return fmt.Sprintf("comp_%s", uuid.NewString())
}

func GenerateActionID() string {
	return fmt.Sprintf("action_%s", uuid.NewString())
}

func GenerateStepID() string {
	return fmt.Sprintf("step_%s", uuid.NewString())
}

func GenerateAlertID() string {
	return fmt.Sprintf("alert_%s", uuid.NewString())
}
