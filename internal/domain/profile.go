package domain

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const MaxDisplayNameLength = 64

var validate = validator.New()

// Profile is the local identity of this device.
type Profile struct {
	DeviceID     MemberID `validate:"required"`
	FriendlyName string   `validate:"max=64"`
}

func (p Profile) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid profile: %w", err)
	}

	return nil
}

func (p Profile) DisplayName() string {
	return Member{ID: p.DeviceID, DisplayName: p.FriendlyName}.Label()
}

// NormalizeDisplayName trims name and rejects empty or oversized values.
func NormalizeDisplayName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if err := validate.Var(trimmed, "required,max=64"); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDisplayName, name)
	}
	if strings.ContainsAny(trimmed, "\n\r\t") {
		return "", fmt.Errorf("%w: %q", ErrInvalidDisplayName, name)
	}

	return trimmed, nil
}
