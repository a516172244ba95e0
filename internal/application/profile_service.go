package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/bnema/groupchat-cli/internal/ports"
	"github.com/google/uuid"
)

type ProfileService struct {
	repo     ports.ProfileRepository
	metadata ports.MetadataStore
	newID    func() domain.MemberID
}

func NewProfileService(repo ports.ProfileRepository, metadata ports.MetadataStore) *ProfileService {
	return &ProfileService{
		repo:     repo,
		metadata: metadata,
		newID: func() domain.MemberID {
			return domain.MemberID(uuid.NewString())
		},
	}
}

// EnsureProfile loads the local profile, creating one with a fresh device id
// on first use.
func (s *ProfileService) EnsureProfile(ctx context.Context) (domain.Profile, error) {
	profile, err := s.repo.Load(ctx)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrProfileNotFound) {
		return domain.Profile{}, fmt.Errorf("load profile: %w", err)
	}

	profile = domain.Profile{DeviceID: s.newID()}
	if err := s.repo.Save(ctx, profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save new profile: %w", err)
	}

	return profile, nil
}

// SetFriendlyName publishes name as this device's identity metadata and
// stores it locally. Nothing is written when the name is unchanged.
func (s *ProfileService) SetFriendlyName(ctx context.Context, name string) (domain.Profile, bool, error) {
	normalized, profile, changed, err := s.prepareRename(ctx, name)
	if err != nil || !changed {
		return profile, false, err
	}

	if err := s.metadata.SetIdentityMetadata(ctx, profile.DeviceID, normalized); err != nil {
		return profile, false, fmt.Errorf("set identity metadata: %w", err)
	}

	profile.FriendlyName = normalized
	if err := s.repo.Save(ctx, profile); err != nil {
		return profile, true, fmt.Errorf("save profile: %w", err)
	}

	return profile, true, nil
}

// RememberFriendlyName stores name locally only. The chat session publishes
// the metadata itself.
func (s *ProfileService) RememberFriendlyName(ctx context.Context, name string) (domain.Profile, bool, error) {
	normalized, profile, changed, err := s.prepareRename(ctx, name)
	if err != nil || !changed {
		return profile, false, err
	}

	profile.FriendlyName = normalized
	if err := s.repo.Save(ctx, profile); err != nil {
		return profile, false, fmt.Errorf("save profile: %w", err)
	}

	return profile, true, nil
}

func (s *ProfileService) prepareRename(ctx context.Context, name string) (string, domain.Profile, bool, error) {
	normalized, err := domain.NormalizeDisplayName(name)
	if err != nil {
		return "", domain.Profile{}, false, err
	}

	profile, err := s.EnsureProfile(ctx)
	if err != nil {
		return "", domain.Profile{}, false, err
	}

	return normalized, profile, profile.FriendlyName != normalized, nil
}

// FriendlyName returns the local display name, or the device id when none
// was set.
func (s *ProfileService) FriendlyName(ctx context.Context) (string, error) {
	profile, err := s.EnsureProfile(ctx)
	if err != nil {
		return "", err
	}

	return profile.DisplayName(), nil
}
