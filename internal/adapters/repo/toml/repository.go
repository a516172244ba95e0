package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/bnema/groupchat-cli/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

const (
	ProfilePathKey    = "profile.path"
	profileFileMode   = 0o600
	profileDirMode    = 0o700
	profileConfigDir  = ".gchat"
	profileConfigFile = "profile.toml"
	tempFilePattern   = ".profile-*.toml.tmp"
)

// Repository stores the device profile in a single TOML file.
type Repository struct {
	profilePath string
	mu          *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.ProfileRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg.SetDefault(ProfilePathKey, filepath.Join(homeDir, profileConfigDir, profileConfigFile))

	profilePath := cfg.GetString(ProfilePathKey)
	if profilePath == "" {
		return nil, errors.New("profile path is empty")
	}
	profilePath, err = normalizeProfilePath(profilePath)
	if err != nil {
		return nil, err
	}

	return &Repository{profilePath: profilePath, mu: lockForPath(profilePath)}, nil
}

func (r *Repository) Path() string {
	return r.profilePath
}

func (r *Repository) Load(ctx context.Context) (domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Profile{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Profile{}, err
	}
	if file.Profile == nil || strings.TrimSpace(file.Profile.DeviceID) == "" {
		return domain.Profile{}, domain.ErrProfileNotFound
	}

	profile := fromSchema(*file.Profile)
	if err := profile.Validate(); err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile file: %w", err)
	}

	return profile, nil
}

func (r *Repository) Save(ctx context.Context, profile domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}
	encoded := toSchema(profile)
	file.Profile = &encoded

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.profilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fileSchema{}, nil
		}
		return fileSchema{}, fmt.Errorf("read profile file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode profile file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.profilePath), profileDirMode); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode profile file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.profilePath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp profile file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp profile file: %w", err)
	}
	if err := tempFile.Chmod(profileFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp profile file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp profile file: %w", err)
	}

	if err := os.Rename(tempName, r.profilePath); err != nil {
		return fmt.Errorf("replace profile file: %w", err)
	}
	cleanup = false

	return nil
}

func toSchema(profile domain.Profile) profileSchema {
	return profileSchema{
		DeviceID:     string(profile.DeviceID),
		FriendlyName: profile.FriendlyName,
	}
}

func fromSchema(profile profileSchema) domain.Profile {
	return domain.Profile{
		DeviceID:     domain.MemberID(strings.TrimSpace(profile.DeviceID)),
		FriendlyName: strings.TrimSpace(profile.FriendlyName),
	}
}

func normalizeProfilePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve profile path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}
