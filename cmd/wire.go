package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bnema/groupchat-cli/internal/adapters/messaging/redisbus"
	"github.com/bnema/groupchat-cli/internal/adapters/render/chatui"
	"github.com/bnema/groupchat-cli/internal/adapters/render/transcript"
	tomlrepo "github.com/bnema/groupchat-cli/internal/adapters/repo/toml"
	"github.com/bnema/groupchat-cli/internal/application"
	"github.com/bnema/groupchat-cli/internal/config"
	"github.com/bnema/groupchat-cli/internal/domain"
	"github.com/bnema/groupchat-cli/internal/logging"
	"github.com/bnema/groupchat-cli/internal/metrics"
	"github.com/bnema/groupchat-cli/internal/ports"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const annotationLogToFile = "gchat/log-to-file"

var errNotWired = errors.New("application is not wired")

// runChatUI is replaced in tests.
var runChatUI = chatui.Run

type app struct {
	v        *viper.Viper
	cfg      config.Config
	log      *logrus.Logger
	repo     *tomlrepo.Repository
	profiles *application.ProfileService
	metrics  *metrics.Collector
	clock    ports.Clock
	render   func(application.View, transcript.RenderOptions) (string, error)

	bus     *redisbus.Service
	closers []func() error
}

func newApp() *app {
	return &app{
		v:      viper.New(),
		clock:  ports.SystemClock{},
		render: transcript.Render,
	}
}

// wire loads configuration and builds the local dependencies. The messaging
// connection is opened on first use.
func (a *app) wire(cmd *cobra.Command) error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	a.cfg = cfg

	logOut := io.Writer(cmd.ErrOrStderr())
	if _, ok := cmd.Annotations[annotationLogToFile]; ok && cfg.LogFile != "" {
		file, err := logging.OpenFile(cfg.LogFile)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, file.Close)
		logOut = file
	}
	a.log = logging.New(cfg.LogLevel, logOut)

	repo, err := tomlrepo.NewRepository(a.v)
	if err != nil {
		return fmt.Errorf("wire profile repository: %w", err)
	}
	a.repo = repo
	a.metrics = metrics.New()
	a.profiles = application.NewProfileService(repo, lazyMetadata{app: a})

	return nil
}

func (a *app) messaging(ctx context.Context) (*redisbus.Service, error) {
	if a.bus != nil {
		return a.bus, nil
	}
	if a.log == nil {
		return nil, errNotWired
	}

	bus, err := redisbus.Dial(ctx, a.cfg.RedisURL, redisbus.Options{
		Namespace:   a.cfg.SubscribeKey,
		PublishKey:  a.cfg.PublishKey,
		AnnounceMax: a.cfg.AnnounceMax,
		PresenceTTL: a.cfg.PresenceTTL,
		Clock:       a.clock,
		Logger:      a.log,
	})
	if err != nil {
		if errors.Is(err, domain.ErrMissingSubscribeKey) {
			return nil, fmt.Errorf("%w: set subscribe_key in ~/.gchat/config.toml or GCHAT_SUBSCRIBE_KEY", err)
		}
		return nil, fmt.Errorf("connect messaging service: %w", err)
	}

	a.bus = bus
	a.closers = append(a.closers, bus.Close)
	return bus, nil
}

func (a *app) close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = errors.Join(err, a.closers[i]())
	}
	a.closers = nil
	a.bus = nil

	return err
}

// lazyMetadata dials the messaging service only when the profile service
// needs to publish a name.
type lazyMetadata struct {
	app *app
}

var _ ports.MetadataStore = lazyMetadata{}

func (m lazyMetadata) GetIdentityMetadata(ctx context.Context, id domain.MemberID) (string, bool, error) {
	bus, err := m.app.messaging(ctx)
	if err != nil {
		return "", false, err
	}
	return bus.GetIdentityMetadata(ctx, id)
}

func (m lazyMetadata) SetIdentityMetadata(ctx context.Context, id domain.MemberID, name string) error {
	bus, err := m.app.messaging(ctx)
	if err != nil {
		return err
	}
	return bus.SetIdentityMetadata(ctx, id, name)
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key, flag string) {
	if f := cmd.Flags().Lookup(flag); f != nil {
		_ = v.BindPFlag(key, f)
		return
	}
	if f := cmd.PersistentFlags().Lookup(flag); f != nil {
		_ = v.BindPFlag(key, f)
	}
}
