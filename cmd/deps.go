package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abhisek/sprachiz/internal/config"
	"github.com/abhisek/sprachiz/internal/difficulty"
	"github.com/abhisek/sprachiz/internal/lessons"
	"github.com/abhisek/sprachiz/internal/llm"
	"github.com/abhisek/sprachiz/internal/logging"
	"github.com/abhisek/sprachiz/internal/mastery"
	"github.com/abhisek/sprachiz/internal/profile"
	"github.com/abhisek/sprachiz/internal/spacedrep"
	"github.com/abhisek/sprachiz/internal/store"
)

// deps holds the services shared by the subcommands.
type deps struct {
	cfg     *config.Config
	log     *logrus.Logger
	store   *store.Store
	learner string

	vocab    *spacedrep.Service
	topics   *mastery.Service
	profiles *profile.Service
	lessons  *lessons.Service
}

// setup loads configuration, opens the store and builds the services.
// The caller must call close.
func setup(cmd *cobra.Command) (*deps, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	dsn, err := resolveDSN(cmd, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	st, err := store.Open(cmd.Context(), cfg.Database.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	learner, _ := cmd.Flags().GetString("learner")
	locks := st.Locks()
	d := &deps{
		cfg:      cfg,
		log:      log,
		store:    st,
		learner:  learner,
		vocab:    spacedrep.NewService(st.ItemRepo(), locks, log),
		topics:   mastery.NewService(st.TopicRepo(), st.EventRepo(), locks, log),
		profiles: profile.NewService(st.ProfileRepo(), st.ConversationRepo(), st.ItemRepo(), locks, log),
	}
	d.lessons = lessons.NewService(lessons.DefaultCatalog(), st.AttemptRepo(), st.EventRepo(), d.profiles, locks, log)
	return d, nil
}

func (d *deps) close() {
	if err := d.store.Close(); err != nil {
		d.log.WithError(err).Warn("close store")
	}
}

// profile returns the current learner's profile, creating it on first use.
func (d *deps) profile(cmd *cobra.Command) (*profile.Profile, error) {
	return d.profiles.Ensure(cmd.Context(), d.learner, time.Now())
}

// instructions builds the difficulty instructions for the current learner.
func (d *deps) instructions(cmd *cobra.Command) (*profile.Profile, string, error) {
	p, err := d.profile(cmd)
	if err != nil {
		return nil, "", err
	}
	text, _, err := d.instructionsFor(cmd.Context(), p)
	if err != nil {
		return nil, "", err
	}
	return p, text, nil
}

// instructionsFor builds difficulty instructions from the learner's stored
// profile and current weak topics.
func (d *deps) instructionsFor(ctx context.Context, p *profile.Profile) (string, []string, error) {
	weak, err := d.topics.WeakTopics(ctx, p.LearnerID)
	if err != nil {
		return "", nil, err
	}
	text, err := difficulty.Instructions(p.DifficultyInput(weak))
	if err != nil {
		return "", nil, err
	}
	return text, weak, nil
}

// liveInstructions reloads the profile on every call, so a session picks up
// mastery and accuracy changes between turns.
func (d *deps) liveInstructions(ctx context.Context, learnerID string) (string, []string, error) {
	p, err := d.profiles.Get(ctx, learnerID)
	if err != nil {
		return "", nil, err
	}
	return d.instructionsFor(ctx, p)
}

var errNoProvider = fmt.Errorf("%w; set llm.provider or an API key such as ANTHROPIC_API_KEY", llm.ErrNotConfigured)

// provider builds the configured LLM provider. Requests are recorded in the
// event log.
func (d *deps) provider(cmd *cobra.Command) (llm.Provider, error) {
	cfg, ok := llm.FromSettings(d.cfg.LLM)
	if !ok {
		return nil, errNoProvider
	}
	return llm.NewProvider(cmd.Context(), cfg, d.store.EventRepo(), d.log)
}

// resolveDSN picks the database location: --db flag (highest priority),
// then database.dsn from config, then the default XDG path for SQLite.
func resolveDSN(cmd *cobra.Command, db config.DatabaseConfig) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if db.DSN != "" {
		return db.DSN, nil
	}
	if db.Driver == store.DriverPostgres {
		return "", fmt.Errorf("database.dsn is required for the postgres driver")
	}
	return store.DefaultDBPath()
}
