package cmd

import (
	"context"
	"fmt"

	"github.com/quatton/pbsub/pkg/kv"
	"github.com/quatton/pbsub/pkg/qart"
	"github.com/quatton/pbsub/pkg/qconfig"
	"github.com/quatton/pbsub/pkg/qerr"
	"github.com/quatton/pbsub/pkg/qlog"
	"github.com/quatton/pbsub/pkg/qsub"
)

// App carries the loaded configuration into subcommands.
type App struct {
	Config *qconfig.Config
	Log    *qlog.Logger

	env *qconfig.BackendEnv
}

// Env loads backend credentials on first use.
func (a *App) Env() (*qconfig.BackendEnv, error) {
	if a.env != nil {
		return a.env, nil
	}
	env, err := qconfig.LoadBackendEnv(a.Config)
	if err != nil {
		return nil, qerr.New(qerr.CodeConfig, err)
	}
	a.env = env
	return env, nil
}

// Store opens the configured key-value backend.
func (a *App) Store(ctx context.Context) (kv.Store, error) {
	if a.Config.KV.Backend != qconfig.BackendValkey {
		return kv.NewMemoryStore(), nil
	}
	env, err := a.Env()
	if err != nil {
		return nil, err
	}
	store, err := kv.NewValkeyStore(ctx, env.ValkeyConfig())
	if err != nil {
		return nil, qerr.New(qerr.CodeStore, fmt.Errorf("connecting to valkey at %s: %w", env.ValkeyAddr, err))
	}
	return store, nil
}

// openArchive connects to the artifact store and makes sure its bucket
// exists. Tests replace it.
var openArchive = func(ctx context.Context, cfg qart.S3Config) (qart.Store, error) {
	store, err := qart.NewS3Store(cfg)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		return nil, err
	}
	return store, nil
}

// Archive opens the artifact store, or returns nil when archiving is off.
func (a *App) Archive(ctx context.Context) (qart.Store, error) {
	if !a.Config.Archive.Enabled {
		return nil, nil
	}
	env, err := a.Env()
	if err != nil {
		return nil, err
	}
	store, err := openArchive(ctx, env.S3Config())
	if err != nil {
		return nil, qerr.New(qerr.CodeStore, fmt.Errorf("opening archive %s/%s: %w", env.S3Endpoint, env.S3Bucket, err))
	}
	return store, nil
}

// Submitter builds a submitter wired to the configured stores. The returned
// close func releases the key-value connection.
func (a *App) Submitter(ctx context.Context) (*qsub.Submitter, func(), error) {
	store, err := a.Store(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := []qsub.Option{
		qsub.WithWorkDir(a.Config.WorkDir),
		qsub.WithBinary(a.Config.Qsub),
		qsub.WithLogger(a.Log),
		qsub.WithGuard(store, a.Config.LockTTL),
		qsub.WithRecorder(store, a.Config.RecordTTL),
	}

	archive, err := a.Archive(ctx)
	switch {
	case qerr.IsCode(err, qerr.CodeStore):
		a.Log.Warn("archive unavailable, submitting without it", "error", err)
	case err != nil:
		store.Close()
		return nil, nil, err
	case archive != nil:
		opts = append(opts, qsub.WithArchive(archive))
	}

	return qsub.NewSubmitter(opts...), func() { store.Close() }, nil
}
