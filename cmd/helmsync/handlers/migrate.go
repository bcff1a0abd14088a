package handlers

import (
	"context"
	"fmt"
	"io"

	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/imamik/helmsync/internal/config"
	"github.com/imamik/helmsync/internal/store"
)

// Migrate applies pending schema migrations to the configured store.
func Migrate(ctx context.Context, w io.Writer, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	ctx = log.IntoContext(ctx, ctrl.Log.WithName("migrate"))

	if cfg.Store.Driver == config.StoreMemory {
		_, err := fmt.Fprintln(w, "The memory store has no schema to migrate.")
		return err
	}

	st, err := openStore(ctx, cfg.Store, store.Options{Migrate: true})
	if err != nil {
		return fmt.Errorf("failed to migrate store: %w", err)
	}
	defer func() { _ = st.Close() }()

	_, err = fmt.Fprintf(w, "Schema is up to date (%s: %s)\n", cfg.Store.Driver, cfg.Store.Redacted())
	return err
}
