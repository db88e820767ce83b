// Package pg opens pgx connection pools, applies goose migrations from an
// embedded filesystem and classifies PostgreSQL errors.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, migrations.FS, ".", cfg, log); err != nil {
//		return err
//	}
//
// WithTx wraps a function in a transaction that commits on success.
package pg
