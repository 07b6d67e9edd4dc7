// Package pg bootstraps PostgreSQL access on top of pgx/v5: a retrying pool
// constructor, goose migrations from an fs.FS, a readiness probe, SQLSTATE
// classification helpers and InTx, a transaction runner that re-executes
// work aborted by serialization failures or deadlocks.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, db.Migrations, log); err != nil {
//		return err
//	}
//
// Configuration comes from PG_* environment variables, see Config.
package pg
