package cli

import "context"

func runMigrateUp(ctx context.Context, deps *Deps, args []string) error {
	return migrateUp(deps)
}

func runMigrateDown(ctx context.Context, deps *Deps, args []string) error {
	return migrateDown(deps)
}
