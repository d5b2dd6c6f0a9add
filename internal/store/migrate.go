package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	entschema "entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

var (
	// snapshotColumns holds the columns of the learner_snapshots table.
	snapshotColumns = []*entschema.Column{
		{Name: "id", Type: field.TypeString},
		{Name: "student_id", Type: field.TypeString},
		{Name: "version", Type: field.TypeInt},
		{Name: "format", Type: field.TypeString},
		{Name: "data", Type: field.TypeString, Size: math.MaxInt32},
		{Name: "created_at", Type: field.TypeString},
	}
	// snapshotsTable holds one row per stored version of a learner.
	snapshotsTable = &entschema.Table{
		Name:       snapshotTable,
		Columns:    snapshotColumns,
		PrimaryKey: []*entschema.Column{snapshotColumns[0]},
		Indexes: []*entschema.Index{
			{
				Name:    "learnersnapshot_student_id_version",
				Unique:  true,
				Columns: []*entschema.Column{snapshotColumns[1], snapshotColumns[2]},
			},
		},
	}
)

// migrate creates or updates the schema.
func migrate(ctx context.Context, db *sql.DB) error {
	drv := entsql.OpenDB(dialect.SQLite, db)
	m, err := entschema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("init migrate: %w", err)
	}
	return m.Create(ctx, snapshotsTable)
}
