package vehicles

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"codeberg.org/qemxa/server/internal/tiers"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}

	for i, d := range dest {
		switch p := d.(type) {
		case *string:
			*p = r.values[i].(string)
		case *int:
			*p = r.values[i].(int)
		case *time.Time:
			*p = r.values[i].(time.Time)
		}
	}

	return nil
}

// answers queries in order and records the SQL it saw
type fakeTx struct {
	rows    []fakeRow
	queries []string
}

func (f *fakeTx) QueryRow(_ context.Context, sql string, _ ...any) pgx.Row {
	f.queries = append(f.queries, strings.TrimSpace(sql))

	row := f.rows[0]
	f.rows = f.rows[1:]

	return row
}

func created(vin string) fakeRow {
	return fakeRow{values: []any{vin, "user-1", "BMW", "3 Series", 2020, time.Now()}}
}

func TestCreateLocked_LocksOwnerBeforeCounting(t *testing.T) {
	tx := &fakeTx{rows: []fakeRow{
		{values: []any{"premium"}},
		{values: []any{3}},
		created("WBAXX1234567890"),
	}}

	v, err := createLocked(context.Background(), tx, "user-1", tiers.Free, CreateVehicleRequest{VIN: "WBAXX1234567890"})
	require.NoError(t, err)
	assert.Equal(t, "WBAXX1234567890", v.VIN)

	require.Len(t, tx.queries, 3)
	assert.Contains(t, tx.queries[0], "FOR UPDATE")
	assert.Contains(t, tx.queries[1], "COUNT(*)")
	assert.Contains(t, tx.queries[2], "INSERT INTO vehicles")
}

func TestCreateLocked(t *testing.T) {
	tests := []struct {
		name    string
		tier    tiers.Tier
		rows    []fakeRow
		wantErr error
	}{
		{
			name:    "locked tier wins over the caller's copy",
			tier:    tiers.Premium,
			rows:    []fakeRow{{values: []any{"free"}}, {values: []any{1}}},
			wantErr: ErrVehicleLimitReached,
		},
		{
			name: "missing profile falls back to the caller's tier",
			tier: tiers.Premium,
			rows: []fakeRow{{err: pgx.ErrNoRows}, {values: []any{1}}, created("WBAXX1234567890")},
		},
		{
			name:    "duplicate vin",
			tier:    tiers.Platinum,
			rows:    []fakeRow{{values: []any{"platinum"}}, {values: []any{0}}, {err: &pgconn.PgError{Code: codeUniqueViolation}}},
			wantErr: ErrVehicleExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := &fakeTx{rows: tt.rows}

			_, err := createLocked(context.Background(), tx, "user-1", tt.tier, CreateVehicleRequest{VIN: "WBAXX1234567890"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}

			assert.NoError(t, err)
		})
	}
}

func TestCreateLocked_LockFailure(t *testing.T) {
	tx := &fakeTx{rows: []fakeRow{{err: errors.New("deadlock detected")}}}

	_, err := createLocked(context.Background(), tx, "user-1", tiers.Free, CreateVehicleRequest{VIN: "WBAXX1234567890"})
	assert.ErrorContains(t, err, "deadlock detected")
	assert.Len(t, tx.queries, 1)
}
