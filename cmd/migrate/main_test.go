package main

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationFilenamePattern(t *testing.T) {
	tests := []struct {
		filename string
		valid    bool
		version  string
		name     string
	}{
		{"0001_edi_files.sql", true, "0001", "edi_files"},
		{"001_invalid.sql", false, "", ""},
		{"0001_test", false, "", ""},
		{"0001.sql", false, "", ""},
		{"invalid_0001_test.sql", false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			matches := migrationPattern.FindStringSubmatch(tt.filename)
			if !tt.valid {
				assert.Nil(t, matches)
				return
			}
			require.Len(t, matches, 3)
			assert.Equal(t, tt.version, matches[1])
			assert.Equal(t, tt.name, matches[2])
		})
	}
}

func TestReadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_transactions.sql": {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.transactions` (id STRING)")},
		"0001_edi_files.sql":    {Data: []byte("CREATE TABLE `{{PROJECT_ID}}.{{DATASET_ID}}.edi_files` (id STRING)")},
		"README.md":             {Data: []byte("ignored")},
	}

	migrations, err := readMigrations(fsys, "proj", "ds")
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, 1, migrations[0].Version)
	assert.Equal(t, "edi_files", migrations[0].Name)
	assert.Contains(t, migrations[0].SQL, "`proj.ds.edi_files`")
	assert.Equal(t, 2, migrations[1].Version)

	// Checksums do not depend on the substituted project.
	other, err := readMigrations(fsys, "other", "ds2")
	require.NoError(t, err)
	assert.Equal(t, migrations[0].Checksum, other[0].Checksum)
}

func TestReadMigrations_DuplicateVersion(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_a.sql": {Data: []byte("SELECT 1")},
		"0001_b.sql": {Data: []byte("SELECT 2")},
	}
	_, err := readMigrations(fsys, "p", "d")
	assert.ErrorContains(t, err, "duplicate migration version 0001")
}

func TestEmbeddedMigrations(t *testing.T) {
	source, err := migrationSource()
	require.NoError(t, err)

	migrations, err := readMigrations(source, "proj", "edi")
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	for _, m := range migrations {
		assert.False(t, strings.Contains(m.SQL, "{{"), m.Filename)
	}
	assert.Contains(t, migrations[0].SQL, "`proj.edi.edi_files`")
	assert.Contains(t, migrations[1].SQL, "`proj.edi.transactions`")
}

func TestPendingMigrations(t *testing.T) {
	all := []Migration{
		{Version: 1, Name: "edi_files", Checksum: "aaa"},
		{Version: 2, Name: "transactions", Checksum: "bbb"},
	}

	pending, err := pendingMigrations(all, []AppliedMigration{{Version: 1, Checksum: "aaa"}})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, 2, pending[0].Version)

	pending, err = pendingMigrations(all, nil)
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	_, err = pendingMigrations(all, []AppliedMigration{{Version: 1, Checksum: "changed"}})
	assert.ErrorContains(t, err, "changed after it was applied")
}
