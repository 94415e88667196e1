package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/suite"

	"medgate/migrations"
)

type recordingExecer struct {
	statements []string
	failOn     string
}

func (r *recordingExecer) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	if r.failOn != "" && query == r.failOn {
		return nil, errors.New("exec failed")
	}
	r.statements = append(r.statements, query)
	return nil, nil
}

type MigrateSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *MigrateSuite) SetupTest() {
	s.ctx = context.Background()
}

func TestMigrateSuite(t *testing.T) {
	suite.Run(t, new(MigrateSuite))
}

func (s *MigrateSuite) TestAppliesFilesInLexicalOrder() {
	fsys := fstest.MapFS{
		"0002_indexes.sql": {Data: []byte("CREATE INDEX two")},
		"0001_init.sql":    {Data: []byte("CREATE TABLE one")},
		"notes.txt":        {Data: []byte("not a migration")},
	}
	db := &recordingExecer{}

	err := Migrate(s.ctx, db, fsys)
	s.Require().NoError(err)
	s.Equal([]string{"CREATE TABLE one", "CREATE INDEX two"}, db.statements)
}

func (s *MigrateSuite) TestExecFailureStopsTheRun() {
	fsys := fstest.MapFS{
		"0001_init.sql":    {Data: []byte("CREATE TABLE one")},
		"0002_indexes.sql": {Data: []byte("CREATE INDEX two")},
	}
	db := &recordingExecer{failOn: "CREATE INDEX two"}

	err := Migrate(s.ctx, db, fsys)
	s.Require().Error(err)
	s.Contains(err.Error(), "0002_indexes.sql")
	s.Equal([]string{"CREATE TABLE one"}, db.statements)
}

func (s *MigrateSuite) TestEmbeddedSchemaIsDiscovered() {
	db := &recordingExecer{}

	err := Migrate(s.ctx, db, migrations.FS)
	s.Require().NoError(err)
	s.Require().Len(db.statements, 1)
	s.Contains(db.statements[0], "CREATE TABLE IF NOT EXISTS consent_records")
	s.Contains(db.statements[0], "CREATE TABLE IF NOT EXISTS access_logs")
}
