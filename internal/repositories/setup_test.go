package repositories

import (
	log "github.com/sirupsen/logrus"
	"os"
	"path/filepath"
	"testing"
)

var dbCtx *DbContext

func upEnvironment(dir string) {
	var err error
	dbCtx, err = NewDbContext(filepath.Join(dir, "testdatabase.db"))
	if err != nil {
		log.Fatalf("could not create db context: %s", err)
	}

	err = dbCtx.Migrate()
	if err != nil {
		log.Fatalf("could not migrate db: %s", err)
	}
}

func clearDb() {
	dbCtx.DB.Exec("DELETE from stored_values WHERE TRUE")
}

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "jobs-finder-repositories")
	if err != nil {
		log.Fatal(err)
	}

	upEnvironment(dir)

	code := m.Run()

	_ = dbCtx.Close()
	_ = os.RemoveAll(dir)

	os.Exit(code)
}
