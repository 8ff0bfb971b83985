package main

import (
	"database/sql"

	"github.com/pressly/goose/v3"

	appfs "github.com/medtrackhq/medtrack/fs"
)

var gooseRunFunc = goose.Run // mockable

func (cli *commandLine) migrate(args []string) error {
	goose.SetBaseFS(appfs.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	var db *sql.DB
	if cli.db != nil {
		db = cli.db.DB
	}
	arguments := make([]string, 0)
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return gooseRunFunc(args[0], db, "migrations", arguments...)
}
