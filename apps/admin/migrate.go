package main

import (
	"github.com/Bernah2o/altavista/storage/database"
)

var migrateRunFunc = database.Migrate // mockable

func (cli *commandLine) migrate(args []string) error {
	var arguments []string
	if len(args) > 1 {
		arguments = append(arguments, args[1:]...)
	}
	return migrateRunFunc(cli.db.DB, args[0], arguments...)
}
