package main

import (
	"context"
	"log"
	"os"

	"github.com/icpschool/schoolpay/core"
	"github.com/icpschool/schoolpay/storage/database/mongodb"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()

	db, err := mongodb.Open(conf)
	errAndDie(err)
	defer func() { _ = mongodb.Close(context.Background(), db) }()
	errAndDie(mongodb.EnsureIndexes(context.Background(), db))

	// start CLI
	cli := commandLine{
		adminRepo:   mongodb.NewAdminRepository(db),
		studentRepo: mongodb.NewStudentRepository(db),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
