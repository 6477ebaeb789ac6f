package main

import (
	"log"
	"os"

	"github.com/trezcool/sms/core"
	"github.com/trezcool/sms/core/user"
	logsvc "github.com/trezcool/sms/services/logger"
	"github.com/trezcool/sms/storage/database"
	sqlxrepos "github.com/trezcool/sms/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	if err = db.Ping(); err != nil {
		logger.Fatal("pinging database", err)
	}

	// set up services
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:         db,
		engine:     conf.Database.Engine,
		conf:       conf,
		usrSvc:     user.NewService(sqlxrepos.NewUserRepository(db, conf.Database.Engine), validate, logger),
		translator: translator,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("error: "+err.Error(), err)
		}
		os.Exit(1)
	}
}
