package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-web/core"
	"github.com/trezcool/masomo-web/core/backend"
	"github.com/trezcool/masomo-web/core/identity"
	"github.com/trezcool/masomo-web/core/tenant"
	emailsvc "github.com/trezcool/masomo-web/services/email"
	logsvc "github.com/trezcool/masomo-web/services/logger"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(false)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	core.ParseEmailTemplates(conf, logger)

	// the process exits right after the command: emails are sent synchronously
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewSyncConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSyncSendgridService(conf, logger)
	}

	client := backend.NewClient(conf.Backend.URL, conf.Backend.Timeout)
	idp := identity.NewClient(conf.Identity.URL, conf.Identity.ServiceKey, conf.Backend.Timeout)

	// start CLI
	cli := commandLine{
		tenantSvc: tenant.NewService(client, idp, mailSvc, validate, translator, logger),
		client:    client,
		out:       os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("error: " + err.Error())
		}
		os.Exit(1)
	}
}
