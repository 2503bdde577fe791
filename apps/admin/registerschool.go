package main

import (
	"context"
	"fmt"

	"github.com/trezcool/masomo-web/core/tenant"
)

func (cli *commandLine) registerSchool(reg tenant.Registration) error {
	res, err := cli.tenantSvc.Register(context.Background(), reg)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "%s\nuser: %s\nschool: %s\n", res.Message, res.UserID, res.SchoolID)
	return nil
}
