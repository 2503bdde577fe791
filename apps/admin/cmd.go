package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"golang.org/x/term"

	"github.com/trezcool/masomo-web/core/backend"
	"github.com/trezcool/masomo-web/core/tenant"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type registrar interface {
	Register(ctx context.Context, reg tenant.Registration) (tenant.Result, error)
}

type commandLine struct {
	tenantSvc registrar
	client    *backend.Client
	out       io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  registerschool -school NAME -email EMAIL -first NAME -last NAME [-phone PHONE] [-city CITY] - register a school and its admin")
	fmt.Fprintln(cli.out, "  ping - check that the backend is reachable")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	registerCmd := flag.NewFlagSet("registerschool", flag.ContinueOnError)
	registerCmd.SetOutput(cli.out)
	school := registerCmd.String("school", "", "The school's name.")
	email := registerCmd.String("email", "", "The admin's email. The password will be prompted next.")
	first := registerCmd.String("first", "", "The admin's first name.")
	last := registerCmd.String("last", "", "The admin's last name.")
	phone := registerCmd.String("phone", "", "The school's phone number.")
	city := registerCmd.String("city", "", "The school's city.")

	switch args[1] {
	case "registerschool":
		if err := registerCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *school == "" || *email == "" {
			registerCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			registerCmd.Usage()
			return errHelp
		}
		return cli.registerSchool(tenant.Registration{
			SchoolName:     *school,
			AdminFirstName: *first,
			AdminLastName:  *last,
			Email:          *email,
			Password:       string(pwd),
			Phone:          *phone,
			City:           *city,
		})
	case "ping":
		return cli.ping()
	default:
		cli.printUsage()
		return errHelp
	}
}
