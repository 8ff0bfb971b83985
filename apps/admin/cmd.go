package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/medtrackhq/medtrack/core/cohort"
	"github.com/medtrackhq/medtrack/core/lab"
	"github.com/medtrackhq/medtrack/core/student"
	"github.com/medtrackhq/medtrack/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	usrRepo user.Repository
	cohRepo cohort.Repository
	stuRepo student.Repository
	labRepo lab.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  createsuperuser -username USERNAME -email EMAIL - create or promote a superuser")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  migrate COMMAND [args] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  seed - load demo data for local development")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	createSuperuserCmd := flag.NewFlagSet("createsuperuser", flag.ExitOnError)
	createSuperuserUname := createSuperuserCmd.String("username", "", "The superuser's username.")
	createSuperuserEmail := createSuperuserCmd.String("email", "", "The superuser's email. The password will be prompted next.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	switch args[1] {
	case "createsuperuser":
		if err := createSuperuserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createSuperuserUname == "" || *createSuperuserEmail == "" {
			createSuperuserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			createSuperuserCmd.Usage()
			return errHelp
		}
		return cli.createSuperuser(*createSuperuserUname, *createSuperuserEmail, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
