package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/icpschool/schoolpay/core/admin"
	"github.com/icpschool/schoolpay/core/student"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	adminRepo   admin.Repository
	studentRepo student.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  addadmin -id ID -name NAME -email EMAIL - create or update an admin profile")
	fmt.Println("  seed - load a sample directory for local development")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addAdminCmd := flag.NewFlagSet("addadmin", flag.ExitOnError)
	addAdminID := addAdminCmd.String("id", "", "The identity provider's user id for this admin.")
	addAdminName := addAdminCmd.String("name", "", "The admin's display name.")
	addAdminEmail := addAdminCmd.String("email", "", "The admin's email address.")

	switch args[1] {
	case "addadmin":
		if err := addAdminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addAdminID == "" || *addAdminName == "" || *addAdminEmail == "" {
			addAdminCmd.Usage()
			return errHelp
		}
		return cli.addAdmin(*addAdminID, *addAdminName, *addAdminEmail)
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}
