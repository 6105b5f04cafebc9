// Package admin implements the operator commands: creating accounts without
// going through the public registration endpoint and deactivating accounts.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/chatassist/internal/common"
	"github.com/dmitrijs2005/chatassist/internal/server/auth"
	"github.com/dmitrijs2005/chatassist/internal/server/models"
	"github.com/dmitrijs2005/chatassist/internal/server/repositories/users"
	"github.com/dmitrijs2005/chatassist/internal/server/services"
)

const usage = `Usage: admin <command> [flags]

Commands:
  create-user      -email <email> -name <name>   (password is prompted)
  deactivate-user  -email <email>
  help
`

var ErrUsage = errors.New("usage error")

type App struct {
	users  users.Repository
	hasher *auth.PasswordHasher
	out    io.Writer
}

func NewApp(u users.Repository, hasher *auth.PasswordHasher, out io.Writer) *App {
	return &App{users: u, hasher: hasher, out: out}
}

// Run dispatches args (without the program name) to a command.
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "create-user":
		return a.createUser(ctx, rest)
	case "deactivate-user":
		return a.deactivateUser(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	default:
		fmt.Fprintf(a.out, "Unknown command: %s\n%s", cmd, usage)
		return ErrUsage
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func (a *App) createUser(ctx context.Context, args []string) error {
	fs := newFlagSet("create-user", a.out)
	email := fs.String("email", "", "user email")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if !services.ValidEmail(*email) {
		return common.NewValidationError(services.MsgInvalidEmail)
	}
	if err := services.ValidateName(*name); err != nil {
		return err
	}

	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if err := services.ValidatePassword(string(pw)); err != nil {
		return err
	}

	hash, err := a.hasher.Hash(string(pw))
	if err != nil {
		return err
	}

	u, err := a.users.Create(ctx, &models.User{
		Email:        common.NormalizeEmail(*email),
		Name:         strings.TrimSpace(*name),
		PasswordHash: hash,
	})
	if errors.Is(err, common.ErrorAlreadyExists) {
		return common.NewValidationError(services.MsgUserExists)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Created user %s (%s)\n", u.Email, u.ID)
	return nil
}

func (a *App) deactivateUser(ctx context.Context, args []string) error {
	fs := newFlagSet("deactivate-user", a.out)
	email := fs.String("email", "", "user email")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if *email == "" {
		return fmt.Errorf("%w: -email is required", ErrUsage)
	}

	u, err := a.users.FindByEmail(ctx, *email)
	if errors.Is(err, common.ErrorNotFound) {
		return fmt.Errorf("no active user with email %s: %w", common.NormalizeEmail(*email), err)
	}
	if err != nil {
		return err
	}

	if err := a.users.Deactivate(ctx, u.ID); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Deactivated user %s (%s)\n", u.Email, u.ID)
	return nil
}
