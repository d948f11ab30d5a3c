package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

// getSimpleText and getPassword are indirections swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	roleText, err := getSimpleText(a.reader, "Role (simple_user, student, admin) [simple_user]", a.out)
	if err != nil {
		return err
	}
	role, err := models.ParseRole(roleText)
	if err != nil {
		return err
	}

	u, err := a.auth.SignUp(ctx, name, email, password, role)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome, %s! Registration successful.\n", u.Name)
	return nil
}

func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	u, err := a.auth.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome back, %s! Login successful.\n", u.Name)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *App) Whoami(context.Context) error {
	p, ok := a.session.Snapshot()
	if !ok {
		return common.ErrNotLoggedIn
	}
	fmt.Fprintf(a.out, "%s <%s> role=%s id=%d\n", p.Name, p.Email, p.Role, p.UserID)
	return nil
}

// EditProfile changes the signed-in user's name and contact email. An empty
// answer keeps the current value.
func (a *App) EditProfile(ctx context.Context) error {
	p, ok := a.session.Snapshot()
	if !ok {
		return common.ErrNotLoggedIn
	}
	name, err := a.askDefault("Name", p.Name)
	if err != nil {
		return err
	}
	email, err := a.askDefault("Email", p.Email)
	if err != nil {
		return err
	}
	if _, err := a.profile.UpdateDetails(ctx, name, email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated.")
	return nil
}
