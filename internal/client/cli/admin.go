package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

func (a *App) isAdmin() bool {
	p, ok := a.session.Snapshot()
	return ok && models.Role(p.Role).IsAdmin()
}

// confirm asks a yes/no question; anything but y or yes is a no.
func (a *App) confirm(question string) (bool, error) {
	answer, err := getSimpleText(a.reader, question+" (y/N)", a.out)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

func (a *App) DeleteThesis(ctx context.Context, args []string) error {
	id, ok := a.idArg(args, "delete")
	if !ok {
		return nil
	}
	yes, err := a.confirm(fmt.Sprintf("Delete thesis #%d?", id))
	if err != nil || !yes {
		return err
	}
	if err := a.theses.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Thesis #%d deleted.\n", id)
	return nil
}

func (a *App) Members(ctx context.Context) error {
	list, err := a.members.List(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No members.")
		return nil
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE")
	for _, u := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	_ = w.Flush()
	return nil
}

// EditMember prompts for name, email and role of a member. An empty answer
// keeps the current value.
func (a *App) EditMember(ctx context.Context, args []string) error {
	id, ok := a.idArg(args, "member-edit")
	if !ok {
		return nil
	}
	list, err := a.members.List(ctx)
	if err != nil {
		return err
	}
	var current *models.User
	for i := range list {
		if list[i].ID == id {
			current = &list[i]
			break
		}
	}
	if current == nil {
		fmt.Fprintf(a.out, "Member #%d not found.\n", id)
		return nil
	}

	name, err := a.askDefault("Name", current.Name)
	if err != nil {
		return err
	}
	email, err := a.askDefault("Email", current.Email)
	if err != nil {
		return err
	}
	roleText, err := a.askDefault("Role (simple_user, student, admin)", string(current.Role))
	if err != nil {
		return err
	}
	role, err := models.ParseRole(roleText)
	if err != nil {
		return err
	}

	if _, err := a.members.Update(ctx, id, name, email, role); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Member #%d updated.\n", id)
	return nil
}

func (a *App) DeleteMember(ctx context.Context, args []string) error {
	id, ok := a.idArg(args, "member-delete")
	if !ok {
		return nil
	}
	yes, err := a.confirm(fmt.Sprintf("Delete member #%d and all their theses?", id))
	if err != nil || !yes {
		return err
	}
	if err := a.members.Delete(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Member #%d deleted.\n", id)
	return nil
}

func (a *App) Stats(ctx context.Context) error {
	st, err := a.members.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Users: %d\nTheses: %d\n", st.Users, st.Theses)
	return nil
}

func (a *App) askDefault(label, current string) (string, error) {
	v, err := getSimpleText(a.reader, fmt.Sprintf("%s [%s]", label, current), a.out)
	if err != nil {
		return "", err
	}
	if v == "" {
		return current, nil
	}
	return v, nil
}
