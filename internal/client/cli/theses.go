package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/thesisvault/internal/client/services"
	"github.com/dmitrijs2005/thesisvault/internal/common"
	"github.com/dmitrijs2005/thesisvault/internal/records/models"
)

func (a *App) AddThesis(ctx context.Context, args []string) error {
	if len(args) != 1 {
		fmt.Fprintln(a.out, "Usage: add <file>")
		return nil
	}
	if !a.isLoggedIn() {
		return common.ErrNotLoggedIn
	}

	var meta services.ThesisMeta
	var err error
	prompts := []struct {
		label string
		dst   *string
	}{
		{"Title", &meta.Title},
		{"Author", &meta.Author},
		{"Speciality", &meta.Speciality},
		{"Keywords (comma separated)", &meta.Keywords},
	}
	for _, p := range prompts {
		if *p.dst, err = getSimpleText(a.reader, p.label, a.out); err != nil {
			return err
		}
	}

	kind, err := getSimpleText(a.reader, "Kind (master, doctorate) [master]", a.out)
	if err != nil {
		return err
	}
	if meta.Kind, err = models.ParseThesisKind(kind); err != nil {
		return err
	}

	year, err := getSimpleText(a.reader, "Year", a.out)
	if err != nil {
		return err
	}
	if year != "" {
		if meta.Year, err = strconv.Atoi(year); err != nil {
			return fmt.Errorf("%w: year must be a number", common.ErrBadRequest)
		}
	}

	if meta.Abstract, err = GetMultiline(a.reader, "Abstract", a.out); err != nil {
		return err
	}

	fmt.Fprintln(a.out, "Uploading...")
	t, err := a.theses.Add(ctx, args[0], meta)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Thesis #%d added.\n", t.ID)
	return nil
}

func (a *App) List(ctx context.Context, args []string) error {
	limit, offset := 0, 0
	var err error
	if len(args) > 0 {
		if limit, err = strconv.Atoi(args[0]); err != nil {
			fmt.Fprintln(a.out, "Usage: list [limit [offset]]")
			return nil
		}
	}
	if len(args) > 1 {
		if offset, err = strconv.Atoi(args[1]); err != nil {
			fmt.Fprintln(a.out, "Usage: list [limit [offset]]")
			return nil
		}
	}

	list, err := a.theses.List(ctx, limit, offset)
	if err != nil {
		return err
	}
	a.printTheses(list)
	return nil
}

func (a *App) Mine(ctx context.Context) error {
	list, err := a.theses.ListMine(ctx)
	if err != nil {
		return err
	}
	a.printTheses(list)
	return nil
}

func (a *App) Open(ctx context.Context, args []string) error {
	id, ok := a.idArg(args, "open")
	if !ok {
		return nil
	}
	path, err := a.theses.Open(ctx, id, a.config.DownloadDir)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved to %s\n", path)
	return nil
}

// Avatar uploads a new profile picture, or downloads the current one when
// no file is given.
func (a *App) Avatar(ctx context.Context, args []string) error {
	if len(args) == 0 {
		path, err := a.profile.Picture(ctx, a.config.DownloadDir)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Saved to %s\n", path)
		return nil
	}

	if _, err := a.profile.UpdatePicture(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile picture updated.")
	return nil
}

func (a *App) Favorite(ctx context.Context, args []string) error {
	id, ok := a.idArg(args, "fav")
	if !ok {
		return nil
	}
	if err := a.favorites.Add(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Thesis #%d added to favorites.\n", id)
	return nil
}

func (a *App) Unfavorite(ctx context.Context, args []string) error {
	id, ok := a.idArg(args, "unfav")
	if !ok {
		return nil
	}
	if err := a.favorites.Remove(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Thesis #%d removed from favorites.\n", id)
	return nil
}

func (a *App) Favorites(ctx context.Context) error {
	list, err := a.favorites.List(ctx)
	if err != nil {
		return err
	}
	a.printTheses(list)
	return nil
}

func (a *App) idArg(args []string, cmd string) (int64, bool) {
	if len(args) != 1 {
		fmt.Fprintf(a.out, "Usage: %s <id>\n", cmd)
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(a.out, "Usage: %s <id>\n", cmd)
		return 0, false
	}
	return id, true
}

func (a *App) printTheses(list []models.Thesis) {
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No theses.")
		return
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tAUTHOR\tKIND\tYEAR")
	for _, t := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", t.ID, t.Title, t.Author, t.Kind, t.Year)
	}
	_ = w.Flush()
}
