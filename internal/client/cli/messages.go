package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/thesisvault/internal/common"
)

func (a *App) SendMessage(ctx context.Context, args []string) error {
	id, ok := a.idArg(args, "msg")
	if !ok {
		return nil
	}
	if !a.isLoggedIn() {
		return common.ErrNotLoggedIn
	}
	body, err := GetMultiline(a.reader, "Message to the author", a.out)
	if err != nil {
		return err
	}
	if _, err := a.messages.Send(ctx, id, body); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Message sent.")
	return nil
}

func (a *App) Inbox(ctx context.Context) error {
	list, err := a.messages.Inbox(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No messages.")
		return nil
	}
	for _, m := range list {
		fmt.Fprintf(a.out, "[%s] %s on #%d %s:\n  %s\n",
			m.SentAt.Local().Format("2006-01-02 15:04"), m.SenderName, m.ThesisID, m.ThesisTitle, m.Body)
	}
	return nil
}
