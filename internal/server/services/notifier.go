package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/todolist/internal/common"
	"github.com/dmitrijs2005/todolist/internal/server/mailer"
	"github.com/dmitrijs2005/todolist/internal/server/metrics"
	"github.com/dmitrijs2005/todolist/internal/server/repositories/repomanager"
)

// Notifier mails the owner of a todo-list when its item count hits the
// notification threshold exactly.
type Notifier struct {
	options
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	sender      mailer.Sender
	threshold   int
}

func NewNotifier(db *sql.DB, m repomanager.RepositoryManager, sender mailer.Sender, threshold int, opts ...Option) *Notifier {
	return &Notifier{
		options:     newOptions("notifier", opts),
		db:          db,
		repomanager: m,
		sender:      sender,
		threshold:   threshold,
	}
}

// MaybeNotify reports whether a mail was sent.
func (n *Notifier) MaybeNotify(ctx context.Context, todolistID string) (bool, error) {
	list, err := n.repomanager.Items(n.db).FindByTodolist(ctx, todolistID)
	if err != nil {
		n.metrics.ObserveNotification(metrics.NotificationFailed)
		return false, err
	}

	if len(list) != n.threshold {
		n.metrics.ObserveNotification(metrics.NotificationSkipped)
		return false, nil
	}

	recipient, err := n.ownerEmail(ctx, todolistID)
	if err != nil {
		n.metrics.ObserveNotification(metrics.NotificationFailed)
		return false, err
	}

	if _, err := n.sender.SendMail(ctx, recipient, common.MailItemCapacitySoonExceeded); err != nil {
		n.metrics.ObserveNotification(metrics.NotificationFailed)
		return false, fmt.Errorf("send mail: %w", err)
	}

	n.metrics.ObserveNotification(metrics.NotificationSent)
	n.logger.Info(ctx, "capacity notification sent", "todolist_id", todolistID, "items", len(list))
	return true, nil
}

func (n *Notifier) ownerEmail(ctx context.Context, todolistID string) (string, error) {
	list, err := n.repomanager.Todolists(n.db).FindByID(ctx, todolistID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrTodolistNotFound
		}
		return "", err
	}

	user, err := n.repomanager.Users(n.db).FindByID(ctx, list.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrUserNotFound
		}
		return "", err
	}
	return user.Email, nil
}
