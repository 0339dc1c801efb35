package ports

import (
	"context"

	"autolike/internal/domain/entity"
)

// Consent is the user's answer for an unknown channel.
type Consent struct {
	Like bool
	// Remember adds the channel to the whitelist or blacklist.
	Remember bool
}

// UserInteraction is the operator-facing side of the watcher.
type UserInteraction interface {
	AskConsent(ctx context.Context, channel string) (Consent, error)
	// ChooseComment returns the picked (possibly edited) suggestion, or
	// ok == false when the user cancels.
	ChooseComment(ctx context.Context, suggestions []string) (text string, ok bool, err error)
	WaitForUserAction(ctx context.Context, message string) error

	ShowStep(ctx context.Context, step, total int, instruction string)
	ShowResult(ctx context.Context, message string, isError bool)
	ShowReport(ctx context.Context, reports []entity.RoleReport)
}
