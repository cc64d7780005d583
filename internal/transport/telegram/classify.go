package telegram

import (
	"errors"

	tele "gopkg.in/telebot.v4"

	"memebot/internal/transport"
)

// permanentErrs are Telegram API errors meaning the chat can never be
// reached again without the user re-registering: the bot was blocked, the
// account is gone, or the chat no longer exists.
var permanentErrs = []error{
	tele.ErrBlockedByUser,
	tele.ErrUserIsDeactivated,
	tele.ErrNotStartedByUser,
	tele.ErrChatNotFound,
	tele.ErrKickedFromGroup,
	tele.ErrKickedFromSuperGroup,
	tele.ErrKickedFromChannel,
}

// Classify maps a telebot send error onto a delivery outcome. Anything not
// recognized as permanent (flood limits, timeouts, 5xx) is transient so the
// recipient stays eligible for the next cycle.
func Classify(err error) transport.Outcome {
	if err == nil {
		return transport.OutcomeDelivered
	}
	for _, p := range permanentErrs {
		if errors.Is(err, p) {
			return transport.OutcomePermanent
		}
	}
	return transport.OutcomeTransient
}
