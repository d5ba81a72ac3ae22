package dispatch

import (
	"fmt"

	"github.com/qepting91/saved-response/internal/domain"
)

func messageSubject(subreddit string) string {
	return fmt.Sprintf("A message from r/%s", subreddit)
}

func messagePrefix(target domain.TargetRef, permalink string) string {
	return fmt.Sprintf("In response to [your %s](%s):\n\n---\n\n", target.Noun(), permalink)
}

func unmonitoredFooter(subreddit string) string {
	return fmt.Sprintf("\n\n---\n\n*This inbox is not monitored. If you have any questions, please message the moderators of r/%s.*", subreddit)
}

func commentNote(moderator string) string {
	return fmt.Sprintf("Saved Response left by u/%s.", moderator)
}

func messageNote(recipient, moderator string) string {
	return fmt.Sprintf("PM sent to u/%s by u/%s.", recipient, moderator)
}

func internalNote(moderator string) string {
	return fmt.Sprintf("Originally sent by u/%s.", moderator)
}
