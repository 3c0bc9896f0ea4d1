package chat

import (
	"fmt"
	"strings"
)

// MentionUser renders a user mention in platform wire syntax.
func MentionUser(userID string) string {
	return fmt.Sprintf("<@%s>", userID)
}

// MentionChannel renders a channel mention in platform wire syntax.
func MentionChannel(channelID string) string {
	return fmt.Sprintf("<#%s>", channelID)
}

// MentionRole renders a role mention in platform wire syntax.
func MentionRole(roleID string) string {
	return fmt.Sprintf("<@&%s>", roleID)
}

// MentionUsers renders a comma-joined list of user mentions.
func MentionUsers(userIDs []string) string {
	mentions := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		mentions = append(mentions, MentionUser(id))
	}
	return strings.Join(mentions, ", ")
}
