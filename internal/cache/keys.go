package cache

import "strings"

// SearchKey returns the key for cached search results. The query is
// lowercased and trimmed so equivalent queries share an entry.
func SearchKey(query, userID string) string {
	q := strings.ToLower(strings.TrimSpace(query))
	if userID != "" {
		return "search:" + userID + ":" + q
	}
	return "search:" + q
}

// ChatKey returns the key for a user's conversation history
func ChatKey(userID, conversationID string) string {
	if conversationID == "" {
		conversationID = "default"
	}
	return "chat:" + userID + ":" + conversationID
}

// UserKey returns the key for a cached user profile
func UserKey(userID string) string {
	return "user:" + userID
}

// PostKey returns the key for a cached post
func PostKey(postID string) string {
	return "post:" + postID
}
