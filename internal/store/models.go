package store

import "time"

// ServerAuthor is shown for tweets that have no user attached.
const ServerAuthor = "server"

// User represents a registered user.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Tweet is a single tweet row. UserID is nil for system-authored tweets.
type Tweet struct {
	ID        int64
	Text      string
	CreatedAt time.Time
	UserID    *int64
}

// TweetWithAuthor is a tweet joined with its author's username.
type TweetWithAuthor struct {
	Tweet
	Username string
}

// Author returns the username of the tweet's author, or ServerAuthor when
// the tweet has none.
func (t TweetWithAuthor) Author() string {
	if t.UserID == nil || t.Username == "" {
		return ServerAuthor
	}
	return t.Username
}
