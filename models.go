package main

import (
	"twitterclone/internal/auth"
	"twitterclone/internal/store"
)

// tweetViews converts listed tweets into template data.
func tweetViews(tweets []store.TweetWithAuthor) []map[string]interface{} {
	views := make([]map[string]interface{}, 0, len(tweets))
	for _, t := range tweets {
		views = append(views, map[string]interface{}{
			"id":      t.ID,
			"text":    t.Text,
			"author":  t.Author(),
			"created": datetimeformat(t.CreatedAt),
		})
	}
	return views
}

// loginForm is the template data for the login page. The password is never
// echoed back.
func loginForm(creds auth.Credentials, formErrors []string, fieldErrors map[string][]string) map[string]interface{} {
	return map[string]interface{}{
		"title":          "Twitter Clone | Login",
		"username":       creds.Username,
		"register":       creds.Type == auth.IntentRegister,
		"formErrors":     formErrors,
		"usernameErrors": fieldErrors["username"],
		"passwordErrors": fieldErrors["password"],
		"typeErrors":     fieldErrors["type"],
	}
}
