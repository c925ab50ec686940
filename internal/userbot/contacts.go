package userbot

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gotd/td/tg"
)

var ErrContactNotFound = errors.New("contact not found")

// MatchContact picks the target out of the address book. A numeric subject
// matches the user id, anything else is a case-insensitive substring of the
// full name. The first match wins.
func MatchContact(users []tg.UserClass, subject string) (*tg.User, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, ErrContactNotFound
	}
	id, err := strconv.ParseInt(subject, 10, 64)
	numeric := err == nil
	needle := strings.ToLower(subject)

	for _, u := range users {
		user, ok := u.(*tg.User)
		if !ok {
			continue
		}
		if numeric {
			if user.ID == id {
				return user, nil
			}
			continue
		}
		if strings.Contains(strings.ToLower(DisplayName(user)), needle) {
			return user, nil
		}
	}
	return nil, ErrContactNotFound
}

// DisplayName is "First Last", falling back to the username.
func DisplayName(u *tg.User) string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		name = u.Username
	}
	return name
}
