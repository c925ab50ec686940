package userbot

import (
	"time"

	"github.com/gotd/td/tg"

	"presencebot/internal/presence"
)

// ConvertStatus maps the MTProto user status onto a presence reading.
func ConvertStatus(s tg.UserStatusClass) presence.Reading {
	switch v := s.(type) {
	case *tg.UserStatusOnline:
		return presence.Online{}
	case *tg.UserStatusOffline:
		if v.WasOnline <= 0 {
			return presence.OfflineUnknown{}
		}
		return presence.OfflineAt{At: time.Unix(int64(v.WasOnline), 0)}
	case *tg.UserStatusRecently:
		return presence.Recently{}
	case *tg.UserStatusLastWeek:
		return presence.WithinWeek{}
	case *tg.UserStatusLastMonth:
		return presence.WithinMonth{}
	default:
		return presence.Unavailable{}
	}
}
