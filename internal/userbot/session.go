package userbot

import (
	"context"
	"errors"
	"fmt"

	"github.com/gotd/td/session"
)

// NewStorage builds session storage from a Telethon string session or, when
// that is empty, from a session file managed by gotd.
func NewStorage(ctx context.Context, sessionString, sessionFile string) (session.Storage, error) {
	switch {
	case sessionString != "":
		data, err := session.TelethonSession(sessionString)
		if err != nil {
			return nil, fmt.Errorf("decode string session: %w", err)
		}
		storage := new(session.StorageMemory)
		loader := session.Loader{Storage: storage}
		if err := loader.Save(ctx, data); err != nil {
			return nil, fmt.Errorf("load string session: %w", err)
		}
		return storage, nil
	case sessionFile != "":
		return &session.FileStorage{Path: sessionFile}, nil
	default:
		return nil, errors.New("no session configured: set SESSION_STRING or SESSION_FILE")
	}
}
