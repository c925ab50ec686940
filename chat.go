package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
)

// ChatBinding is the destination chat for alerts and the only chat the bot
// answers once it is set.
type ChatBinding struct {
	mu      sync.RWMutex
	id      int64
	envPath string
}

func NewChatBinding(id int64, envPath string) *ChatBinding {
	return &ChatBinding{id: id, envPath: envPath}
}

// ID returns the bound chat, 0 when none is bound yet.
func (c *ChatBinding) ID() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id
}

// Allows reports whether chatID may talk to the bot: any chat until one is
// bound, then only that one.
func (c *ChatBinding) Allows(chatID int64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.id == 0 || c.id == chatID
}

// Claim binds chatID when no chat is bound yet and persists it as CHAT_ID.
// It reports whether chatID is the destination afterwards. A persistence
// error leaves the in-memory binding in place.
func (c *ChatBinding) Claim(chatID int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id != 0 {
		return c.id == chatID, nil
	}
	c.id = chatID
	if c.envPath == "" {
		return true, nil
	}
	if err := persistEnvValue(c.envPath, "CHAT_ID", strconv.FormatInt(chatID, 10)); err != nil {
		return true, err
	}
	return true, nil
}

// persistEnvValue sets key in the .env file at path. A missing key is
// appended; an existing assignment is replaced in place. Other lines,
// comments included, are kept as they are.
func persistEnvValue(path, key, value string) error {
	line, err := godotenv.Marshal(map[string]string{key: value})
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	lines := strings.Split(string(raw), "\n")
	replaced := false
	for i, l := range lines {
		trimmed := strings.TrimPrefix(strings.TrimSpace(l), "export ")
		if strings.HasPrefix(trimmed, key+"=") {
			lines[i] = line
			replaced = true
		}
	}

	var out string
	if replaced {
		out = strings.Join(lines, "\n")
	} else {
		out = string(raw)
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += line + "\n"
	}
	if err := os.WriteFile(path, []byte(out), 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
