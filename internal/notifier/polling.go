package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// CommandHandler answers one chat command. An empty reply sends nothing.
type CommandHandler func(command string) string

const pollErrorBackoff = 5 * time.Second

type telegramChat struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Username string `json:"username"`
}

type telegramUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

type telegramMessage struct {
	Text string        `json:"text"`
	Chat telegramChat  `json:"chat"`
	From *telegramUser `json:"from"`
}

type telegramUpdate struct {
	UpdateID int              `json:"update_id"`
	Message  *telegramMessage `json:"message"`
}

// StartPolling long-polls for commands and answers them in the configured
// chat. Messages from any other chat are dropped unanswered, since some
// commands act with the administrator's identity. Blocks until ctx is
// cancelled.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	client := &http.Client{Transport: t.Client.Transport, Timeout: t.PollTimeout + 5*time.Second}
	offset := 0

	for ctx.Err() == nil {
		updates, err := t.getUpdates(ctx, client, offset)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Printf("[WARN] polling request failed: %v", err)
			sleepContext(ctx, pollErrorBackoff)
			continue
		}

		for _, u := range updates {
			offset = u.UpdateID + 1
			if u.Message == nil || strings.TrimSpace(u.Message.Text) == "" {
				continue
			}
			if !t.fromConfiguredChat(u.Message.Chat) {
				log.Printf("[WARN] ignoring command from chat %d (user %s)", u.Message.Chat.ID, senderOf(u.Message))
				continue
			}
			text := strings.TrimSpace(u.Message.Text)
			log.Printf("[INFO] received command from %s: %s", senderOf(u.Message), text)
			if reply := handler(text); reply != "" {
				if err := t.SendContext(ctx, reply); err != nil {
					log.Printf("[ERROR] send reply: %v", err)
				}
			}
		}
	}
	log.Println("[INFO] Telegram polling stopped")
}

func (t *TelegramNotifier) getUpdates(ctx context.Context, client *http.Client, offset int) ([]telegramUpdate, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(offset))
	q.Set("timeout", strconv.Itoa(int(t.PollTimeout/time.Second)))
	q.Set("allowed_updates", `["message"]`)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.endpoint("getUpdates")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var result struct {
		OK          bool             `json:"ok"`
		Description string           `json:"description"`
		Result      []telegramUpdate `json:"result"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("telegram API error: %s", result.Description)
	}
	return result.Result, nil
}

// fromConfiguredChat matches a numeric chat id or an @channel name.
func (t *TelegramNotifier) fromConfiguredChat(chat telegramChat) bool {
	if strings.HasPrefix(t.ChatID, "@") {
		return chat.Username != "" && strings.EqualFold(t.ChatID[1:], chat.Username)
	}
	return t.ChatID == strconv.FormatInt(chat.ID, 10)
}

func senderOf(m *telegramMessage) string {
	if m.From == nil {
		return "unknown"
	}
	if m.From.Username != "" {
		return "@" + m.From.Username
	}
	return strconv.FormatInt(m.From.ID, 10)
}
