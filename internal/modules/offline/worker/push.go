package worker

import (
	"slices"
	"strings"

	"github.com/google/uuid"
)

const (
	PushTitle       = "DHT Monitor"
	PushDefaultBody = "New temperature and humidity data available"
	pushIcon        = "/icons/icon-192.png"
	pushBadge       = "/icons/icon-72.png"
	// ClickTarget is where a clicked notification leads.
	ClickTarget = "/"
)

var pushVibrate = []int{100, 50, 100}

type PushData struct {
	DateOfArrival int64 `json:"date_of_arrival"`
	PrimaryKey    int   `json:"primary_key"`
}

type PushNotification struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Body    string   `json:"body"`
	Icon    string   `json:"icon"`
	Badge   string   `json:"badge"`
	Vibrate []int    `json:"vibrate"`
	Data    PushData `json:"data"`
}

// Push shows a notification for a pushed message. An empty payload gets
// the default body.
func (w *Worker) Push(payload []byte) PushNotification {
	body := strings.TrimSpace(string(payload))
	if body == "" {
		body = PushDefaultBody
	}
	n := PushNotification{
		ID:      uuid.NewString(),
		Title:   PushTitle,
		Body:    body,
		Icon:    pushIcon,
		Badge:   pushBadge,
		Vibrate: slices.Clone(pushVibrate),
		Data: PushData{
			DateOfArrival: w.now().UnixMilli(),
			PrimaryKey:    1,
		},
	}

	w.mu.Lock()
	w.notifications = append(w.notifications, n)
	w.mu.Unlock()

	w.logger.Info("push notification shown", "id", n.ID, "body", n.Body)
	return n
}

// Notifications returns the notifications not yet clicked, oldest first.
func (w *Worker) Notifications() []PushNotification {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]PushNotification, len(w.notifications))
	for i, n := range w.notifications {
		n.Vibrate = slices.Clone(n.Vibrate)
		out[i] = n
	}
	return out
}

// Click closes the notification and returns the page to open.
func (w *Worker) Click(id string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	i := slices.IndexFunc(w.notifications, func(n PushNotification) bool { return n.ID == id })
	if i < 0 {
		return "", false
	}
	w.notifications = slices.Delete(w.notifications, i, i+1)
	return ClickTarget, true
}
