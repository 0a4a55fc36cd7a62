// Package conference talks to the video conferencing server that hosts lesson rooms.
package conference

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/lesson_scheduler/internal/service"
)

// JitsiClient выдаёт комнаты Jitsi Meet. Комната Jitsi создаётся при первом входе,
// поэтому подтверждение - это проверка доступности сервера.
type JitsiClient struct {
	baseURL *url.URL
	http    *http.Client
	check   bool
	logger  *zap.Logger
}

// NewJitsiClient создаёт клиента. При check=true CreateRoom проверяет, что сервер отвечает.
func NewJitsiClient(baseURL string, check bool, logger *zap.Logger) (*JitsiClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse conference base url: %w", err)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return nil, fmt.Errorf("conference base url must be http(s), got %q", baseURL)
	}

	return &JitsiClient{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
		check:   check,
		logger:  logger,
	}, nil
}

// RoomURL returns the join link of a meeting.
func (c *JitsiClient) RoomURL(meetingID string) string {
	return c.baseURL.JoinPath(meetingID).String()
}

func (c *JitsiClient) CreateRoom(ctx context.Context, meetingID string) (service.Room, error) {
	if meetingID == "" {
		return service.Room{}, fmt.Errorf("empty meeting id")
	}

	room := service.Room{MeetingID: meetingID, URL: c.RoomURL(meetingID)}
	if !c.check {
		return room, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL.String(), nil)
	if err != nil {
		return service.Room{}, fmt.Errorf("build health request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return service.Room{}, fmt.Errorf("check conference server: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return service.Room{}, fmt.Errorf("conference server unavailable: %s", resp.Status)
	}

	c.logger.Debug("Conference room confirmed",
		zap.String("meeting_id", meetingID),
		zap.String("room_url", room.URL),
	)

	return room, nil
}

// Dispose ничего не делает на сервере: Jitsi закрывает пустую комнату сам
func (c *JitsiClient) Dispose(_ context.Context, meetingID string) error {
	c.logger.Debug("Conference room released", zap.String("meeting_id", meetingID))
	return nil
}
