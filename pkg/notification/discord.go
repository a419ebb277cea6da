package notification

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/autobrr/autobrr/pkg/errors"
	"github.com/autobrr/autobrr/pkg/sharedhttp"
	humanize "github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/autobrr/feedbot/pkg/config"
)

type DiscordMessage struct {
	Content   interface{}    `json:"content"`
	Username  string         `json:"username,omitempty"`
	AvatarURL string         `json:"avatar_url,omitempty"`
	Embeds    []DiscordEmbed `json:"embeds,omitempty"`
}

type DiscordEmbed struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Color       int                  `json:"color"`
	Fields      []DiscordEmbedsField `json:"fields,omitempty"`
	Footer      DiscordEmbedsFooter  `json:"footer,omitempty"`
	Timestamp   time.Time            `json:"timestamp"`
}

type DiscordEmbedsFooter struct {
	Text string `json:"text"`
}

type DiscordEmbedsField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type EmbedColors int

const (
	LightBlue EmbedColors = 0x58b9ff
	Red       EmbedColors = 0xed4245
	Green     EmbedColors = 0x57f287
)

var discordMarkdownChars = regexp.MustCompile(`([\\*_~` + "`" + `|>])`)

func escapeDiscordMarkdown(text string) string {
	if text == "" {
		return text
	}
	return discordMarkdownChars.ReplaceAllString(text, `\$1`)
}

// DiscordRateLimit holds rate limit information from Discord headers.
type DiscordRateLimit struct {
	Limit      int
	Remaining  int
	ResetTime  time.Time
	Bucket     string
	Scope      string
	Global     bool
	RetryAfter time.Duration
}

// RateLimiter tracks Discord's per-webhook and global rate limits so the
// agent never gets throttled harder than necessary on eviction bursts.
type RateLimiter struct {
	mu         sync.RWMutex
	buckets    map[string]*DiscordRateLimit
	globalLock *time.Time
	log        *logrus.Entry
}

func NewRateLimiter(log *logrus.Entry) *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*DiscordRateLimit),
		log:     log.WithField("component", "rate_limiter"),
	}
}

func (rl *RateLimiter) Wait(bucket string) {
	rl.mu.RLock()

	if rl.globalLock != nil && time.Now().Before(*rl.globalLock) {
		waitTime := time.Until(*rl.globalLock)
		rl.mu.RUnlock()
		rl.log.Warnf("Global rate limit active, waiting %v", waitTime)
		time.Sleep(waitTime)
		return
	}

	if limit, exists := rl.buckets[bucket]; exists {
		if limit.Remaining <= 0 && time.Now().Before(limit.ResetTime) {
			waitTime := time.Until(limit.ResetTime)
			rl.mu.RUnlock()
			rl.log.Warnf("Bucket %s rate limited, waiting %v", bucket, waitTime.Truncate(time.Millisecond))
			time.Sleep(waitTime)
			return
		}
	}

	rl.mu.RUnlock()
}

func (rl *RateLimiter) Update(bucket string, headers http.Header) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limit := &DiscordRateLimit{Bucket: bucket}

	if val := headers.Get("X-RateLimit-Limit"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			limit.Limit = parsed
		}
	}
	if val := headers.Get("X-RateLimit-Remaining"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			limit.Remaining = parsed
		}
	}
	if val := headers.Get("X-RateLimit-Reset"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			limit.ResetTime = time.Unix(int64(parsed), 0)
		}
	}
	limit.Scope = headers.Get("X-RateLimit-Scope")
	limit.Global = headers.Get("X-RateLimit-Global") == "true"

	if val := headers.Get("Retry-After"); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			limit.RetryAfter = time.Duration(parsed * float64(time.Second))
			if limit.Global {
				globalUnlock := time.Now().Add(limit.RetryAfter)
				rl.globalLock = &globalUnlock
				rl.log.Warnf("Global rate limit detected, locked until %v", globalUnlock)
			}
		}
	}

	rl.buckets[bucket] = limit
}

func (rl *RateLimiter) Clean() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	if rl.globalLock != nil && now.After(*rl.globalLock) {
		rl.globalLock = nil
	}
	for bucket, limit := range rl.buckets {
		if now.After(limit.ResetTime) {
			delete(rl.buckets, bucket)
		}
	}
}

type discordSender struct {
	log    *logrus.Entry
	config config.NotificationsConfig

	httpClient  *http.Client
	rateLimiter *RateLimiter
}

func (d *discordSender) Name() string {
	return "discord"
}

func NewDiscordSender(log *logrus.Entry, cfg config.NotificationsConfig) Sender {
	sender := &discordSender{
		log:    log.WithField("sender", "discord"),
		config: cfg,
		httpClient: &http.Client{
			Timeout:   time.Second * 30,
			Transport: sharedhttp.Transport,
		},
	}

	sender.rateLimiter = NewRateLimiter(sender.log)

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			sender.rateLimiter.Clean()
		}
	}()

	return sender
}

func (d *discordSender) CanSend() bool {
	return d.config.Service.Discord.WebhookURL != ""
}

// Send renders one Event as a single embed and posts it to the
// configured webhook.
func (d *discordSender) Send(ev Event) error {
	embed := d.buildEmbed(ev)

	msg := DiscordMessage{
		Username:  d.config.Service.Discord.Username,
		AvatarURL: d.config.Service.Discord.AvatarURL,
		Embeds:    []DiscordEmbed{embed},
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return errors.Wrap(err, "could not marshal discord message")
	}

	if err := d.sendRequest(jsonData); err != nil {
		return errors.Wrap(err, "failed to send message to discord")
	}

	d.log.Debugf("sent discord notification for %s", ev.Kind)
	return nil
}

func (d *discordSender) buildEmbed(ev Event) DiscordEmbed {
	var fields []DiscordEmbedsField
	color := LightBlue
	title := ev.Title

	switch ev.Kind {
	case EventDispatch:
		title = fmt.Sprintf("Dispatched: %s", ev.Title)
		fields = []DiscordEmbedsField{
			{Name: "Feed", Value: escapeDiscordMarkdown(ev.FeedURL), Inline: false},
			{Name: "Save folder", Value: escapeDiscordMarkdown(ev.SaveFolder), Inline: false},
		}
		if ev.Size != nil {
			fields = append(fields, DiscordEmbedsField{
				Name: "Size", Value: humanize.IBytes(uint64(*ev.Size)), Inline: true,
			})
		}
	case EventTrackerEviction:
		color = Red
		title = fmt.Sprintf("Paused (tracker): %s", ev.Title)
		fields = []DiscordEmbedsField{
			{Name: "Hash", Value: ev.Hash, Inline: true},
			{Name: "Tracker", Value: escapeDiscordMarkdown(ev.Tracker), Inline: true},
		}
	case EventTitleBanEviction:
		color = Red
		title = fmt.Sprintf("Quarantined (title-ban): %s", ev.Title)
		fields = []DiscordEmbedsField{
			{Name: "Hash", Value: ev.Hash, Inline: true},
			{Name: "Matched ban", Value: escapeDiscordMarkdown(ev.TitleBan), Inline: true},
		}
	}

	return DiscordEmbed{
		Title:     escapeDiscordMarkdown(title),
		Color:     int(color),
		Fields:    fields,
		Timestamp: time.Now(),
	}
}

func (d *discordSender) sendRequest(jsonData []byte) error {
	bucket := d.getBucketFromURL(d.config.Service.Discord.WebhookURL)
	d.rateLimiter.Wait(bucket)

	req, err := http.NewRequest(http.MethodPost, d.config.Service.Discord.WebhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return errors.Wrap(err, "could not create request")
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "client request error")
	}
	defer res.Body.Close()

	d.rateLimiter.Update(bucket, res.Header)

	if res.StatusCode == http.StatusTooManyRequests {
		body, readErr := io.ReadAll(bufio.NewReader(res.Body))
		if readErr != nil {
			return errors.Wrap(readErr, "could not read rate limit response body")
		}
		d.log.Warnf("discord rate limit hit (429): %s", string(body))
		return errors.New("discord rate limit exceeded")
	}

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		body, readErr := io.ReadAll(bufio.NewReader(res.Body))
		if readErr != nil {
			return errors.Wrap(readErr, "could not read body")
		}
		return errors.New("unexpected status: %v body: %v", res.StatusCode, string(body))
	}

	return nil
}

// getBucketFromURL extracts a bucket identifier from the webhook URL.
// Discord webhook URLs are https://discord.com/api/webhooks/{id}/{token}.
func (d *discordSender) getBucketFromURL(webhookURL string) string {
	parts := strings.Split(webhookURL, "/")
	if len(parts) >= 6 && parts[4] == "webhooks" {
		return fmt.Sprintf("webhook_%s", parts[5])
	}
	return "webhook_default"
}
