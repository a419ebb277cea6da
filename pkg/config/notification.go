package config

// NotificationsConfig is the optional outbound-notification block. It is
// an ambient operability concern, not a new acquisition/reconciliation
// feature: dispatch and eviction events can optionally be mirrored to a
// Discord webhook.
type NotificationsConfig struct {
	Service NotificationService `koanf:"service"`
}

type NotificationService struct {
	Discord DiscordConfig `koanf:"discord"`
}

type DiscordConfig struct {
	WebhookURL string `koanf:"webhook_url"`
	Username   string `koanf:"username"`
	AvatarURL  string `koanf:"avatar_url"`
}

// Enabled reports whether a usable notification sink is configured.
func (n NotificationsConfig) Enabled() bool {
	return n.Service.Discord.WebhookURL != ""
}
