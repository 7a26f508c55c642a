package notify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/alfawal/LoA/internal/stats"
)

const (
	DefaultTop = 10

	embedColor      = 0xF4B38B
	fieldValueLimit = 1024
	username        = "LoA"
)

var webhookExecute = func(ctx context.Context, s *discordgo.Session, id, token string, params *discordgo.WebhookParams) error {
	_, err := s.WebhookExecute(id, token, false, params, discordgo.WithContext(ctx))
	return err
}

// Webhook posts a dataset summary to a Discord channel webhook.
type Webhook struct {
	session *discordgo.Session
	id      string
	token   string
	top     int
}

// NewWebhook parses a https://discord.com/api/webhooks/<id>/<token> URL.
func NewWebhook(rawURL string, top int) (*Webhook, error) {
	id, token, err := parseWebhookURL(rawURL)
	if err != nil {
		return nil, err
	}
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	if top <= 0 {
		top = DefaultTop
	}
	return &Webhook{session: session, id: id, token: token, top: top}, nil
}

func parseWebhookURL(rawURL string) (string, string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", "", fmt.Errorf("parse webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] != "webhooks" {
			continue
		}
		id, token := parts[i+1], parts[i+2]
		if _, err := strconv.ParseUint(id, 10, 64); err != nil || token == "" {
			break
		}
		return id, token, nil
	}
	return "", "", fmt.Errorf("invalid webhook url %q: want .../webhooks/<id>/<token>", u.Redacted())
}

func (w *Webhook) Send(ctx context.Context, ds stats.Dataset, report stats.Report) error {
	params := &discordgo.WebhookParams{
		Username: username,
		Embeds:   []*discordgo.MessageEmbed{buildEmbed(ds, report, w.top)},
	}
	if err := webhookExecute(ctx, w.session, w.id, w.token, params); err != nil {
		return fmt.Errorf("execute webhook: %w", err)
	}
	return nil
}

func buildEmbed(ds stats.Dataset, report stats.Report, top int) *discordgo.MessageEmbed {
	nameLines := make([]string, 0, top)
	roleLines := make([]string, 0, top)
	winRateLines := make([]string, 0, top)
	for i, rec := range ds.Records {
		if i == top {
			break
		}
		nameLines = append(nameLines, fmt.Sprintf("%d. %s", i+1, rec.ChampionName))
		roleLines = append(roleLines, rec.Role)
		winRateLines = append(winRateLines, fmt.Sprintf("%s (%d games)", rec.WinRate, rec.TotalGames))
	}

	description := fmt.Sprintf("Top %d of %d champions.", len(nameLines), len(ds.Records))
	if n := len(report.Placeholders); n > 0 {
		description += fmt.Sprintf("\n%d champions had no data: %s", n, fieldValue([]string{stats.JoinNames(report.Placeholders)}))
	}

	generated := ds.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	return &discordgo.MessageEmbed{
		Author:      &discordgo.MessageEmbedAuthor{Name: ds.Provider + " win rates"},
		Description: description,
		Color:       embedColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Champion", Value: fieldValue(nameLines), Inline: true},
			{Name: "Role", Value: fieldValue(roleLines), Inline: true},
			{Name: "Win Rate", Value: fieldValue(winRateLines), Inline: true},
		},
		Footer:    &discordgo.MessageEmbedFooter{Text: "LoA"},
		Timestamp: generated.UTC().Format(time.RFC3339),
	}
}

func fieldValue(lines []string) string {
	if len(lines) == 0 {
		return "-"
	}
	value := strings.Join(lines, "\n")
	runes := []rune(value)
	if len(runes) <= fieldValueLimit {
		return value
	}
	return string(runes[:fieldValueLimit-3]) + "..."
}
