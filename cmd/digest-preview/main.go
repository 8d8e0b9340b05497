package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/config"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/ingestion"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/models"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/monitoring"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/storage"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/store"
)

const outputDir = "test_output"

// terminalNotifier prints digests and alerts and saves digests as JSON
type terminalNotifier struct{}

func (t *terminalNotifier) SendReport(report *models.Report) error {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println("📊 WAR ROOM MENTION DIGEST")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("📅 Period: %s\n", report.Period)
	fmt.Printf("🕒 Generated: %s\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Printf("📈 Total Mentions: %d\n", report.TotalMentions)

	fmt.Println("\n📍 Top Platforms:")
	for _, platform := range report.TopPlatforms {
		fmt.Printf("   • %s\n", platform)
	}

	fmt.Println("\n💭 Sentiment:")
	fmt.Printf("   😊 positive:  %d%%\n", report.Sentiment.Positive)
	fmt.Printf("   😞 negative:  %d%%\n", report.Sentiment.Negative)
	fmt.Printf("   😐 neutral:   %d%%\n", report.Sentiment.Neutral)

	fmt.Println("\n📝 Recent Mentions:")
	for i, mention := range report.Mentions {
		if i >= 5 {
			fmt.Printf("   ... and %d more mentions\n", len(report.Mentions)-5)
			break
		}
		fmt.Printf("\n   %d. [%s] %s\n", i+1, mention.Platform, mention.Text)
		fmt.Printf("      👤 Author: %s\n", mention.Author)
		if mention.URL != "" {
			fmt.Printf("      🔗 URL: %s\n", mention.URL)
		}
		fmt.Printf("      💭 Sentiment: %s\n", mention.Sentiment)
	}

	if err := saveReport(report); err != nil {
		fmt.Printf("\n⚠️  Warning: Could not save to file: %v\n", err)
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	return nil
}

func (t *terminalNotifier) SendAlert(alert *models.Alert) error {
	fmt.Println("\n🚨 ALERT")
	fmt.Printf("Severity: %s\n", alert.Severity)
	fmt.Printf("Title: %s\n", alert.Title)
	fmt.Printf("Details: %s\n", alert.Description)
	return nil
}

func saveReport(report *models.Report) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	timestamp := report.GeneratedAt.Format("2006-01-02_15-04-05")
	filename := filepath.Join(outputDir, fmt.Sprintf("war_room_digest_%s.json", timestamp))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}

	fmt.Printf("\n💾 Digest saved to: %s\n", filename)
	return nil
}

var samplePayload = `{
  "social": [
    {"title": "Jack Harrison's town hall was a great success", "name": "keystone_voter", "url": "https://twitter.com/example/1"},
    {"text": "Another problem with the transit plan", "username": "commuter_pa", "url": "https://facebook.com/example/2"},
    {"title": "Harrison leading in the latest poll", "name": "poll_tracker"}
  ],
  "web": [
    {"title": "Editorial", "text": "Critics push back against the Harrison budget", "url": "https://news.example/editorial"},
    {"text": "Harrison campaign schedules rally in Pittsburgh", "url": "https://news.example/rally"}
  ]
}`

var sampleMessages = []string{
	`New mention: Jack Harrison mentioned on Twitter - 'Great speech tonight!' [Positive] https://twitter.com/example/3`,
	`New mention on Reddit [Negative]: "The healthcare numbers do not add up" https://reddit.com/r/example/4`,
	`Jack Harrison quoted on News https://news.example/quote`,
	`lunch order is in the kitchen`,
}

func main() {
	fmt.Println("🤖 War Room - Digest Preview")
	fmt.Println("============================")

	cfg := &config.Config{
		EntityName:              "Jack Harrison",
		SlackMentionLimit:       store.DefaultConversationalLimit,
		ReportSchedule:          "daily",
		SnapshotRetain:          5,
		CrisisNegativeThreshold: 40,
		CrisisMinMentions:       5,
	}

	snapshots, err := storage.NewFileStorage(outputDir)
	if err != nil {
		fmt.Printf("❌ Error creating output directory: %v\n", err)
		os.Exit(1)
	}

	service := monitoring.NewService(cfg, store.New(cfg.SlackMentionLimit), snapshots, &terminalNotifier{}, nil)

	result := service.IngestStructured([]byte(samplePayload))
	fmt.Printf("\n📥 Structured delivery: %d social, %d web (%s)\n", result.Social, result.Web, result.Outcome)

	for _, text := range sampleMessages {
		if _, ok := service.IngestConversational(ingestion.ConversationalPayload{Text: text, UserName: "war-room-bot"}); !ok {
			fmt.Printf("🗑️  Discarded: %q\n", text)
		}
	}

	mentions, _ := service.AllMentions()
	fmt.Printf("\n📊 Generating digest with %d mentions...\n", len(mentions))

	if err := service.RunReport(); err != nil {
		fmt.Printf("❌ Error sending digest: %v\n", err)
		os.Exit(1)
	}

	if _, err := service.RunCrisisCheck(); err != nil {
		fmt.Printf("⚠️  Crisis check failed: %v\n", err)
	}

	if err := service.SaveSnapshot(context.Background()); err != nil {
		fmt.Printf("⚠️  Snapshot failed: %v\n", err)
	}

	fmt.Println("\n✅ Digest preview completed!")
	fmt.Println("\n💡 Next steps:")
	fmt.Printf("   • Check the '%s' directory for the saved digest and snapshot\n", outputDir)
	fmt.Println("   • Run 'go test ./...' for the package tests")
	fmt.Println("   • Configure TEAMS_WEBHOOK_URL or NOTIFICATION_EMAIL and run 'go run ./cmd/warroom'")
}
