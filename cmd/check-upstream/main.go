package main

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Think-Big-Media/v2-war-room-sub005/internal/config"
	"github.com/Think-Big-Media/v2-war-room-sub005/internal/upstream"
	"github.com/joho/godotenv"
)

func main() {
	fmt.Println("🔍 War Room - Upstream Connectivity Check")
	fmt.Println("=========================================")

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Println("\n📡 Testing providers...")
	fmt.Println(strings.Repeat("-", 40))

	brandMentions := upstream.NewBrandMentionsSource(cfg.BrandMentionsBaseURL, cfg.BrandMentionsAPIKey, cfg.UpstreamTimeout)
	mentionlytics := upstream.NewMentionlyticsSource(cfg.MentionlyticsBaseURL, cfg.MentionlyticsToken, cfg.UpstreamTimeout)

	checkProvider(ctx, "BrandMentions", brandMentions)
	checkProvider(ctx, "Mentionlytics", mentionlytics)

	// What the dashboard would actually receive
	chain := upstream.NewChain(brandMentions, mentionlytics)
	sentiment := chain.Sentiment(ctx, "7days")
	fmt.Printf("\n📊 Sentiment endpoint would serve %s data", sentiment.Status)
	if sentiment.Provider != "" {
		fmt.Printf(" from %s", sentiment.Provider)
	}
	fmt.Println()
	if sentiment.Reason != "" {
		fmt.Printf("   ↳ %s\n", sentiment.Reason)
	}

	fmt.Println("\n✅ Upstream check completed!")
}

func checkProvider(ctx context.Context, name string, provider upstream.Provider) {
	fmt.Printf("🔸 Testing %s... ", name)

	if !provider.IsEnabled() {
		fmt.Printf("⚠️  DISABLED (missing API key)\n")
		return
	}

	if err := provider.Validate(ctx); err != nil {
		fmt.Printf("❌ ERROR: %v\n", err)
		return
	}

	mentions, hasMore, err := provider.FetchMentions(ctx, 5)
	if err != nil {
		fmt.Printf("⚠️  CONNECTED, feed failed: %v\n", err)
		return
	}

	fmt.Printf("✅ SUCCESS (%d mentions, more: %t)\n", len(mentions), hasMore)

	// Show sample mention
	if len(mentions) > 0 {
		fmt.Printf("   📝 Sample: [%s] \"%s\"\n", mentions[0].Sentiment, mentions[0].Text)
	}
}
