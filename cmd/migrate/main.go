package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/greg-czaplicki/parlay-picker/internal/models"
	"github.com/greg-czaplicki/parlay-picker/pkg/config"
	"github.com/greg-czaplicki/parlay-picker/pkg/database"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: migrate [up|down|seed]")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	command := os.Args[1]

	switch command {
	case "up":
		if err := runMigrations(db); err != nil {
			logrus.Fatalf("Failed to run migrations: %v", err)
		}
		logrus.Info("Migrations completed successfully")

	case "down":
		if err := dropTables(db); err != nil {
			logrus.Fatalf("Failed to drop tables: %v", err)
		}
		logrus.Info("Tables dropped successfully")

	case "seed":
		if err := seedData(db); err != nil {
			logrus.Fatalf("Failed to seed data: %v", err)
		}
		logrus.Info("Data seeded successfully")

	default:
		log.Fatalf("Unknown command: %s", command)
	}
}

func runMigrations(db *database.DB) error {
	// Enable UUID extension for PostgreSQL
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error; err != nil {
		return fmt.Errorf("failed to create UUID extension: %w", err)
	}

	// Auto migrate all models
	if err := db.AutoMigrate(
		&models.Event{},
		&models.MatchupGroup{},
		&models.MatchupPlayer{},
		&models.Parlay{},
		&models.ParlayPick{},
	); err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	// Create indexes
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_matchup_groups_event_round ON matchup_groups(event_id, round_num)",
		"CREATE INDEX IF NOT EXISTS idx_matchup_players_group ON matchup_players(group_id)",
		"CREATE INDEX IF NOT EXISTS idx_parlays_user_status ON parlays(user_id, status)",
		"CREATE INDEX IF NOT EXISTS idx_parlay_picks_group_status ON parlay_picks(group_id, status)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

func dropTables(db *database.DB) error {
	// Drop tables in reverse order to handle foreign key constraints
	tables := []string{
		"parlay_picks",
		"parlays",
		"matchup_players",
		"matchup_groups",
		"events",
	}

	for _, table := range tables {
		if err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", table)).Error; err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}

	return nil
}

func seedData(db *database.DB) error {
	event := &models.Event{
		ExternalID:   "pga:Sample Championship",
		Name:         "Sample Championship",
		Tour:         "pga",
		CourseName:   "Quail Hollow Club",
		StartDate:    time.Now().Add(24 * time.Hour),
		EndDate:      time.Now().Add(4 * 24 * time.Hour),
		Status:       models.EventScheduled,
		CurrentRound: 1,
	}
	if err := db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	f := func(v float64) *float64 { return &v }

	markets := []struct {
		external string
		mtype    models.MatchupType
		players  []models.MatchupPlayer
	}{
		{
			external: "pga:Sample Championship:r1:2ball:1",
			mtype:    models.MatchupTwoBall,
			players: []models.MatchupPlayer{
				{PlayerID: 18417, Name: "Scottie Scheffler", Odds: f(-150), SGTotal: f(2.1), SeasonSGTotal: f(2.4), SeasonSGOffTee: f(0.8), SeasonSGApp: f(1.1), SeasonSGArg: f(0.2), SeasonSGPutt: f(0.3)},
				{PlayerID: 15466, Name: "Rory McIlroy", Odds: f(130), SGTotal: f(1.6), SeasonSGTotal: f(1.9), SeasonSGOffTee: f(1.0), SeasonSGApp: f(0.5), SeasonSGArg: f(0.1), SeasonSGPutt: f(0.3)},
			},
		},
		{
			external: "pga:Sample Championship:r1:3ball:1",
			mtype:    models.MatchupThreeBall,
			players: []models.MatchupPlayer{
				{PlayerID: 17511, Name: "Xander Schauffele", Odds: f(2.25), SeasonSGTotal: f(1.7)},
				{PlayerID: 19195, Name: "Ludvig Aberg", Odds: f(2.80), SeasonSGTotal: f(1.5)},
				{PlayerID: 12965, Name: "Tommy Fleetwood", Odds: f(3.10), SeasonSGTotal: f(1.2)},
			},
		},
	}

	for _, m := range markets {
		group := models.MatchupGroup{
			EventID:    event.ID,
			ExternalID: m.external,
			Type:       m.mtype,
			RoundNum:   1,
		}
		if err := db.Create(&group).Error; err != nil {
			return fmt.Errorf("failed to create matchup group: %w", err)
		}
		for i := range m.players {
			m.players[i].GroupID = group.ID
			if err := db.Create(&m.players[i]).Error; err != nil {
				return fmt.Errorf("failed to create matchup player: %w", err)
			}
		}
	}

	logrus.Infof("Seeded event %s with %d markets", event.Name, len(markets))
	return nil
}
