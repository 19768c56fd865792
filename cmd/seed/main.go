package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/yungbote/exampilot-backend/internal/app"
	"github.com/yungbote/exampilot-backend/internal/types"
)

type seedTopic struct {
	Name              string
	Category          types.TopicCategory
	Difficulty        types.Difficulty
	Importance        int
	EstimatedDuration int
	Prereqs           []string
}

// A starter certification-exam topic catalog. Prereqs reference earlier
// entries by name and are resolved to ids at insert time.
var catalog = []seedTopic{
	{Name: "OSI Model and Encapsulation", Category: types.CategoryNetworking, Difficulty: types.DifficultyEasy, Importance: 8, EstimatedDuration: 120},
	{Name: "IPv4 Addressing and Subnetting", Category: types.CategoryNetworking, Difficulty: types.DifficultyMedium, Importance: 10, EstimatedDuration: 240, Prereqs: []string{"OSI Model and Encapsulation"}},
	{Name: "Routing Protocols", Category: types.CategoryNetworking, Difficulty: types.DifficultyHard, Importance: 7, EstimatedDuration: 180, Prereqs: []string{"IPv4 Addressing and Subnetting"}},
	{Name: "Common Ports and Protocols", Category: types.CategoryNetworking, Difficulty: types.DifficultyEasy, Importance: 9, EstimatedDuration: 90},
	{Name: "Wireless Standards", Category: types.CategoryNetworking, Difficulty: types.DifficultyMedium, Importance: 5, EstimatedDuration: 90, Prereqs: []string{"OSI Model and Encapsulation"}},
	{Name: "Network Security Fundamentals", Category: types.CategorySecurity, Difficulty: types.DifficultyEasy, Importance: 9, EstimatedDuration: 150, Prereqs: []string{"Common Ports and Protocols"}},
	{Name: "Firewalls and ACLs", Category: types.CategorySecurity, Difficulty: types.DifficultyMedium, Importance: 8, EstimatedDuration: 120, Prereqs: []string{"Network Security Fundamentals"}},
	{Name: "VPN Technologies", Category: types.CategorySecurity, Difficulty: types.DifficultyMedium, Importance: 6, EstimatedDuration: 90, Prereqs: []string{"Network Security Fundamentals"}},
	{Name: "Cloud Deployment Models", Category: types.CategoryCloud, Difficulty: types.DifficultyEasy, Importance: 6, EstimatedDuration: 90},
	{Name: "Virtualization and Containers", Category: types.CategoryCloud, Difficulty: types.DifficultyMedium, Importance: 7, EstimatedDuration: 120, Prereqs: []string{"Cloud Deployment Models"}},
	{Name: "Cabling and Connectors", Category: types.CategoryInfrastructure, Difficulty: types.DifficultyEasy, Importance: 5, EstimatedDuration: 60},
	{Name: "Switching Concepts and VLANs", Category: types.CategoryInfrastructure, Difficulty: types.DifficultyMedium, Importance: 9, EstimatedDuration: 180, Prereqs: []string{"OSI Model and Encapsulation", "Cabling and Connectors"}},
	{Name: "Network Monitoring and Logging", Category: types.CategoryOperations, Difficulty: types.DifficultyMedium, Importance: 6, EstimatedDuration: 90, Prereqs: []string{"Common Ports and Protocols"}},
	{Name: "Disaster Recovery and High Availability", Category: types.CategoryOperations, Difficulty: types.DifficultyHard, Importance: 5, EstimatedDuration: 90},
	{Name: "Troubleshooting Methodology", Category: types.CategoryTroubleshoot, Difficulty: types.DifficultyEasy, Importance: 10, EstimatedDuration: 120},
	{Name: "Troubleshooting Connectivity Issues", Category: types.CategoryTroubleshoot, Difficulty: types.DifficultyHard, Importance: 9, EstimatedDuration: 180, Prereqs: []string{"Troubleshooting Methodology", "IPv4 Addressing and Subnetting"}},
}

func main() {
	var dryRun bool
	flag.BoolVar(&dryRun, "dry-run", false, "print planned topics without inserting")
	flag.Parse()

	_ = godotenv.Load()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()
	log := application.Log

	existing, err := application.Repos.Topic.GetAll(ctx, nil)
	if err != nil {
		log.Error("Fetch existing topics failed", "error", err)
		os.Exit(1)
	}
	have := make(map[string]uuid.UUID, len(existing))
	for _, t := range existing {
		have[t.Name] = t.ID
	}

	ids := make(map[string]uuid.UUID, len(catalog))
	var rows []*types.Topic
	for _, s := range catalog {
		if id, ok := have[s.Name]; ok {
			ids[s.Name] = id
			continue
		}
		prereqIDs := make([]uuid.UUID, 0, len(s.Prereqs))
		for _, name := range s.Prereqs {
			id, ok := ids[name]
			if !ok {
				id, ok = have[name]
			}
			if !ok {
				log.Error("Catalog prerequisite not defined before use", "topic", s.Name, "prereq", name)
				os.Exit(1)
			}
			prereqIDs = append(prereqIDs, id)
		}
		raw, merr := json.Marshal(prereqIDs)
		if merr != nil {
			log.Error("Encode prerequisites failed", "topic", s.Name, "error", merr)
			os.Exit(1)
		}
		row := &types.Topic{
			ID:                uuid.New(),
			Name:              s.Name,
			Category:          s.Category,
			Difficulty:        s.Difficulty,
			Importance:        s.Importance,
			EstimatedDuration: s.EstimatedDuration,
			Prerequisites:     raw,
		}
		ids[s.Name] = row.ID
		rows = append(rows, row)
	}

	if dryRun {
		for _, r := range rows {
			fmt.Printf("would insert: %s (%s, %s)\n", r.Name, r.Category, r.Difficulty)
		}
		return
	}
	if len(rows) == 0 {
		log.Info("Topic catalog already seeded")
		return
	}
	if _, err := application.Repos.Topic.Create(ctx, nil, rows); err != nil {
		log.Error("Seed topics failed", "error", err)
		os.Exit(1)
	}
	log.Info("Seeded topics", "count", len(rows))
}
