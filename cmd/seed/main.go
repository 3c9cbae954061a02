// Package main provides a tool to seed the database with demo takeoff data.
//
// It creates a project with one plan, a handful of devices and locations,
// and scatters stamps across the plan so counts and SSE flows can be
// exercised against realistic data.
//
// Usage:
//
//	DB_PATH=~/Takeoff/data/takeoff.db go run ./cmd/seed
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"

	"github.com/takeoffapp/takeoff-server/internal/domain"
	"github.com/takeoffapp/takeoff-server/internal/geometry"
	"github.com/takeoffapp/takeoff-server/internal/service"
	"github.com/takeoffapp/takeoff-server/internal/sse"
	"github.com/takeoffapp/takeoff-server/internal/store/sqlite"
)

var stampCount = flag.Int("stamps", 40, "Number of stamps to scatter per plan")

func main() {
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = os.ExpandEnv("$HOME/Takeoff/data/takeoff.db")
	}

	fmt.Printf("Opening database at: %s\n", dbPath)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := sqlite.Open(dbPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Nobody is listening, but the services expect a running manager.
	manager := sse.NewManager(logger)
	go manager.Start(ctx)

	projects := service.NewProjectService(st, logger)
	plans := service.NewPlanService(st, logger)
	devices := service.NewDeviceService(st, logger)
	locations := service.NewLocationService(st, manager, logger)
	stamps := service.NewStampService(st, manager, logger)

	project, err := projects.CreateProject(ctx, "Demo Office Building")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create project: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created project %s\n", project.ID)

	plan, err := plans.CreatePlan(ctx, project.ID, "Level 1 Power Plan", 1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create plan: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Created plan %s\n", plan.ID)

	deviceSpecs := []struct {
		name   string
		symbol string
		color  string
	}{
		{"Duplex Outlet", "O", "#ff9900"},
		{"Light Switch", "S", "#3366ff"},
		{"Smoke Detector", "SD", "#cc0000"},
		{"Data Drop", "D", "#00aa55"},
	}
	var deviceIDs []string
	for _, spec := range deviceSpecs {
		d, err := devices.CreateDevice(ctx, project.ID, spec.name, spec.symbol, spec.color)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create device %q: %v\n", spec.name, err)
			os.Exit(1)
		}
		deviceIDs = append(deviceIDs, d.ID)
	}
	fmt.Printf("Created %d devices\n", len(deviceIDs))

	locationSpecs := []service.CreateLocationInput{
		{
			PlanID: plan.ID,
			Name:   "Open Office",
			Type:   domain.LocationRectangle,
			Bounds: &geometry.Bounds{X: 0, Y: 0, Width: 600, Height: 400},
			Color:  "#88ccee",
		},
		{
			PlanID: plan.ID,
			Name:   "Conference Room",
			Type:   domain.LocationRectangle,
			Bounds: &geometry.Bounds{X: 600, Y: 0, Width: 200, Height: 200},
			Color:  "#ddcc77",
		},
		{
			PlanID: plan.ID,
			Name:   "Lobby",
			Type:   domain.LocationPolygon,
			Vertices: []geometry.Point{
				{X: 600, Y: 200}, {X: 800, Y: 200}, {X: 800, Y: 400}, {X: 700, Y: 450}, {X: 600, Y: 400},
			},
			Color: "#cc6677",
		},
	}
	for _, spec := range locationSpecs {
		if _, err := locations.CreateLocation(ctx, spec); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create location %q: %v\n", spec.Name, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Created %d locations\n", len(locationSpecs))

	rng := rand.New(rand.NewSource(42))
	assigned := 0
	for i := 0; i < *stampCount; i++ {
		stamp, err := stamps.CreateStamp(ctx, service.CreateStampInput{
			PlanID:   plan.ID,
			DeviceID: deviceIDs[rng.Intn(len(deviceIDs))],
			Position: domain.Position{
				X:     rng.Float64() * 900,
				Y:     rng.Float64() * 500,
				Scale: 1,
			},
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to create stamp: %v\n", err)
			os.Exit(1)
		}
		if stamp.LocationID != "" {
			assigned++
		}
	}
	fmt.Printf("Created %d stamps (%d auto-assigned to locations)\n", *stampCount, assigned)
	fmt.Println("Done")
}
