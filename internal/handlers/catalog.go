package handlers

import (
	"net/http"

	"github.com/nkiryanov/ecopoints/internal/handlers/render"
)

func handleListRewards(catalogService catalogService) http.HandlerFunc {
	type reward struct {
		ID         string  `json:"id"`
		Name       string  `json:"name"`
		PointsCost int64   `json:"points_cost"`
		Value      float64 `json:"value"`
		ValidDays  int     `json:"valid_days"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		rewards := catalogService.Rewards()
		res := make([]reward, 0, len(rewards))
		for _, r := range rewards {
			value, _ := r.Value.Float64()
			res = append(res, reward{ID: r.ID, Name: r.Name, PointsCost: r.PointsCost, Value: value, ValidDays: r.ValidDays})
		}
		render.JSON(w, res)
	}
}

func handleListDevices(catalogService catalogService) http.HandlerFunc {
	type device struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Points int64  `json:"points"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		devices := catalogService.Devices()
		res := make([]device, 0, len(devices))
		for _, d := range devices {
			res = append(res, device{ID: d.ID, Name: d.Name, Points: d.Points})
		}
		render.JSON(w, res)
	}
}
