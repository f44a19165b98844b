// Package catalog holds rewards purchasable with points and devices accepted for recycling
package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"slices"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/nkiryanov/ecopoints/internal/apperrors"
	"github.com/nkiryanov/ecopoints/internal/models"
)

//go:embed default.yaml
var defaultCatalog []byte

type rewardEntry struct {
	ID         string `yaml:"id"`
	Name       string `yaml:"name"`
	PointsCost int64  `yaml:"points_cost"`
	Value      string `yaml:"value"`
	ValidDays  int    `yaml:"valid_days"`
}

type deviceEntry struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	Points int64  `yaml:"points"`
}

type file struct {
	Rewards []rewardEntry `yaml:"rewards"`
	Devices []deviceEntry `yaml:"devices"`
}

// Catalog is immutable once loaded and safe for concurrent use
type Catalog struct {
	rewards []models.Reward
	devices []models.Device
}

// Load reads catalog from YAML file. Empty path means embedded default catalog
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	c := &Catalog{
		rewards: make([]models.Reward, 0, len(f.Rewards)),
		devices: make([]models.Device, 0, len(f.Devices)),
	}

	for _, r := range f.Rewards {
		reward, err := r.toReward()
		if err != nil {
			return nil, err
		}
		if _, err := c.Reward(reward.ID); err == nil {
			return nil, fmt.Errorf("reward %q: duplicated id", reward.ID)
		}
		c.rewards = append(c.rewards, reward)
	}

	for _, d := range f.Devices {
		if d.ID == "" {
			return nil, fmt.Errorf("device %q: id is required", d.Name)
		}
		if d.Points <= 0 {
			return nil, fmt.Errorf("device %q: points must be positive", d.ID)
		}
		if _, err := c.Device(d.ID); err == nil {
			return nil, fmt.Errorf("device %q: duplicated id", d.ID)
		}
		c.devices = append(c.devices, models.Device{ID: d.ID, Name: d.Name, Points: d.Points})
	}

	return c, nil
}

func (r rewardEntry) toReward() (models.Reward, error) {
	if r.ID == "" {
		return models.Reward{}, fmt.Errorf("reward %q: id is required", r.Name)
	}
	if r.PointsCost <= 0 {
		return models.Reward{}, fmt.Errorf("reward %q: points_cost must be positive", r.ID)
	}
	if r.ValidDays <= 0 {
		return models.Reward{}, fmt.Errorf("reward %q: valid_days must be positive", r.ID)
	}

	value, err := decimal.NewFromString(r.Value)
	if err != nil {
		return models.Reward{}, fmt.Errorf("reward %q: bad value %q: %w", r.ID, r.Value, err)
	}
	if err := models.CheckPositiveMoney(value); err != nil {
		return models.Reward{}, fmt.Errorf("reward %q: %w", r.ID, err)
	}

	return models.Reward{
		ID:         r.ID,
		Name:       r.Name,
		PointsCost: r.PointsCost,
		Value:      value,
		ValidDays:  r.ValidDays,
	}, nil
}

func (c *Catalog) Rewards() []models.Reward {
	return slices.Clone(c.rewards)
}

func (c *Catalog) Devices() []models.Device {
	return slices.Clone(c.devices)
}

func (c *Catalog) Reward(id string) (models.Reward, error) {
	i := slices.IndexFunc(c.rewards, func(r models.Reward) bool { return r.ID == id })
	if i < 0 {
		return models.Reward{}, fmt.Errorf("reward %q: %w", id, apperrors.ErrRewardNotFound)
	}
	return c.rewards[i], nil
}

func (c *Catalog) Device(id string) (models.Device, error) {
	i := slices.IndexFunc(c.devices, func(d models.Device) bool { return d.ID == id })
	if i < 0 {
		return models.Device{}, fmt.Errorf("device %q: %w", id, apperrors.ErrDeviceNotFound)
	}
	return c.devices[i], nil
}
