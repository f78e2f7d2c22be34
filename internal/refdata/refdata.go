package refdata

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Identity/support tags with matching semantics. Other tags are carried
// through verbatim.
const (
	TagCommuter      = "commuter"
	TagInternational = "international"
	TagLanguageAlly  = "language-ally"
)

// Catalog holds the canonical enumerations every roster record is validated
// against: campus zones, calendar time slots, and the interest list. Order
// is significant; it drives deterministic iteration in the matcher.
type Catalog struct {
	Zones     []string `yaml:"zones"`
	Slots     []string `yaml:"slots"`
	Interests []string `yaml:"interests"`

	zoneIdx     map[string]int
	slotIdx     map[string]int
	interestIdx map[string]int
}

// Quest is a weekly activity pods complete for points.
type Quest struct {
	ID     string `yaml:"id" json:"id"`
	Title  string `yaml:"title" json:"title"`
	Week   int    `yaml:"week" json:"week"`
	Points int    `yaml:"points" json:"points"`
}

// Badge is awarded to a pod once its accumulated points cross the threshold.
type Badge struct {
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Threshold int    `yaml:"threshold" json:"threshold"`
}

// Space is a bookable meeting location inside a zone.
type Space struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Zone string `yaml:"zone" json:"zone"`
}

// Default returns the built-in catalog used when no refdata directory is
// configured. The enumerations mirror the campus deployment.
func Default() *Catalog {
	c := &Catalog{
		Zones: []string{"Tempe", "West", "Polytechnic", "Downtown"},
		Slots: []string{
			"Mon 10:00", "Mon 12:00", "Mon 16:00",
			"Tue 10:00", "Tue 12:00", "Tue 14:00", "Tue 17:00",
			"Wed 11:00", "Wed 13:00", "Wed 16:00",
			"Thu 10:00", "Thu 12:00", "Thu 15:00",
			"Fri 11:00", "Fri 13:00", "Fri 16:00",
		},
		Interests: []string{
			"coding", "gaming", "music", "art", "fitness", "hiking",
			"film", "cooking", "reading", "volunteering", "esports",
			"photography", "robotics", "basketball", "soccer", "anime",
		},
	}
	c.index()
	return c
}

// LoadCatalog reads catalog.yaml from dir, falling back to the built-in
// catalog when the file does not exist.
func LoadCatalog(dir string) (*Catalog, error) {
	path := filepath.Join(dir, "catalog.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(c.Zones) == 0 || len(c.Slots) == 0 || len(c.Interests) == 0 {
		return nil, fmt.Errorf("catalog %s: zones, slots and interests must all be non-empty", path)
	}
	c.index()
	return &c, nil
}

// LoadQuests reads quests.yaml from dir. A missing file yields an empty list.
func LoadQuests(dir string) ([]Quest, error) {
	var quests []Quest
	if err := loadYAML(filepath.Join(dir, "quests.yaml"), &quests); err != nil {
		return nil, err
	}
	return quests, nil
}

// LoadBadges reads badges.yaml from dir. A missing file yields an empty list.
func LoadBadges(dir string) ([]Badge, error) {
	var badges []Badge
	if err := loadYAML(filepath.Join(dir, "badges.yaml"), &badges); err != nil {
		return nil, err
	}
	return badges, nil
}

// LoadSpaces reads spaces.yaml from dir. A missing file yields an empty list.
func LoadSpaces(dir string) ([]Space, error) {
	var spaces []Space
	if err := loadYAML(filepath.Join(dir, "spaces.yaml"), &spaces); err != nil {
		return nil, err
	}
	return spaces, nil
}

func loadYAML(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (c *Catalog) index() {
	c.zoneIdx = make(map[string]int, len(c.Zones))
	for i, z := range c.Zones {
		c.zoneIdx[strings.ToLower(z)] = i
	}
	c.slotIdx = make(map[string]int, len(c.Slots))
	for i, s := range c.Slots {
		c.slotIdx[strings.ToLower(s)] = i
	}
	c.interestIdx = make(map[string]int, len(c.Interests))
	for i, s := range c.Interests {
		c.interestIdx[strings.ToLower(s)] = i
	}
}

// CanonicalZone maps a raw zone value to its canonical casing.
func (c *Catalog) CanonicalZone(raw string) (string, bool) {
	i, ok := c.zoneIdx[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", false
	}
	return c.Zones[i], true
}

// CanonicalSlot maps a raw slot value to its canonical form.
func (c *Catalog) CanonicalSlot(raw string) (string, bool) {
	i, ok := c.slotIdx[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", false
	}
	return c.Slots[i], true
}

// CanonicalInterest maps a raw interest value to its canonical form.
func (c *Catalog) CanonicalInterest(raw string) (string, bool) {
	i, ok := c.interestIdx[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", false
	}
	return c.Interests[i], true
}

// ZoneOrder returns the catalog position of a zone, or len(Zones) when
// unknown so unknown values sort last.
func (c *Catalog) ZoneOrder(zone string) int {
	if i, ok := c.zoneIdx[strings.ToLower(zone)]; ok {
		return i
	}
	return len(c.Zones)
}

// SlotOrder returns the catalog position of a slot, or len(Slots) when
// unknown.
func (c *Catalog) SlotOrder(slot string) int {
	if i, ok := c.slotIdx[strings.ToLower(slot)]; ok {
		return i
	}
	return len(c.Slots)
}

// InterestOrder returns the catalog position of an interest, or
// len(Interests) when unknown.
func (c *Catalog) InterestOrder(interest string) int {
	if i, ok := c.interestIdx[strings.ToLower(interest)]; ok {
		return i
	}
	return len(c.Interests)
}

// Midday reports whether a slot falls in the 11:00-14:00 window preferred
// for commuter participants.
func (c *Catalog) Midday(slot string) bool {
	fields := strings.Fields(slot)
	if len(fields) != 2 {
		return false
	}
	hh, _, ok := strings.Cut(fields[1], ":")
	if !ok {
		return false
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return false
	}
	return hour >= 11 && hour <= 14
}
