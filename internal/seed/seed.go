// Package seed loads a YAML bundle of initial site content and applies it to
// the persistence stores. It backs the "jam seed" subcommand used to bootstrap
// a fresh deployment.
package seed

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/donnachab/jam/internal/application"
)

// Bundle is the parsed form of a seed file.
type Bundle struct {
	SiteConfig *SiteConfigSeed     `yaml:"site_config"`
	Venues     []VenueSeed         `yaml:"venues"`
	Jams       []JamSeed           `yaml:"jams"`
	Community  []CommunityItemSeed `yaml:"community"`
	Events     []EventSeed         `yaml:"events"`
	Gallery    []GalleryPhotoSeed  `yaml:"gallery"`
}

// SiteConfigSeed mirrors the singleton schedule defaults.
type SiteConfigSeed struct {
	DefaultDay     string `yaml:"default_day"`
	DefaultVenue   string `yaml:"default_venue"`
	DefaultTime    string `yaml:"default_time"`
	DefaultMapLink string `yaml:"default_map_link"`
}

// VenueSeed mirrors one venue catalog entry.
type VenueSeed struct {
	Name     string `yaml:"name"`
	MapLink  string `yaml:"map_link"`
	ImageURL string `yaml:"image_url"`
}

// JamSeed mirrors one confirmed jam occurrence.
type JamSeed struct {
	Date      string `yaml:"date"`
	Day       string `yaml:"day"`
	Venue     string `yaml:"venue"`
	Time      string `yaml:"time"`
	MapLink   string `yaml:"map_link"`
	Cancelled bool   `yaml:"cancelled"`
}

// CommunityItemSeed mirrors one community highlight.
type CommunityItemSeed struct {
	Type         string `yaml:"type"`
	Headline     string `yaml:"headline"`
	Description  string `yaml:"description"`
	ImageURL     string `yaml:"image_url"`
	AmountRaised string `yaml:"amount_raised"`
	CharityName  string `yaml:"charity_name"`
}

// EventSeed mirrors one date-ranged special event.
type EventSeed struct {
	Title       string `yaml:"title"`
	StartDate   string `yaml:"start_date"`
	EndDate     string `yaml:"end_date"`
	Time        string `yaml:"time"`
	Venue       string `yaml:"venue"`
	MapLink     string `yaml:"map_link"`
	Description string `yaml:"description"`
}

// GalleryPhotoSeed mirrors one gallery photo.
type GalleryPhotoSeed struct {
	URL     string `yaml:"url"`
	Caption string `yaml:"caption"`
}

// Stores bundles the repositories Apply writes to.
type Stores struct {
	Config    application.SiteConfigStore
	Venues    application.VenueStore
	Jams      application.JamStore
	Community application.CommunityStore
	Events    application.EventStore
	Gallery   application.GalleryStore
}

// LoadFile reads and parses a seed bundle from disk.
func LoadFile(path string) (Bundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Bundle{}, fmt.Errorf("failed to read seed file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML seed bundle and validates the records it contains.
func Parse(data []byte) (Bundle, error) {
	var bundle Bundle
	if err := yaml.Unmarshal(data, &bundle); err != nil {
		return Bundle{}, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := bundle.validate(); err != nil {
		return Bundle{}, err
	}
	return bundle, nil
}

func (b Bundle) validate() error {
	problems := make([]string, 0, 4)
	for i, venue := range b.Venues {
		if strings.TrimSpace(venue.Name) == "" {
			problems = append(problems, fmt.Sprintf("venues[%d]: name is required", i))
		}
	}
	for i, jam := range b.Jams {
		if _, err := time.Parse("2006-01-02", jam.Date); err != nil {
			problems = append(problems, fmt.Sprintf("jams[%d]: date must be YYYY-MM-DD", i))
		}
		if strings.TrimSpace(jam.Venue) == "" {
			problems = append(problems, fmt.Sprintf("jams[%d]: venue is required", i))
		}
	}
	for i, item := range b.Community {
		switch item.Type {
		case application.CommunityTypeEvent, application.CommunityTypeCharity:
		default:
			problems = append(problems, fmt.Sprintf("community[%d]: unknown type %q", i, item.Type))
		}
		if strings.TrimSpace(item.Description) == "" {
			problems = append(problems, fmt.Sprintf("community[%d]: description is required", i))
		}
	}
	for i, event := range b.Events {
		if strings.TrimSpace(event.Title) == "" {
			problems = append(problems, fmt.Sprintf("events[%d]: title is required", i))
		}
		if _, err := time.Parse("2006-01-02", event.StartDate); err != nil {
			problems = append(problems, fmt.Sprintf("events[%d]: start_date must be YYYY-MM-DD", i))
		}
		if _, err := time.Parse("2006-01-02", event.EndDate); err != nil {
			problems = append(problems, fmt.Sprintf("events[%d]: end_date must be YYYY-MM-DD", i))
		}
		if strings.TrimSpace(event.Description) == "" {
			problems = append(problems, fmt.Sprintf("events[%d]: description is required", i))
		}
	}
	for i, photo := range b.Gallery {
		if strings.TrimSpace(photo.URL) == "" {
			problems = append(problems, fmt.Sprintf("gallery[%d]: url is required", i))
		}
		if strings.TrimSpace(photo.Caption) == "" {
			problems = append(problems, fmt.Sprintf("gallery[%d]: caption is required", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("seed file is invalid: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Applier writes seed bundles into the stores.
type Applier struct {
	stores      Stores
	idGenerator func() string
	now         func() time.Time
}

// NewApplier wires an applier against the supplied stores.
func NewApplier(stores Stores, idGenerator func() string, now func() time.Time) *Applier {
	if now == nil {
		now = time.Now
	}
	return &Applier{stores: stores, idGenerator: idGenerator, now: now}
}

// Apply inserts every record in the bundle. Records are created as-is with
// fresh identifiers; running Apply twice duplicates venues, jams and
// community items, so it is intended for empty databases only.
func (a *Applier) Apply(ctx context.Context, bundle Bundle) error {
	stamp := a.now().UTC()

	if bundle.SiteConfig != nil {
		cfg := application.SiteConfig{
			DefaultDay:     bundle.SiteConfig.DefaultDay,
			DefaultVenue:   bundle.SiteConfig.DefaultVenue,
			DefaultTime:    bundle.SiteConfig.DefaultTime,
			DefaultMapLink: bundle.SiteConfig.DefaultMapLink,
			UpdatedAt:      stamp,
		}
		if _, err := a.stores.Config.SetSiteConfig(ctx, cfg); err != nil {
			return fmt.Errorf("failed to seed site config: %w", err)
		}
	}

	for _, venue := range bundle.Venues {
		record := application.Venue{
			ID:        a.idGenerator(),
			Name:      strings.TrimSpace(venue.Name),
			MapLink:   venue.MapLink,
			ImageURL:  venue.ImageURL,
			CreatedAt: stamp,
			UpdatedAt: stamp,
		}
		if _, err := a.stores.Venues.CreateVenue(ctx, record); err != nil {
			return fmt.Errorf("failed to seed venue %q: %w", record.Name, err)
		}
	}

	for _, jam := range bundle.Jams {
		record := application.Jam{
			ID:        a.idGenerator(),
			Date:      jam.Date,
			Day:       jam.Day,
			Venue:     strings.TrimSpace(jam.Venue),
			Time:      jam.Time,
			MapLink:   jam.MapLink,
			Cancelled: jam.Cancelled,
			CreatedAt: stamp,
			UpdatedAt: stamp,
		}
		if record.Day == "" {
			if parsed, err := time.Parse("2006-01-02", record.Date); err == nil {
				record.Day = parsed.Weekday().String()
			}
		}
		if _, err := a.stores.Jams.CreateJam(ctx, record); err != nil {
			return fmt.Errorf("failed to seed jam on %s: %w", record.Date, err)
		}
	}

	for _, item := range bundle.Community {
		record := application.CommunityItem{
			ID:           a.idGenerator(),
			Type:         item.Type,
			Headline:     item.Headline,
			Description:  item.Description,
			ImageURL:     item.ImageURL,
			AmountRaised: item.AmountRaised,
			CharityName:  item.CharityName,
			CreatedAt:    stamp,
			UpdatedAt:    stamp,
		}
		if _, err := a.stores.Community.CreateCommunityItem(ctx, record); err != nil {
			return fmt.Errorf("failed to seed community item: %w", err)
		}
	}

	for _, event := range bundle.Events {
		record := application.SpecialEvent{
			ID:          a.idGenerator(),
			Title:       strings.TrimSpace(event.Title),
			StartDate:   event.StartDate,
			EndDate:     event.EndDate,
			Time:        event.Time,
			Venue:       event.Venue,
			MapLink:     event.MapLink,
			Description: event.Description,
			CreatedAt:   stamp,
			UpdatedAt:   stamp,
		}
		if _, err := a.stores.Events.CreateEvent(ctx, record); err != nil {
			return fmt.Errorf("failed to seed event %q: %w", record.Title, err)
		}
	}

	for _, photo := range bundle.Gallery {
		record := application.GalleryPhoto{
			ID:        a.idGenerator(),
			URL:       strings.TrimSpace(photo.URL),
			Caption:   photo.Caption,
			CreatedAt: stamp,
		}
		if _, err := a.stores.Gallery.CreateGalleryPhoto(ctx, record); err != nil {
			return fmt.Errorf("failed to seed gallery photo: %w", err)
		}
	}

	return nil
}
