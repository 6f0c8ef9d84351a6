package schedule

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		raw     string
		want    time.Time
		wantErr bool
	}{
		{name: "iso", raw: "2024-01-06", want: date(2024, time.January, 6)},
		{name: "iso without padding", raw: "2024-1-6", want: date(2024, time.January, 6)},
		{name: "legacy month day", raw: "Sep 21", want: date(2024, time.September, 21)},
		{name: "legacy with colon", raw: "Sep: 21", want: date(2024, time.September, 21)},
		{name: "legacy full month", raw: "September 21", want: date(2024, time.September, 21)},
		{name: "empty", raw: "", wantErr: true},
		{name: "garbage", raw: "not a date", wantErr: true},
		{name: "malformed iso", raw: "2024-13-45", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDate(tc.raw, 2024, time.UTC)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %v", tc.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDate(%q) failed: %v", tc.raw, err)
			}
			if !got.Equal(tc.want) {
				t.Fatalf("ParseDate(%q) = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}
}

func TestResolveWeekday(t *testing.T) {
	t.Parallel()

	cases := []struct {
		value string
		want  time.Weekday
	}{
		{"6", time.Saturday},
		{"0", time.Sunday},
		{"3", time.Wednesday},
		{"Saturday", time.Saturday},
		{"sunday", time.Sunday},
		{"", time.Saturday},
		{"9", time.Saturday},
		{"Someday", time.Saturday},
	}

	for _, tc := range cases {
		if got := ResolveWeekday(tc.value); got != tc.want {
			t.Errorf("ResolveWeekday(%q) = %v, want %v", tc.value, got, tc.want)
		}
	}
}

func TestProjector_Project(t *testing.T) {
	t.Parallel()

	// 2024-01-01 is a Monday.
	asOf := date(2024, time.January, 1)
	cfg := Config{DefaultDay: "6", DefaultVenue: "The Front Room", DefaultTime: "14:00"}

	t.Run("empty confirmed list fills with weekly proposals", func(t *testing.T) {
		t.Parallel()

		entries, dropped := NewProjector(time.UTC).Project(nil, cfg, asOf)
		if len(dropped) != 0 {
			t.Fatalf("expected no dropped jams, got %d", len(dropped))
		}
		if len(entries) != DefaultWindow {
			t.Fatalf("expected %d entries, got %d", DefaultWindow, len(entries))
		}

		want := []time.Time{
			date(2024, time.January, 6),
			date(2024, time.January, 13),
			date(2024, time.January, 20),
			date(2024, time.January, 27),
			date(2024, time.February, 3),
		}
		for i, entry := range entries {
			if !entry.Date.Equal(want[i]) {
				t.Errorf("entry %d date = %v, want %v", i, entry.Date, want[i])
			}
			if !entry.IsProposal {
				t.Errorf("entry %d should be a proposal", i)
			}
			if entry.ID != "proposal-"+want[i].Format("2006-01-02") {
				t.Errorf("entry %d id = %q", i, entry.ID)
			}
			if entry.Day != "Saturday" {
				t.Errorf("entry %d day = %q, want Saturday", i, entry.Day)
			}
			if entry.Venue != "The Front Room" || entry.Time != "14:00" {
				t.Errorf("entry %d did not take config defaults: %+v", i, entry)
			}
		}
	})

	t.Run("uses fallback literals when config is empty", func(t *testing.T) {
		t.Parallel()

		entries, _ := NewProjector(time.UTC).Project(nil, Config{DefaultDay: "6"}, asOf)
		if entries[0].Venue != "To be decided..." {
			t.Fatalf("expected fallback venue, got %q", entries[0].Venue)
		}
		if entries[0].Time != "2:00 PM" {
			t.Fatalf("expected fallback time, got %q", entries[0].Time)
		}
	})

	t.Run("includes jam dated exactly asOf and excludes the day before", func(t *testing.T) {
		t.Parallel()

		confirmed := []ConfirmedJam{
			{ID: "past", Date: "2023-12-31", Venue: "Old Spot"},
			{ID: "today", Date: "2024-01-01", Venue: "The Front Room"},
		}
		entries, _ := NewProjector(time.UTC).Project(confirmed, cfg, asOf)
		if entries[0].ID != "today" {
			t.Fatalf("expected boundary jam first, got %q", entries[0].ID)
		}
		for _, entry := range entries {
			if entry.ID == "past" {
				t.Fatal("jam before asOf must be excluded")
			}
		}
	})

	t.Run("synthesis never duplicates an occupied date", func(t *testing.T) {
		t.Parallel()

		confirmed := []ConfirmedJam{
			{ID: "jam-1", Date: "2024-01-06", Venue: "The Front Room"},
			{ID: "jam-2", Date: "2024-01-13", Venue: "The Front Room"},
		}
		entries, _ := NewProjector(time.UTC).Project(confirmed, cfg, asOf)
		if len(entries) != DefaultWindow {
			t.Fatalf("expected %d entries, got %d", DefaultWindow, len(entries))
		}
		seen := make(map[string]int)
		for _, entry := range entries {
			seen[entry.Date.Format("2006-01-02")]++
		}
		for day, count := range seen {
			if count > 1 {
				t.Errorf("date %s appears %d times", day, count)
			}
		}
		if !entries[2].IsProposal || !entries[2].Date.Equal(date(2024, time.January, 20)) {
			t.Fatalf("expected synthesis to resume after last confirmed entry, got %+v", entries[2])
		}
	})

	t.Run("keeps duplicate confirmed dates", func(t *testing.T) {
		t.Parallel()

		confirmed := []ConfirmedJam{
			{ID: "jam-a", Date: "2024-01-06"},
			{ID: "jam-b", Date: "2024-01-06"},
		}
		entries, _ := NewProjector(time.UTC).Project(confirmed, cfg, asOf)
		if entries[0].ID != "jam-a" || entries[1].ID != "jam-b" {
			t.Fatalf("expected both duplicates kept in order, got %q then %q", entries[0].ID, entries[1].ID)
		}
	})

	t.Run("cancelled jams stay in the projection and occupy their date", func(t *testing.T) {
		t.Parallel()

		confirmed := []ConfirmedJam{{ID: "jam-1", Date: "2024-01-06", Cancelled: true}}
		entries, _ := NewProjector(time.UTC).Project(confirmed, cfg, asOf)
		if !entries[0].Cancelled || entries[0].ID != "jam-1" {
			t.Fatalf("cancelled jam should remain first, got %+v", entries[0])
		}
		for _, entry := range entries[1:] {
			if entry.Date.Equal(date(2024, time.January, 6)) {
				t.Fatal("no proposal may replace a cancelled jam's date")
			}
		}
	})

	t.Run("off-day confirmed jams are kept and flagged special", func(t *testing.T) {
		t.Parallel()

		confirmed := []ConfirmedJam{{ID: "jam-1", Date: "2024-01-03", Day: "Wednesday"}}
		entries, _ := NewProjector(time.UTC).Project(confirmed, cfg, asOf)
		if entries[0].ID != "jam-1" || !entries[0].Special {
			t.Fatalf("expected off-day jam kept and flagged, got %+v", entries[0])
		}
		if entries[0].Cancelled || entries[0].IsProposal {
			t.Fatalf("off-day jam must remain a plain confirmed entry: %+v", entries[0])
		}
	})

	t.Run("drops unparsable dates without failing", func(t *testing.T) {
		t.Parallel()

		confirmed := []ConfirmedJam{
			{ID: "bad", Date: "someday"},
			{ID: "good", Date: "2024-01-06"},
		}
		entries, dropped := NewProjector(time.UTC).Project(confirmed, cfg, asOf)
		if len(dropped) != 1 || dropped[0].ID != "bad" {
			t.Fatalf("expected one dropped jam, got %+v", dropped)
		}
		if len(entries) != DefaultWindow || entries[0].ID != "good" {
			t.Fatalf("projection should continue with the good record: %+v", entries)
		}
	})

	t.Run("output is sorted non-decreasing by date", func(t *testing.T) {
		t.Parallel()

		confirmed := []ConfirmedJam{
			{ID: "later", Date: "2024-01-13"},
			{ID: "sooner", Date: "2024-01-02"},
		}
		entries, _ := NewProjector(time.UTC).Project(confirmed, cfg, asOf)
		for i := 1; i < len(entries); i++ {
			if entries[i].Date.Before(entries[i-1].Date) {
				t.Fatalf("entries out of order at %d: %v before %v", i, entries[i].Date, entries[i-1].Date)
			}
		}
	})

	t.Run("truncates to the window when confirmed jams overflow", func(t *testing.T) {
		t.Parallel()

		confirmed := make([]ConfirmedJam, 0, 7)
		for day := 2; day <= 8; day++ {
			confirmed = append(confirmed, ConfirmedJam{
				ID:   "jam-" + string(rune('a'+day)),
				Date: date(2024, time.January, day).Format("2006-01-02"),
			})
		}
		entries, _ := NewProjector(time.UTC).Project(confirmed, cfg, asOf)
		if len(entries) != DefaultWindow {
			t.Fatalf("expected %d entries, got %d", DefaultWindow, len(entries))
		}
		for _, entry := range entries {
			if entry.IsProposal {
				t.Fatalf("no proposals expected when confirmed jams fill the window: %+v", entry)
			}
		}
	})

	t.Run("weekday name config matches numeric config", func(t *testing.T) {
		t.Parallel()

		byName, _ := NewProjector(time.UTC).Project(nil, Config{DefaultDay: "Saturday"}, asOf)
		byIndex, _ := NewProjector(time.UTC).Project(nil, Config{DefaultDay: "6"}, asOf)
		for i := range byName {
			if !byName[i].Date.Equal(byIndex[i].Date) {
				t.Fatalf("entry %d differs: %v vs %v", i, byName[i].Date, byIndex[i].Date)
			}
		}
	})
}

func TestFormatTime(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in, want string
	}{
		{"14:00", "2:00 PM"},
		{"02:30", "2:30 AM"},
		{"00:15", "12:15 AM"},
		{"12:00", "12:00 PM"},
		{"2:00 PM", "2:00 PM"},
		{"afternoon", "afternoon"},
	}
	for _, tc := range cases {
		if got := FormatTime(tc.in); got != tc.want {
			t.Errorf("FormatTime(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
