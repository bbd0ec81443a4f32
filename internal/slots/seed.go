package slots

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// seedFile is the JSON shape accepted by LoadSeedFile.
type seedFile struct {
	Doctors []seedDoctor `json:"doctors"`
}

type seedDoctor struct {
	Name string   `json:"name"`
	Days []string `json:"days,omitempty"`
	// DaysAhead generates the given number of days starting tomorrow
	// when no explicit day list is provided.
	DaysAhead int `json:"days_ahead,omitempty"`
}

// LoadSeedFile reads doctor inventory from a JSON file and expands it
// into hourly slots within office hours.
func LoadSeedFile(path string, loc *time.Location, openHour, closeHour int) ([]Slot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("slots: read seed file: %w", err)
	}
	var f seedFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("slots: parse seed file: %w", err)
	}

	var out []Slot
	for _, doc := range f.Doctors {
		days := doc.Days
		if len(days) == 0 {
			ahead := doc.DaysAhead
			if ahead <= 0 {
				ahead = 14
			}
			start := time.Now().In(loc).AddDate(0, 0, 1)
			for i := 0; i < ahead; i++ {
				days = append(days, start.AddDate(0, 0, i).Format(DateLayout))
			}
		}
		for _, day := range days {
			slots, err := GenerateDay(doc.Name, day, loc, openHour, closeHour)
			if err != nil {
				return nil, err
			}
			out = append(out, slots...)
		}
	}
	return out, nil
}

// GenerateDay builds hourly open slots for one doctor and date within
// office hours.
func GenerateDay(doctor, date string, loc *time.Location, openHour, closeHour int) ([]Slot, error) {
	day, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return nil, fmt.Errorf("slots: bad seed date %q: %w", date, err)
	}
	if closeHour <= openHour {
		return nil, fmt.Errorf("slots: close hour %d must be after open hour %d", closeHour, openHour)
	}

	out := make([]Slot, 0, closeHour-openHour)
	for hour := openHour; hour < closeHour; hour++ {
		start := day.Add(time.Duration(hour) * time.Hour)
		out = append(out, Slot{
			ID:        uuid.New().String(),
			Doctor:    doctor,
			Date:      date,
			Start:     start,
			End:       start.Add(time.Hour),
			Available: true,
		})
	}
	return out, nil
}
